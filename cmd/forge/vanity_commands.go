package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dloomlabs/forge/service/vanity"
)

func vanityCommands() *cli.Command {
	return &cli.Command{
		Name:  "vanity",
		Usage: "Vanity address search commands",
		Subcommands: []*cli.Command{
			vanityGrindCommand(),
		},
	}
}

func vanityGrindCommand() *cli.Command {
	return &cli.Command{
		Name:      "grind",
		Usage:     "Search for keypairs whose address starts with a prefix",
		ArgsUsage: "PREFIX",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: vanity.DefaultResultLimit, Usage: "Stop after finding this many matches"},
			&cli.IntFlag{Name: "scan-limit", Value: vanity.DefaultScanLimit, Usage: "Give up after scanning this many keys"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("prefix is required")
			}
			prefix := c.Args().Get(0)

			// Grinding needs no config or network access.
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
			grinder := vanity.NewGrinder(logger, nil)
			grinder.ResultLimit = c.Int("limit")
			grinder.ScanLimit = c.Int("scan-limit")

			var onProgress func(vanity.Progress)
			if !c.Bool("json") {
				onProgress = func(p vanity.Progress) {
					fmt.Fprintf(os.Stderr, "  scanned %d keys (%.0f keys/s), %d match(es)\n",
						p.Scanned, p.KeysPerSecond, p.Matches)
				}
			}

			matches, err := grinder.Grind(c.Context, prefix, onProgress)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				type matchJSON struct {
					PublicKey  string `json:"public_key"`
					PrivateKey string `json:"private_key"`
				}
				out := make([]matchJSON, 0, len(matches))
				for _, m := range matches {
					out = append(out, matchJSON{
						PublicKey:  m.PublicKey.String(),
						PrivateKey: m.PrivateKey.String(),
					})
				}
				return printItems(c, out, nil)
			}

			if len(matches) == 0 {
				fmt.Printf("No matches for %q within the scan limit\n", prefix)
				return nil
			}
			for _, m := range matches {
				fmt.Printf("%s  %s\n", m.PublicKey, m.PrivateKey)
			}
			return nil
		},
	}
}
