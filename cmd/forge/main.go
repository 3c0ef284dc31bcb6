package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "forge",
		Usage: "Solana token creation and lock management CLI",
		Description: `A command-line tool for creating tokens through the forge program and
managing token locks, burns, and wallet holdings.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			tokenCommands(),
			lockCommands(),
			vanityCommands(),
			walletCommands(),
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Ledger JSON-RPC endpoint",
				EnvVars: []string{"FORGE_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "keypair",
				Usage:   "Path to the wallet keypair file",
				EnvVars: []string{"FORGE_KEYPAIR"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging on stderr",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
