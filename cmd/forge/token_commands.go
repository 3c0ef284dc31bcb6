package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"

	"github.com/dloomlabs/forge/service/factory"
	"github.com/dloomlabs/forge/service/forge"
	"github.com/dloomlabs/forge/service/holdings"
	solanaclient "github.com/dloomlabs/forge/service/solana"
)

func tokenCommands() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Token creation and management commands",
		Subcommands: []*cli.Command{
			tokenCreateCommand(),
			tokenHoldingsCommand(),
			tokenTransferCommand(),
			tokenMintCommand(),
			tokenBurnCommand(),
		},
	}
}

func tokenCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new token through the forge program",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Token name", Required: true},
			&cli.StringFlag{Name: "symbol", Usage: "Token symbol", Required: true},
			&cli.StringFlag{Name: "description", Usage: "Token description"},
			&cli.StringFlag{Name: "image", Usage: "Path to a logo image to upload"},
			&cli.StringFlag{Name: "image-url", Usage: "URL of already hosted artwork"},
			&cli.StringFlag{Name: "website", Usage: "Project website"},
			&cli.StringFlag{Name: "twitter", Usage: "Twitter/X profile URL"},
			&cli.StringFlag{Name: "telegram", Usage: "Telegram group URL"},
			&cli.UintFlag{Name: "decimals", Value: 9, Usage: "Mint decimals (0-9)"},
			&cli.StringFlag{Name: "supply", Usage: "Initial supply in whole tokens", Required: true},
			&cli.BoolFlag{Name: "token-2022", Usage: "Create under the extensions token program"},
			&cli.UintFlag{Name: "transfer-fee-bps", Usage: "Transfer fee in basis points (token-2022 only)"},
			&cli.IntFlag{Name: "interest-rate", Usage: "Interest rate in basis points (token-2022 only)"},
			&cli.BoolFlag{Name: "non-transferable", Usage: "Make tokens non-transferable (token-2022 only)"},
			&cli.BoolFlag{Name: "permanent-delegate", Usage: "Grant the creator a permanent delegate (token-2022 only)"},
			&cli.BoolFlag{Name: "revoke-update-authority", Usage: "Revoke the metadata update authority at creation"},
			&cli.BoolFlag{Name: "revoke-mint-authority", Usage: "Revoke the mint authority at creation (fixed supply)"},
			&cli.StringFlag{Name: "vanity-prefix", Usage: "Grind a mint address starting with this prefix"},
			&cli.StringFlag{Name: "mint-keypair", Usage: "Path to a pre-ground mint keypair file"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			sess, err := newSession(c)
			if err != nil {
				return err
			}

			standard := forge.StandardFungible
			if c.Bool("token-2022") {
				standard = forge.StandardFungible2022
			}

			params := factory.CreateParams{
				Name:                   c.String("name"),
				Symbol:                 c.String("symbol"),
				Description:            c.String("description"),
				ImageURL:               c.String("image-url"),
				Website:                c.String("website"),
				Twitter:                c.String("twitter"),
				Telegram:               c.String("telegram"),
				Decimals:               uint8(c.Uint("decimals")),
				Supply:                 c.String("supply"),
				Standard:               standard,
				TransferFeeBasisPoints: uint16(c.Uint("transfer-fee-bps")),
				InterestRate:           int16(c.Int("interest-rate")),
				NonTransferable:        c.Bool("non-transferable"),
				PermanentDelegate:      c.Bool("permanent-delegate"),
				RevokeUpdateAuthority:  c.Bool("revoke-update-authority"),
				RevokeMintAuthority:    c.Bool("revoke-mint-authority"),
				VanityPrefix:           c.String("vanity-prefix"),
			}

			if path := c.String("image"); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open image: %w", err)
				}
				defer f.Close()
				params.Image = f
				params.ImageName = filepath.Base(path)
			}

			if path := c.String("mint-keypair"); path != "" {
				key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
				if err != nil {
					return fmt.Errorf("failed to load mint keypair: %w", err)
				}
				params.MintKey = &key
			}

			res, err := sess.tokenFactory().Create(c.Context, sess.signer, params, phasePrinter(c))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return printItems(c, []*factory.CreateResult{res}, nil)
			}
			fmt.Printf("✓ Token created\n")
			fmt.Printf("  Mint: %s\n", res.Mint)
			fmt.Printf("  Signature: %s\n", res.Signature)
			if res.MetadataURI != "" {
				fmt.Printf("  Metadata: %s\n", res.MetadataURI)
			}
			return nil
		},
	}
}

func tokenHoldingsCommand() *cli.Command {
	return &cli.Command{
		Name:    "holdings",
		Aliases: []string{"list", "ls"},
		Usage:   "List the wallet's fungible token holdings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "Wallet to inspect (defaults to the configured keypair)"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
			&cli.StringFlag{Name: "jq", Usage: "jq filter applied to each holding"},
		},
		Action: func(c *cli.Context) error {
			sess, err := newSession(c)
			if err != nil {
				return err
			}

			owner := sess.signer.PublicKey()
			if s := c.String("owner"); s != "" {
				owner, err = solana.PublicKeyFromBase58(s)
				if err != nil {
					return fmt.Errorf("invalid owner address: %w", err)
				}
			}

			syncer := sess.syncer()
			held, err := syncer.Refresh(c.Context, owner)
			if err != nil {
				return err
			}

			if !c.Bool("json") && c.String("jq") == "" {
				if lamports, err := syncer.NativeBalance(c.Context, owner); err == nil {
					fmt.Printf("SOL  %.9f\n", float64(lamports)/float64(solana.LAMPORTS_PER_SOL))
				}
			}

			return printItems(c, held, func(h holdings.Holding) {
				name := "?"
				if h.Meta != nil {
					name = fmt.Sprintf("%s (%s)", h.Meta.Name, h.Meta.Symbol)
				}
				fmt.Printf("%s  %s  %s\n", h.Mint, h.UIAmount, name)
			})
		},
	}
}

func tokenTransferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Aliases:   []string{"send"},
		Usage:     "Transfer tokens to another wallet",
		ArgsUsage: "MINT DESTINATION AMOUNT",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "decimals", Value: 9, Usage: "Mint decimals"},
			&cli.BoolFlag{Name: "token-2022", Usage: "Mint lives under the extensions token program"},
			&cli.StringFlag{Name: "label", Usage: "Label to remember the destination under"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 3 {
				return fmt.Errorf("mint, destination, and amount are required")
			}
			mint, err := solana.PublicKeyFromBase58(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid mint address: %w", err)
			}
			dest, err := solana.PublicKeyFromBase58(c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("invalid destination address: %w", err)
			}

			sess, err := newSession(c)
			if err != nil {
				return err
			}

			decimals := uint8(c.Uint("decimals"))
			amount, err := solanaclient.ToBaseUnits(c.Args().Get(2), decimals)
			if err != nil {
				return err
			}

			sig, err := sess.tokenFactory().Transfer(c.Context, sess.signer,
				mint, tokenProgramFlag(c), dest, amount, decimals, phasePrinter(c))
			if err != nil {
				return err
			}

			// Remember the destination for next time.
			if err := sess.contactsStore().Record(sess.signer.PublicKey(), dest, c.String("label")); err != nil {
				sess.logger.Warn("failed to record contact", "error", err)
			}

			if c.Bool("json") {
				fmt.Printf(`{"signature": %q}`+"\n", sig)
				return nil
			}
			fmt.Printf("✓ Transfer confirmed\n")
			fmt.Printf("  Signature: %s\n", sig)
			return nil
		},
	}
}

func tokenMintCommand() *cli.Command {
	return &cli.Command{
		Name:      "mint",
		Usage:     "Mint additional supply of a token you hold the authority for",
		ArgsUsage: "MINT AMOUNT",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "decimals", Value: 9, Usage: "Mint decimals"},
			&cli.BoolFlag{Name: "token-2022", Usage: "Mint lives under the extensions token program"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("mint and amount are required")
			}
			mint, err := solana.PublicKeyFromBase58(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid mint address: %w", err)
			}

			sess, err := newSession(c)
			if err != nil {
				return err
			}

			amount, err := solanaclient.ToBaseUnits(c.Args().Get(1), uint8(c.Uint("decimals")))
			if err != nil {
				return err
			}

			sig, err := sess.tokenFactory().MintMore(c.Context, sess.signer,
				mint, tokenProgramFlag(c), amount, phasePrinter(c))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				fmt.Printf(`{"signature": %q}`+"\n", sig)
				return nil
			}
			fmt.Printf("✓ Supply expanded\n")
			fmt.Printf("  Signature: %s\n", sig)
			return nil
		},
	}
}

func tokenBurnCommand() *cli.Command {
	return &cli.Command{
		Name:      "burn",
		Usage:     "Permanently destroy tokens held in the wallet",
		ArgsUsage: "MINT AMOUNT [MINT AMOUNT]...",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "decimals", Value: 9, Usage: "Mint decimals"},
			&cli.BoolFlag{Name: "token-2022", Usage: "Mints live under the extensions token program"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 || c.NArg()%2 != 0 {
				return fmt.Errorf("arguments must be MINT AMOUNT pairs")
			}

			sess, err := newSession(c)
			if err != nil {
				return err
			}

			decimals := uint8(c.Uint("decimals"))
			tokenProgram := tokenProgramFlag(c)

			var items []lockerBurnItem
			for i := 0; i < c.NArg(); i += 2 {
				mint, err := solana.PublicKeyFromBase58(c.Args().Get(i))
				if err != nil {
					return fmt.Errorf("invalid mint address %q: %w", c.Args().Get(i), err)
				}
				amount, err := solanaclient.ToBaseUnits(c.Args().Get(i+1), decimals)
				if err != nil {
					return err
				}
				items = append(items, lockerBurnItem{Mint: mint, TokenProgram: tokenProgram, Amount: amount})
			}

			return runBurnBatch(c, sess, items)
		},
	}
}
