package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v2"

	"github.com/dloomlabs/forge/service/contacts"
	"github.com/dloomlabs/forge/service/derive"
)

func walletCommands() *cli.Command {
	return &cli.Command{
		Name:  "wallet",
		Usage: "Wallet inspection commands",
		Subcommands: []*cli.Command{
			walletAddressCommand(),
			walletBalanceCommand(),
			walletContactsCommand(),
		},
	}
}

func walletAddressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Show the configured wallet's address",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "qr", Usage: "Render the address as a terminal QR code"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			sess, err := newSession(c)
			if err != nil {
				return err
			}
			address := sess.signer.PublicKey()

			if c.Bool("json") {
				fmt.Printf(`{"address": %q}`+"\n", address)
				return nil
			}

			fmt.Println(address)
			if c.Bool("qr") {
				qr, err := qrcode.New(address.String(), qrcode.Medium)
				if err != nil {
					return fmt.Errorf("failed to render QR code: %w", err)
				}
				fmt.Print(qr.ToSmallString(false))
			}
			return nil
		},
	}
}

func walletBalanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Show the wallet's native balance, or a token balance with --mint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "Wallet to inspect (defaults to the configured keypair)"},
			&cli.StringFlag{Name: "mint", Usage: "Show the balance of this token instead of SOL"},
			&cli.BoolFlag{Name: "token-2022", Usage: "Mint lives under the extensions token program"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
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

			if s := c.String("mint"); s != "" {
				mint, err := solana.PublicKeyFromBase58(s)
				if err != nil {
					return fmt.Errorf("invalid mint address: %w", err)
				}
				tokenAccount, _, err := derive.AssociatedTokenAddress(owner, mint, tokenProgramFlag(c))
				if err != nil {
					return err
				}
				bal, err := sess.client.GetTokenAccountBalance(c.Context, tokenAccount, rpc.CommitmentConfirmed)
				if err != nil {
					return err
				}
				if c.Bool("json") {
					fmt.Printf(`{"address": %q, "mint": %q, "amount": %q, "ui_amount": %q}`+"\n",
						owner, mint, bal.Value.Amount, bal.Value.UiAmountString)
					return nil
				}
				fmt.Printf("%s: %s (mint %s)\n", owner, bal.Value.UiAmountString, mint)
				return nil
			}

			res, err := sess.client.GetBalance(c.Context, owner, rpc.CommitmentConfirmed)
			if err != nil {
				return err
			}
			sol := float64(res.Value) / float64(solana.LAMPORTS_PER_SOL)

			if c.Bool("json") {
				fmt.Printf(`{"address": %q, "lamports": %d, "sol": %f}`+"\n", owner, res.Value, sol)
				return nil
			}
			fmt.Printf("%s: %.9f SOL\n", owner, sol)
			return nil
		},
	}
}

func walletContactsCommand() *cli.Command {
	return &cli.Command{
		Name:  "contacts",
		Usage: "Recently used transfer destinations",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List remembered destinations, most recent first",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
					&cli.StringFlag{Name: "jq", Usage: "jq filter applied to each contact"},
				},
				Action: func(c *cli.Context) error {
					sess, err := newSession(c)
					if err != nil {
						return err
					}
					list, err := sess.contactsStore().List(sess.signer.PublicKey())
					if err != nil {
						return err
					}
					return printItems(c, list, func(ct contacts.Contact) {
						label := ct.Label
						if label == "" {
							label = "-"
						}
						fmt.Printf("%s  %s  %s\n", ct.Address, label, ct.LastUsed.Format("2006-01-02 15:04"))
					})
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Forget a destination",
				ArgsUsage: "ADDRESS",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return fmt.Errorf("address is required")
					}
					address, err := solana.PublicKeyFromBase58(c.Args().Get(0))
					if err != nil {
						return fmt.Errorf("invalid address: %w", err)
					}
					sess, err := newSession(c)
					if err != nil {
						return err
					}
					if err := sess.contactsStore().Remove(sess.signer.PublicKey(), address); err != nil {
						return err
					}
					fmt.Printf("✓ Contact removed\n")
					return nil
				},
			},
		},
	}
}
