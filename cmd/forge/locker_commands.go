package main

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"

	"github.com/dloomlabs/forge/service/accounts"
	"github.com/dloomlabs/forge/service/locker"
	solanaclient "github.com/dloomlabs/forge/service/solana"
	"github.com/dloomlabs/forge/service/tokenmeta"
)

type lockerBurnItem = locker.BurnItem

func lockCommands() *cli.Command {
	return &cli.Command{
		Name:  "lock",
		Usage: "Token lock management commands",
		Subcommands: []*cli.Command{
			lockCreateCommand(),
			lockListCommand(),
			lockWithdrawCommand(),
			lockBurnCommand(),
			lockCloseCommand(),
		},
	}
}

func lockCreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Escrow tokens until an unlock time",
		ArgsUsage: "MINT AMOUNT",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "for", Usage: "Lock duration from now (e.g. 720h)"},
			&cli.TimestampFlag{Name: "until", Layout: time.RFC3339, Usage: "Absolute unlock time (RFC3339)"},
			&cli.UintFlag{Name: "decimals", Value: 9, Usage: "Mint decimals"},
			&cli.Uint64Flag{Name: "lock-id", Usage: "Lock identifier (defaults to the current unix millis)"},
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

			var unlockTime time.Time
			switch {
			case c.Timestamp("until") != nil && !c.Timestamp("until").IsZero():
				unlockTime = *c.Timestamp("until")
			case c.Duration("for") > 0:
				unlockTime = time.Now().Add(c.Duration("for"))
			default:
				return fmt.Errorf("either --for or --until is required")
			}

			sess, err := newSession(c)
			if err != nil {
				return err
			}

			amount, err := solanaclient.ToBaseUnits(c.Args().Get(1), uint8(c.Uint("decimals")))
			if err != nil {
				return err
			}

			lockID := c.Uint64("lock-id")
			if lockID == 0 {
				lockID = uint64(time.Now().UnixMilli())
			}

			sig, err := sess.lockerService().CreateLock(c.Context, sess.signer,
				mint, tokenProgramFlag(c), amount, unlockTime, lockID, phasePrinter(c))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				fmt.Printf(`{"signature": %q, "lock_id": %d}`+"\n", sig, lockID)
				return nil
			}
			fmt.Printf("✓ Tokens locked\n")
			fmt.Printf("  Lock ID: %d\n", lockID)
			fmt.Printf("  Unlocks: %s\n", unlockTime.UTC().Format(time.RFC3339))
			fmt.Printf("  Signature: %s\n", sig)
			return nil
		},
	}
}

func lockListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the wallet's active locks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "Wallet to inspect (defaults to the configured keypair)"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
			&cli.StringFlag{Name: "jq", Usage: "jq filter applied to each lock"},
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

			records, err := sess.lockerService().Locks(c.Context, owner)
			if err != nil {
				return err
			}

			views := hydrateLocks(c, sess, records)
			now := time.Now().Unix()
			return printItems(c, views, func(v lockView) {
				state := "locked"
				if v.Unlocked(now) {
					state = "unlocked"
				}
				fmt.Printf("lock %d  %s (%s)  amount %s  %s (until %s)\n",
					v.LockID, v.Name, v.Symbol, v.UIAmount, state,
					time.Unix(v.UnlockTimestamp, 0).UTC().Format(time.RFC3339))
			})
		},
	}
}

// lockView is a lock record hydrated with the mint's metadata and decimals
// for display.
type lockView struct {
	*accounts.LockRecord
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	UIAmount string `json:"ui_amount"`
}

// hydrateLocks attaches names, symbols, and UI amounts to lock records.
// Hydration failures leave placeholder fields; they never drop a lock.
func hydrateLocks(c *cli.Context, sess *session, records []*accounts.LockRecord) []lockView {
	resolver := sess.resolver()
	views := make([]lockView, 0, len(records))
	for _, r := range records {
		v := lockView{
			LockRecord: r,
			Name:       tokenmeta.UnknownName,
			Symbol:     tokenmeta.UnknownSymbol,
			UIAmount:   fmt.Sprintf("%d", r.Amount),
		}
		if res, err := sess.client.GetAccountInfo(c.Context, r.Mint); err == nil && res != nil && res.Value != nil {
			if m, err := accounts.DecodeMint(r.Mint, res.Value.Data.GetBinary()); err == nil {
				v.Decimals = m.Decimals
				v.UIAmount = solanaclient.FormatBaseUnits(r.Amount, m.Decimals)
			}
		}
		if meta, err := resolver.Resolve(c.Context, r.Mint); err == nil {
			v.Name = meta.Name
			v.Symbol = meta.Symbol
		}
		views = append(views, v)
	}
	return views
}

// findLock fetches the owner's lock with the given ID.
func findLock(c *cli.Context, sess *session, lockID uint64) (*accounts.LockRecord, error) {
	records, err := sess.lockerService().Locks(c.Context, sess.signer.PublicKey())
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.LockID == lockID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no lock with ID %d found for this wallet", lockID)
}

func lockWithdrawCommand() *cli.Command {
	return &cli.Command{
		Name:      "withdraw",
		Usage:     "Withdraw an unlocked lock back to the wallet",
		ArgsUsage: "LOCK_ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "token-2022", Usage: "Mint lives under the extensions token program"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("lock ID is required")
			}
			var lockID uint64
			if _, err := fmt.Sscanf(c.Args().Get(0), "%d", &lockID); err != nil {
				return fmt.Errorf("invalid lock ID: %w", err)
			}

			sess, err := newSession(c)
			if err != nil {
				return err
			}
			rec, err := findLock(c, sess, lockID)
			if err != nil {
				return err
			}

			sig, err := sess.lockerService().Withdraw(c.Context, sess.signer, rec, tokenProgramFlag(c), phasePrinter(c))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				fmt.Printf(`{"signature": %q}`+"\n", sig)
				return nil
			}
			fmt.Printf("✓ Withdrawal confirmed\n")
			fmt.Printf("  Signature: %s\n", sig)
			return nil
		},
	}
}

func lockBurnCommand() *cli.Command {
	return &cli.Command{
		Name:      "burn",
		Usage:     "Burn tokens directly out of a lock's vault",
		ArgsUsage: "LOCK_ID AMOUNT",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "decimals", Value: 9, Usage: "Mint decimals"},
			&cli.BoolFlag{Name: "token-2022", Usage: "Mint lives under the extensions token program"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("lock ID and amount are required")
			}
			var lockID uint64
			if _, err := fmt.Sscanf(c.Args().Get(0), "%d", &lockID); err != nil {
				return fmt.Errorf("invalid lock ID: %w", err)
			}

			sess, err := newSession(c)
			if err != nil {
				return err
			}
			rec, err := findLock(c, sess, lockID)
			if err != nil {
				return err
			}

			amount, err := solanaclient.ToBaseUnits(c.Args().Get(1), uint8(c.Uint("decimals")))
			if err != nil {
				return err
			}

			sig, err := sess.lockerService().BurnFromLock(c.Context, sess.signer, rec, tokenProgramFlag(c), amount, phasePrinter(c))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				fmt.Printf(`{"signature": %q}`+"\n", sig)
				return nil
			}
			fmt.Printf("✓ Burn confirmed\n")
			fmt.Printf("  Signature: %s\n", sig)
			return nil
		},
	}
}

func lockCloseCommand() *cli.Command {
	return &cli.Command{
		Name:      "close",
		Usage:     "Reclaim the rent of a drained lock",
		ArgsUsage: "LOCK_ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "token-2022", Usage: "Mint lives under the extensions token program"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("lock ID is required")
			}
			var lockID uint64
			if _, err := fmt.Sscanf(c.Args().Get(0), "%d", &lockID); err != nil {
				return fmt.Errorf("invalid lock ID: %w", err)
			}

			sess, err := newSession(c)
			if err != nil {
				return err
			}
			rec, err := findLock(c, sess, lockID)
			if err != nil {
				return err
			}

			sig, err := sess.lockerService().CloseVault(c.Context, sess.signer, rec, tokenProgramFlag(c), phasePrinter(c))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				fmt.Printf(`{"signature": %q}`+"\n", sig)
				return nil
			}
			fmt.Printf("✓ Vault closed\n")
			fmt.Printf("  Signature: %s\n", sig)
			return nil
		},
	}
}

// runBurnBatch executes wallet burns sequentially and reports per-item
// outcomes. A failing item does not abort the remainder.
func runBurnBatch(c *cli.Context, sess *session, items []lockerBurnItem) error {
	outcomes := sess.lockerService().BurnBatch(c.Context, sess.signer, items, func(i int, o locker.BurnOutcome) {
		if c.Bool("json") {
			return
		}
		if o.Err != nil {
			fmt.Printf("✗ %s: %v\n", o.Item.Mint, o.Err)
		} else {
			fmt.Printf("✓ %s burned (%s)\n", o.Item.Mint, o.Signature)
		}
	})

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}

	if c.Bool("json") {
		type outcomeJSON struct {
			Mint      string `json:"mint"`
			Signature string `json:"signature,omitempty"`
			Error     string `json:"error,omitempty"`
		}
		out := make([]outcomeJSON, 0, len(outcomes))
		for _, o := range outcomes {
			oj := outcomeJSON{Mint: o.Item.Mint.String()}
			if !o.Signature.IsZero() {
				oj.Signature = o.Signature.String()
			}
			if o.Err != nil {
				oj.Error = o.Err.Error()
			}
			out = append(out, oj)
		}
		return printItems(c, out, nil)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d burns failed", failed, len(outcomes))
	}
	return nil
}
