package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/dloomlabs/forge/service/config"
	"github.com/dloomlabs/forge/service/contacts"
	"github.com/dloomlabs/forge/service/factory"
	"github.com/dloomlabs/forge/service/forge"
	"github.com/dloomlabs/forge/service/holdings"
	"github.com/dloomlabs/forge/service/locker"
	"github.com/dloomlabs/forge/service/metrics"
	"github.com/dloomlabs/forge/service/pinata"
	solanaclient "github.com/dloomlabs/forge/service/solana"
	"github.com/dloomlabs/forge/service/tokenmeta"
	"github.com/dloomlabs/forge/service/txn"
	"github.com/dloomlabs/forge/service/vanity"
)

// session wires together everything a command needs. Construction is
// cheap; nothing touches the network until a command does.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	client    *solanaclient.Client
	builder   *txn.Builder
	submitter *txn.Submitter
	signer    txn.Signer

	forgeProgram    solana.PublicKey
	lockerProgram   solana.PublicKey
	metadataProgram solana.PublicKey
}

// newSession builds a session from config plus CLI flag overrides.
func newSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if url := c.String("rpc-url"); url != "" {
		cfg.RPCURL = url
	}
	if path := c.String("keypair"); path != "" {
		cfg.KeypairPath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logLevel(cfg.LogLevel)
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	forgeProgram, err := solana.PublicKeyFromBase58(cfg.ForgeProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid forge program ID: %w", err)
	}
	lockerProgram, err := solana.PublicKeyFromBase58(cfg.LockerProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid locker program ID: %w", err)
	}
	metadataProgram, err := solana.PublicKeyFromBase58(cfg.MetadataProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata program ID: %w", err)
	}

	client := solanaclient.NewClient(solanaclient.NewRPCClient(cfg.RPCURL), logger, nil)
	submitter := txn.NewSubmitter(client, logger, nil)
	submitter.PollInterval = cfg.ConfirmPollInterval

	signer, err := txn.NewFileSigner(cfg.KeypairPath)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:             cfg,
		logger:          logger,
		client:          client,
		builder:         txn.NewBuilder(client),
		submitter:       submitter,
		signer:          signer,
		forgeProgram:    forgeProgram,
		lockerProgram:   lockerProgram,
		metadataProgram: metadataProgram,
	}, nil
}

func (s *session) resolver() *tokenmeta.Resolver {
	return tokenmeta.NewResolver(s.client, s.metadataProgram, s.cfg.MetadataFetchTimeout, s.logger)
}

func (s *session) syncer() *holdings.Syncer {
	return holdings.NewSyncer(s.client, s.resolver(), s.logger, s.metrics)
}

func (s *session) lockerService() *locker.Service {
	return locker.NewService(s.client, s.builder, s.submitter, s.forgeProgram, s.lockerProgram, s.logger)
}

func (s *session) tokenFactory() *factory.Factory {
	store := pinata.NewClient(s.cfg.PinataEndpoint, s.cfg.PinataGateway, s.cfg.PinataJWT, s.logger)
	grinder := vanity.NewGrinder(s.logger, s.metrics)
	return factory.NewFactory(s.client, s.builder, s.submitter, store, grinder, s.forgeProgram, s.logger)
}

func (s *session) contactsStore() *contacts.Store {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return contacts.NewStore(home + "/.config/forge/contacts.json")
}

// logLevel maps a config level name to a slog level. Unknown names fall
// back to warn; --verbose overrides to debug.
func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// tokenProgramFlag maps the --token-2022 flag to the owning program.
func tokenProgramFlag(c *cli.Context) solana.PublicKey {
	if c.Bool("token-2022") {
		return forge.Token2022ProgramID
	}
	return forge.TokenProgramID
}

// phasePrinter reports lifecycle transitions on stderr unless JSON output
// was requested.
func phasePrinter(c *cli.Context) txn.PhaseFunc {
	if c.Bool("json") {
		return nil
	}
	return func(p txn.Phase) {
		fmt.Fprintf(os.Stderr, "  [%s]\n", p)
	}
}

// printItems renders a slice as JSON lines or human output, optionally
// passing each item through a jq filter first.
func printItems[T any](c *cli.Context, items []T, human func(T)) error {
	jqExpr := c.String("jq")
	jsonOutput := c.Bool("json") || jqExpr != ""

	if !jsonOutput {
		for _, item := range items {
			human(item)
		}
		return nil
	}

	var code *gojq.Code
	if jqExpr != "" {
		query, err := gojq.Parse(jqExpr)
		if err != nil {
			return fmt.Errorf("failed to parse jq filter %q: %w", jqExpr, err)
		}
		code, err = gojq.Compile(query)
		if err != nil {
			return fmt.Errorf("failed to compile jq filter %q: %w", jqExpr, err)
		}
	}

	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if code == nil {
			fmt.Println(string(data))
			continue
		}

		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		iter := code.Run(generic)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				return fmt.Errorf("jq filter failed: %w", err)
			}
			out, err := json.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
	}
	return nil
}
