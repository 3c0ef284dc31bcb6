// Package holdings synchronizes a wallet's fungible token balances with
// the ledger and merges them with optimistic local state.
package holdings

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/dloomlabs/forge/service/accounts"
	"github.com/dloomlabs/forge/service/forge"
	"github.com/dloomlabs/forge/service/metrics"
	solanaclient "github.com/dloomlabs/forge/service/solana"
	"github.com/dloomlabs/forge/service/tokenmeta"
)

// Holding is one fungible token position in a wallet.
type Holding struct {
	Mint         solana.PublicKey        `json:"mint"`
	TokenAccount solana.PublicKey        `json:"token_account"`
	TokenProgram solana.PublicKey        `json:"token_program"`
	Amount       uint64                  `json:"amount"`
	Decimals     uint8                   `json:"decimals"`
	UIAmount     string                  `json:"ui_amount"`
	Extensions   accounts.MintExtensions `json:"extensions"`
	Meta         *tokenmeta.TokenMeta    `json:"meta,omitempty"`
	// Optimistic marks a holding known only from a local submission that
	// the ledger has not reflected yet.
	Optimistic bool `json:"optimistic,omitempty"`
}

// Syncer refreshes wallet holdings from the ledger.
type Syncer struct {
	client   *solanaclient.Client
	resolver *tokenmeta.Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewSyncer creates a Syncer. resolver may be nil to skip metadata
// hydration.
func NewSyncer(client *solanaclient.Client, resolver *tokenmeta.Resolver, logger *slog.Logger, m *metrics.Metrics) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		client:   client,
		resolver: resolver,
		logger:   logger,
		metrics:  m,
	}
}

// Refresh lists owner's fungible holdings across both token programs.
// Balances of zero and NFT-shaped mints are excluded. A single
// undecodable account drops only that asset; the rest of the refresh
// proceeds.
func (s *Syncer) Refresh(ctx context.Context, owner solana.PublicKey) ([]Holding, error) {
	start := time.Now()

	raw, err := s.listTokenAccounts(ctx, owner)
	if err != nil {
		s.metrics.RecordHoldingsRefresh("error", time.Since(start).Seconds())
		return nil, err
	}

	// One batched mint lookup covers every held asset.
	mintKeys := make([]solana.PublicKey, 0, len(raw))
	for _, h := range raw {
		mintKeys = append(mintKeys, h.Mint)
	}
	mints := make(map[solana.PublicKey]*accounts.Mint, len(mintKeys))
	if len(mintKeys) > 0 {
		res, err := s.client.GetMultipleAccounts(ctx, mintKeys...)
		if err != nil {
			s.metrics.RecordHoldingsRefresh("error", time.Since(start).Seconds())
			return nil, err
		}
		for i, acc := range res.Value {
			if acc == nil {
				s.dropAsset(mintKeys[i], "mint_missing", nil)
				continue
			}
			m, err := accounts.DecodeMint(mintKeys[i], acc.Data.GetBinary())
			if err != nil {
				s.dropAsset(mintKeys[i], "mint_corrupt", err)
				continue
			}
			mints[mintKeys[i]] = m
		}
	}

	out := make([]Holding, 0, len(raw))
	for _, h := range raw {
		mint, ok := mints[h.Mint]
		if !ok {
			continue
		}
		if mint.LikelyNFT() {
			continue
		}

		h.Decimals = mint.Decimals
		h.UIAmount = solanaclient.FormatBaseUnits(h.Amount, mint.Decimals)
		h.Extensions = mint.Extensions

		if s.resolver != nil {
			meta, err := s.resolver.Resolve(ctx, h.Mint)
			if err != nil {
				// Metadata is cosmetic; keep the holding.
				s.logger.Debug("metadata resolution failed", "mint", h.Mint, "error", err)
			} else {
				h.Meta = meta
			}
		}
		out = append(out, h)
	}

	s.metrics.RecordHoldingsRefresh("ok", time.Since(start).Seconds())
	return out, nil
}

// NativeBalance returns owner's lamport balance alongside a refresh.
func (s *Syncer) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	res, err := s.client.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

func (s *Syncer) dropAsset(mint solana.PublicKey, reason string, err error) {
	s.metrics.RecordHoldingDropped(reason)
	s.logger.Warn("dropping asset from refresh", "mint", mint, "reason", reason, "error", err)
}

// listTokenAccounts fetches and locally decodes owner's token accounts
// under both token programs, keeping only positive balances.
func (s *Syncer) listTokenAccounts(ctx context.Context, owner solana.PublicKey) ([]Holding, error) {
	programs := []solana.PublicKey{forge.TokenProgramID, forge.Token2022ProgramID}

	var out []Holding
	for _, program := range programs {
		res, err := s.client.GetTokenAccountsByOwner(ctx, owner,
			&rpc.GetTokenAccountsConfig{ProgramId: &program},
			&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
		)
		if err != nil {
			return nil, err
		}
		for _, keyed := range res.Value {
			acc, err := accounts.DecodeTokenAccount(keyed.Pubkey, keyed.Account.Data.GetBinary())
			if err != nil {
				s.dropAsset(keyed.Pubkey, "token_account_corrupt", err)
				continue
			}
			if acc.Amount == 0 {
				continue
			}
			out = append(out, Holding{
				Mint:         acc.Mint,
				TokenAccount: acc.Address,
				TokenProgram: program,
				Amount:       acc.Amount,
			})
		}
	}
	return out, nil
}

// Merge overlays optimistic holdings onto confirmed ledger state. The
// result is keyed by mint: a confirmed entry always wins over an
// optimistic one for the same mint, and optimistic entries for unseen
// mints are appended marked as such. Inputs are not mutated.
func Merge(confirmed, optimistic []Holding) []Holding {
	out := make([]Holding, len(confirmed))
	copy(out, confirmed)

	seen := make(map[solana.PublicKey]struct{}, len(confirmed))
	for _, h := range confirmed {
		seen[h.Mint] = struct{}{}
	}
	for _, h := range optimistic {
		if _, ok := seen[h.Mint]; ok {
			continue
		}
		h.Optimistic = true
		out = append(out, h)
	}
	return out
}
