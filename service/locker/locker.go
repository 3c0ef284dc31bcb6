// Package locker orchestrates token locks: creating them, withdrawing,
// burning from wallets and locks, and reclaiming emptied vaults. All
// chain writes go through the forge program, which proxies into the
// locker program.
package locker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/dloomlabs/forge/service/accounts"
	"github.com/dloomlabs/forge/service/derive"
	"github.com/dloomlabs/forge/service/forge"
	solanaclient "github.com/dloomlabs/forge/service/solana"
	"github.com/dloomlabs/forge/service/txn"
)

// Service orchestrates lock operations.
type Service struct {
	client       *solanaclient.Client
	builder      *txn.Builder
	submitter    *txn.Submitter
	logger       *slog.Logger
	forgeProgram solana.PublicKey
	lockerProg   solana.PublicKey

	// now is stubbed in tests.
	now func() time.Time
}

// NewService creates a locker Service.
func NewService(client *solanaclient.Client, builder *txn.Builder, submitter *txn.Submitter, forgeProgram, lockerProgram solana.PublicKey, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:       client,
		builder:      builder,
		submitter:    submitter,
		logger:       logger,
		forgeProgram: forgeProgram,
		lockerProg:   lockerProgram,
		now:          time.Now,
	}
}

// Locks scans the locker program for all lock records owned by owner.
// Undecodable records are skipped with a warning.
func (s *Service) Locks(ctx context.Context, owner solana.PublicKey) ([]*accounts.LockRecord, error) {
	res, err := s.client.GetProgramAccounts(ctx, s.lockerProg, &rpc.GetProgramAccountsOpts{
		Encoding: solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{
				Memcmp: &rpc.RPCFilterMemcmp{
					Offset: accounts.LockRecordOwnerOffset,
					Bytes:  solana.Base58(owner.Bytes()),
				},
			},
		},
	})
	if err != nil {
		return nil, txn.ClassifyRPCError(err)
	}

	records := make([]*accounts.LockRecord, 0, len(res))
	for _, keyed := range res {
		rec, err := accounts.DecodeLockRecord(keyed.Pubkey, keyed.Account.Data.GetBinary())
		if err != nil {
			s.logger.Warn("skipping undecodable lock record", "address", keyed.Pubkey, "error", err)
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UnlockTimestamp < records[j].UnlockTimestamp
	})
	return records, nil
}

// CreateLock escrows amount base units of mint until unlockTime. lockID
// distinguishes concurrent locks of the same mint by the same owner.
func (s *Service) CreateLock(ctx context.Context, signer txn.Signer, mint, tokenProgram solana.PublicKey, amount uint64, unlockTime time.Time, lockID uint64, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseDeriving)
	if amount == 0 {
		return solana.Signature{}, txn.NewValidationError("lock amount must be positive")
	}
	if !unlockTime.After(s.now()) {
		return solana.Signature{}, txn.NewValidationError("unlock time %s is not in the future", unlockTime.Format(time.RFC3339))
	}

	owner := signer.PublicKey()
	lockRecord, _, err := derive.LockRecordAddress(s.lockerProg, owner, mint, lockID)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}
	vault, _, err := derive.VaultAddress(s.lockerProg, lockRecord)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}
	tokenAccount, _, err := derive.AssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}

	ix, err := forge.NewLockTokensInstruction(s.forgeProgram,
		forge.LockTokensAccounts{
			Owner:            owner,
			Mint:             mint,
			LockRecord:       lockRecord,
			Vault:            vault,
			UserTokenAccount: tokenAccount,
			LockerProgram:    s.lockerProg,
			TokenProgram:     tokenProgram,
		},
		forge.LockTokensArgs{
			Amount:          amount,
			UnlockTimestamp: unlockTime.Unix(),
			LockID:          lockID,
		},
	)
	if err != nil {
		return solana.Signature{}, txn.NewValidationError("failed to build lock instruction: %v", err)
	}

	return s.submit(ctx, signer, ix, onPhase)
}

// Withdraw releases the full balance of an unlocked lock back to the
// owner's token account. Locks that have not reached their unlock time are
// rejected client side.
func (s *Service) Withdraw(ctx context.Context, signer txn.Signer, rec *accounts.LockRecord, tokenProgram solana.PublicKey, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseDeriving)
	if !rec.Unlocked(s.now().Unix()) {
		return solana.Signature{}, txn.NewValidationError("lock %d does not unlock until %s",
			rec.LockID, time.Unix(rec.UnlockTimestamp, 0).UTC().Format(time.RFC3339))
	}

	owner := signer.PublicKey()
	tokenAccount, _, err := derive.AssociatedTokenAddress(owner, rec.Mint, tokenProgram)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}

	ix, err := forge.NewWithdrawTokensInstruction(s.forgeProgram,
		forge.WithdrawTokensAccounts{
			Owner:            owner,
			LockRecord:       rec.Address,
			Vault:            rec.Vault,
			UserTokenAccount: tokenAccount,
			Mint:             rec.Mint,
			TokenProgram:     tokenProgram,
			LockerProgram:    s.lockerProg,
		},
		forge.WithdrawTokensArgs{LockID: rec.LockID},
	)
	if err != nil {
		return solana.Signature{}, txn.NewValidationError("failed to build withdraw instruction: %v", err)
	}

	return s.submit(ctx, signer, ix, onPhase)
}

// BurnFromWallet permanently destroys amount base units held in the
// signer's token account.
func (s *Service) BurnFromWallet(ctx context.Context, signer txn.Signer, mint, tokenProgram solana.PublicKey, amount uint64, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseDeriving)
	if amount == 0 {
		return solana.Signature{}, txn.NewValidationError("burn amount must be positive")
	}

	burner := signer.PublicKey()
	tokenAccount, _, err := derive.AssociatedTokenAddress(burner, mint, tokenProgram)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}

	ix, err := forge.NewBurnFromWalletInstruction(s.forgeProgram,
		forge.BurnFromWalletAccounts{
			Burner:           burner,
			Mint:             mint,
			UserTokenAccount: tokenAccount,
			LockerProgram:    s.lockerProg,
			TokenProgram:     tokenProgram,
		},
		forge.BurnFromWalletArgs{Amount: amount},
	)
	if err != nil {
		return solana.Signature{}, txn.NewValidationError("failed to build burn instruction: %v", err)
	}

	return s.submit(ctx, signer, ix, onPhase)
}

// BurnFromLock destroys amount base units directly out of a lock's vault.
// Burning from a lock does not require it to be unlocked.
func (s *Service) BurnFromLock(ctx context.Context, signer txn.Signer, rec *accounts.LockRecord, tokenProgram solana.PublicKey, amount uint64, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseDeriving)
	if amount == 0 {
		return solana.Signature{}, txn.NewValidationError("burn amount must be positive")
	}
	if amount > rec.Amount {
		return solana.Signature{}, txn.NewValidationError("burn amount %d exceeds locked balance %d", amount, rec.Amount)
	}

	ix, err := forge.NewBurnFromLockInstruction(s.forgeProgram,
		forge.BurnFromLockAccounts{
			Owner:         signer.PublicKey(),
			Mint:          rec.Mint,
			LockRecord:    rec.Address,
			Vault:         rec.Vault,
			TokenProgram:  tokenProgram,
			LockerProgram: s.lockerProg,
		},
		forge.BurnFromLockArgs{Amount: amount, LockID: rec.LockID},
	)
	if err != nil {
		return solana.Signature{}, txn.NewValidationError("failed to build burn instruction: %v", err)
	}

	return s.submit(ctx, signer, ix, onPhase)
}

// CloseVault reclaims the rent of a drained lock. The program rejects
// vaults that still hold a balance.
func (s *Service) CloseVault(ctx context.Context, signer txn.Signer, rec *accounts.LockRecord, tokenProgram solana.PublicKey, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseDeriving)

	ix, err := forge.NewCloseVaultInstruction(s.forgeProgram,
		forge.CloseVaultAccounts{
			Owner:         signer.PublicKey(),
			LockRecord:    rec.Address,
			Vault:         rec.Vault,
			Mint:          rec.Mint,
			TokenProgram:  tokenProgram,
			LockerProgram: s.lockerProg,
		},
		forge.CloseVaultArgs{LockID: rec.LockID},
	)
	if err != nil {
		return solana.Signature{}, txn.NewValidationError("failed to build close instruction: %v", err)
	}

	return s.submit(ctx, signer, ix, onPhase)
}

func (s *Service) submit(ctx context.Context, signer txn.Signer, ix solana.Instruction, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseBuilding)
	prepared, err := s.builder.Build(ctx, signer.PublicKey(), ix)
	if err != nil {
		report(onPhase, txn.PhaseFailed)
		return solana.Signature{}, err
	}
	return s.submitter.Submit(ctx, prepared, signer, onPhase)
}

func report(onPhase txn.PhaseFunc, p txn.Phase) {
	if onPhase != nil {
		onPhase(p)
	}
}
