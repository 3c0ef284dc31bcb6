package locker

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/dloomlabs/forge/service/accounts"
	"github.com/dloomlabs/forge/service/txn"
)

// BurnItem is one entry of a batch burn. A nil Lock burns from the
// signer's wallet; otherwise the burn comes out of the lock's vault.
type BurnItem struct {
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
	Amount       uint64
	Lock         *accounts.LockRecord
}

// BurnOutcome records how one batch entry fared. Signature is set when the
// transaction was broadcast, even if it later failed.
type BurnOutcome struct {
	Item      BurnItem
	Signature solana.Signature
	Err       error
}

// BurnBatch executes items strictly in order, one transaction each. A
// failed item does not stop the batch; its outcome carries the error and
// the remaining items still run. Outcomes are returned in input order.
func (s *Service) BurnBatch(ctx context.Context, signer txn.Signer, items []BurnItem, onItem func(index int, outcome BurnOutcome)) []BurnOutcome {
	outcomes := make([]BurnOutcome, 0, len(items))
	for i, item := range items {
		outcome := BurnOutcome{Item: item}

		if err := ctx.Err(); err != nil {
			outcome.Err = &txn.Error{Kind: txn.KindNetwork, Err: err}
		} else if item.Lock != nil {
			outcome.Signature, outcome.Err = s.BurnFromLock(ctx, signer, item.Lock, item.TokenProgram, item.Amount, nil)
		} else {
			outcome.Signature, outcome.Err = s.BurnFromWallet(ctx, signer, item.Mint, item.TokenProgram, item.Amount, nil)
		}

		if outcome.Err != nil {
			s.logger.Warn("batch burn item failed", "index", i, "mint", item.Mint, "error", outcome.Err)
		}
		outcomes = append(outcomes, outcome)
		if onItem != nil {
			onItem(i, outcome)
		}
	}
	return outcomes
}
