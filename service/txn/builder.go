package txn

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	solanaclient "github.com/dloomlabs/forge/service/solana"
)

// Prepared is an unsigned transaction plus the blockhash expiry needed to
// bound confirmation polling.
type Prepared struct {
	Tx                   *solana.Transaction
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Builder assembles transactions against a live blockhash.
type Builder struct {
	client *solanaclient.Client
}

// NewBuilder creates a Builder backed by the given ledger client.
func NewBuilder(client *solanaclient.Client) *Builder {
	return &Builder{client: client}
}

// Build fetches a fresh blockhash and assembles an unsigned transaction
// with payer as the fee payer.
func (b *Builder) Build(ctx context.Context, payer solana.PublicKey, instructions ...solana.Instruction) (*Prepared, error) {
	if len(instructions) == 0 {
		return nil, NewValidationError("transaction requires at least one instruction")
	}

	recent, err := b.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, ClassifyRPCError(err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, NewValidationError("failed to assemble transaction: %v", err)
	}

	return &Prepared{
		Tx:                   tx,
		Blockhash:            recent.Value.Blockhash,
		LastValidBlockHeight: recent.Value.LastValidBlockHeight,
	}, nil
}
