package txn

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer authorizes transactions on behalf of a wallet. Implementations
// return ErrUserRejected (possibly wrapped) when the user declines.
type Signer interface {
	// PublicKey is the wallet address this signer controls.
	PublicKey() solana.PublicKey
	// Sign applies the wallet's signature to tx in place. Additional
	// co-signers, like a fresh mint keypair, are applied by the caller
	// before broadcast.
	Sign(ctx context.Context, tx *solana.Transaction) error
}

// FileSigner signs with a keypair loaded from a keygen file on disk.
type FileSigner struct {
	key solana.PrivateKey
}

// NewFileSigner loads the keypair at path.
func NewFileSigner(path string) (*FileSigner, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair from %s: %w", path, err)
	}
	return &FileSigner{key: key}, nil
}

// NewKeypairSigner wraps an in-memory private key. Used by tests and for
// ephemeral co-signers.
func NewKeypairSigner(key solana.PrivateKey) *FileSigner {
	return &FileSigner{key: key}
}

func (s *FileSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *FileSigner) Sign(_ context.Context, tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
