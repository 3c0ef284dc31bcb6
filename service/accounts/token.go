package accounts

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// tokenAccountMinSize covers the mint, owner, and amount fields of a token
// account. Full accounts are 165 bytes but only the first 72 are needed
// for holdings.
const tokenAccountMinSize = 32 + 32 + 8

// TokenAccount is a decoded token holding account.
type TokenAccount struct {
	Address solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
	Amount  uint64
}

// DecodeTokenAccount decodes a token account owned by either token
// program.
func DecodeTokenAccount(address solana.PublicKey, data []byte) (*TokenAccount, error) {
	if len(data) < tokenAccountMinSize {
		return nil, fmt.Errorf("token account too short: got %d bytes, want at least %d", len(data), tokenAccountMinSize)
	}

	acc := &TokenAccount{Address: address}
	copy(acc.Mint[:], data[0:32])
	copy(acc.Owner[:], data[32:64])
	acc.Amount = binary.LittleEndian.Uint64(data[64:72])
	return acc, nil
}
