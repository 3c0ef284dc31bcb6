// Package derive computes the program-derived addresses used by the forge
// and locker programs. All functions are pure; the same inputs always
// produce the same address and bump.
package derive

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// LockRecordAddress derives the lock record account for an owner, mint, and
// lock ID under the locker program.
func LockRecordAddress(lockerProgram, owner, mint solana.PublicKey, lockID uint64) (solana.PublicKey, uint8, error) {
	id := make([]byte, 8)
	binary.LittleEndian.PutUint64(id, lockID)
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("lock_record"),
			owner.Bytes(),
			mint.Bytes(),
			id,
		},
		lockerProgram,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive lock record: %w", err)
	}
	return addr, bump, nil
}

// VaultAddress derives the token vault that escrows a lock's balance. The
// vault is keyed by the lock record, so it is unique per lock.
func VaultAddress(lockerProgram, lockRecord solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("vault"),
			lockRecord.Bytes(),
		},
		lockerProgram,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive vault: %w", err)
	}
	return addr, bump, nil
}

// MetadataAddress derives the on-chain metadata account for a mint.
func MetadataAddress(metadataProgram, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			metadataProgram.Bytes(),
			mint.Bytes(),
		},
		metadataProgram,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive metadata: %w", err)
	}
	return addr, bump, nil
}

// UserStateAddress derives the per-user state account under the forge
// program.
func UserStateAddress(forgeProgram, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("user"),
			owner.Bytes(),
		},
		forgeProgram,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive user state: %w", err)
	}
	return addr, bump, nil
}

// AssociatedTokenAddress derives the associated token account for an owner
// and mint. The token program must match the one that owns the mint or the
// derived address will not exist on chain.
func AssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgram.Bytes(),
			mint.Bytes(),
		},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive associated token account: %w", err)
	}
	return addr, bump, nil
}
