// Package accounts decodes the raw account layouts this application reads
// from the ledger. All decoders take the full account data including any
// discriminator prefix and return typed structs, failing loudly on
// truncated or malformed buffers.
package accounts

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// lockRecordSize is the serialized size of a lock record: 8 byte
// discriminator, bump, three pubkeys, and three 8 byte integers.
const lockRecordSize = 8 + 1 + 32 + 32 + 32 + 8 + 8 + 8

// LockRecordOwnerOffset is the byte offset of the owner field, used for
// server-side memcmp filtering when scanning locks.
const LockRecordOwnerOffset = 9

// LockRecord is an active token lock held by the locker program.
type LockRecord struct {
	Address         solana.PublicKey `json:"address"`
	Bump            uint8            `json:"bump"`
	Owner           solana.PublicKey `json:"owner"`
	Mint            solana.PublicKey `json:"mint"`
	Vault           solana.PublicKey `json:"vault"`
	Amount          uint64           `json:"amount"`
	UnlockTimestamp int64            `json:"unlock_timestamp"`
	LockID          uint64           `json:"lock_id"`
}

// Unlocked reports whether the lock can be withdrawn at the given unix
// time.
func (r *LockRecord) Unlocked(now int64) bool {
	return now >= r.UnlockTimestamp
}

// DecodeLockRecord decodes a lock record account.
func DecodeLockRecord(address solana.PublicKey, data []byte) (*LockRecord, error) {
	if len(data) < lockRecordSize {
		return nil, fmt.Errorf("lock record too short: got %d bytes, want %d", len(data), lockRecordSize)
	}

	rec := &LockRecord{
		Address: address,
		Bump:    data[8],
	}
	copy(rec.Owner[:], data[9:41])
	copy(rec.Mint[:], data[41:73])
	copy(rec.Vault[:], data[73:105])
	rec.Amount = binary.LittleEndian.Uint64(data[105:113])
	rec.UnlockTimestamp = int64(binary.LittleEndian.Uint64(data[113:121]))
	rec.LockID = binary.LittleEndian.Uint64(data[121:129])
	return rec, nil
}
