package forge

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// SPL token instruction opcodes used here. The checked variants carry the
// expected decimals so a stale client cannot move the wrong magnitude.
const (
	tokenIxTransferChecked = 12
	tokenIxMintToChecked   = 14
)

// NewTransferCheckedInstruction moves amount base units from source to
// destination. Works under either token program; pass the one that owns
// the mint.
func NewTransferCheckedInstruction(tokenProgram, source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) *Instruction {
	data := make([]byte, 10)
	data[0] = tokenIxTransferChecked
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals

	return &Instruction{
		programID: tokenProgram,
		accounts: solana.AccountMetaSlice{
			solana.Meta(source).WRITE(),
			solana.Meta(mint),
			solana.Meta(destination).WRITE(),
			solana.Meta(owner).SIGNER(),
		},
		data: data,
	}
}

// NewMintToCheckedInstruction mints amount base units of mint into
// destination. The signer must hold the mint authority.
func NewMintToCheckedInstruction(tokenProgram, mint, destination, authority solana.PublicKey, amount uint64, decimals uint8) *Instruction {
	data := make([]byte, 10)
	data[0] = tokenIxMintToChecked
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals

	return &Instruction{
		programID: tokenProgram,
		accounts: solana.AccountMetaSlice{
			solana.Meta(mint).WRITE(),
			solana.Meta(destination).WRITE(),
			solana.Meta(authority).SIGNER(),
		},
		data: data,
	}
}

// NewCreateATAInstruction creates the associated token account for owner
// and mint if it does not exist yet. The idempotent variant makes it safe
// to prepend to any transfer.
func NewCreateATAInstruction(payer, ata, owner, mint, tokenProgram solana.PublicKey) *Instruction {
	return &Instruction{
		programID: solana.SPLAssociatedTokenAccountProgramID,
		accounts: solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(ata).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(tokenProgram),
		},
		data: []byte{1}, // CreateIdempotent
	}
}
