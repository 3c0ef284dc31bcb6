package forge

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBurnFromWalletInstruction_Data(t *testing.T) {
	accts := BurnFromWalletAccounts{
		Burner:           solana.NewWallet().PublicKey(),
		Mint:             solana.NewWallet().PublicKey(),
		UserTokenAccount: solana.NewWallet().PublicKey(),
		LockerProgram:    LockerProgramID,
		TokenProgram:     TokenProgramID,
	}

	ix, err := NewBurnFromWalletInstruction(ProgramID, accts, BurnFromWalletArgs{Amount: 1_500_000})
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+8)

	assert.Equal(t, []byte{152, 15, 120, 104, 64, 120, 6, 193}, data[:8])
	assert.Equal(t, uint64(1_500_000), binary.LittleEndian.Uint64(data[8:16]))
}

func TestNewBurnFromWalletInstruction_Accounts(t *testing.T) {
	accts := BurnFromWalletAccounts{
		Burner:           solana.NewWallet().PublicKey(),
		Mint:             solana.NewWallet().PublicKey(),
		UserTokenAccount: solana.NewWallet().PublicKey(),
		LockerProgram:    LockerProgramID,
		TokenProgram:     TokenProgramID,
	}

	ix, err := NewBurnFromWalletInstruction(ProgramID, accts, BurnFromWalletArgs{Amount: 1})
	require.NoError(t, err)

	metas := ix.Accounts()
	require.Len(t, metas, 5)

	assert.Equal(t, accts.Burner, metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
	assert.True(t, metas[0].IsWritable)

	assert.Equal(t, accts.Mint, metas[1].PublicKey)
	assert.True(t, metas[1].IsWritable)
	assert.False(t, metas[1].IsSigner)

	assert.Equal(t, accts.UserTokenAccount, metas[2].PublicKey)
	assert.Equal(t, LockerProgramID, metas[3].PublicKey)
	assert.Equal(t, TokenProgramID, metas[4].PublicKey)
}

func TestNewLockTokensInstruction_Data(t *testing.T) {
	accts := LockTokensAccounts{
		Owner:            solana.NewWallet().PublicKey(),
		Mint:             solana.NewWallet().PublicKey(),
		LockRecord:       solana.NewWallet().PublicKey(),
		Vault:            solana.NewWallet().PublicKey(),
		UserTokenAccount: solana.NewWallet().PublicKey(),
		LockerProgram:    LockerProgramID,
		TokenProgram:     TokenProgramID,
	}
	args := LockTokensArgs{
		Amount:          42_000_000,
		UnlockTimestamp: 1_900_000_000,
		LockID:          7,
	}

	ix, err := NewLockTokensInstruction(ProgramID, accts, args)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+8+8+8)

	assert.Equal(t, []byte{240, 44, 217, 178, 53, 54, 241, 79}, data[:8])
	assert.Equal(t, uint64(42_000_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(1_900_000_000), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(data[24:32]))
}

func TestNewLockTokensInstruction_AccountOrder(t *testing.T) {
	accts := LockTokensAccounts{
		Owner:            solana.NewWallet().PublicKey(),
		Mint:             solana.NewWallet().PublicKey(),
		LockRecord:       solana.NewWallet().PublicKey(),
		Vault:            solana.NewWallet().PublicKey(),
		UserTokenAccount: solana.NewWallet().PublicKey(),
		LockerProgram:    LockerProgramID,
		TokenProgram:     TokenProgramID,
	}

	ix, err := NewLockTokensInstruction(ProgramID, accts, LockTokensArgs{Amount: 1, LockID: 1})
	require.NoError(t, err)

	metas := ix.Accounts()
	require.Len(t, metas, 9)

	want := []solana.PublicKey{
		accts.Owner,
		accts.Mint,
		accts.LockRecord,
		accts.Vault,
		accts.UserTokenAccount,
		accts.LockerProgram,
		solana.SystemProgramID,
		accts.TokenProgram,
		solana.SysVarRentPubkey,
	}
	for i, pk := range want {
		assert.Equal(t, pk, metas[i].PublicKey, "account %d", i)
	}
}

func TestNewCreateTokenInstruction_EncodesStrings(t *testing.T) {
	accts := CreateTokenAccounts{
		UserState:    solana.NewWallet().PublicKey(),
		Authority:    solana.NewWallet().PublicKey(),
		Mint:         solana.NewWallet().PublicKey(),
		TokenAccount: solana.NewWallet().PublicKey(),
		Metadata:     solana.NewWallet().PublicKey(),
		TokenProgram: Token2022ProgramID,
	}
	args := CreateTokenArgs{
		Name:          "My Token",
		Symbol:        "MTK",
		URI:           "https://gateway.pinata.cloud/ipfs/abc",
		Decimals:      9,
		InitialSupply: 1_000_000_000,
		TokenStandard: uint8(StandardFungible2022),
	}

	ix, err := NewCreateTokenInstruction(ProgramID, accts, args)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)

	assert.Equal(t, []byte{84, 52, 204, 228, 24, 140, 234, 75}, data[:8])

	// Borsh strings are u32 length prefixed.
	off := 8
	nameLen := binary.LittleEndian.Uint32(data[off : off+4])
	assert.Equal(t, uint32(len(args.Name)), nameLen)
	off += 4
	assert.Equal(t, args.Name, string(data[off:off+int(nameLen)]))
	off += int(nameLen)

	symbolLen := binary.LittleEndian.Uint32(data[off : off+4])
	assert.Equal(t, uint32(len(args.Symbol)), symbolLen)

	// The instruction is mint and authority signed.
	metas := ix.Accounts()
	require.Len(t, metas, 11)
	assert.True(t, metas[1].IsSigner, "authority must sign")
	assert.True(t, metas[2].IsSigner, "mint must co-sign")
	assert.Equal(t, MetadataProgramID, metas[5].PublicKey)
	assert.Equal(t, solana.SysVarInstructionsPubkey, metas[10].PublicKey)
}

func TestNewInitializeUserInstruction(t *testing.T) {
	user := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()

	ix, err := NewInitializeUserInstruction(ProgramID, user, payer)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{111, 17, 185, 250, 60, 122, 38, 254}, data)

	metas := ix.Accounts()
	require.Len(t, metas, 3)
	assert.Equal(t, user, metas[0].PublicKey)
	assert.Equal(t, payer, metas[1].PublicKey)
	assert.True(t, metas[1].IsSigner)
	assert.Equal(t, solana.SystemProgramID, metas[2].PublicKey)
}

func TestTokenProgramFor(t *testing.T) {
	assert.Equal(t, TokenProgramID, TokenProgramFor(StandardFungible))
	assert.Equal(t, Token2022ProgramID, TokenProgramFor(StandardFungible2022))
}
