package forge

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Anchor instruction discriminators, the first 8 bytes of
// sha256("global:<instruction_name>").
var (
	discCreateToken         = []byte{84, 52, 204, 228, 24, 140, 234, 75}
	discInitializeUser      = []byte{111, 17, 185, 250, 60, 122, 38, 254}
	discProxyLockTokens     = []byte{240, 44, 217, 178, 53, 54, 241, 79}
	discProxyWithdrawTokens = []byte{250, 32, 175, 249, 161, 143, 244, 170}
	discProxyBurnFromLock   = []byte{216, 185, 84, 141, 225, 133, 54, 169}
	discProxyBurnFromWallet = []byte{152, 15, 120, 104, 64, 120, 6, 193}
	discProxyCloseVault     = []byte{192, 160, 46, 41, 34, 22, 22, 65}
)

// Instruction is a fully resolved program instruction, ready to be placed
// into a transaction. It implements solana.Instruction.
type Instruction struct {
	programID solana.PublicKey
	accounts  solana.AccountMetaSlice
	data      []byte
}

func (ix *Instruction) ProgramID() solana.PublicKey     { return ix.programID }
func (ix *Instruction) Accounts() []*solana.AccountMeta { return ix.accounts }
func (ix *Instruction) Data() ([]byte, error)           { return ix.data, nil }

// encodeArgs serializes the discriminator followed by Borsh-encoded args.
func encodeArgs(disc []byte, args interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc)
	if args != nil {
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, fmt.Errorf("failed to encode instruction args: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// CreateTokenArgs are the arguments to the createToken instruction, in wire
// order.
type CreateTokenArgs struct {
	Name                      string
	Symbol                    string
	URI                       string
	Decimals                  uint8
	InitialSupply             uint64
	TokenStandard             uint8
	TransferFeeBasisPoints    uint16
	InterestRate              int16
	IsNonTransferable         bool
	EnablePermanentDelegate   bool
	DefaultAccountStateFrozen bool
	RevokeUpdateAuthority     bool
	RevokeMintAuthority       bool
}

// CreateTokenAccounts names the accounts the createToken instruction needs.
// The mint is a signer: its keypair must co-sign the transaction.
type CreateTokenAccounts struct {
	UserState    solana.PublicKey
	Authority    solana.PublicKey
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Metadata     solana.PublicKey
	TokenProgram solana.PublicKey
}

// NewCreateTokenInstruction builds the createToken instruction against the
// given forge program.
func NewCreateTokenInstruction(program solana.PublicKey, accts CreateTokenAccounts, args CreateTokenArgs) (*Instruction, error) {
	data, err := encodeArgs(discCreateToken, args)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		programID: program,
		accounts: solana.AccountMetaSlice{
			solana.Meta(accts.UserState).WRITE(),
			solana.Meta(accts.Authority).WRITE().SIGNER(),
			solana.Meta(accts.Mint).WRITE().SIGNER(),
			solana.Meta(accts.TokenAccount).WRITE(),
			solana.Meta(accts.Metadata).WRITE(),
			solana.Meta(MetadataProgramID),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(accts.TokenProgram),
			solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
			solana.Meta(solana.SysVarRentPubkey),
			solana.Meta(solana.SysVarInstructionsPubkey),
		},
		data: data,
	}, nil
}

// NewInitializeUserInstruction builds the instruction that creates the
// payer's per-user state account. It takes no arguments.
func NewInitializeUserInstruction(program, userState, payer solana.PublicKey) (*Instruction, error) {
	data, err := encodeArgs(discInitializeUser, nil)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		programID: program,
		accounts: solana.AccountMetaSlice{
			solana.Meta(userState).WRITE(),
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		},
		data: data,
	}, nil
}

// LockTokensArgs are the arguments to the proxyLockTokens instruction.
type LockTokensArgs struct {
	Amount          uint64
	UnlockTimestamp int64
	LockID          uint64
}

// LockTokensAccounts names the accounts the proxyLockTokens instruction
// needs.
type LockTokensAccounts struct {
	Owner            solana.PublicKey
	Mint             solana.PublicKey
	LockRecord       solana.PublicKey
	Vault            solana.PublicKey
	UserTokenAccount solana.PublicKey
	LockerProgram    solana.PublicKey
	TokenProgram     solana.PublicKey
}

// NewLockTokensInstruction builds the proxyLockTokens instruction.
func NewLockTokensInstruction(program solana.PublicKey, accts LockTokensAccounts, args LockTokensArgs) (*Instruction, error) {
	data, err := encodeArgs(discProxyLockTokens, args)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		programID: program,
		accounts: solana.AccountMetaSlice{
			solana.Meta(accts.Owner).WRITE().SIGNER(),
			solana.Meta(accts.Mint),
			solana.Meta(accts.LockRecord).WRITE(),
			solana.Meta(accts.Vault).WRITE(),
			solana.Meta(accts.UserTokenAccount).WRITE(),
			solana.Meta(accts.LockerProgram),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(accts.TokenProgram),
			solana.Meta(solana.SysVarRentPubkey),
		},
		data: data,
	}, nil
}

// WithdrawTokensArgs are the arguments to the proxyWithdrawTokens
// instruction.
type WithdrawTokensArgs struct {
	LockID uint64
}

// WithdrawTokensAccounts names the accounts the proxyWithdrawTokens
// instruction needs.
type WithdrawTokensAccounts struct {
	Owner            solana.PublicKey
	LockRecord       solana.PublicKey
	Vault            solana.PublicKey
	UserTokenAccount solana.PublicKey
	Mint             solana.PublicKey
	TokenProgram     solana.PublicKey
	LockerProgram    solana.PublicKey
}

// NewWithdrawTokensInstruction builds the proxyWithdrawTokens instruction.
func NewWithdrawTokensInstruction(program solana.PublicKey, accts WithdrawTokensAccounts, args WithdrawTokensArgs) (*Instruction, error) {
	data, err := encodeArgs(discProxyWithdrawTokens, args)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		programID: program,
		accounts: solana.AccountMetaSlice{
			solana.Meta(accts.Owner).WRITE().SIGNER(),
			solana.Meta(accts.LockRecord).WRITE(),
			solana.Meta(accts.Vault).WRITE(),
			solana.Meta(accts.UserTokenAccount).WRITE(),
			solana.Meta(accts.Mint),
			solana.Meta(accts.TokenProgram),
			solana.Meta(accts.LockerProgram),
		},
		data: data,
	}, nil
}

// BurnFromLockArgs are the arguments to the proxyBurnFromLock instruction.
type BurnFromLockArgs struct {
	Amount uint64
	LockID uint64
}

// BurnFromLockAccounts names the accounts the proxyBurnFromLock instruction
// needs.
type BurnFromLockAccounts struct {
	Owner         solana.PublicKey
	Mint          solana.PublicKey
	LockRecord    solana.PublicKey
	Vault         solana.PublicKey
	TokenProgram  solana.PublicKey
	LockerProgram solana.PublicKey
}

// NewBurnFromLockInstruction builds the proxyBurnFromLock instruction.
func NewBurnFromLockInstruction(program solana.PublicKey, accts BurnFromLockAccounts, args BurnFromLockArgs) (*Instruction, error) {
	data, err := encodeArgs(discProxyBurnFromLock, args)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		programID: program,
		accounts: solana.AccountMetaSlice{
			solana.Meta(accts.Owner).WRITE().SIGNER(),
			solana.Meta(accts.Mint).WRITE(),
			solana.Meta(accts.LockRecord).WRITE(),
			solana.Meta(accts.Vault).WRITE(),
			solana.Meta(accts.TokenProgram),
			solana.Meta(accts.LockerProgram),
		},
		data: data,
	}, nil
}

// BurnFromWalletArgs are the arguments to the proxyBurnFromWallet
// instruction.
type BurnFromWalletArgs struct {
	Amount uint64
}

// BurnFromWalletAccounts names the accounts the proxyBurnFromWallet
// instruction needs.
type BurnFromWalletAccounts struct {
	Burner           solana.PublicKey
	Mint             solana.PublicKey
	UserTokenAccount solana.PublicKey
	LockerProgram    solana.PublicKey
	TokenProgram     solana.PublicKey
}

// NewBurnFromWalletInstruction builds the proxyBurnFromWallet instruction.
func NewBurnFromWalletInstruction(program solana.PublicKey, accts BurnFromWalletAccounts, args BurnFromWalletArgs) (*Instruction, error) {
	data, err := encodeArgs(discProxyBurnFromWallet, args)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		programID: program,
		accounts: solana.AccountMetaSlice{
			solana.Meta(accts.Burner).WRITE().SIGNER(),
			solana.Meta(accts.Mint).WRITE(),
			solana.Meta(accts.UserTokenAccount).WRITE(),
			solana.Meta(accts.LockerProgram),
			solana.Meta(accts.TokenProgram),
		},
		data: data,
	}, nil
}

// CloseVaultArgs are the arguments to the proxyCloseVault instruction.
type CloseVaultArgs struct {
	LockID uint64
}

// CloseVaultAccounts names the accounts the proxyCloseVault instruction
// needs.
type CloseVaultAccounts struct {
	Owner         solana.PublicKey
	LockRecord    solana.PublicKey
	Vault         solana.PublicKey
	Mint          solana.PublicKey
	TokenProgram  solana.PublicKey
	LockerProgram solana.PublicKey
}

// NewCloseVaultInstruction builds the proxyCloseVault instruction, which
// reclaims the rent of an emptied lock.
func NewCloseVaultInstruction(program solana.PublicKey, accts CloseVaultAccounts, args CloseVaultArgs) (*Instruction, error) {
	data, err := encodeArgs(discProxyCloseVault, args)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		programID: program,
		accounts: solana.AccountMetaSlice{
			solana.Meta(accts.Owner).WRITE().SIGNER(),
			solana.Meta(accts.LockRecord).WRITE(),
			solana.Meta(accts.Vault).WRITE(),
			solana.Meta(accts.Mint),
			solana.Meta(accts.TokenProgram),
			solana.Meta(accts.LockerProgram),
		},
		data: data,
	}, nil
}
