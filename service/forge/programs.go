package forge

import "github.com/gagliardetto/solana-go"

// Well-known program IDs. The forge, locker, and metadata programs can be
// overridden through configuration for devnet deployments; the token
// programs are fixed by the runtime.
var (
	// ProgramID is the deployed forge program.
	ProgramID = solana.MustPublicKeyFromBase58("HwB325tYBpE7pAzZshMBCZo3PRCpdwwwLtsRy6t8NjDg")

	// LockerProgramID is the escrow program the forge proxies into.
	LockerProgramID = solana.MustPublicKeyFromBase58("AVfmdPiqXfc15Pt8PPRXxTP5oMs4D1CdijARiz8mFMFD")

	// MetadataProgramID owns on-chain token metadata accounts.
	MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// TokenProgramID is the legacy SPL token program.
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Token2022ProgramID is the extensions-capable token program.
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// TokenStandard selects which token program a mint is created under.
type TokenStandard uint8

const (
	// StandardFungible creates the mint under the legacy token program.
	StandardFungible TokenStandard = 0
	// StandardFungible2022 creates the mint under the extensions program.
	StandardFungible2022 TokenStandard = 1
)

// TokenProgramFor returns the token program that owns mints of the given
// standard.
func TokenProgramFor(std TokenStandard) solana.PublicKey {
	if std == StandardFungible2022 {
		return Token2022ProgramID
	}
	return TokenProgramID
}

func (s TokenStandard) String() string {
	switch s {
	case StandardFungible:
		return "fungible"
	case StandardFungible2022:
		return "fungible-2022"
	default:
		return "unknown"
	}
}
