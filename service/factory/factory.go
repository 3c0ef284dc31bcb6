// Package factory creates new tokens through the forge program and
// performs post-creation operations on them: transfers and supply
// expansion.
package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/dloomlabs/forge/service/accounts"
	"github.com/dloomlabs/forge/service/derive"
	"github.com/dloomlabs/forge/service/forge"
	"github.com/dloomlabs/forge/service/holdings"
	"github.com/dloomlabs/forge/service/pinata"
	solanaclient "github.com/dloomlabs/forge/service/solana"
	"github.com/dloomlabs/forge/service/txn"
	"github.com/dloomlabs/forge/service/vanity"
)

// CreateParams describes a token to create.
type CreateParams struct {
	Name        string
	Symbol      string
	Description string

	// Image is uploaded to the content store when set; ImageURL points
	// at already hosted artwork. At most one should be provided.
	Image     io.Reader
	ImageName string
	ImageURL  string

	Website  string
	Twitter  string
	Telegram string

	Decimals uint8
	// Supply is the initial supply in whole tokens, converted to base
	// units at Decimals.
	Supply string

	Standard forge.TokenStandard

	TransferFeeBasisPoints    uint16
	InterestRate              int16
	NonTransferable           bool
	PermanentDelegate         bool
	DefaultAccountStateFrozen bool
	RevokeUpdateAuthority     bool
	RevokeMintAuthority       bool

	// VanityPrefix grinds a mint address with this prefix. MintKey
	// imports a pre-ground keypair instead. Both empty means a random
	// mint address.
	VanityPrefix string
	MintKey      *solana.PrivateKey
}

// CreateResult is the outcome of a successful creation.
type CreateResult struct {
	Mint        solana.PublicKey
	Signature   solana.Signature
	MetadataURI string
	// Holding is the optimistic position for immediate display, before
	// the ledger reflects the new token.
	Holding holdings.Holding
}

// Factory creates and manages tokens.
type Factory struct {
	client       *solanaclient.Client
	builder      *txn.Builder
	submitter    *txn.Submitter
	store        *pinata.Client
	grinder      *vanity.Grinder
	logger       *slog.Logger
	forgeProgram solana.PublicKey
}

// NewFactory creates a Factory. store may be nil when uploads are not
// configured.
func NewFactory(client *solanaclient.Client, builder *txn.Builder, submitter *txn.Submitter, store *pinata.Client, grinder *vanity.Grinder, forgeProgram solana.PublicKey, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		client:       client,
		builder:      builder,
		submitter:    submitter,
		store:        store,
		grinder:      grinder,
		logger:       logger,
		forgeProgram: forgeProgram,
	}
}

// Create validates params, uploads metadata, and mints the token. The
// mint keypair co-signs the transaction alongside the wallet.
func (f *Factory) Create(ctx context.Context, signer txn.Signer, params CreateParams, onPhase txn.PhaseFunc) (*CreateResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	supply, err := solanaclient.ToBaseUnits(params.Supply, params.Decimals)
	if err != nil {
		return nil, txn.NewValidationError("invalid supply: %v", err)
	}
	if supply == 0 {
		return nil, txn.NewValidationError("initial supply must be positive")
	}

	uri, err := f.uploadMetadata(ctx, &params)
	if err != nil {
		return nil, err
	}

	report(onPhase, txn.PhaseDeriving)
	mintKey, err := f.mintKeypair(ctx, &params)
	if err != nil {
		return nil, err
	}
	mint := mintKey.PublicKey()
	owner := signer.PublicKey()
	tokenProgram := forge.TokenProgramFor(params.Standard)

	userState, _, err := derive.UserStateAddress(f.forgeProgram, owner)
	if err != nil {
		return nil, txn.WrapDerivation(err)
	}
	metadata, _, err := derive.MetadataAddress(forge.MetadataProgramID, mint)
	if err != nil {
		return nil, txn.WrapDerivation(err)
	}
	tokenAccount, _, err := derive.AssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return nil, txn.WrapDerivation(err)
	}

	var instructions []solana.Instruction
	initialized, err := f.userStateExists(ctx, userState)
	if err != nil {
		return nil, err
	}
	if !initialized {
		initIx, err := forge.NewInitializeUserInstruction(f.forgeProgram, userState, owner)
		if err != nil {
			return nil, txn.NewValidationError("failed to build user init instruction: %v", err)
		}
		instructions = append(instructions, initIx)
	}

	createIx, err := forge.NewCreateTokenInstruction(f.forgeProgram,
		forge.CreateTokenAccounts{
			UserState:    userState,
			Authority:    owner,
			Mint:         mint,
			TokenAccount: tokenAccount,
			Metadata:     metadata,
			TokenProgram: tokenProgram,
		},
		forge.CreateTokenArgs{
			Name:                      strings.TrimSpace(params.Name),
			Symbol:                    strings.TrimSpace(params.Symbol),
			URI:                       uri,
			Decimals:                  params.Decimals,
			InitialSupply:             supply,
			TokenStandard:             uint8(params.Standard),
			TransferFeeBasisPoints:    params.TransferFeeBasisPoints,
			InterestRate:              params.InterestRate,
			IsNonTransferable:         params.NonTransferable,
			EnablePermanentDelegate:   params.PermanentDelegate,
			DefaultAccountStateFrozen: params.DefaultAccountStateFrozen,
			RevokeUpdateAuthority:     params.RevokeUpdateAuthority,
			RevokeMintAuthority:       params.RevokeMintAuthority,
		},
	)
	if err != nil {
		return nil, txn.NewValidationError("failed to build create instruction: %v", err)
	}
	instructions = append(instructions, createIx)

	report(onPhase, txn.PhaseBuilding)
	prepared, err := f.builder.Build(ctx, owner, instructions...)
	if err != nil {
		report(onPhase, txn.PhaseFailed)
		return nil, err
	}

	sig, err := f.submitter.Submit(ctx, prepared, signer, onPhase, *mintKey)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		Mint:        mint,
		Signature:   sig,
		MetadataURI: uri,
		Holding: holdings.Holding{
			Mint:         mint,
			TokenAccount: tokenAccount,
			TokenProgram: tokenProgram,
			Amount:       supply,
			Decimals:     params.Decimals,
			UIAmount:     solanaclient.FormatBaseUnits(supply, params.Decimals),
			Optimistic:   true,
		},
	}, nil
}

// Transfer moves amount base units of mint to the destination wallet,
// creating the destination's token account when needed.
func (f *Factory) Transfer(ctx context.Context, signer txn.Signer, mint, tokenProgram, destination solana.PublicKey, amount uint64, decimals uint8, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseDeriving)
	if amount == 0 {
		return solana.Signature{}, txn.NewValidationError("transfer amount must be positive")
	}
	owner := signer.PublicKey()
	if destination.Equals(owner) {
		return solana.Signature{}, txn.NewValidationError("cannot transfer to the sending wallet")
	}

	source, _, err := derive.AssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}
	destATA, _, err := derive.AssociatedTokenAddress(destination, mint, tokenProgram)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}

	instructions := []solana.Instruction{
		forge.NewCreateATAInstruction(owner, destATA, destination, mint, tokenProgram),
		forge.NewTransferCheckedInstruction(tokenProgram, source, mint, destATA, owner, amount, decimals),
	}

	report(onPhase, txn.PhaseBuilding)
	prepared, err := f.builder.Build(ctx, owner, instructions...)
	if err != nil {
		report(onPhase, txn.PhaseFailed)
		return solana.Signature{}, err
	}
	return f.submitter.Submit(ctx, prepared, signer, onPhase)
}

// MintMore expands the supply of a token whose mint authority the signer
// still holds. The freshly minted tokens land in the signer's token
// account.
func (f *Factory) MintMore(ctx context.Context, signer txn.Signer, mint, tokenProgram solana.PublicKey, amount uint64, onPhase txn.PhaseFunc) (solana.Signature, error) {
	report(onPhase, txn.PhaseDeriving)
	if amount == 0 {
		return solana.Signature{}, txn.NewValidationError("mint amount must be positive")
	}

	info, err := f.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return solana.Signature{}, txn.ClassifyRPCError(err)
	}
	if info == nil || info.Value == nil {
		return solana.Signature{}, txn.NewValidationError("mint %s does not exist", mint)
	}
	decoded, err := accounts.DecodeMint(mint, info.Value.Data.GetBinary())
	if err != nil {
		return solana.Signature{}, txn.WrapDecode(err)
	}

	owner := signer.PublicKey()
	if decoded.MintAuthority == nil {
		return solana.Signature{}, txn.NewValidationError("mint authority for %s has been revoked", mint)
	}
	if !decoded.MintAuthority.Equals(owner) {
		return solana.Signature{}, txn.NewValidationError("wallet does not hold the mint authority for %s", mint)
	}

	destATA, _, err := derive.AssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return solana.Signature{}, txn.WrapDerivation(err)
	}

	instructions := []solana.Instruction{
		forge.NewCreateATAInstruction(owner, destATA, owner, mint, tokenProgram),
		forge.NewMintToCheckedInstruction(tokenProgram, mint, destATA, owner, amount, decoded.Decimals),
	}

	report(onPhase, txn.PhaseBuilding)
	prepared, err := f.builder.Build(ctx, owner, instructions...)
	if err != nil {
		report(onPhase, txn.PhaseFailed)
		return solana.Signature{}, err
	}
	return f.submitter.Submit(ctx, prepared, signer, onPhase)
}

// uploadMetadata pins the image and metadata document, returning the
// hosted URI. Uploads fail the creation outright rather than minting a
// token with dangling metadata.
func (f *Factory) uploadMetadata(ctx context.Context, params *CreateParams) (string, error) {
	imageURL := params.ImageURL
	if params.Image != nil {
		if f.store == nil || !f.store.Configured() {
			return "", txn.NewValidationError("image upload requires pinning credentials")
		}
		url, err := f.store.UploadFile(ctx, params.ImageName, params.Image)
		if err != nil {
			return "", fmt.Errorf("image upload failed: %w", err)
		}
		imageURL = url
	}

	if f.store == nil || !f.store.Configured() {
		// No store: the token is created without hosted metadata.
		return "", nil
	}

	type attribute struct {
		TraitType string `json:"trait_type"`
		Value     string `json:"value"`
	}
	doc := struct {
		Name        string      `json:"name"`
		Symbol      string      `json:"symbol"`
		Description string      `json:"description,omitempty"`
		Image       string      `json:"image,omitempty"`
		ExternalURL string      `json:"external_url,omitempty"`
		Attributes  []attribute `json:"attributes,omitempty"`
	}{
		Name:        strings.TrimSpace(params.Name),
		Symbol:      strings.TrimSpace(params.Symbol),
		Description: params.Description,
		Image:       imageURL,
		ExternalURL: ensureProtocol(params.Website),
	}
	if params.Twitter != "" {
		doc.Attributes = append(doc.Attributes, attribute{TraitType: "Twitter", Value: ensureProtocol(params.Twitter)})
	}
	if params.Telegram != "" {
		doc.Attributes = append(doc.Attributes, attribute{TraitType: "Telegram", Value: ensureProtocol(params.Telegram)})
	}

	uri, err := f.store.UploadJSON(ctx, "metadata.json", doc)
	if err != nil {
		return "", fmt.Errorf("metadata upload failed: %w", err)
	}
	return uri, nil
}

// mintKeypair picks the mint address: imported, ground for a vanity
// prefix, or random. Imported keys are checked against the ledger so an
// already used address fails before signing.
func (f *Factory) mintKeypair(ctx context.Context, params *CreateParams) (*solana.PrivateKey, error) {
	if params.MintKey != nil {
		info, err := f.client.GetAccountInfo(ctx, params.MintKey.PublicKey())
		if err != nil {
			return nil, txn.ClassifyRPCError(err)
		}
		if info != nil && info.Value != nil {
			return nil, txn.NewValidationError("mint address %s is already in use", params.MintKey.PublicKey())
		}
		return params.MintKey, nil
	}

	if params.VanityPrefix != "" {
		if f.grinder == nil {
			return nil, txn.NewValidationError("vanity prefix requested but no grinder configured")
		}
		// One match is enough for a mint address.
		g := *f.grinder
		g.ResultLimit = 1
		matches, err := g.Grind(ctx, params.VanityPrefix, nil)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, txn.NewValidationError("no address with prefix %q found within the search limit", params.VanityPrefix)
		}
		return &matches[0].PrivateKey, nil
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	return &key, nil
}

func (f *Factory) userStateExists(ctx context.Context, userState solana.PublicKey) (bool, error) {
	info, err := f.client.GetAccountInfo(ctx, userState)
	if err != nil {
		return false, txn.ClassifyRPCError(err)
	}
	return info != nil && info.Value != nil, nil
}

func report(onPhase txn.PhaseFunc, p txn.Phase) {
	if onPhase != nil {
		onPhase(p)
	}
}
