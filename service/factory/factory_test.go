package factory

import (
	"context"
	"encoding/binary"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dloomlabs/forge/service/forge"
	"github.com/dloomlabs/forge/service/pinata"
	solanaclient "github.com/dloomlabs/forge/service/solana"
	"github.com/dloomlabs/forge/service/txn"
	"github.com/dloomlabs/forge/service/vanity"
)

type stubRPC struct {
	accountData map[solana.PublicKey][]byte
	sentTxns    [][]byte
}

func (s *stubRPC) GetAccountInfo(_ context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	data, ok := s.accountData[account]
	if !ok {
		return &rpc.GetAccountInfoResult{}, nil
	}
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)},
	}, nil
}

func (s *stubRPC) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            solana.Hash(solana.NewWallet().PublicKey()),
			LastValidBlockHeight: 1000,
		},
	}, nil
}

func (s *stubRPC) SendRawTransaction(_ context.Context, serialized []byte, _ rpc.TransactionOpts) (solana.Signature, error) {
	s.sentTxns = append(s.sentTxns, append([]byte(nil), serialized...))
	var sig solana.Signature
	copy(sig[:], serialized[1:65])
	return sig, nil
}

func (s *stubRPC) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		},
	}, nil
}

func (s *stubRPC) GetBlockHeight(context.Context, rpc.CommitmentType) (uint64, error) {
	return 1, nil
}

func (s *stubRPC) GetMultipleAccounts(context.Context, ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	return nil, nil
}

func (s *stubRPC) GetProgramAccounts(context.Context, solana.PublicKey, *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	return nil, nil
}

func (s *stubRPC) GetTokenAccountsByOwner(context.Context, solana.PublicKey, *rpc.GetTokenAccountsConfig, *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
	return nil, nil
}

func (s *stubRPC) GetBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	return nil, nil
}

func (s *stubRPC) GetTokenAccountBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	return nil, nil
}

func newFactory(stub *stubRPC, store *pinata.Client) *Factory {
	logger := slog.New(slog.DiscardHandler)
	client := solanaclient.NewClient(stub, logger, nil)
	builder := txn.NewBuilder(client)
	submitter := txn.NewSubmitter(client, logger, nil)
	submitter.PollInterval = time.Millisecond
	grinder := vanity.NewGrinder(logger, nil)
	return NewFactory(client, builder, submitter, store, grinder, forge.ProgramID, logger)
}

func validParams() CreateParams {
	return CreateParams{
		Name:     "My Token",
		Symbol:   "MTK",
		Decimals: 6,
		Supply:   "1000000",
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	p := CreateParams{
		Name:    "",
		Symbol:  "toolongsymbol",
		Supply:  "",
		Twitter: "https://facebook.com/nope",
	}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, txn.IsKind(err, txn.KindValidation))
	assert.ErrorContains(t, err, "name is required")
	assert.ErrorContains(t, err, "symbol")
	assert.ErrorContains(t, err, "supply")
	assert.ErrorContains(t, err, "twitter")
}

func TestValidate_SocialLinks(t *testing.T) {
	p := validParams()
	p.Twitter = "x.com/example"
	p.Telegram = "t.me/examplegroup"
	assert.NoError(t, p.Validate())

	p.Telegram = "t.me/abc" // below minimum handle length
	assert.Error(t, p.Validate())
}

func TestValidate_ExtensionsNeedModernStandard(t *testing.T) {
	p := validParams()
	p.TransferFeeBasisPoints = 100
	assert.Error(t, p.Validate())

	p.Standard = forge.StandardFungible2022
	assert.NoError(t, p.Validate())
}

func TestEnsureProtocol(t *testing.T) {
	assert.Equal(t, "https://example.com", ensureProtocol("example.com"))
	assert.Equal(t, "https://example.com", ensureProtocol("https://example.com"))
	assert.Equal(t, "http://example.com", ensureProtocol("http://example.com"))
	assert.Equal(t, "", ensureProtocol(""))
}

func TestCreate_RandomMint(t *testing.T) {
	stub := &stubRPC{accountData: map[solana.PublicKey][]byte{}}
	f := newFactory(stub, nil)
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)

	res, err := f.Create(context.Background(), signer, validParams(), nil)
	require.NoError(t, err)

	assert.False(t, res.Mint.IsZero())
	assert.False(t, res.Signature.IsZero())
	assert.True(t, res.Holding.Optimistic)
	assert.Equal(t, uint64(1_000_000_000_000), res.Holding.Amount)
	assert.Equal(t, "1000000", res.Holding.UIAmount)
	require.Len(t, stub.sentTxns, 1)
}

func TestCreate_ImportedMintInUse(t *testing.T) {
	used := solana.NewWallet().PrivateKey
	stub := &stubRPC{accountData: map[solana.PublicKey][]byte{
		used.PublicKey(): make([]byte, 82),
	}}
	f := newFactory(stub, nil)
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)

	p := validParams()
	p.MintKey = &used
	_, err := f.Create(context.Background(), signer, p, nil)
	assert.True(t, txn.IsKind(err, txn.KindValidation))
	assert.ErrorContains(t, err, "already in use")
}

func TestCreate_ImageWithoutStoreFails(t *testing.T) {
	stub := &stubRPC{accountData: map[solana.PublicKey][]byte{}}
	f := newFactory(stub, nil)
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)

	p := validParams()
	p.Image = strings.NewReader("png")
	p.ImageName = "logo.png"

	_, err := f.Create(context.Background(), signer, p, nil)
	assert.ErrorContains(t, err, "pinning credentials")
	assert.Empty(t, stub.sentTxns, "nothing may reach the chain when uploads fail")
}

func TestCreate_UploadsMetadata(t *testing.T) {
	var uploads int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		w.Write([]byte(`{"IpfsHash": "QmHash"}`))
	}))
	defer srv.Close()

	store := pinata.NewClient(srv.URL, "https://g", "jwt", slog.New(slog.DiscardHandler))
	stub := &stubRPC{accountData: map[solana.PublicKey][]byte{}}
	f := newFactory(stub, store)
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)

	p := validParams()
	p.Image = strings.NewReader("png")
	p.ImageName = "logo.png"
	p.Description = "a token"

	res, err := f.Create(context.Background(), signer, p, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, uploads, "image then metadata document")
	assert.Equal(t, "https://g/QmHash", res.MetadataURI)
}

func TestTransfer_RejectsSelfAndZero(t *testing.T) {
	stub := &stubRPC{}
	f := newFactory(stub, nil)
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)
	mint := solana.NewWallet().PublicKey()

	_, err := f.Transfer(context.Background(), signer, mint, forge.TokenProgramID, solana.NewWallet().PublicKey(), 0, 6, nil)
	assert.True(t, txn.IsKind(err, txn.KindValidation))

	_, err = f.Transfer(context.Background(), signer, mint, forge.TokenProgramID, signer.PublicKey(), 5, 6, nil)
	assert.True(t, txn.IsKind(err, txn.KindValidation))
}

func TestTransfer_Succeeds(t *testing.T) {
	stub := &stubRPC{}
	f := newFactory(stub, nil)
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)

	sig, err := f.Transfer(context.Background(), signer,
		solana.NewWallet().PublicKey(), forge.TokenProgramID,
		solana.NewWallet().PublicKey(), 1_500_000, 6, nil)
	require.NoError(t, err)
	assert.False(t, sig.IsZero())
	require.Len(t, stub.sentTxns, 1)
}

func mintBytes(authority *solana.PublicKey, decimals uint8) []byte {
	data := make([]byte, 82)
	if authority != nil {
		binary.LittleEndian.PutUint32(data[0:4], 1)
		copy(data[4:36], authority[:])
	}
	data[44] = decimals
	data[45] = 1
	return data
}

func TestMintMore_RequiresAuthority(t *testing.T) {
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)
	other := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	stub := &stubRPC{accountData: map[solana.PublicKey][]byte{
		mint: mintBytes(&other, 6),
	}}
	f := newFactory(stub, nil)

	_, err := f.MintMore(context.Background(), signer, mint, forge.TokenProgramID, 100, nil)
	assert.True(t, txn.IsKind(err, txn.KindValidation))
	assert.ErrorContains(t, err, "mint authority")
}

func TestMintMore_RevokedAuthority(t *testing.T) {
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)
	mint := solana.NewWallet().PublicKey()

	stub := &stubRPC{accountData: map[solana.PublicKey][]byte{
		mint: mintBytes(nil, 6),
	}}
	f := newFactory(stub, nil)

	_, err := f.MintMore(context.Background(), signer, mint, forge.TokenProgramID, 100, nil)
	assert.ErrorContains(t, err, "revoked")
}

func TestMintMore_Succeeds(t *testing.T) {
	signer := txn.NewKeypairSigner(solana.NewWallet().PrivateKey)
	owner := signer.PublicKey()
	mint := solana.NewWallet().PublicKey()

	stub := &stubRPC{accountData: map[solana.PublicKey][]byte{
		mint: mintBytes(&owner, 6),
	}}
	f := newFactory(stub, nil)

	sig, err := f.MintMore(context.Background(), signer, mint, forge.TokenProgramID, 100, nil)
	require.NoError(t, err)
	assert.False(t, sig.IsZero())
}
