package holdings

import (
	"context"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dloomlabs/forge/service/forge"
	solanaclient "github.com/dloomlabs/forge/service/solana"
)

type stubRPC struct {
	tokenAccounts map[solana.PublicKey][]*rpc.TokenAccount
	mintData      map[solana.PublicKey][]byte
	lamports      uint64
}

func (s *stubRPC) GetTokenAccountsByOwner(_ context.Context, _ solana.PublicKey, conf *rpc.GetTokenAccountsConfig, _ *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
	return &rpc.GetTokenAccountsResult{Value: s.tokenAccounts[*conf.ProgramId]}, nil
}

func (s *stubRPC) GetMultipleAccounts(_ context.Context, keys ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	res := &rpc.GetMultipleAccountsResult{}
	for _, k := range keys {
		data, ok := s.mintData[k]
		if !ok {
			res.Value = append(res.Value, nil)
			continue
		}
		res.Value = append(res.Value, &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)})
	}
	return res, nil
}

func (s *stubRPC) GetAccountInfo(context.Context, solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return &rpc.GetAccountInfoResult{}, nil
}

func (s *stubRPC) GetProgramAccounts(context.Context, solana.PublicKey, *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	return nil, nil
}

func (s *stubRPC) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return nil, nil
}

func (s *stubRPC) SendRawTransaction(context.Context, []byte, rpc.TransactionOpts) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (s *stubRPC) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	return nil, nil
}

func (s *stubRPC) GetBlockHeight(context.Context, rpc.CommitmentType) (uint64, error) {
	return 0, nil
}

func (s *stubRPC) GetBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	return &rpc.GetBalanceResult{Value: s.lamports}, nil
}

func (s *stubRPC) GetTokenAccountBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	return nil, nil
}

func tokenAccountBytes(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

func mintBytes(supply uint64, decimals uint8) []byte {
	data := make([]byte, 82)
	binary.LittleEndian.PutUint64(data[36:44], supply)
	data[44] = decimals
	data[45] = 1
	return data
}

func keyedAccount(addr solana.PublicKey, data []byte) *rpc.TokenAccount {
	return &rpc.TokenAccount{
		Pubkey:  addr,
		Account: rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)},
	}
}

func newSyncer(stub *stubRPC) *Syncer {
	client := solanaclient.NewClient(stub, slog.New(slog.DiscardHandler), nil)
	return NewSyncer(client, nil, slog.New(slog.DiscardHandler), nil)
}

func TestRefresh_CollectsBothTokenPrograms(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	acctA := solana.NewWallet().PublicKey()
	acctB := solana.NewWallet().PublicKey()

	stub := &stubRPC{
		tokenAccounts: map[solana.PublicKey][]*rpc.TokenAccount{
			forge.TokenProgramID:     {keyedAccount(acctA, tokenAccountBytes(mintA, owner, 1_500_000))},
			forge.Token2022ProgramID: {keyedAccount(acctB, tokenAccountBytes(mintB, owner, 42))},
		},
		mintData: map[solana.PublicKey][]byte{
			mintA: mintBytes(1_000_000_000, 6),
			mintB: mintBytes(100, 0),
		},
	}

	got, err := newSyncer(stub).Refresh(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, mintA, got[0].Mint)
	assert.Equal(t, forge.TokenProgramID, got[0].TokenProgram)
	assert.Equal(t, "1.5", got[0].UIAmount)
	assert.Equal(t, mintB, got[1].Mint)
	assert.Equal(t, forge.Token2022ProgramID, got[1].TokenProgram)
	assert.Equal(t, "42", got[1].UIAmount)
}

func TestRefresh_FiltersZeroBalancesAndNFTs(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	emptyMint := solana.NewWallet().PublicKey()
	nftMint := solana.NewWallet().PublicKey()
	keptMint := solana.NewWallet().PublicKey()

	stub := &stubRPC{
		tokenAccounts: map[solana.PublicKey][]*rpc.TokenAccount{
			forge.TokenProgramID: {
				keyedAccount(solana.NewWallet().PublicKey(), tokenAccountBytes(emptyMint, owner, 0)),
				keyedAccount(solana.NewWallet().PublicKey(), tokenAccountBytes(nftMint, owner, 1)),
				keyedAccount(solana.NewWallet().PublicKey(), tokenAccountBytes(keptMint, owner, 10)),
			},
		},
		mintData: map[solana.PublicKey][]byte{
			nftMint:  mintBytes(1, 0), // supply 1, zero decimals
			keptMint: mintBytes(500, 2),
		},
	}

	got, err := newSyncer(stub).Refresh(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keptMint, got[0].Mint)
}

func TestRefresh_CorruptMintDropsOnlyThatAsset(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	badMint := solana.NewWallet().PublicKey()
	goodMint := solana.NewWallet().PublicKey()

	stub := &stubRPC{
		tokenAccounts: map[solana.PublicKey][]*rpc.TokenAccount{
			forge.TokenProgramID: {
				keyedAccount(solana.NewWallet().PublicKey(), tokenAccountBytes(badMint, owner, 5)),
				keyedAccount(solana.NewWallet().PublicKey(), tokenAccountBytes(goodMint, owner, 7)),
			},
		},
		mintData: map[solana.PublicKey][]byte{
			badMint:  {1, 2, 3}, // truncated
			goodMint: mintBytes(100, 0),
		},
	}

	got, err := newSyncer(stub).Refresh(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, goodMint, got[0].Mint)
}

func TestNativeBalance(t *testing.T) {
	stub := &stubRPC{lamports: 2_500_000_000}
	syncer := newSyncer(stub)

	lamports, err := syncer.NativeBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000), lamports)
}

func TestMerge_ConfirmedWins(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	confirmed := []Holding{{Mint: mint, Amount: 100}}
	optimistic := []Holding{{Mint: mint, Amount: 50}}

	got := Merge(confirmed, optimistic)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(100), got[0].Amount)
	assert.False(t, got[0].Optimistic)
}

func TestMerge_AppendsUnseenOptimistic(t *testing.T) {
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	confirmed := []Holding{{Mint: mintA, Amount: 100}}
	optimistic := []Holding{{Mint: mintB, Amount: 5}}

	got := Merge(confirmed, optimistic)
	require.Len(t, got, 2)
	assert.Equal(t, mintA, got[0].Mint)
	assert.Equal(t, mintB, got[1].Mint)
	assert.True(t, got[1].Optimistic)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	optimistic := []Holding{{Mint: mint}}

	_ = Merge(nil, optimistic)
	assert.False(t, optimistic[0].Optimistic)
}
