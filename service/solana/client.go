package solana

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/dloomlabs/forge/service/metrics"
)

// Client wraps an RPCClient with structured logging and metrics. All reads
// and writes against the ledger go through this type so every call is
// observed uniformly.
type Client struct {
	rpc     RPCClient
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewClient creates an instrumented ledger client.
func NewClient(rpcClient RPCClient, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		rpc:     rpcClient,
		logger:  logger,
		metrics: m,
	}
}

// observe records a completed call under the given RPC method name.
func (c *Client) observe(method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	elapsed := time.Since(start)
	c.metrics.RecordRPCCall(method, status, elapsed.Seconds())
	if err != nil {
		c.logger.Debug("rpc call failed",
			"method", method,
			"duration", elapsed,
			"error", err)
	}
}

// GetAccountInfo fetches a single account. A nil Value in the result means
// the account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	start := time.Now()
	out, err := c.rpc.GetAccountInfo(ctx, account)
	c.observe("getAccountInfo", start, err)
	return out, err
}

// GetMultipleAccounts fetches up to 100 accounts in a single batch. The
// result preserves input order; missing accounts come back as nil entries.
func (c *Client) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	start := time.Now()
	out, err := c.rpc.GetMultipleAccounts(ctx, accounts...)
	c.observe("getMultipleAccounts", start, err)
	return out, err
}

// GetProgramAccounts scans all accounts owned by a program, with optional
// server-side memcmp filters.
func (c *Client) GetProgramAccounts(ctx context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	start := time.Now()
	out, err := c.rpc.GetProgramAccounts(ctx, program, opts)
	c.observe("getProgramAccounts", start, err)
	return out, err
}

// GetTokenAccountsByOwner lists token accounts held by an owner under one
// token program.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
	start := time.Now()
	out, err := c.rpc.GetTokenAccountsByOwner(ctx, owner, conf, opts)
	c.observe("getTokenAccountsByOwner", start, err)
	return out, err
}

// GetLatestBlockhash fetches a recent blockhash and its expiry height.
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	start := time.Now()
	out, err := c.rpc.GetLatestBlockhash(ctx, commitment)
	c.observe("getLatestBlockhash", start, err)
	return out, err
}

// SendRawTransaction broadcasts a fully signed, serialized transaction.
func (c *Client) SendRawTransaction(ctx context.Context, serialized []byte, opts rpc.TransactionOpts) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.SendRawTransaction(ctx, serialized, opts)
	c.observe("sendTransaction", start, err)
	return sig, err
}

// GetSignatureStatuses fetches confirmation status for the given signatures.
func (c *Client) GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	start := time.Now()
	out, err := c.rpc.GetSignatureStatuses(ctx, searchHistory, sigs...)
	c.observe("getSignatureStatuses", start, err)
	return out, err
}

// GetBlockHeight fetches the current block height at the given commitment.
func (c *Client) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	start := time.Now()
	out, err := c.rpc.GetBlockHeight(ctx, commitment)
	c.observe("getBlockHeight", start, err)
	return out, err
}

// GetBalance fetches the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	start := time.Now()
	out, err := c.rpc.GetBalance(ctx, account, commitment)
	c.observe("getBalance", start, err)
	return out, err
}

// GetTokenAccountBalance fetches the token balance of a token account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	start := time.Now()
	out, err := c.rpc.GetTokenAccountBalance(ctx, account, commitment)
	c.observe("getTokenAccountBalance", start, err)
	return out, err
}
