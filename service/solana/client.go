package solana

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brojonat/preflight/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetBalance(
		ctx context.Context,
		account solana.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetBalanceResult, error)

	GetAccountInfoWithOpts(
		ctx context.Context,
		account solana.PublicKey,
		opts *rpc.GetAccountInfoOpts,
	) (*rpc.GetAccountInfoResult, error)
}

// Client provides read-only balance queries.
// It wraps the RPC client with domain-specific operations.
type Client struct {
	rpc        RPCClient
	logger     *slog.Logger
	metrics    *metrics.Metrics
	endpoint   string // RPC endpoint identifier for metrics (e.g. rpc host)
	commitment rpc.CommitmentType
}

// NewClient creates a new Solana client.
// The endpoint parameter is used for metrics labeling (e.g., "mainnet", "devnet", or RPC hostname).
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:        rpcClient,
		logger:     logger,
		metrics:    m,
		endpoint:   endpoint,
		commitment: rpc.CommitmentConfirmed,
	}
}

// NativeBalance returns the lamports held by account.
func (c *Client) NativeBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	c.logger.DebugContext(ctx, "calling getBalance", "account", account.String())

	start := time.Now()
	out, err := c.rpc.GetBalance(ctx, account, c.commitment)
	c.recordCall("getBalance", err, time.Since(start))

	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get balance",
			"account", account.String(),
			"error", err,
		)
		return 0, &TransportError{Method: "getBalance", Address: account.String(), Err: err}
	}
	if out == nil {
		return 0, &TransportError{Method: "getBalance", Address: account.String(), Err: errors.New("empty response")}
	}

	c.logger.DebugContext(ctx, "fetched balance",
		"account", account.String(),
		"lamports", out.Value,
	)
	return out.Value, nil
}

// AccountInfo fetches an account's raw data. It returns (nil, nil) when the
// account does not exist on the ledger.
func (c *Client) AccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error) {
	c.logger.DebugContext(ctx, "calling getAccountInfo", "account", account.String())

	opts := &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	}

	start := time.Now()
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, account, opts)
	duration := time.Since(start)

	// solana-go reports a null value as ErrNotFound; that is an answer, not a failure.
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && (out == nil || out.Value == nil)) {
		c.recordCall("getAccountInfo", nil, duration)
		c.logger.DebugContext(ctx, "account not found", "account", account.String())
		return nil, nil
	}
	c.recordCall("getAccountInfo", err, duration)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get account info",
			"account", account.String(),
			"error", err,
		)
		return nil, &TransportError{Method: "getAccountInfo", Address: account.String(), Err: err}
	}

	info := &AccountInfo{
		Address:  account,
		Lamports: out.Value.Lamports,
		Owner:    out.Value.Owner,
	}
	if out.Value.Data != nil {
		info.Data = RawAccountData(out.Value.Data.GetBinary())
	}
	return info, nil
}

// TokenBalance fetches and decodes a token account. It returns (nil, nil)
// when the account does not exist.
func (c *Client) TokenBalance(ctx context.Context, account solana.PublicKey) (*TokenBalance, error) {
	info, err := c.AccountInfo(ctx, account)
	if err != nil || info == nil {
		return nil, err
	}

	data, err := Normalize(info.Data)
	if err != nil {
		return nil, err
	}
	amount, err := ExtractTokenAmount(data)
	if err != nil {
		c.logger.WarnContext(ctx, "token account data too short",
			"account", account.String(),
			"length", len(data),
		)
		return nil, err
	}

	return &TokenBalance{Account: account, Amount: amount}, nil
}

func (c *Client) recordCall(method string, err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, duration.Seconds())
}
