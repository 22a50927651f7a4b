package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/brojonat/solpipe/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultConfirmPollInterval is how often signature status is checked while waiting.
const DefaultConfirmPollInterval = 500 * time.Millisecond

// ErrTransactionFailed is returned when the network reports a submitted transaction as failed.
var ErrTransactionFailed = errors.New("transaction failed on-chain")

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetAccountInfo(
		ctx context.Context,
		account solana.PublicKey,
	) (*rpc.GetAccountInfoResult, error)

	GetTokenAccountsByOwner(
		ctx context.Context,
		owner solana.PublicKey,
		conf *rpc.GetTokenAccountsConfig,
		opts *rpc.GetTokenAccountsOpts,
	) (*rpc.GetTokenAccountsResult, error)

	GetTokenAccountBalance(
		ctx context.Context,
		account solana.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetTokenAccountBalanceResult, error)

	RequestAirdrop(
		ctx context.Context,
		account solana.PublicKey,
		lamports uint64,
		commitment rpc.CommitmentType,
	) (solana.Signature, error)

	GetSignatureStatuses(
		ctx context.Context,
		searchTransactionHistory bool,
		signatures ...solana.Signature,
	) (*rpc.GetSignatureStatusesResult, error)

	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	SendTransactionWithOpts(
		ctx context.Context,
		tx *solana.Transaction,
		opts rpc.TransactionOpts,
	) (solana.Signature, error)
}

// Client is the network query channel. It wraps the RPC client with
// domain-specific operations, logging and metrics.
type Client struct {
	rpc          RPCClient
	logger       *slog.Logger
	metrics      *metrics.Metrics
	endpoint     string // RPC endpoint identifier for metrics (e.g., "devnet", rpc host)
	pollInterval time.Duration
}

// NewClient creates a new Solana client.
// The endpoint parameter is used for metrics labeling (e.g., "mainnet", "devnet", or RPC hostname).
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:          rpcClient,
		logger:       logger,
		metrics:      m,
		endpoint:     endpoint,
		pollInterval: DefaultConfirmPollInterval,
	}
}

// WithPollInterval sets how often WaitForConfirmation checks signature status.
func (c *Client) WithPollInterval(d time.Duration) *Client {
	if d > 0 {
		c.pollInterval = d
	}
	return c
}

// record reports the outcome of one RPC call.
func (c *Client) record(method string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, time.Since(start).Seconds())
}

// AccountExists reports whether an account is present on-chain.
// A missing account is an expected outcome and is not an error.
func (c *Client) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	start := time.Now()
	info, err := c.rpc.GetAccountInfo(ctx, address)
	if errors.Is(err, rpc.ErrNotFound) {
		c.record("GetAccountInfo", start, nil)
		return false, nil
	}
	c.record("GetAccountInfo", start, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get account info",
			"address", address.String(),
			"error", err,
		)
		return false, fmt.Errorf("failed to get account info for %s: %w", address, err)
	}

	return info != nil && info.Value != nil, nil
}

// TokenAccountsByOwner lists the owner's token accounts for one mint.
func (c *Client) TokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error) {
	start := time.Now()
	out, err := c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: mint.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Commitment: rpc.CommitmentConfirmed,
			Encoding:   solana.EncodingBase64,
		},
	)
	c.record("GetTokenAccountsByOwner", start, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get token accounts by owner",
			"owner", owner.String(),
			"mint", mint.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get token accounts for %s: %w", owner, err)
	}

	if out == nil {
		return nil, nil
	}

	accounts := make([]solana.PublicKey, 0, len(out.Value))
	for _, acct := range out.Value {
		if acct == nil {
			continue
		}
		accounts = append(accounts, acct.Pubkey)
	}

	c.logger.DebugContext(ctx, "fetched token accounts",
		"owner", owner.String(),
		"mint", mint.String(),
		"count", len(accounts),
	)

	return accounts, nil
}

// HoldingAccountBalance returns the raw balance and mint decimals of a token account.
func (c *Client) HoldingAccountBalance(ctx context.Context, account solana.PublicKey) (TokenBalance, error) {
	start := time.Now()
	out, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	c.record("GetTokenAccountBalance", start, err)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("failed to get token balance for %s: %w", account, err)
	}

	if out == nil || out.Value == nil {
		return TokenBalance{}, fmt.Errorf("empty token balance response for %s", account)
	}

	raw := uint64(0)
	if out.Value.Amount != "" {
		raw, err = strconv.ParseUint(out.Value.Amount, 10, 64)
		if err != nil {
			return TokenBalance{}, fmt.Errorf("failed to parse token amount %q: %w", out.Value.Amount, err)
		}
	}

	return TokenBalance{Raw: raw, Decimals: out.Value.Decimals}, nil
}

// RequestFaucetFunds asks the cluster faucet for lamports. Only devnet and testnet serve this.
func (c *Client) RequestFaucetFunds(ctx context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.RequestAirdrop(ctx, address, lamports, rpc.CommitmentConfirmed)
	c.record("RequestAirdrop", start, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "airdrop request failed",
			"address", address.String(),
			"lamports", lamports,
			"error", err,
		)
		return solana.Signature{}, fmt.Errorf("airdrop request failed: %w", err)
	}

	c.logger.InfoContext(ctx, "airdrop requested",
		"address", address.String(),
		"lamports", lamports,
		"signature", sig.String(),
	)
	return sig, nil
}

// LatestBlockhash returns a blockhash suitable for a new transaction.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	start := time.Now()
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	c.record("GetLatestBlockhash", start, err)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, fmt.Errorf("empty blockhash response")
	}
	return out.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	c.record("SendTransaction", start, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to send transaction", "error", err)
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// WaitForConfirmation blocks until the signature reaches the given commitment,
// the network reports it failed, or ctx is done. It makes no attempt to resubmit.
func (c *Client) WaitForConfirmation(ctx context.Context, sig solana.Signature, level rpc.CommitmentType) error {
	start := time.Now()
	err := c.waitForConfirmation(ctx, sig, level)

	if c.metrics != nil {
		status := "confirmed"
		if err != nil {
			status = "failed"
		}
		c.metrics.RecordConfirmationWait(string(level), status, time.Since(start).Seconds())
	}

	if err != nil {
		c.logger.WarnContext(ctx, "confirmation wait failed",
			"signature", sig.String(),
			"level", level,
			"error", err,
		)
		return err
	}

	c.logger.DebugContext(ctx, "transaction confirmed",
		"signature", sig.String(),
		"level", level,
		"wait_seconds", time.Since(start).Seconds(),
	)
	return nil
}

func (c *Client) waitForConfirmation(ctx context.Context, sig solana.Signature, level rpc.CommitmentType) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		start := time.Now()
		out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		c.record("GetSignatureStatuses", start, err)
		if err != nil {
			return fmt.Errorf("failed to get signature status: %w", err)
		}

		if out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
			}
			if reached(status.ConfirmationStatus, level) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for confirmation of %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// reached reports whether a signature status satisfies the requested commitment.
func reached(status rpc.ConfirmationStatusType, level rpc.CommitmentType) bool {
	switch level {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	default:
		return status != ""
	}
}
