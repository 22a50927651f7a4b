package solana

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// realRPCClient adapts the actual solana-go RPC client to our RPCClient interface.
// This adapter allows us to control the interface and makes testing easier.
type realRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates a new RPCClient that wraps the solana-go RPC client.
// For premium RPC endpoints that require API keys, include the key in the URL:
// - Helius: https://devnet.helius-rpc.com/?api-key=YOUR-KEY
// - QuickNode: https://YOUR-ENDPOINT.quiknode.pro/YOUR-KEY/
func NewRPCClient(rpcURL string) RPCClient {
	return &realRPCClient{
		client: rpc.New(rpcURL),
	}
}

// SelectRandomEndpoint picks one endpoint so load spreads across configured providers.
func SelectRandomEndpoint(endpoints []string) (string, error) {
	if len(endpoints) == 0 {
		return "", fmt.Errorf("no RPC endpoints configured")
	}
	return endpoints[rand.Intn(len(endpoints))], nil
}

func (r *realRPCClient) GetAccountInfo(
	ctx context.Context,
	account solana.PublicKey,
) (*rpc.GetAccountInfoResult, error) {
	return r.client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
}

func (r *realRPCClient) GetTokenAccountsByOwner(
	ctx context.Context,
	owner solana.PublicKey,
	conf *rpc.GetTokenAccountsConfig,
	opts *rpc.GetTokenAccountsOpts,
) (*rpc.GetTokenAccountsResult, error) {
	return r.client.GetTokenAccountsByOwner(ctx, owner, conf, opts)
}

func (r *realRPCClient) GetTokenAccountBalance(
	ctx context.Context,
	account solana.PublicKey,
	commitment rpc.CommitmentType,
) (*rpc.GetTokenAccountBalanceResult, error) {
	return r.client.GetTokenAccountBalance(ctx, account, commitment)
}

func (r *realRPCClient) RequestAirdrop(
	ctx context.Context,
	account solana.PublicKey,
	lamports uint64,
	commitment rpc.CommitmentType,
) (solana.Signature, error) {
	return r.client.RequestAirdrop(ctx, account, lamports, commitment)
}

func (r *realRPCClient) GetSignatureStatuses(
	ctx context.Context,
	searchTransactionHistory bool,
	signatures ...solana.Signature,
) (*rpc.GetSignatureStatusesResult, error) {
	return r.client.GetSignatureStatuses(ctx, searchTransactionHistory, signatures...)
}

func (r *realRPCClient) GetLatestBlockhash(
	ctx context.Context,
	commitment rpc.CommitmentType,
) (*rpc.GetLatestBlockhashResult, error) {
	return r.client.GetLatestBlockhash(ctx, commitment)
}

func (r *realRPCClient) SendTransactionWithOpts(
	ctx context.Context,
	tx *solana.Transaction,
	opts rpc.TransactionOpts,
) (solana.Signature, error) {
	return r.client.SendTransactionWithOpts(ctx, tx, opts)
}
