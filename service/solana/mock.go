package solana

import (
	"context"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// MockRPCClient is an in-memory RPCClient for tests. It models just enough of
// a cluster for transfers: which accounts exist, token holdings, signature
// statuses and the faucet.
type MockRPCClient struct {
	mu sync.Mutex

	accounts map[solana.PublicKey]bool
	holdings []mockHolding

	// ConfirmationStatus is reported for every submitted or airdropped signature.
	// Defaults to confirmed.
	ConfirmationStatus rpc.ConfirmationStatusType
	// TxErr, if set, is reported as the on-chain error of every signature.
	TxErr interface{}

	// Per-method failures.
	AccountInfoErr   error
	TokenAccountsErr error
	BalanceErr       error
	AirdropErr       error
	StatusErr        error
	BlockhashErr     error
	SendErr          error

	Blockhash solana.Hash

	sent     []*solana.Transaction
	airdrops map[solana.PublicKey]uint64
	calls    map[string]int
}

type mockHolding struct {
	address  solana.PublicKey
	owner    solana.PublicKey
	mint     solana.PublicKey
	amount   uint64
	decimals uint8
}

// NewMockRPCClient creates an empty mock cluster.
func NewMockRPCClient() *MockRPCClient {
	return &MockRPCClient{
		accounts:           make(map[solana.PublicKey]bool),
		airdrops:           make(map[solana.PublicKey]uint64),
		calls:              make(map[string]int),
		ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		Blockhash:          solana.Hash{9, 9, 9},
	}
}

// AddAccount marks an address as existing on-chain.
func (m *MockRPCClient) AddAccount(address solana.PublicKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[address] = true
}

// AddHolding registers a token account at address holding amount of mint for owner.
func (m *MockRPCClient) AddHolding(address, owner, mint solana.PublicKey, amount uint64, decimals uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[address] = true
	m.holdings = append(m.holdings, mockHolding{
		address:  address,
		owner:    owner,
		mint:     mint,
		amount:   amount,
		decimals: decimals,
	})
}

// Sent returns every transaction that was submitted.
func (m *MockRPCClient) Sent() []*solana.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*solana.Transaction, len(m.sent))
	copy(out, m.sent)
	return out
}

// Airdropped returns the lamports requested from the faucet for address.
func (m *MockRPCClient) Airdropped(address solana.PublicKey) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.airdrops[address]
}

// Calls returns how many times an RPC method was invoked.
func (m *MockRPCClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockRPCClient) called(method string) {
	m.calls[method]++
}

func (m *MockRPCClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetAccountInfo")

	if m.AccountInfoErr != nil {
		return nil, m.AccountInfoErr
	}
	if !m.accounts[account] {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Lamports: 2039280}}, nil
}

func (m *MockRPCClient) GetTokenAccountsByOwner(
	ctx context.Context,
	owner solana.PublicKey,
	conf *rpc.GetTokenAccountsConfig,
	opts *rpc.GetTokenAccountsOpts,
) (*rpc.GetTokenAccountsResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetTokenAccountsByOwner")

	if m.TokenAccountsErr != nil {
		return nil, m.TokenAccountsErr
	}

	out := &rpc.GetTokenAccountsResult{}
	for _, h := range m.holdings {
		if !h.owner.Equals(owner) {
			continue
		}
		if conf != nil && conf.Mint != nil && !h.mint.Equals(*conf.Mint) {
			continue
		}
		out.Value = append(out.Value, &rpc.TokenAccount{Pubkey: h.address})
	}
	return out, nil
}

func (m *MockRPCClient) GetTokenAccountBalance(
	ctx context.Context,
	account solana.PublicKey,
	commitment rpc.CommitmentType,
) (*rpc.GetTokenAccountBalanceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetTokenAccountBalance")

	if m.BalanceErr != nil {
		return nil, m.BalanceErr
	}
	for _, h := range m.holdings {
		if h.address.Equals(account) {
			return &rpc.GetTokenAccountBalanceResult{
				Value: &rpc.UiTokenAmount{
					Amount:   strconv.FormatUint(h.amount, 10),
					Decimals: h.decimals,
				},
			}, nil
		}
	}
	return nil, rpc.ErrNotFound
}

func (m *MockRPCClient) RequestAirdrop(
	ctx context.Context,
	account solana.PublicKey,
	lamports uint64,
	commitment rpc.CommitmentType,
) (solana.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("RequestAirdrop")

	if m.AirdropErr != nil {
		return solana.Signature{}, m.AirdropErr
	}
	m.airdrops[account] += lamports
	return solana.Signature{byte(len(m.airdrops)), 0xa1}, nil
}

func (m *MockRPCClient) GetSignatureStatuses(
	ctx context.Context,
	searchTransactionHistory bool,
	signatures ...solana.Signature,
) (*rpc.GetSignatureStatusesResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetSignatureStatuses")

	if m.StatusErr != nil {
		return nil, m.StatusErr
	}

	out := &rpc.GetSignatureStatusesResult{}
	for range signatures {
		out.Value = append(out.Value, &rpc.SignatureStatusesResult{
			Slot:               1,
			Err:                m.TxErr,
			ConfirmationStatus: m.ConfirmationStatus,
		})
	}
	return out, nil
}

func (m *MockRPCClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetLatestBlockhash")

	if m.BlockhashErr != nil {
		return nil, m.BlockhashErr
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: m.Blockhash},
	}, nil
}

func (m *MockRPCClient) SendTransactionWithOpts(
	ctx context.Context,
	tx *solana.Transaction,
	opts rpc.TransactionOpts,
) (solana.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("SendTransaction")

	if m.SendErr != nil {
		return solana.Signature{}, m.SendErr
	}
	m.sent = append(m.sent, tx)
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, nil
	}
	return tx.Signatures[0], nil
}
