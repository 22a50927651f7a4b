package solana

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(mock *MockRPCClient) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, "test", nil, logger)
}

func TestParseAddress(t *testing.T) {
	valid := solana.NewWallet().PublicKey().String()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "valid", input: valid},
		{name: "surrounding whitespace", input: "  " + valid + "\n"},
		{name: "empty", input: "", wantErr: "recipient is required"},
		{name: "whitespace only", input: "   ", wantErr: "recipient is required"},
		{name: "too long", input: strings.Repeat("1", maxAddressLength+1), wantErr: "too long"},
		{name: "control character", input: valid[:10] + "\x00" + valid[10:], wantErr: "control characters"},
		{name: "not base58", input: "0OIl" + valid[4:], wantErr: "base58"},
		{name: "wrong length", input: "abc", wantErr: "recipient"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseAddress("recipient", tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAddress)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid, key.String())
		})
	}
}

func TestDeriveHoldingAccount_Deterministic(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	first, err := DeriveHoldingAccount(owner, mint)
	require.NoError(t, err)
	second, err := DeriveHoldingAccount(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	expected, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)

	other, err := DeriveHoldingAccount(solana.NewWallet().PublicKey(), mint)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestFindSenderHoldingAccount(t *testing.T) {
	ctx := context.Background()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ata, err := DeriveHoldingAccount(owner, mint)
	require.NoError(t, err)

	t.Run("no accounts", func(t *testing.T) {
		mock := NewMockRPCClient()
		_, err := newTestClient(mock).FindSenderHoldingAccount(ctx, owner, mint)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoHoldingAccount)
	})

	t.Run("other mint only", func(t *testing.T) {
		mock := NewMockRPCClient()
		mock.AddHolding(solana.NewWallet().PublicKey(), owner, solana.NewWallet().PublicKey(), 10, 6)
		_, err := newTestClient(mock).FindSenderHoldingAccount(ctx, owner, mint)
		assert.ErrorIs(t, err, ErrNoHoldingAccount)
	})

	t.Run("single non-associated account", func(t *testing.T) {
		mock := NewMockRPCClient()
		acct := solana.NewWallet().PublicKey()
		mock.AddHolding(acct, owner, mint, 10, 6)
		got, err := newTestClient(mock).FindSenderHoldingAccount(ctx, owner, mint)
		require.NoError(t, err)
		assert.Equal(t, acct, got)
	})

	t.Run("prefers associated account", func(t *testing.T) {
		mock := NewMockRPCClient()
		mock.AddHolding(solana.NewWallet().PublicKey(), owner, mint, 10, 6)
		mock.AddHolding(ata, owner, mint, 10, 6)
		got, err := newTestClient(mock).FindSenderHoldingAccount(ctx, owner, mint)
		require.NoError(t, err)
		assert.Equal(t, ata, got)
	})

	t.Run("query failure", func(t *testing.T) {
		mock := NewMockRPCClient()
		mock.TokenAccountsErr = errors.New("rpc unavailable")
		_, err := newTestClient(mock).FindSenderHoldingAccount(ctx, owner, mint)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoHoldingAccount)
		assert.Contains(t, err.Error(), "rpc unavailable")
	})
}
