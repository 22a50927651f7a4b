package solana

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brojonat/solpipe/service/metrics"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// Builder assembles transfer transactions. Token transfers need the
// network to decide whether the recipient's token account must be created.
type Builder struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewBuilder creates a Builder that queries the network through client.
func NewBuilder(client *Client, m *metrics.Metrics, logger *slog.Logger) *Builder {
	return &Builder{
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// BuildNativeTransfer returns a single System Program transfer paid by from.
// Sending to yourself is allowed; the network treats it as a no-op.
func BuildNativeTransfer(from, to solana.PublicKey, lamports uint64) *Transaction {
	return NewTransaction(from,
		system.NewTransferInstruction(lamports, from, to).Build(),
	)
}

// BuildTokenTransfer returns [create?, transfer] moving baseUnits of mint from
// owner to recipient. The create instruction is included only when the
// recipient's associated token account does not exist yet, and always comes
// first so the account exists by the time the transfer runs.
func (b *Builder) BuildTokenTransfer(
	ctx context.Context,
	owner, recipient, mint solana.PublicKey,
	baseUnits uint64,
) (*Transaction, error) {
	source, err := b.client.FindSenderHoldingAccount(ctx, owner, mint)
	if err != nil {
		return nil, err
	}

	return b.BuildTokenTransferFrom(ctx, owner, source, recipient, mint, baseUnits)
}

// BuildTokenTransferFrom is BuildTokenTransfer for a caller that has already
// resolved owner's source holding account.
func (b *Builder) BuildTokenTransferFrom(
	ctx context.Context,
	owner, source, recipient, mint solana.PublicKey,
	baseUnits uint64,
) (*Transaction, error) {
	destination, err := DeriveHoldingAccount(recipient, mint)
	if err != nil {
		return nil, err
	}

	exists, err := b.client.AccountExists(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to check recipient token account: %w", err)
	}

	tx := NewTransaction(owner,
		token.NewTransferInstruction(baseUnits, source, destination, owner, nil).Build(),
	)

	if !exists {
		tx.Prepend(associatedtokenaccount.NewCreateInstruction(owner, recipient, mint).Build())
		if b.metrics != nil {
			b.metrics.RecordHoldingAccountCreated(mint.String())
		}
	}

	b.logger.DebugContext(ctx, "built token transfer",
		"owner", owner.String(),
		"recipient", recipient.String(),
		"mint", mint.String(),
		"source", source.String(),
		"destination", destination.String(),
		"create_destination", !exists,
		"base_units", baseUnits,
	)

	return tx, nil
}
