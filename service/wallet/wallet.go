package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/gagliardetto/solana-go"
)

// ErrUserCancelled is returned when the wallet owner declines to sign.
var ErrUserCancelled = errors.New("signing cancelled by user")

// Signer is a connected wallet. SignAndSubmit may ask the owner for approval
// and can block for as long as that takes.
type Signer interface {
	PublicKey() solana.PublicKey
	SignAndSubmit(ctx context.Context, tx *solanasvc.Transaction) (solana.Signature, error)
}

// Submitter is the part of the network the wallet needs to put a signed
// transaction on the wire.
type Submitter interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// ApprovalRequest describes what the owner is being asked to sign.
type ApprovalRequest struct {
	Signer       solana.PublicKey
	FeePayer     solana.PublicKey
	Instructions []solanasvc.InstructionSummary
}

// Approver decides whether a transaction may be signed. Returning false
// (or ErrUserCancelled) cancels the submission before anything reaches the network.
type Approver func(ctx context.Context, req ApprovalRequest) (bool, error)

// AutoApprove signs everything. Used by the server's hot wallet.
func AutoApprove(context.Context, ApprovalRequest) (bool, error) {
	return true, nil
}

// KeypairWallet signs with a locally held private key.
type KeypairWallet struct {
	key     solana.PrivateKey
	network Submitter
	approve Approver
	logger  *slog.Logger
}

// NewKeypairWallet creates a wallet around key. If approve is nil, every
// transaction is approved.
func NewKeypairWallet(key solana.PrivateKey, network Submitter, approve Approver, logger *slog.Logger) *KeypairWallet {
	if approve == nil {
		approve = AutoApprove
	}
	return &KeypairWallet{
		key:     key,
		network: network,
		approve: approve,
		logger:  logger,
	}
}

// LoadKeypairWallet reads a solana-keygen JSON keypair file.
func LoadKeypairWallet(path string, network Submitter, approve Approver, logger *slog.Logger) (*KeypairWallet, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair from %s: %w", path, err)
	}
	return NewKeypairWallet(key, network, approve, logger), nil
}

// PublicKey returns the wallet address.
func (w *KeypairWallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// SignAndSubmit asks for approval, then signs tx against a fresh blockhash and sends it.
func (w *KeypairWallet) SignAndSubmit(ctx context.Context, tx *solanasvc.Transaction) (solana.Signature, error) {
	summaries, err := solanasvc.Describe(tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to describe transaction: %w", err)
	}

	ok, err := w.approve(ctx, ApprovalRequest{
		Signer:       w.PublicKey(),
		FeePayer:     tx.FeePayer,
		Instructions: summaries,
	})
	if err != nil {
		if errors.Is(err, ErrUserCancelled) {
			return solana.Signature{}, err
		}
		return solana.Signature{}, fmt.Errorf("approval failed: %w", err)
	}
	if !ok {
		w.logger.InfoContext(ctx, "transaction declined", "wallet", w.PublicKey().String())
		return solana.Signature{}, ErrUserCancelled
	}

	blockhash, err := w.network.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	wire, err := tx.Compile(blockhash)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = wire.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := w.network.SendTransaction(ctx, wire)
	if err != nil {
		return solana.Signature{}, err
	}

	w.logger.DebugContext(ctx, "transaction submitted",
		"wallet", w.PublicKey().String(),
		"signature", sig.String(),
		"instructions", len(tx.Instructions),
	)
	return sig, nil
}
