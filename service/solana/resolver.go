package solana

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gagliardetto/solana-go"
)

const maxAddressLength = 100 // Solana addresses are 32-44 chars, give buffer

var (
	// ErrInvalidAddress marks address input the user must correct.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNoHoldingAccount means the owner has never held the token being sent.
	ErrNoHoldingAccount = errors.New("no token account for mint")

	// ErrInsufficientBalance means the owner holds less of the token than requested.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// Valid Solana address characters: base58 (no 0, O, I, l)
	validAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// ParseAddress validates and decodes a base58 address typed by a user.
// field names the input in error messages ("recipient", "mint", ...).
func ParseAddress(field, address string) (solana.PublicKey, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: %s is required", ErrInvalidAddress, field)
	}

	if len(address) > maxAddressLength {
		return solana.PublicKey{}, fmt.Errorf("%w: %s too long", ErrInvalidAddress, field)
	}

	for _, r := range address {
		if r == 0 || unicode.IsControl(r) {
			return solana.PublicKey{}, fmt.Errorf("%w: %s contains control characters", ErrInvalidAddress, field)
		}
	}

	if !validAddressRegex.MatchString(address) {
		return solana.PublicKey{}, fmt.Errorf("%w: %s must contain only base58 characters", ErrInvalidAddress, field)
	}

	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, field, err)
	}

	return key, nil
}

// DeriveHoldingAccount returns the associated token account address for (owner, mint).
// It is a pure derivation; the account may or may not exist.
func DeriveHoldingAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}
	return ata, nil
}

// FindSenderHoldingAccount returns the owner's token account for mint.
// The associated token account is preferred when the owner has several.
// If the owner has none, the error wraps ErrNoHoldingAccount.
func (c *Client) FindSenderHoldingAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	accounts, err := c.TokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	if len(accounts) == 0 {
		c.logger.DebugContext(ctx, "sender holds no token account for mint",
			"owner", owner.String(),
			"mint", mint.String(),
		)
		return solana.PublicKey{}, fmt.Errorf("%w: %s does not hold %s", ErrNoHoldingAccount, owner, mint)
	}

	if ata, err := DeriveHoldingAccount(owner, mint); err == nil {
		for _, acct := range accounts {
			if acct.Equals(ata) {
				return acct, nil
			}
		}
	}

	return accounts[0], nil
}
