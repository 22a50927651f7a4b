package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brojonat/solpipe/service/amount"
	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/brojonat/solpipe/service/wallet"
)

// SendNative sends amountText SOL from the signer's wallet to recipient.
// Amounts finer than one lamport are truncated, never rounded up.
func (s *Service) SendNative(ctx context.Context, signer wallet.Signer, recipient, amountText string) Result {
	start := time.Now()

	res := s.sendNative(ctx, signer, recipient, amountText)
	if res.Amount == "" {
		res.Amount = echoAmount(amountText)
	}
	res.Operation = OperationNativeTransfer
	res.Symbol = amount.NativeSymbol
	res.Recipient = strings.TrimSpace(recipient)
	if signer != nil {
		res.Wallet = signer.PublicKey().String()
	}
	if res.Confirmed() {
		res.Message = fmt.Sprintf("Sent %s %s to %s", res.Amount, res.Symbol, abbreviate(res.Recipient))
	} else {
		res.Message = "Failed to send transaction"
	}

	return s.finish(ctx, start, res)
}

func (s *Service) sendNative(ctx context.Context, signer wallet.Signer, recipient, amountText string) Result {
	if signer == nil {
		return failed(ErrWalletNotConnected)
	}

	value, err := amount.Parse(amountText)
	if err != nil {
		return failed(err)
	}

	to, err := solanasvc.ParseAddress("recipient", recipient)
	if err != nil {
		return failed(err)
	}

	lamports, err := amount.ToBaseUnits(value, amount.NativeExponent)
	if err != nil {
		return failed(err)
	}

	tx := solanasvc.BuildNativeTransfer(signer.PublicKey(), to, lamports)

	res := s.submit(ctx, tx, signer)
	res.Amount = displayAmount(lamports, amount.NativeExponent)
	res.BaseUnits = lamports
	return res
}

// SendToken sends amountText of mint from the signer's wallet to recipient,
// creating the recipient's token account in the same transaction when needed.
// An empty mint falls back to the configured default token.
func (s *Service) SendToken(ctx context.Context, signer wallet.Signer, recipient, amountText, mint string) Result {
	start := time.Now()

	if strings.TrimSpace(mint) == "" {
		mint = s.opts.DefaultTokenMint
	}

	res := s.sendToken(ctx, signer, recipient, amountText, mint)
	if res.Amount == "" {
		res.Amount = echoAmount(amountText)
	}
	res.Operation = OperationTokenTransfer
	res.Symbol = s.opts.TokenSymbol
	res.Mint = strings.TrimSpace(mint)
	res.Recipient = strings.TrimSpace(recipient)
	if signer != nil {
		res.Wallet = signer.PublicKey().String()
	}
	if res.Confirmed() {
		res.Message = fmt.Sprintf("Sent %s %s to %s", res.Amount, res.Symbol, abbreviate(res.Recipient))
	} else {
		res.Message = "Failed to send transaction"
	}

	return s.finish(ctx, start, res)
}

func (s *Service) sendToken(ctx context.Context, signer wallet.Signer, recipient, amountText, mint string) Result {
	if signer == nil {
		return failed(ErrWalletNotConnected)
	}

	value, err := amount.Parse(amountText)
	if err != nil {
		return failed(err)
	}

	to, err := solanasvc.ParseAddress("recipient", recipient)
	if err != nil {
		return failed(err)
	}

	mintKey, err := solanasvc.ParseAddress("mint", mint)
	if err != nil {
		return failed(err)
	}

	owner := signer.PublicKey()

	// Resolve the sender first: a wallet that never held the token fails here
	// without querying anything about the recipient.
	source, err := s.client.FindSenderHoldingAccount(ctx, owner, mintKey)
	if err != nil {
		return failed(err)
	}

	balance, err := s.client.HoldingAccountBalance(ctx, source)
	if err != nil {
		return failed(err)
	}

	exponent := int32(balance.Decimals)
	baseUnits, err := amount.ToBaseUnits(value, exponent)
	if err != nil {
		return failed(err)
	}

	if baseUnits > balance.Raw {
		return failed(fmt.Errorf("%w: have %s, need %s",
			solanasvc.ErrInsufficientBalance,
			displayAmount(balance.Raw, exponent),
			displayAmount(baseUnits, exponent),
		))
	}

	tx, err := s.builder.BuildTokenTransferFrom(ctx, owner, source, to, mintKey, baseUnits)
	if err != nil {
		return failed(err)
	}

	res := s.submit(ctx, tx, signer)
	res.Amount = displayAmount(baseUnits, exponent)
	res.BaseUnits = baseUnits
	return res
}

// displayAmount renders base units as a human amount, e.g. 1500000000 at 9 -> "1.5".
func displayAmount(units uint64, exponent int32) string {
	return amount.FromBaseUnits(units, exponent).String()
}

// echoAmount returns the user's amount text for a Result that never got as far
// as conversion, cut to amount.MaxTextLength.
func echoAmount(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > amount.MaxTextLength {
		return text[:amount.MaxTextLength] + "..."
	}
	return text
}
