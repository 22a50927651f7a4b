package transfer

import (
	"errors"

	"github.com/brojonat/solpipe/service/amount"
	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/brojonat/solpipe/service/wallet"
)

// Category groups failures by what the caller can do about them.
type Category string

const (
	// CategoryInput: malformed address or amount. Fix the input and retry.
	CategoryInput Category = "input"
	// CategoryPrecondition: the wallet cannot perform this operation as is.
	CategoryPrecondition Category = "precondition"
	// CategoryCancelled: the wallet owner declined to sign.
	CategoryCancelled Category = "cancelled"
	// CategoryNetwork: any query, submission or confirmation failure.
	CategoryNetwork Category = "network"
)

// ErrWalletNotConnected is returned when an operation is started without a signer.
var ErrWalletNotConnected = errors.New("wallet not connected")

// Classify maps an error from any stage of a pipeline to its Category.
// Errors that are not recognized are network failures.
func Classify(err error) Category {
	switch {
	case errors.Is(err, amount.ErrInvalidAmount),
		errors.Is(err, solanasvc.ErrInvalidAddress):
		return CategoryInput
	case errors.Is(err, solanasvc.ErrNoHoldingAccount),
		errors.Is(err, solanasvc.ErrInsufficientBalance),
		errors.Is(err, ErrWalletNotConnected):
		return CategoryPrecondition
	case errors.Is(err, wallet.ErrUserCancelled):
		return CategoryCancelled
	default:
		return CategoryNetwork
	}
}
