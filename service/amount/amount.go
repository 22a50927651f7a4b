package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeExponent is the number of decimal places in one SOL (1 SOL = 10^9 lamports).
const NativeExponent int32 = 9

// NativeSymbol is the display symbol for the network's native currency.
const NativeSymbol = "SOL"

// ErrInvalidAmount is returned for any amount the user should correct and resubmit.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxTextLength caps the length of amount text accepted by Parse.
const MaxTextLength = 64

// maxBaseUnitDigits is the number of decimal digits in math.MaxUint64.
const maxBaseUnitDigits = 20

// Parse converts user-entered text into a non-negative decimal amount.
// The value is interpreted in display units (SOL, or whole tokens).
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	if len(s) > MaxTextLength {
		return decimal.Zero, fmt.Errorf("%w: amount is longer than %d characters", ErrInvalidAmount, MaxTextLength)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, s)
	}

	return d, nil
}

// ToBaseUnits returns floor(a * 10^exponent).
// The result is truncated, never rounded, so a transfer is never larger than what
// the user typed.
//
// Magnitude is checked from the coefficient's digit count and the decimal
// exponent before any scaling, so inputs like 1e9999999 fail without
// materialising the expanded value. Error text never includes the expanded
// value either.
func ToBaseUnits(a decimal.Decimal, exponent int32) (uint64, error) {
	if a.IsNegative() {
		return 0, fmt.Errorf("%w: amount is negative", ErrInvalidAmount)
	}
	if exponent < 0 {
		return 0, fmt.Errorf("%w: exponent %d is negative", ErrInvalidAmount, exponent)
	}
	if a.IsZero() {
		return 0, nil
	}

	// a*10^exponent = coefficient * 10^shift, and coefficient has digits digits,
	// so the integer part has digits+shift digits when that is positive.
	digits := int64(a.NumDigits())
	shift := int64(a.Exponent()) + int64(exponent)
	if digits+shift > maxBaseUnitDigits {
		return 0, fmt.Errorf("%w: amount overflows base units at exponent %d", ErrInvalidAmount, exponent)
	}
	if digits+shift <= 0 {
		return 0, nil
	}

	units := a.Shift(exponent).Floor().BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("%w: amount overflows base units at exponent %d", ErrInvalidAmount, exponent)
	}

	return units.Uint64(), nil
}

// ParseBaseUnits is Parse followed by ToBaseUnits.
func ParseBaseUnits(s string, exponent int32) (uint64, error) {
	d, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return ToBaseUnits(d, exponent)
}

// FromBaseUnits converts an integer base-unit quantity back to display units.
func FromBaseUnits(units uint64, exponent int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -exponent)
}

// Currency identifies what an amount is denominated in.
// Mint is empty for the native currency. Token exponents are not known statically;
// callers look them up on-chain and set Exponent before converting.
type Currency struct {
	Symbol   string
	Mint     string
	Exponent int32
}

// Native returns the descriptor for SOL.
func Native() Currency {
	return Currency{Symbol: NativeSymbol, Exponent: NativeExponent}
}

// IsNative reports whether c describes the native currency.
func (c Currency) IsNative() bool {
	return c.Mint == ""
}
