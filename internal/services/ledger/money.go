package ledger

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var walletNumberPattern = regexp.MustCompile(`^[0-9]{13}$`)

// MinorUnits converts a stored amount back to int64 minor units. Values that do
// not fit are reported rather than truncated.
func MinorUnits(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s is not a whole number of minor units", ErrPermanent, d)
	}
	b := d.BigInt()
	if !b.IsInt64() {
		return 0, fmt.Errorf("%w: amount %s overflows int64 minor units", ErrPermanent, d)
	}
	return b.Int64(), nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return validationErrorf("amount must be a positive integer in minor units, got %d", amount)
	}
	return nil
}

// ValidateWalletNumber checks the syntax of a transfer destination.
func ValidateWalletNumber(number string) error {
	if !walletNumberPattern.MatchString(number) {
		return validationErrorf("wallet number must be %d digits", WalletNumberLength)
	}
	return nil
}

func validateReference(reference string) error {
	if reference == "" {
		return validationErrorf("reference is required")
	}
	if len(reference) > MaxReferenceLength {
		return validationErrorf("reference longer than %d characters", MaxReferenceLength)
	}
	return nil
}
