package ledger

import (
	"errors"
	"fmt"
)

// Service errors. Callers branch with errors.Is and errors.As.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrWalletNotFound             = fmt.Errorf("wallet %w", ErrNotFound)
	ErrRecipientNotFound          = fmt.Errorf("recipient wallet %w", ErrNotFound)
	ErrPendingTransactionNotFound = fmt.Errorf("pending deposit transaction %w", ErrNotFound)
	ErrTransactionNotFound        = fmt.Errorf("transaction %w", ErrNotFound)

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSelfTransfer        = errors.New("cannot transfer to your own wallet")
	ErrAmountMismatch      = errors.New("settlement amount does not match pending deposit")

	// ErrConflict is retryable: the unit of work was rolled back in full.
	ErrConflict = errors.New("ledger busy, retry the request")
	// ErrPermanent needs an operator; retrying will not help.
	ErrPermanent = errors.New("permanent ledger failure")

	ErrWalletExists    = errors.New("wallet already exists for this user")
	ErrReferenceExists = errors.New("reference already recorded")
)

// InsufficientBalanceError reports the balance seen under lock and the
// amount that was requested, both in minor units.
type InsufficientBalanceError struct {
	Available int64
	Required  int64
	Currency  string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance. Available: %d %s, Required: %d %s",
		e.Available, e.Currency, e.Required, e.Currency)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// AmountMismatchError is returned when a provider confirms an amount that
// differs from the pending deposit. The deposit has already been marked failed.
type AmountMismatchError struct {
	Reference string
	Expected  int64
	Received  int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch for %s: expected %d, received %d",
		e.Reference, e.Expected, e.Received)
}

func (e *AmountMismatchError) Is(target error) bool {
	return target == ErrAmountMismatch
}

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// errorType buckets an error for metrics labels.
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPermanent):
		return "permanent"
	case errors.Is(err, ErrWalletExists), errors.Is(err, ErrReferenceExists):
		return "duplicate"
	default:
		return "internal"
	}
}
