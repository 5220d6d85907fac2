package errors

import "net/http"

var (
	ErrValidation = &DomainError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
	}
	ErrWalletNotFound = &DomainError{
		Status:  http.StatusNotFound,
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrRecipientNotFound = &DomainError{
		Status:  http.StatusNotFound,
		Code:    "RECIPIENT_NOT_FOUND",
		Message: "recipient wallet not found",
	}
	ErrTransactionNotFound = &DomainError{
		Status:  http.StatusNotFound,
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
	ErrInsufficientBalance = &DomainError{
		Status:  http.StatusBadRequest,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrSelfTransfer = &DomainError{
		Status:  http.StatusBadRequest,
		Code:    "SELF_TRANSFER",
		Message: "cannot transfer to your own wallet",
	}
	ErrWalletExists = &DomainError{
		Status:  http.StatusConflict,
		Code:    "WALLET_EXISTS",
		Message: "wallet already exists for this user",
	}
	ErrReferenceExists = &DomainError{
		Status:  http.StatusConflict,
		Code:    "REFERENCE_EXISTS",
		Message: "reference already recorded",
	}
	ErrAmountMismatch = &DomainError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "AMOUNT_MISMATCH",
		Message: "settlement amount does not match pending deposit",
	}
	// ErrConflict tells the client the whole operation rolled back and can
	// be retried.
	ErrConflict = &DomainError{
		Status:  http.StatusServiceUnavailable,
		Code:    "LEDGER_BUSY",
		Message: "ledger busy, retry the request",
	}
	ErrProvider = &DomainError{
		Status:  http.StatusBadGateway,
		Code:    "PROVIDER_ERROR",
		Message: "payment provider unavailable",
	}
	ErrInvalidSignature = &DomainError{
		Status:  http.StatusUnauthorized,
		Code:    "INVALID_SIGNATURE",
		Message: "invalid signature",
	}
)
