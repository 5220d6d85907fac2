// Package errors holds the API error catalogue: a stable code and HTTP
// status for every failure a client can see.
package errors

import (
	stderrors "errors"
	"net/http"
)

// DomainError is the JSON error body returned by the API.
type DomainError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// WithMessage copies e with a more specific message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	c := *e
	c.Message = msg
	return &c
}

// As returns the *DomainError in err's chain, if any.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrBadRequest = &DomainError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: "invalid request body",
	}
	ErrUnauthorized = &DomainError{
		Status:  http.StatusUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: "unauthorized",
	}
	ErrForbidden = &DomainError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: "insufficient permissions",
	}
	ErrInternal = &DomainError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL",
		Message: "internal server error",
	}
)
