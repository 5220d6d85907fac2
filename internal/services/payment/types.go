package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAmountOutOfRange = errors.New("deposit amount out of range")
	ErrEmailRequired    = errors.New("email is required to start a deposit")
	// ErrProvider wraps failures talking to the payment provider.
	ErrProvider = errors.New("payment provider error")
)

// InitializeRequest carries what a provider needs to open a checkout.
// Amount is in minor units.
type InitializeRequest struct {
	Email    string
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Initialization is the provider's answer: where to send the payer and the
// reference its notifications will carry.
type Initialization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// DepositRequest is a caller's request to fund their wallet.
type DepositRequest struct {
	OwnerID uuid.UUID
	Email   string
	Amount  int64
}

// DepositInitiation is returned to the client after the pending row exists.
type DepositInitiation struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Amount           int64  `json:"amount"`
	Provider         string `json:"provider"`
}

// DepositStatus is a read-only view of a deposit.
type DepositStatus struct {
	Reference    string    `json:"reference"`
	Status       string    `json:"status"`
	Amount       int64     `json:"amount"`
	BalanceAfter *int64    `json:"balance_after,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Limits bounds a single deposit, in minor units.
type Limits struct {
	MinAmount int64
	MaxAmount int64
}
