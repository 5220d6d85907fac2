package ledger

import (
	"context"
	"time"

	"kobo/internal/models"
)

// Config holds configuration for ledger operations
type Config struct {
	DefaultCurrency       string
	WalletNumberAttempts  int
	IdempotencySuccessTTL time.Duration
	IdempotencyFailureTTL time.Duration
	// OperationTimeout bounds a whole unit of work, lock waits included.
	OperationTimeout time.Duration
	BalanceCacheTTL  time.Duration

	// NumberGenerator and Clock are replaceable for tests.
	NumberGenerator func() (string, error)
	Clock           func() time.Time
}

// Balance is what GetBalance returns. Amounts are minor units.
type Balance struct {
	Balance      int64  `json:"balance"`
	WalletNumber string `json:"wallet_number"`
	Currency     string `json:"currency"`
}

// TransferResult holds both sides of a committed transfer.
type TransferResult struct {
	Sender    *models.Transaction
	Recipient *models.Transaction
}

// Settlement is the outcome of SettleDeposit. Response holds the exact bytes
// recorded for the reference; replays return them unchanged.
type Settlement struct {
	Reference  string
	Outcome    string
	StatusCode int
	Response   []byte
	// Transaction is nil when the result came straight from the idempotency store.
	Transaction *models.Transaction
	Replayed    bool
}

// Succeeded reports whether the deposit was credited.
func (s *Settlement) Succeeded() bool {
	return s.Outcome == models.IdempotencyOutcomeSuccess
}

// settlementBody is the JSON document stored per settlement reference. Its
// fields are derived only from the settled transaction so a rebuilt body
// matches the original byte for byte.
type settlementBody struct {
	Message       string `json:"message"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	BalanceAfter  *int64 `json:"balance_after,omitempty"`
	Error         string `json:"error,omitempty"`
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	// Cache metrics
	RecordCacheHit(key string)
	RecordCacheMiss(key string)

	// Error metrics
	RecordError(operation, errType string)

	// Transaction metrics
	RecordTransaction(txType string, amount int64)
	RecordIdempotentReplay(operation string)
}

// BalanceCache is the read-through cache in front of GetBalance. Entries carry
// the wallet version they were read at; SetIfNewer must refuse a version that
// is not greater than the stored one.
type BalanceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetIfNewer(ctx context.Context, key string, value interface{}, version int64, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}
