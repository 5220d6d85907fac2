package ledger

import "time"

// Default configuration values
const (
	DefaultCurrency              = "NGN"
	DefaultWalletNumberAttempts  = 10
	DefaultIdempotencySuccessTTL = 30 * 24 * time.Hour
	DefaultIdempotencyFailureTTL = 7 * 24 * time.Hour
	DefaultTimeout               = 15 * time.Second
	DefaultHistoryLimit          = 50
	MaxHistoryLimit              = 100
	MaxReferenceLength           = 255
)

// Wallet numbers are a fixed prefix followed by random digits.
const (
	WalletNumberPrefix = "4"
	WalletNumberDigits = 12
	WalletNumberLength = len(WalletNumberPrefix) + WalletNumberDigits
)

// Cache keys and durations
const (
	BalanceCachePrefix = "wallet:balance:"
	CacheDuration      = 5 * time.Minute
)

// Settlement response messages
const (
	MessageSettled       = "Wallet credited successfully"
	MessageSettleFailed  = "Processing failed"
	MetadataErrorMessage = "Amount mismatch"
)

// Operation names used in logs and metrics
const (
	opCreateWallet   = "create_wallet"
	opGetBalance     = "get_balance"
	opHistory        = "transaction_history"
	opTransfer       = "transfer"
	opPendingDeposit = "create_pending_deposit"
	opSettle         = "settle_deposit"
	opFindReference  = "find_by_reference"
	opPurge          = "purge_idempotency"
)
