package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrDuplicateWallet         = errors.New("wallet already exists")
	ErrDuplicateWalletNumber   = errors.New("wallet number already taken")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrTransactionNotPending   = errors.New("transaction is not pending")
	ErrDuplicateReference      = errors.New("transaction reference already exists")
	ErrIdempotencyKeyNotFound  = errors.New("idempotency key not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrLockConflict            = errors.New("lock or serialization conflict")
)

// PostgreSQL error codes that mean the statement lost a race and can be retried.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

// translateError maps driver-level contention errors onto ErrLockConflict.
// Everything else is returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrLockConflict, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled:
			return errors.Join(ErrLockConflict, err)
		}
		return err
	}

	// SQLITE_BUSY surfaces as a plain message from the sqlite driver
	if strings.Contains(err.Error(), "database is locked") {
		return errors.Join(ErrLockConflict, err)
	}
	return err
}

// IsConflict reports whether err is a retryable lock or serialization conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrLockConflict)
}
