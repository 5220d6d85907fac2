package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle. Inside
// ExecuteInTransaction every repository handed to fn runs on the same
// database transaction, so row locks taken through one are visible to all.
type Store interface {
	Wallets() WalletRepository
	Transactions() TransactionRepository
	Idempotency() IdempotencyRepository
	Users() UserRepository

	// ExecuteInTransaction commits when fn returns nil and rolls back
	// otherwise. Lock and serialization failures come back wrapping
	// ErrLockConflict.
	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

type gormStore struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*gormStore)

// WithLockTimeout bounds how long a statement waits for a row lock on
// PostgreSQL before failing with a conflict.
func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *gormStore) {
		s.lockTimeout = d
	}
}

func NewStore(db *gorm.DB, opts ...StoreOption) Store {
	s := &gormStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gormStore) Wallets() WalletRepository           { return NewWalletRepository(s.db) }
func (s *gormStore) Transactions() TransactionRepository { return NewTransactionRepository(s.db) }
func (s *gormStore) Idempotency() IdempotencyRepository  { return NewIdempotencyRepository(s.db) }
func (s *gormStore) Users() UserRepository               { return NewUserRepository(s.db) }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormStore{db: tx, lockTimeout: s.lockTimeout})
	})
	return translateError(err)
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
