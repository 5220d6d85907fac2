package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository persists ledger entries. Entries are append-only
// except for the single pending -> terminal status transition.
type TransactionRepository interface {
	// Create inserts a ledger entry. A reused provider reference yields
	// ErrDuplicateReference.
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)

	// LockByReference reads the entry with an exclusive row lock.
	LockByReference(ctx context.Context, reference string) (*models.Transaction, error)

	// Settle moves a pending entry to the terminal status next, persisting the
	// balance snapshots and metadata on txn, and sets txn.Status on success.
	// Entries that are no longer pending are left alone and
	// ErrTransactionNotPending is returned.
	Settle(ctx context.Context, txn *models.Transaction, next models.TransactionStatus) error

	// ListByWallet returns entries newest first.
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create transaction: %w", translateError(err))
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	return r.first(r.db.WithContext(ctx).Where("reference = ?", reference))
}

func (r *transactionRepository) LockByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference))
}

func (r *transactionRepository) Settle(ctx context.Context, txn *models.Transaction, next models.TransactionStatus) error {
	if !txn.CanTransitionTo(next) {
		if txn.Status != models.TransactionStatusPending {
			return ErrTransactionNotPending
		}
		return fmt.Errorf("cannot settle transaction %s into status %q", txn.ID, next)
	}
	now := time.Now()
	// The status guard also catches a stale in-memory copy of a row that was
	// settled elsewhere.
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":         next,
			"balance_before": txn.BalanceBefore,
			"balance_after":  txn.BalanceAfter,
			"metadata":       txn.Metadata,
			"updated_at":     now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to settle transaction: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotPending
	}
	txn.Status = next
	txn.UpdatedAt = now
	return nil
}

func (r *transactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", translateError(err))
	}
	return transactions, nil
}

func (r *transactionRepository) first(query *gorm.DB) (*models.Transaction, error) {
	var txn models.Transaction
	if err := query.First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", translateError(err))
	}
	return &txn, nil
}
