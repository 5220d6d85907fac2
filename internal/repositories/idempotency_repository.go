package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdempotencyRepository stores settlement responses keyed by provider reference.
type IdempotencyRepository interface {
	// Get returns the stored record for key, expired or not.
	Get(ctx context.Context, key string) (*models.IdempotencyKey, error)
	// Create stores a record once. If the key is already taken the existing
	// row is kept and ErrDuplicateIdempotencyKey is returned.
	Create(ctx context.Context, record *models.IdempotencyKey) error
	// DeleteExpired purges records whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type idempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Get(ctx context.Context, key string) (*models.IdempotencyKey, error) {
	if key == "" {
		return nil, ErrIdempotencyKeyNotFound
	}
	var record models.IdempotencyKey
	if err := r.db.WithContext(ctx).Where(&models.IdempotencyKey{Key: key}).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdempotencyKeyNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency key: %w", translateError(err))
	}
	return &record, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, record *models.IdempotencyKey) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return fmt.Errorf("failed to store idempotency key: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateIdempotencyKey
	}
	return nil
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.IdempotencyKey{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge idempotency keys: %w", translateError(result.Error))
	}
	return result.RowsAffected, nil
}
