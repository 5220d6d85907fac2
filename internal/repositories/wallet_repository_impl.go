package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	err := r.db.WithContext(ctx).Create(wallet).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Both user_id and wallet_number are unique. Wallets are created outside
		// a database transaction, so a follow-up read is still allowed here.
		var count int64
		if cerr := r.db.WithContext(ctx).Model(&models.Wallet{}).
			Where("user_id = ?", wallet.UserID).Count(&count).Error; cerr == nil && count > 0 {
			return ErrDuplicateWallet
		}
		return ErrDuplicateWalletNumber
	}
	return fmt.Errorf("failed to create wallet: %w", translateError(err))
}

func (r *walletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return r.first(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *walletRepository) GetByWalletNumber(ctx context.Context, walletNumber string) (*models.Wallet, error) {
	return r.first(r.db.WithContext(ctx).Where("wallet_number = ?", walletNumber))
}

func (r *walletRepository) ExistsByWalletNumber(ctx context.Context, walletNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("wallet_number = ?", walletNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wallet number: %w", translateError(err))
	}
	return count > 0, nil
}

func (r *walletRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *walletRepository) UpdateBalance(ctx context.Context, wallet *models.Wallet) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]interface{}{
			"balance":    wallet.Balance,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet balance: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	wallet.Version++
	wallet.UpdatedAt = now
	return nil
}

func (r *walletRepository) GetTotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Select("SUM(balance)").
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total balance: %w", translateError(err))
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *walletRepository) first(query *gorm.DB) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := query.First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", translateError(err))
	}
	return &wallet, nil
}
