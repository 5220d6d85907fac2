package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var walletNumberSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(WalletNumberDigits), nil)

// GenerateWalletNumber returns "4" followed by 12 uniformly random digits.
func GenerateWalletNumber() (string, error) {
	n, err := rand.Int(rand.Reader, walletNumberSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%0*d", WalletNumberPrefix, WalletNumberDigits, n.Int64()), nil
}

func (s *service) CreateWallet(ctx context.Context, ownerID uuid.UUID) (wallet *models.Wallet, err error) {
	defer s.observe(opCreateWallet, s.config.Clock(), &err)

	if ownerID == uuid.Nil {
		return nil, validationErrorf("owner id is required")
	}
	if _, err := s.store.Wallets().GetByUserID(ctx, ownerID); err == nil {
		return nil, ErrWalletExists
	} else if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, s.mapError(err)
	}

	for attempt := 1; attempt <= s.config.WalletNumberAttempts; attempt++ {
		number, err := s.config.NumberGenerator()
		if err != nil {
			return nil, fmt.Errorf("failed to generate wallet number: %w", err)
		}

		taken, err := s.store.Wallets().ExistsByWalletNumber(ctx, number)
		if err != nil {
			return nil, s.mapError(err)
		}
		if taken {
			s.logger.Warn("wallet number collision", zap.Int("attempt", attempt))
			continue
		}

		wallet = &models.Wallet{
			UserID:       ownerID,
			WalletNumber: number,
			Currency:     s.config.DefaultCurrency,
		}
		err = s.store.Wallets().Create(ctx, wallet)
		switch {
		case err == nil:
			s.logger.Info("wallet created",
				zap.String("owner_id", ownerID.String()),
				zap.String("wallet_id", wallet.ID.String()))
			return wallet, nil
		case errors.Is(err, repositories.ErrDuplicateWalletNumber):
			s.logger.Warn("wallet number taken on insert", zap.Int("attempt", attempt))
			continue
		case errors.Is(err, repositories.ErrDuplicateWallet):
			return nil, ErrWalletExists
		default:
			return nil, s.mapError(err)
		}
	}

	s.logger.Error("wallet number space exhausted",
		zap.String("owner_id", ownerID.String()),
		zap.Int("attempts", s.config.WalletNumberAttempts))
	return nil, fmt.Errorf("%w: failed to generate unique wallet number after %d attempts",
		ErrPermanent, s.config.WalletNumberAttempts)
}

// EnsureWallet returns the owner's wallet, creating it on first use.
func (s *service) EnsureWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.GetWallet(ctx, ownerID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	wallet, err = s.CreateWallet(ctx, ownerID)
	if errors.Is(err, ErrWalletExists) {
		// lost a race with a concurrent creator
		return s.GetWallet(ctx, ownerID)
	}
	return wallet, err
}
