package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	store   repositories.Store
	cache   BalanceCache
	config  Config
	metrics MetricsCollector
	logger  *zap.Logger
}

// NewService creates a new ledger service
func NewService(
	store repositories.Store,
	cache BalanceCache,
	config Config,
	metrics MetricsCollector,
	logger *zap.Logger,
) Service {
	if store == nil {
		panic("store is required")
	}

	// Set default configuration values if not provided
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if config.WalletNumberAttempts <= 0 {
		config.WalletNumberAttempts = DefaultWalletNumberAttempts
	}
	if config.IdempotencySuccessTTL <= 0 {
		config.IdempotencySuccessTTL = DefaultIdempotencySuccessTTL
	}
	if config.IdempotencyFailureTTL <= 0 {
		config.IdempotencyFailureTTL = DefaultIdempotencyFailureTTL
	}
	if config.OperationTimeout <= 0 {
		config.OperationTimeout = DefaultTimeout
	}
	if config.BalanceCacheTTL <= 0 {
		config.BalanceCacheTTL = CacheDuration
	}
	if config.NumberGenerator == nil {
		config.NumberGenerator = GenerateWalletNumber
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	// Cache, metrics and logger are optional
	if cache == nil {
		cache = NoopCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &service{
		store:   store,
		cache:   cache,
		config:  config,
		metrics: metrics,
		logger:  logger.Named("ledger"),
	}
}

func (s *service) GetWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.store.Wallets().GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return wallet, nil
}

func (s *service) GetBalance(ctx context.Context, ownerID uuid.UUID) (balance *Balance, err error) {
	defer s.observe(opGetBalance, s.config.Clock(), &err)

	key := balanceCacheKey(ownerID)
	var cached Balance
	if found, cerr := s.cache.Get(ctx, key, &cached); cerr != nil {
		s.logger.Warn("balance cache read failed", zap.String("key", key), zap.Error(cerr))
	} else if found {
		s.metrics.RecordCacheHit(BalanceCachePrefix)
		return &cached, nil
	}
	s.metrics.RecordCacheMiss(BalanceCachePrefix)

	wallet, err := s.store.Wallets().GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, s.mapError(err)
	}
	balance, err = balanceOf(wallet)
	if err != nil {
		return nil, err
	}
	// A commit that lands after the read above has already stored a higher
	// version, so this older snapshot is dropped.
	if _, cerr := s.cache.SetIfNewer(ctx, key, balance, wallet.Version, s.config.BalanceCacheTTL); cerr != nil {
		s.logger.Warn("balance cache write failed", zap.String("key", key), zap.Error(cerr))
	}
	return balance, nil
}

func balanceOf(wallet *models.Wallet) (*Balance, error) {
	amount, err := MinorUnits(wallet.Balance)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Balance:      amount,
		WalletNumber: wallet.WalletNumber,
		Currency:     wallet.Currency,
	}, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, ownerID uuid.UUID, limit, offset int) (txns []models.Transaction, err error) {
	defer s.observe(opHistory, s.config.Clock(), &err)

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		return nil, validationErrorf("offset must not be negative")
	}

	wallet, err := s.store.Wallets().GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, s.mapError(err)
	}
	txns, err = s.store.Transactions().ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	return txns, nil
}

func (s *service) FindTransactionByReference(ctx context.Context, reference string) (txn *models.Transaction, err error) {
	defer s.observe(opFindReference, s.config.Clock(), &err)

	if err := validateReference(reference); err != nil {
		return nil, err
	}
	txn, err = s.store.Transactions().GetByReference(ctx, reference)
	if err != nil {
		return nil, s.mapError(err)
	}
	return txn, nil
}

func (s *service) PurgeExpiredIdempotencyKeys(ctx context.Context) (n int64, err error) {
	defer s.observe(opPurge, s.config.Clock(), &err)

	n, err = s.store.Idempotency().DeleteExpired(ctx, s.config.Clock())
	if err != nil {
		return 0, s.mapError(err)
	}
	return n, nil
}

// withTimeout bounds a unit of work so lock waits cannot hang a request.
func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.OperationTimeout)
}

// mapError turns repository errors into the ledger taxonomy. Errors that are
// already part of the taxonomy pass through untouched.
func (s *service) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrWalletNotFound):
		return ErrWalletNotFound
	case errors.Is(err, repositories.ErrTransactionNotFound):
		return ErrTransactionNotFound
	case repositories.IsConflict(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

func (s *service) observe(operation string, start time.Time, errp *error) {
	s.metrics.RecordOperationDuration(operation, s.config.Clock().Sub(start))
	if errp != nil && *errp != nil {
		s.metrics.RecordOperationResult(operation, "error")
		s.metrics.RecordError(operation, errorType(*errp))
		return
	}
	s.metrics.RecordOperationResult(operation, "success")
}

func balanceCacheKey(ownerID uuid.UUID) string {
	return BalanceCachePrefix + ownerID.String()
}

// refreshBalances writes the committed snapshot of each wallet into the
// cache. When that fails the key is dropped instead so no reader is served a
// balance older than the commit.
func (s *service) refreshBalances(ctx context.Context, wallets ...*models.Wallet) {
	for _, w := range wallets {
		key := balanceCacheKey(w.UserID)
		balance, err := balanceOf(w)
		if err == nil {
			_, err = s.cache.SetIfNewer(ctx, key, balance, w.Version, s.config.BalanceCacheTTL)
		}
		if err == nil {
			continue
		}
		s.logger.Warn("balance cache refresh failed", zap.String("key", key), zap.Error(err))
		if derr := s.cache.Delete(ctx, key); derr != nil {
			s.logger.Warn("balance cache invalidation failed", zap.String("key", key), zap.Error(derr))
		}
	}
}
