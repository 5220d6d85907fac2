package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/repositories/repotest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	svc   Service
	store repositories.Store
	db    *gorm.DB
	cache *mapCache
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	store, db := repotest.NewStore(t)
	cache := newMapCache()
	return &testEnv{
		svc:   NewService(store, cache, cfg, nil, nil),
		store: store,
		db:    db,
		cache: cache,
	}
}

// newFundedWallet provisions a wallet and funds it through a settled deposit
// so every unit of balance is backed by a transaction row.
func (e *testEnv) newFundedWallet(t *testing.T, amount int64) (uuid.UUID, *models.Wallet) {
	t.Helper()
	ctx := context.Background()
	owner := uuid.New()
	w, err := e.svc.CreateWallet(ctx, owner)
	require.NoError(t, err)
	if amount > 0 {
		ref := "fund_" + uuid.NewString()
		_, err := e.svc.CreatePendingDeposit(ctx, owner, amount, ref)
		require.NoError(t, err)
		_, err = e.svc.SettleDeposit(ctx, ref, amount)
		require.NoError(t, err)
	}
	return owner, w
}

func (e *testEnv) balance(t *testing.T, walletID uuid.UUID) int64 {
	t.Helper()
	w, err := e.store.Wallets().GetByID(context.Background(), walletID)
	require.NoError(t, err)
	v, err := MinorUnits(w.Balance)
	require.NoError(t, err)
	return v
}

func (e *testEnv) countRows(t *testing.T, walletID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Transaction{}).Where("wallet_id = ?", walletID).Count(&n).Error)
	return n
}

// assertLedgerInvariant recomputes each balance from the wallet's own
// successful rows.
func (e *testEnv) assertLedgerInvariant(t *testing.T) {
	t.Helper()
	var wallets []models.Wallet
	require.NoError(t, e.db.Find(&wallets).Error)
	for _, w := range wallets {
		var rows []models.Transaction
		require.NoError(t, e.db.Where("wallet_id = ? AND status = ?", w.ID, models.TransactionStatusSuccess).Find(&rows).Error)
		sum := decimal.Zero
		for _, r := range rows {
			switch r.Type {
			case models.TransactionTypeDeposit, models.TransactionTypeTransferIn:
				sum = sum.Add(r.Amount)
			case models.TransactionTypeTransferOut:
				sum = sum.Sub(r.Amount)
			}
		}
		assert.True(t, w.Balance.Equal(sum), "wallet %s balance %s != ledger sum %s", w.WalletNumber, w.Balance, sum)
		assert.False(t, w.Balance.IsNegative(), "wallet %s went negative", w.WalletNumber)
	}

	// transfers move money between wallets, so only deposits change the total
	var deposits []models.Transaction
	require.NoError(t, e.db.Where("type = ? AND status = ?", models.TransactionTypeDeposit, models.TransactionStatusSuccess).Find(&deposits).Error)
	deposited := decimal.Zero
	for _, d := range deposits {
		deposited = deposited.Add(d.Amount)
	}
	total, err := e.store.Wallets().GetTotalBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(deposited), "total balance %s != settled deposits %s", total, deposited)
}

type cacheEntry struct {
	raw     []byte
	version int64
	ttl     time.Duration
}

// mapCache keeps versioned entries the way the redis cache does.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]cacheEntry)}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.raw, dest)
}

func (c *mapCache) SetIfNewer(_ context.Context, key string, value interface{}, version int64, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.version >= version {
		return false, nil
	}
	c.entries[key] = cacheEntry{raw: raw, version: version, ttl: ttl}
	return true, nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *mapCache) entry(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// racingCache runs interleave once, between the moment GetBalance has read
// the wallet and the moment it stores the snapshot.
type racingCache struct {
	*mapCache
	hookMu     sync.Mutex
	interleave func()
}

func (c *racingCache) SetIfNewer(ctx context.Context, key string, value interface{}, version int64, ttl time.Duration) (bool, error) {
	c.hookMu.Lock()
	hook := c.interleave
	c.interleave = nil
	c.hookMu.Unlock()
	if hook != nil {
		hook()
	}
	return c.mapCache.SetIfNewer(ctx, key, value, version, ttl)
}

func (c *racingCache) arm(hook func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.interleave = hook
}

func TestGenerateWalletNumber(t *testing.T) {
	for i := 0; i < 200; i++ {
		n, err := GenerateWalletNumber()
		require.NoError(t, err)
		assert.Len(t, n, WalletNumberLength)
		assert.Equal(t, "4", n[:1])
		assert.NoError(t, ValidateWalletNumber(n))
	}
}

func TestValidateWalletNumber(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		wantErr bool
	}{
		{name: "valid", number: "4123456789012"},
		{name: "too short", number: "412345678901", wantErr: true},
		{name: "too long", number: "41234567890123", wantErr: true},
		{name: "letters", number: "41234567890ab", wantErr: true},
		{name: "empty", number: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWalletNumber(tt.number)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestService_CreateWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("new owner gets a zero balance wallet", func(t *testing.T) {
		env := newTestEnv(t, Config{})
		owner := uuid.New()

		w, err := env.svc.CreateWallet(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, owner, w.UserID)
		assert.Equal(t, DefaultCurrency, w.Currency)
		assert.True(t, w.Balance.IsZero())
		assert.NoError(t, ValidateWalletNumber(w.WalletNumber))
	})

	t.Run("second wallet for the same owner", func(t *testing.T) {
		env := newTestEnv(t, Config{})
		owner := uuid.New()
		_, err := env.svc.CreateWallet(ctx, owner)
		require.NoError(t, err)

		_, err = env.svc.CreateWallet(ctx, owner)
		assert.ErrorIs(t, err, ErrWalletExists)
	})

	t.Run("retries on collision", func(t *testing.T) {
		numbers := []string{"4000000000001", "4000000000001", "4000000000002"}
		var calls int
		env := newTestEnv(t, Config{NumberGenerator: func() (string, error) {
			n := numbers[calls]
			calls++
			return n, nil
		}})

		first, err := env.svc.CreateWallet(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "4000000000001", first.WalletNumber)

		second, err := env.svc.CreateWallet(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "4000000000002", second.WalletNumber)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted attempts are permanent", func(t *testing.T) {
		env := newTestEnv(t, Config{
			WalletNumberAttempts: 3,
			NumberGenerator:      func() (string, error) { return "4000000000009", nil },
		})
		_, err := env.svc.CreateWallet(ctx, uuid.New())
		require.NoError(t, err)

		_, err = env.svc.CreateWallet(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrPermanent)
		assert.Contains(t, err.Error(), "failed to generate unique wallet number")
	})

	t.Run("nil owner", func(t *testing.T) {
		env := newTestEnv(t, Config{})
		_, err := env.svc.CreateWallet(ctx, uuid.Nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_EnsureWallet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	owner := uuid.New()

	first, err := env.svc.EnsureWallet(ctx, owner)
	require.NoError(t, err)
	again, err := env.svc.EnsureWallet(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestService_GetBalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{BalanceCacheTTL: time.Minute})

	_, err := env.svc.GetBalance(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrWalletNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	owner, w := env.newFundedWallet(t, 2500)
	key := balanceCacheKey(owner)
	// the settled deposit wrote the committed snapshot
	entry, ok := env.cache.entry(key)
	require.True(t, ok)
	assert.Equal(t, int64(1), entry.version)
	assert.Equal(t, time.Minute, entry.ttl)

	b, err := env.svc.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), b.Balance)
	assert.Equal(t, w.WalletNumber, b.WalletNumber)
	assert.Equal(t, "NGN", b.Currency)

	// a transfer out replaces the cached snapshot
	_, other := env.newFundedWallet(t, 0)
	_, err = env.svc.Transfer(ctx, owner, other.WalletNumber, 500)
	require.NoError(t, err)
	entry, ok = env.cache.entry(key)
	require.True(t, ok)
	assert.Equal(t, int64(2), entry.version)

	b, err = env.svc.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), b.Balance)
}

func TestService_GetBalance_FillsCacheOnMiss(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})

	owner, _ := env.newFundedWallet(t, 2500)
	key := balanceCacheKey(owner)
	require.NoError(t, env.cache.Delete(ctx, key))

	b, err := env.svc.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), b.Balance)

	entry, ok := env.cache.entry(key)
	require.True(t, ok)
	assert.Equal(t, int64(1), entry.version)
	assert.Equal(t, CacheDuration, entry.ttl)
}

func TestService_GetBalance_CommitDuringCacheFill(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)
	cache := &racingCache{mapCache: newMapCache()}
	svc := NewService(store, cache, Config{}, nil, nil)
	env := &testEnv{svc: svc, store: store, cache: cache.mapCache}

	owner, sender := env.newFundedWallet(t, 10000)
	_, recipient := env.newFundedWallet(t, 0)
	require.NoError(t, cache.Delete(ctx, balanceCacheKey(owner)))

	cache.arm(func() {
		_, err := svc.Transfer(ctx, owner, recipient.WalletNumber, 3000)
		require.NoError(t, err)
	})

	// this read saw 10000 before the transfer committed
	b, err := svc.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.Balance)

	assert.Equal(t, int64(7000), env.balance(t, sender.ID))
	b, err = svc.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), b.Balance)
}

func TestService_GetTransactionHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})

	owner, _ := env.newFundedWallet(t, 10000)
	_, recipient := env.newFundedWallet(t, 0)
	for _, amount := range []int64{100, 200, 300} {
		_, err := env.svc.Transfer(ctx, owner, recipient.WalletNumber, amount)
		require.NoError(t, err)
	}

	history, err := env.svc.GetTransactionHistory(ctx, owner, 2, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Amount.Equal(decimal.NewFromInt(300)))
	assert.True(t, history[1].Amount.Equal(decimal.NewFromInt(200)))

	all, err := env.svc.GetTransactionHistory(ctx, owner, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, models.TransactionTypeDeposit, all[3].Type)

	_, err = env.svc.GetTransactionHistory(ctx, owner, 10, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_PurgeExpiredIdempotencyKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := now
	env := newTestEnv(t, Config{
		IdempotencySuccessTTL: time.Hour,
		Clock:                 func() time.Time { return clock },
	})

	owner, _ := env.newFundedWallet(t, 0)
	_, err := env.svc.CreatePendingDeposit(ctx, owner, 1000, "ref_purge")
	require.NoError(t, err)
	_, err = env.svc.SettleDeposit(ctx, "ref_purge", 1000)
	require.NoError(t, err)

	n, err := env.svc.PurgeExpiredIdempotencyKeys(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock = now.Add(2 * time.Hour)
	n, err = env.svc.PurgeExpiredIdempotencyKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestToMinor(t *testing.T) {
	v, err := MinorUnits(decimal.NewFromInt(7000))
	require.NoError(t, err)
	assert.Equal(t, int64(7000), v)

	huge, _ := decimal.NewFromString("99999999999999999999")
	_, err = MinorUnits(huge)
	assert.ErrorIs(t, err, ErrPermanent)

	_, err = MinorUnits(decimal.RequireFromString("10.5"))
	assert.ErrorIs(t, err, ErrPermanent)
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{validationErrorf("bad"), "validation"},
		{ErrRecipientNotFound, "not_found"},
		{&InsufficientBalanceError{Available: 1, Required: 2}, "insufficient_balance"},
		{ErrSelfTransfer, "self_transfer"},
		{&AmountMismatchError{Expected: 5, Received: 4}, "amount_mismatch"},
		{fmt.Errorf("%w: lock timeout", ErrConflict), "conflict"},
		{ErrPermanent, "permanent"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorType(tt.err), tt.err.Error())
	}
}
