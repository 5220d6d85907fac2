package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/repositories/repotest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWallet(t *testing.T, store repositories.Store, number string) *models.Wallet {
	t.Helper()
	w := &models.Wallet{UserID: uuid.New(), WalletNumber: number, Currency: "NGN"}
	require.NoError(t, store.Wallets().Create(context.Background(), w))
	return w
}

func TestWalletRepository_Create(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)

	w := newWallet(t, store, "4000000000001")
	assert.NotEqual(t, uuid.Nil, w.ID)
	assert.True(t, w.Balance.IsZero())

	t.Run("same owner twice", func(t *testing.T) {
		dup := &models.Wallet{UserID: w.UserID, WalletNumber: "4000000000002", Currency: "NGN"}
		err := store.Wallets().Create(ctx, dup)
		assert.ErrorIs(t, err, repositories.ErrDuplicateWallet)
	})

	t.Run("taken wallet number", func(t *testing.T) {
		dup := &models.Wallet{UserID: uuid.New(), WalletNumber: w.WalletNumber, Currency: "NGN"}
		err := store.Wallets().Create(ctx, dup)
		assert.ErrorIs(t, err, repositories.ErrDuplicateWalletNumber)
	})

	t.Run("lookups", func(t *testing.T) {
		byUser, err := store.Wallets().GetByUserID(ctx, w.UserID)
		require.NoError(t, err)
		assert.Equal(t, w.ID, byUser.ID)

		byNumber, err := store.Wallets().GetByWalletNumber(ctx, w.WalletNumber)
		require.NoError(t, err)
		assert.Equal(t, w.ID, byNumber.ID)

		exists, err := store.Wallets().ExistsByWalletNumber(ctx, w.WalletNumber)
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = store.Wallets().GetByUserID(ctx, uuid.New())
		assert.ErrorIs(t, err, repositories.ErrWalletNotFound)
	})
}

func TestWalletRepository_UpdateBalanceAndTotal(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)

	total, err := store.Wallets().GetTotalBalance(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	a := newWallet(t, store, "4000000000011")
	b := newWallet(t, store, "4000000000012")
	a.Balance = decimal.NewFromInt(7000)
	b.Balance = decimal.NewFromInt(500)
	require.NoError(t, store.Wallets().UpdateBalance(ctx, a))
	require.NoError(t, store.Wallets().UpdateBalance(ctx, b))

	assert.Equal(t, int64(1), a.Version)

	locked, err := store.Wallets().LockByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, locked.Balance.Equal(decimal.NewFromInt(7000)))
	assert.Equal(t, int64(1), locked.Version)

	locked.Balance = decimal.NewFromInt(6000)
	require.NoError(t, store.Wallets().UpdateBalance(ctx, locked))
	assert.Equal(t, int64(2), locked.Version)

	total, err = store.Wallets().GetTotalBalance(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(6500)), "got %s", total)

	missing := &models.Wallet{ID: uuid.New(), Balance: decimal.NewFromInt(1)}
	assert.ErrorIs(t, store.Wallets().UpdateBalance(ctx, missing), repositories.ErrWalletNotFound)
}

func TestTransactionRepository_SettleIsForwardOnly(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)
	w := newWallet(t, store, "4000000000021")

	ref := "ref_forward_only"
	txn := &models.Transaction{
		WalletID:      w.ID,
		Type:          models.TransactionTypeDeposit,
		Amount:        decimal.NewFromInt(5000),
		Status:        models.TransactionStatusPending,
		Reference:     &ref,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.Zero,
	}
	require.NoError(t, store.Transactions().Create(ctx, txn))

	dup := *txn
	dup.ID = uuid.Nil
	assert.ErrorIs(t, store.Transactions().Create(ctx, &dup), repositories.ErrDuplicateReference)

	locked, err := store.Transactions().LockByReference(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, locked.Status)

	err = store.Transactions().Settle(ctx, locked, models.TransactionStatusPending)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrTransactionNotPending)

	stale := *locked
	locked.BalanceAfter = decimal.NewFromInt(5000)
	require.NoError(t, store.Transactions().Settle(ctx, locked, models.TransactionStatusSuccess))
	assert.Equal(t, models.TransactionStatusSuccess, locked.Status)

	// terminal in memory
	assert.ErrorIs(t, store.Transactions().Settle(ctx, locked, models.TransactionStatusFailed), repositories.ErrTransactionNotPending)
	// still pending in memory, already settled in the database
	assert.ErrorIs(t, store.Transactions().Settle(ctx, &stale, models.TransactionStatusFailed), repositories.ErrTransactionNotPending)

	got, err := store.Transactions().GetByReference(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, got.Status)
	assert.True(t, got.BalanceAfter.Equal(decimal.NewFromInt(5000)))

	_, err = store.Transactions().GetByReference(ctx, "nope")
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
}

func TestTransactionRepository_ListByWallet(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)
	w := newWallet(t, store, "4000000000031")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		txn := &models.Transaction{
			WalletID:  w.ID,
			Type:      models.TransactionTypeTransferIn,
			Amount:    decimal.NewFromInt(int64(100 * (i + 1))),
			Status:    models.TransactionStatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Transactions().Create(ctx, txn))
	}

	page, err := store.Transactions().ListByWallet(ctx, w.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Amount.Equal(decimal.NewFromInt(300)))
	assert.True(t, page[1].Amount.Equal(decimal.NewFromInt(200)))

	rest, err := store.Transactions().ListByWallet(ctx, w.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.True(t, rest[0].Amount.Equal(decimal.NewFromInt(100)))
}

func TestIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)
	now := time.Now()

	first := &models.IdempotencyKey{
		Key:        "ref_1",
		Outcome:    models.IdempotencyOutcomeSuccess,
		StatusCode: 200,
		Response:   `{"message":"Wallet credited successfully"}`,
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, store.Idempotency().Create(ctx, first))

	second := &models.IdempotencyKey{
		Key:        "ref_1",
		Outcome:    models.IdempotencyOutcomeFailed,
		StatusCode: 200,
		Response:   `{"message":"Processing failed"}`,
		ExpiresAt:  now.Add(time.Hour),
	}
	assert.ErrorIs(t, store.Idempotency().Create(ctx, second), repositories.ErrDuplicateIdempotencyKey)

	got, err := store.Idempotency().Get(ctx, "ref_1")
	require.NoError(t, err)
	assert.Equal(t, first.Response, got.Response)
	assert.Equal(t, models.IdempotencyOutcomeSuccess, got.Outcome)

	expired := &models.IdempotencyKey{
		Key:        "ref_old",
		Outcome:    models.IdempotencyOutcomeFailed,
		StatusCode: 200,
		Response:   "{}",
		ExpiresAt:  now.Add(-time.Minute),
	}
	require.NoError(t, store.Idempotency().Create(ctx, expired))

	purged, err := store.Idempotency().DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.Idempotency().Get(ctx, "ref_old")
	assert.ErrorIs(t, err, repositories.ErrIdempotencyKeyNotFound)
	_, err = store.Idempotency().Get(ctx, "")
	assert.ErrorIs(t, err, repositories.ErrIdempotencyKeyNotFound)
}

func TestStore_ExecuteInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)
	w := newWallet(t, store, "4000000000041")

	boom := errors.New("boom")
	err := store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		locked, err := tx.Wallets().LockByID(ctx, w.ID)
		if err != nil {
			return err
		}
		locked.Balance = decimal.NewFromInt(999)
		if err := tx.Wallets().UpdateBalance(ctx, locked); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Wallets().GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	store, _ := repotest.NewStore(t)

	id := uuid.New()
	require.NoError(t, store.Users().Upsert(ctx, &models.User{ID: id, Email: "ada@example.com", Name: "Ada"}))
	require.NoError(t, store.Users().Upsert(ctx, &models.User{ID: id, Email: "ada@kobo.dev", Name: "Ada L"}))

	got, err := store.Users().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada@kobo.dev", got.Email)
	assert.Equal(t, "Ada L", got.Name)

	_, err = store.Users().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}
