/*
Package ledger is the custodial wallet ledger engine.

It owns every balance change. Balances move only through recorded
transactions, never drop below zero, and a provider deposit is credited at
most once no matter how often its notification is delivered.

Usage:

	svc := ledger.NewService(store, cache, ledger.Config{}, metrics, logger)

	// Provision a wallet
	wallet, err := svc.CreateWallet(ctx, ownerID)

	// Move funds between wallets
	result, err := svc.Transfer(ctx, ownerID, "4123456789012", 3000)

	// Record and settle a deposit
	txn, err := svc.CreatePendingDeposit(ctx, ownerID, 5000, reference)
	settlement, err := svc.SettleDeposit(ctx, reference, 5000)

Locking:

Every unit of work that touches more than one wallet locks the rows in
ascending id order. Deposit settlement locks the pending transaction row
before its wallet; transfers never lock transaction rows.

Error Handling:

  - ErrValidation: malformed input, rejected before any lock is taken
  - ErrNotFound: wallet, recipient or transaction absent
  - *InsufficientBalanceError: carries available and required amounts
  - ErrSelfTransfer: sender and recipient are the same wallet
  - *AmountMismatchError: the deposit was marked failed
  - ErrConflict: lock wait or serialization failure, safe to retry
  - ErrPermanent: wallet numbers exhausted, needs an operator
*/
package ledger
