package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *service) CreatePendingDeposit(ctx context.Context, ownerID uuid.UUID, amount int64, reference string) (txn *models.Transaction, err error) {
	defer s.observe(opPendingDeposit, s.config.Clock(), &err)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateReference(reference); err != nil {
		return nil, err
	}

	wallet, err := s.store.Wallets().GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, s.mapError(err)
	}

	ref := reference
	txn = &models.Transaction{
		WalletID:      wallet.ID,
		Type:          models.TransactionTypeDeposit,
		Amount:        decimal.NewFromInt(amount),
		Status:        models.TransactionStatusPending,
		Reference:     &ref,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance,
	}
	if err := s.store.Transactions().Create(ctx, txn); err != nil {
		if errors.Is(err, repositories.ErrDuplicateReference) {
			return nil, fmt.Errorf("%w: %s", ErrReferenceExists, reference)
		}
		return nil, s.mapError(err)
	}

	s.logger.Info("pending deposit recorded",
		zap.String("reference", reference),
		zap.String("wallet_id", wallet.ID.String()),
		zap.Int64("amount", amount))
	return txn, nil
}

// SettleDeposit credits a pending deposit at most once per reference.
//
// A reference with a stored idempotency record returns that record's bytes
// without touching the ledger. Otherwise the pending row is locked before its
// wallet. A deposit that is already terminal is not credited again; its
// response is rebuilt from the row and recorded.
func (s *service) SettleDeposit(ctx context.Context, reference string, verifiedAmount int64) (settlement *Settlement, err error) {
	defer s.observe(opSettle, s.config.Clock(), &err)

	if err := validateReference(reference); err != nil {
		return nil, err
	}
	if verifiedAmount < 0 {
		return nil, validationErrorf("verified amount must not be negative, got %d", verifiedAmount)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if record, err := s.store.Idempotency().Get(ctx, reference); err == nil {
		s.metrics.RecordIdempotentReplay(opSettle)
		s.logger.Info("settlement replayed from idempotency store", zap.String("reference", reference))
		return settlementFromRecord(record), nil
	} else if !errors.Is(err, repositories.ErrIdempotencyKeyNotFound) {
		return nil, s.mapError(err)
	}

	var (
		mismatch *AmountMismatchError
		credited *models.Wallet
		recorded bool
	)
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		txn, err := tx.Transactions().LockByReference(ctx, reference)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrPendingTransactionNotFound
			}
			return err
		}
		if txn.Type != models.TransactionTypeDeposit {
			return ErrPendingTransactionNotFound
		}

		if txn.IsTerminal() {
			settlement, err = s.buildSettlement(txn)
			if err != nil {
				return err
			}
			settlement.Replayed = true
			return nil
		}

		expected, err := MinorUnits(txn.Amount)
		if err != nil {
			return err
		}
		if expected != verifiedAmount {
			txn.Metadata = mergeMetadata(txn.Metadata, map[string]interface{}{
				"error":    MetadataErrorMessage,
				"expected": expected,
				"received": verifiedAmount,
			})
			if err := tx.Transactions().Settle(ctx, txn, models.TransactionStatusFailed); err != nil {
				return err
			}
			settlement, err = s.buildSettlement(txn)
			if err != nil {
				return err
			}
			if err := s.recordSettlement(ctx, tx, settlement); err != nil {
				return err
			}
			recorded = true
			mismatch = &AmountMismatchError{Reference: reference, Expected: expected, Received: verifiedAmount}
			return nil
		}

		wallet, err := tx.Wallets().LockByID(ctx, txn.WalletID)
		if err != nil {
			return err
		}
		before := wallet.Balance
		wallet.Balance = before.Add(decimal.NewFromInt(verifiedAmount))
		if err := tx.Wallets().UpdateBalance(ctx, wallet); err != nil {
			return err
		}

		txn.BalanceBefore = before
		txn.BalanceAfter = wallet.Balance
		if err := tx.Transactions().Settle(ctx, txn, models.TransactionStatusSuccess); err != nil {
			return err
		}
		settlement, err = s.buildSettlement(txn)
		if err != nil {
			return err
		}
		credited = wallet
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPendingTransactionNotFound) {
			s.logger.Warn("settlement for unknown reference", zap.String("reference", reference))
		} else {
			s.logger.Error("settlement failed", zap.String("reference", reference), zap.Error(err))
		}
		return nil, s.mapError(err)
	}

	if !recorded {
		// Committed but not yet recorded. A failure here is safe: the next
		// delivery finds the row terminal and records it then.
		if err := s.recordSettlement(ctx, s.store, settlement); err != nil {
			s.logger.Warn("failed to store idempotency record",
				zap.String("reference", reference), zap.Error(err))
		}
	}

	if credited != nil {
		s.refreshBalances(ctx, credited)
		s.metrics.RecordTransaction(string(models.TransactionTypeDeposit), verifiedAmount)
		s.logger.Info("deposit settled",
			zap.String("reference", reference),
			zap.Int64("amount", verifiedAmount))
	}
	if settlement.Replayed {
		s.metrics.RecordIdempotentReplay(opSettle)
	}
	if mismatch != nil {
		s.logger.Warn("deposit amount mismatch",
			zap.String("reference", reference),
			zap.Int64("expected", mismatch.Expected),
			zap.Int64("received", mismatch.Received))
		return settlement, mismatch
	}
	return settlement, nil
}

// buildSettlement derives the stored response from a terminal deposit.
func (s *service) buildSettlement(txn *models.Transaction) (*Settlement, error) {
	amount, err := MinorUnits(txn.Amount)
	if err != nil {
		return nil, err
	}
	body := settlementBody{
		Reference:     txn.ReferenceValue(),
		Status:        string(txn.Status),
		TransactionID: txn.ID.String(),
		Amount:        amount,
	}

	outcome := models.IdempotencyOutcomeFailed
	switch txn.Status {
	case models.TransactionStatusSuccess:
		outcome = models.IdempotencyOutcomeSuccess
		balanceAfter, err := MinorUnits(txn.BalanceAfter)
		if err != nil {
			return nil, err
		}
		body.Message = MessageSettled
		body.BalanceAfter = &balanceAfter
	case models.TransactionStatusFailed:
		body.Message = MessageSettleFailed
		body.Error = failureReason(txn)
	default:
		return nil, fmt.Errorf("transaction %s is not terminal", txn.ID)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settlement response: %w", err)
	}
	return &Settlement{
		Reference:   body.Reference,
		Outcome:     outcome,
		StatusCode:  http.StatusOK,
		Response:    raw,
		Transaction: txn,
	}, nil
}

// recordSettlement writes the idempotency record once. An existing record
// for the reference wins and is left untouched.
func (s *service) recordSettlement(ctx context.Context, store repositories.Store, settlement *Settlement) error {
	ttl := s.config.IdempotencySuccessTTL
	if !settlement.Succeeded() {
		ttl = s.config.IdempotencyFailureTTL
	}
	now := s.config.Clock()
	err := store.Idempotency().Create(ctx, &models.IdempotencyKey{
		Key:        settlement.Reference,
		Outcome:    settlement.Outcome,
		StatusCode: settlement.StatusCode,
		Response:   string(settlement.Response),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	})
	if errors.Is(err, repositories.ErrDuplicateIdempotencyKey) {
		return nil
	}
	return err
}

func settlementFromRecord(record *models.IdempotencyKey) *Settlement {
	return &Settlement{
		Reference:  record.Key,
		Outcome:    record.Outcome,
		StatusCode: record.StatusCode,
		Response:   []byte(record.Response),
		Replayed:   true,
	}
}

func failureReason(txn *models.Transaction) string {
	expected, okExpected := metadataInt(txn.Metadata["expected"])
	received, okReceived := metadataInt(txn.Metadata["received"])
	if okExpected && okReceived {
		return fmt.Sprintf("%s: expected %d, received %d", MetadataErrorMessage, expected, received)
	}
	if msg, ok := txn.Metadata["error"].(string); ok {
		return msg
	}
	return "deposit failed"
}

// metadataInt reads an integer back from metadata, which holds int64 before
// a round trip through the database and float64 after.
func metadataInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func mergeMetadata(existing models.JSON, extra map[string]interface{}) models.JSON {
	merged := models.NewJSON(existing)
	if merged == nil {
		merged = models.JSON{}
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
