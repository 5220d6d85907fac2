package ledger

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// lockOrder sorts wallet ids ascending by their 16 raw bytes and drops
// duplicates. PostgreSQL orders uuid columns the same way, so every unit of
// work that locks more than one wallet acquires the locks in one global order.
func lockOrder(ids ...uuid.UUID) []uuid.UUID {
	ordered := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})
	return ordered
}

// lockWallets takes exclusive row locks on every id in lock order and
// returns the locked rows keyed by id.
func lockWallets(ctx context.Context, wallets repositories.WalletRepository, ids ...uuid.UUID) (map[uuid.UUID]*models.Wallet, error) {
	locked := make(map[uuid.UUID]*models.Wallet, len(ids))
	for _, id := range lockOrder(ids...) {
		w, err := wallets.LockByID(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = w
	}
	return locked, nil
}

func (s *service) Transfer(ctx context.Context, ownerID uuid.UUID, recipientWalletNumber string, amount int64) (result *TransferResult, err error) {
	defer s.observe(opTransfer, s.config.Clock(), &err)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := ValidateWalletNumber(recipientWalletNumber); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var committed []*models.Wallet
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		// Resolve both sides before taking any lock.
		sender, err := tx.Wallets().GetByUserID(ctx, ownerID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		recipient, err := tx.Wallets().GetByWalletNumber(ctx, recipientWalletNumber)
		if err != nil && !errors.Is(err, repositories.ErrWalletNotFound) {
			return err
		}

		// The balance is checked on the locked sender row before the recipient
		// is rejected, so an overdraw reports InsufficientBalance even when the
		// recipient is missing or is the sender.
		ids := []uuid.UUID{sender.ID}
		if recipient != nil {
			ids = append(ids, recipient.ID)
		}
		locked, err := lockWallets(ctx, tx.Wallets(), ids...)
		if err != nil {
			return err
		}
		sender = locked[sender.ID]

		debit := decimal.NewFromInt(amount)
		if sender.Balance.LessThan(debit) {
			available, err := MinorUnits(sender.Balance)
			if err != nil {
				return err
			}
			return &InsufficientBalanceError{
				Available: available,
				Required:  amount,
				Currency:  sender.Currency,
			}
		}
		if recipient == nil {
			return ErrRecipientNotFound
		}
		if recipient.ID == sender.ID {
			return ErrSelfTransfer
		}
		recipient = locked[recipient.ID]

		senderBefore, recipientBefore := sender.Balance, recipient.Balance
		sender.Balance = senderBefore.Sub(debit)
		recipient.Balance = recipientBefore.Add(debit)
		if err := tx.Wallets().UpdateBalance(ctx, sender); err != nil {
			return err
		}
		if err := tx.Wallets().UpdateBalance(ctx, recipient); err != nil {
			return err
		}

		outMeta := map[string]interface{}{"recipientWalletNumber": recipient.WalletNumber}
		if email := s.ownerEmail(ctx, tx, recipient.UserID); email != "" {
			outMeta["recipientEmail"] = email
		}
		inMeta := map[string]interface{}{"senderWalletNumber": sender.WalletNumber}
		if email := s.ownerEmail(ctx, tx, sender.UserID); email != "" {
			inMeta["senderEmail"] = email
		}

		out := &models.Transaction{
			WalletID:      sender.ID,
			Type:          models.TransactionTypeTransferOut,
			Amount:        debit,
			Status:        models.TransactionStatusSuccess,
			Metadata:      models.NewJSON(outMeta),
			BalanceBefore: senderBefore,
			BalanceAfter:  sender.Balance,
		}
		in := &models.Transaction{
			WalletID:      recipient.ID,
			Type:          models.TransactionTypeTransferIn,
			Amount:        debit,
			Status:        models.TransactionStatusSuccess,
			Metadata:      models.NewJSON(inMeta),
			BalanceBefore: recipientBefore,
			BalanceAfter:  recipient.Balance,
		}
		if err := tx.Transactions().Create(ctx, out); err != nil {
			return err
		}
		if err := tx.Transactions().Create(ctx, in); err != nil {
			return err
		}

		committed = []*models.Wallet{sender, recipient}
		result = &TransferResult{Sender: out, Recipient: in}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrSelfTransfer) {
			s.logger.Info("transfer rejected",
				zap.String("owner_id", ownerID.String()),
				zap.Int64("amount", amount),
				zap.Error(err))
		} else {
			s.logger.Error("transfer failed",
				zap.String("owner_id", ownerID.String()),
				zap.Int64("amount", amount),
				zap.Error(err))
		}
		return nil, s.mapError(err)
	}

	s.refreshBalances(ctx, committed...)
	s.metrics.RecordTransaction(string(models.TransactionTypeTransferOut), amount)
	s.logger.Info("transfer committed",
		zap.String("sender_wallet", result.Sender.WalletID.String()),
		zap.String("recipient_wallet", result.Recipient.WalletID.String()),
		zap.Int64("amount", amount))
	return result, nil
}

// ownerEmail looks up the owner's email through the open unit of work. A
// missing identity record just leaves the email out of the metadata.
func (s *service) ownerEmail(ctx context.Context, tx repositories.Store, ownerID uuid.UUID) string {
	user, err := tx.Users().GetByID(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Warn("owner email lookup failed", zap.String("owner_id", ownerID.String()), zap.Error(err))
		}
		return ""
	}
	return user.Email
}
