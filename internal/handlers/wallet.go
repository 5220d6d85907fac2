package handlers

import (
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/ledger"
	"kobo/internal/utils"
	"kobo/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	ledger ledger.Service
	users  repositories.UserRepository
	logger *zap.Logger
}

func NewWalletHandler(l ledger.Service, users repositories.UserRepository, logger *zap.Logger) *WalletHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletHandler{
		ledger: l,
		users:  users,
		logger: logger.Named("handlers.wallet"),
	}
}

type walletResponse struct {
	WalletNumber string    `json:"wallet_number"`
	Balance      int64     `json:"balance"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
}

// transactionResponse is one history entry. Amounts are minor units.
type transactionResponse struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Amount        int64                  `json:"amount"`
	Status        string                 `json:"status"`
	Reference     *string                `json:"reference"`
	Metadata      map[string]interface{} `json:"metadata"`
	BalanceBefore int64                  `json:"balance_before"`
	BalanceAfter  int64                  `json:"balance_after"`
	CreatedAt     time.Time              `json:"created_at"`
}

func newTransactionResponse(txn *models.Transaction) (*transactionResponse, error) {
	amount, err := ledger.MinorUnits(txn.Amount)
	if err != nil {
		return nil, err
	}
	before, err := ledger.MinorUnits(txn.BalanceBefore)
	if err != nil {
		return nil, err
	}
	after, err := ledger.MinorUnits(txn.BalanceAfter)
	if err != nil {
		return nil, err
	}
	return &transactionResponse{
		ID:            txn.ID.String(),
		Type:          string(txn.Type),
		Amount:        amount,
		Status:        string(txn.Status),
		Reference:     txn.Reference,
		Metadata:      txn.Metadata,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     txn.CreatedAt,
	}, nil
}

// EnsureWallet handles POST /api/wallet. It is safe to call on every sign-in:
// the caller's identity is refreshed and an existing wallet is returned as is.
func (h *WalletHandler) EnsureWallet(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	ownerID, err := claims.OwnerID()
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	ctx := c.UserContext()

	if claims.Email != "" {
		if err := h.users.Upsert(ctx, &models.User{ID: ownerID, Email: claims.Email}); err != nil {
			// Only transfer metadata depends on this record.
			h.logger.Warn("failed to record owner identity", zap.String("owner_id", ownerID.String()), zap.Error(err))
		}
	}

	wallet, err := h.ledger.EnsureWallet(ctx, ownerID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	balance, err := ledger.MinorUnits(wallet.Balance)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.Success(c, walletResponse{
		WalletNumber: wallet.WalletNumber,
		Balance:      balance,
		Currency:     wallet.Currency,
		CreatedAt:    wallet.CreatedAt,
	})
}

// GetBalance handles GET /api/wallet/balance.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	ownerID, err := utils.GetOwnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	balance, err := h.ledger.GetBalance(c.UserContext(), ownerID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.Success(c, balance)
}

// GetTransactions handles GET /api/wallet/transactions?limit=&offset=.
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	ownerID, err := utils.GetOwnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	page := utils.GetPagination(c, ledger.DefaultHistoryLimit, ledger.MaxHistoryLimit)

	txns, err := h.ledger.GetTransactionHistory(c.UserContext(), ownerID, page.Limit, page.Offset)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	out := make([]*transactionResponse, 0, len(txns))
	for i := range txns {
		r, err := newTransactionResponse(&txns[i])
		if err != nil {
			return handleError(c, h.logger, err)
		}
		out = append(out, r)
	}
	return utils.Success(c, utils.NewPaginatedResponse(out, page))
}

type transferRequest struct {
	WalletNumber string `json:"wallet_number"`
	Amount       int64  `json:"amount"`
}

type transferResponse struct {
	SenderTransactionID    string    `json:"sender_transaction_id"`
	RecipientTransactionID string    `json:"recipient_transaction_id"`
	Amount                 int64     `json:"amount"`
	RecipientWalletNumber  string    `json:"recipient_wallet_number"`
	SenderBalanceAfter     int64     `json:"sender_balance_after"`
	CreatedAt              time.Time `json:"created_at"`
}

// Transfer handles POST /api/wallet/transfer.
func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	ownerID, err := utils.GetOwnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	v := validation.New()
	v.WalletNumber("wallet_number", req.WalletNumber)
	v.Positive("amount", req.Amount)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	result, err := h.ledger.Transfer(c.UserContext(), ownerID, req.WalletNumber, req.Amount)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	after, err := ledger.MinorUnits(result.Sender.BalanceAfter)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.Success(c, transferResponse{
		SenderTransactionID:    result.Sender.ID.String(),
		RecipientTransactionID: result.Recipient.ID.String(),
		Amount:                 req.Amount,
		RecipientWalletNumber:  req.WalletNumber,
		SenderBalanceAfter:     after,
		CreatedAt:              result.Sender.CreatedAt,
	})
}
