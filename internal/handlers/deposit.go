package handlers

import (
	"kobo/internal/services/ledger"
	"kobo/internal/services/payment"
	"kobo/internal/utils"
	"kobo/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DepositHandler struct {
	payments payment.Service
	logger   *zap.Logger
}

func NewDepositHandler(payments payment.Service, logger *zap.Logger) *DepositHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepositHandler{payments: payments, logger: logger.Named("handlers.deposit")}
}

type depositRequest struct {
	Amount int64  `json:"amount"`
	Email  string `json:"email"`
}

// InitiateDeposit handles POST /api/wallet/deposit. The payer email defaults
// to the one in the caller's token.
func (h *DepositHandler) InitiateDeposit(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	ownerID, err := claims.OwnerID()
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if req.Email == "" {
		req.Email = claims.Email
	}
	v := validation.New()
	v.Positive("amount", req.Amount)
	v.Required("email", req.Email)
	v.Email("email", req.Email)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	init, err := h.payments.InitiateDeposit(c.UserContext(), payment.DepositRequest{
		OwnerID: ownerID,
		Email:   req.Email,
		Amount:  req.Amount,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.Created(c, init)
}

// GetDepositStatus handles GET /api/wallet/deposit/:reference/status. It
// never credits a wallet.
func (h *DepositHandler) GetDepositStatus(c *fiber.Ctx) error {
	ownerID, err := utils.GetOwnerID(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	reference := c.Params("reference")
	v := validation.New()
	v.Required("reference", reference)
	v.MaxLength("reference", reference, ledger.MaxReferenceLength)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	status, err := h.payments.GetDepositStatus(c.UserContext(), ownerID, reference)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.Success(c, status)
}
