package handlers

import (
	"errors"

	apperrors "kobo/internal/errors"
	"kobo/internal/services/ledger"
	"kobo/internal/services/payment"
	"kobo/internal/services/webhook"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// toDomainError maps service errors onto the API catalogue. Errors outside
// the taxonomy become a bare 500 so internals never leak to clients.
func toDomainError(err error) *apperrors.DomainError {
	if de, ok := apperrors.As(err); ok {
		return de
	}

	var insufficient *ledger.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		return apperrors.ErrInsufficientBalance.WithMessage(insufficient.Error())
	case errors.Is(err, ledger.ErrValidation):
		return apperrors.ErrValidation.WithMessage(err.Error())
	case errors.Is(err, ledger.ErrRecipientNotFound):
		return apperrors.ErrRecipientNotFound
	case errors.Is(err, ledger.ErrWalletNotFound):
		return apperrors.ErrWalletNotFound
	case errors.Is(err, ledger.ErrNotFound):
		return apperrors.ErrTransactionNotFound
	case errors.Is(err, ledger.ErrSelfTransfer):
		return apperrors.ErrSelfTransfer
	case errors.Is(err, ledger.ErrWalletExists):
		return apperrors.ErrWalletExists
	case errors.Is(err, ledger.ErrReferenceExists):
		return apperrors.ErrReferenceExists
	case errors.Is(err, ledger.ErrAmountMismatch):
		return apperrors.ErrAmountMismatch
	case errors.Is(err, ledger.ErrConflict):
		return apperrors.ErrConflict
	case errors.Is(err, payment.ErrProvider), errors.Is(err, webhook.ErrVerificationFailed):
		return apperrors.ErrProvider
	case errors.Is(err, webhook.ErrInvalidSignature):
		return apperrors.ErrInvalidSignature
	case errors.Is(err, webhook.ErrInvalidPayload):
		return apperrors.ErrBadRequest.WithMessage(err.Error())
	default:
		return apperrors.ErrInternal
	}
}

// handleError writes the mapped error. Server-side failures are logged with
// the original error.
func handleError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	de := toDomainError(err)
	if de.Status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", de.Status),
			zap.Error(err))
	}
	return utils.Error(c, de)
}
