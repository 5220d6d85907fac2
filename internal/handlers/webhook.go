package handlers

import (
	"context"

	"kobo/internal/services/webhook"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookProcessor authenticates and applies one provider notification.
type WebhookProcessor interface {
	Handle(ctx context.Context, body []byte, signature string) (*webhook.Result, error)
}

type WebhookHandler struct {
	processor       WebhookProcessor
	signatureHeader string
	logger          *zap.Logger
}

func NewWebhookHandler(processor WebhookProcessor, signatureHeader string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		processor:       processor,
		signatureHeader: signatureHeader,
		logger:          logger.Named("handlers.webhook"),
	}
}

// Handle verifies the signature over the raw body and answers with the
// stored settlement bytes, so redeliveries get an identical response.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns.
	body := append([]byte(nil), c.Body()...)

	result, err := h.processor.Handle(c.UserContext(), body, c.Get(h.signatureHeader))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	if result.Replayed {
		h.logger.Info("webhook replayed", zap.String("reference", result.Reference))
	}
	return utils.Raw(c, result.StatusCode, result.Body)
}
