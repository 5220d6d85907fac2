package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"
)

// StripeSignatureHeader is verified by webhook.ConstructEvent.
const StripeSignatureHeader = "Stripe-Signature"

const (
	stripeCheckoutCompleted     = "checkout.session.completed"
	stripeAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	stripePaymentStatusPaid     = stripe.CheckoutSessionPaymentStatusPaid
)

// StripeHandler settles paid Checkout sessions. The session id is the
// deposit reference.
type StripeHandler struct {
	settler Settler
	secret  string
	logger  *zap.Logger
}

func NewStripeHandler(settler Settler, webhookSecret string, logger *zap.Logger) *StripeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeHandler{
		settler: settler,
		secret:  webhookSecret,
		logger:  logger.Named("webhook.stripe"),
	}
}

func (h *StripeHandler) Handle(ctx context.Context, body []byte, signature string) (*Result, error) {
	event, err := webhook.ConstructEvent(body, signature, h.secret)
	if err != nil {
		h.logger.Warn("rejected stripe webhook", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	eventType := string(event.Type)
	if eventType != stripeCheckoutCompleted && eventType != stripeAsyncPaymentSucceeded {
		h.logger.Info("ignoring stripe event", zap.String("event", eventType))
		return ignored(eventType), nil
	}

	var session stripe.CheckoutSession
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event has no data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidPayload)
	}
	if session.PaymentStatus != stripePaymentStatusPaid {
		// Delayed methods complete the session before the money arrives.
		h.logger.Info("checkout session not paid yet",
			zap.String("reference", session.ID),
			zap.String("payment_status", string(session.PaymentStatus)))
		return ignored(eventType), nil
	}

	h.logger.Info("settling stripe checkout session",
		zap.String("reference", session.ID), zap.Int64("amount", session.AmountTotal))
	return settle(ctx, h.settler, session.ID, session.AmountTotal)
}
