package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PaystackSignatureHeader carries the hex HMAC-SHA512 of the raw body.
const PaystackSignatureHeader = "x-paystack-signature"

const paystackChargeSuccess = "charge.success"

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// PaystackHandler authenticates Paystack notifications and settles
// successful charges.
type PaystackHandler struct {
	settler   Settler
	secretKey []byte
	verifier  PaystackVerifier
	logger    *zap.Logger
}

// NewPaystackHandler builds the handler. A nil verifier trusts the amount in
// the signed payload.
func NewPaystackHandler(settler Settler, secretKey string, verifier PaystackVerifier, logger *zap.Logger) *PaystackHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaystackHandler{
		settler:   settler,
		secretKey: []byte(secretKey),
		verifier:  verifier,
		logger:    logger.Named("webhook.paystack"),
	}
}

// SignPaystack returns the signature Paystack sends for body.
func SignPaystack(secret, body []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time.
func (h *PaystackHandler) ValidSignature(body []byte, signature string) bool {
	if len(h.secretKey) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, h.secretKey)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Handle processes one delivery. body must be the raw request body.
func (h *PaystackHandler) Handle(ctx context.Context, body []byte, signature string) (*Result, error) {
	if !h.ValidSignature(body, signature) {
		h.logger.Warn("rejected paystack webhook with bad signature")
		return nil, ErrInvalidSignature
	}

	var event paystackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.Event != paystackChargeSuccess {
		h.logger.Info("ignoring paystack event", zap.String("event", event.Event))
		return ignored(event.Event), nil
	}
	if event.Data.Reference == "" {
		return nil, fmt.Errorf("%w: missing reference", ErrInvalidPayload)
	}

	reference, amount := event.Data.Reference, event.Data.Amount
	if h.verifier != nil {
		v, err := h.verifier.VerifyTransaction(ctx, reference)
		if err != nil {
			h.logger.Error("paystack verification failed", zap.String("reference", reference), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
		}
		if v.Status != "success" {
			h.logger.Warn("paystack reports charge not successful",
				zap.String("reference", reference), zap.String("status", v.Status))
			return ignored(event.Event), nil
		}
		amount = v.Amount
	}

	h.logger.Info("settling paystack charge", zap.String("reference", reference), zap.Int64("amount", amount))
	return settle(ctx, h.settler, reference, amount)
}
