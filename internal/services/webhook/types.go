package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"kobo/internal/services/ledger"
	"kobo/internal/services/payment"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	// ErrVerificationFailed means the provider could not confirm the charge;
	// the notification should be delivered again.
	ErrVerificationFailed = errors.New("provider verification failed")
)

// MessageEventIgnored acknowledges events that never move money.
const MessageEventIgnored = "Event ignored"

// Settler is the ledger entry point for authenticated notifications.
type Settler interface {
	SettleDeposit(ctx context.Context, reference string, verifiedAmount int64) (*ledger.Settlement, error)
}

// PaystackVerifier re-reads a charge from Paystack.
type PaystackVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*payment.PaystackVerification, error)
}

var (
	_ Settler          = (ledger.Service)(nil)
	_ PaystackVerifier = (*payment.PaystackClient)(nil)
)

// Result is what the HTTP layer writes back to the provider.
type Result struct {
	StatusCode int
	Body       []byte
	Reference  string
	Ignored    bool
	Replayed   bool
}

func ignored(event string) *Result {
	body, _ := json.Marshal(map[string]string{"message": MessageEventIgnored, "event": event})
	return &Result{StatusCode: http.StatusOK, Body: body, Ignored: true}
}

// settle runs the ledger settlement and turns a terminal outcome into a
// Result. An amount mismatch is terminal: the provider gets the stored
// failure body with a 2xx so it stops redelivering.
func settle(ctx context.Context, settler Settler, reference string, amount int64) (*Result, error) {
	settlement, err := settler.SettleDeposit(ctx, reference, amount)
	if err != nil && !(errors.Is(err, ledger.ErrAmountMismatch) && settlement != nil) {
		return nil, err
	}
	return &Result{
		StatusCode: settlement.StatusCode,
		Body:       settlement.Response,
		Reference:  settlement.Reference,
		Replayed:   settlement.Replayed,
	}, nil
}
