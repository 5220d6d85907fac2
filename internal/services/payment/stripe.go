package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
)

// StripeProvider opens Stripe Checkout sessions. The session id is the
// settlement reference.
type StripeProvider struct {
	sessions   session.Client
	successURL string
	cancelURL  string
}

func NewStripeProvider(secretKey, successURL, cancelURL string) *StripeProvider {
	return NewStripeProviderWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend), successURL, cancelURL)
}

// NewStripeProviderWithBackend is used by tests to point the client at a
// local server.
func NewStripeProviderWithBackend(secretKey string, backend stripe.Backend, successURL, cancelURL string) *StripeProvider {
	return &StripeProvider{
		sessions:   session.Client{B: backend, Key: secretKey},
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) InitializeDeposit(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "ngn"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(req.Email),
		SuccessURL:         stripe.String(p.successURL),
		CancelURL:          stripe.String(p.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Wallet deposit"),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if owner, ok := req.Metadata["user_id"]; ok {
		params.ClientReferenceID = stripe.String(owner)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe checkout session: %v", ErrProvider, err)
	}
	if s.ID == "" || s.URL == "" {
		return nil, fmt.Errorf("%w: stripe returned an incomplete checkout session", ErrProvider)
	}
	return &Initialization{
		AuthorizationURL: s.URL,
		Reference:        s.ID,
	}, nil
}
