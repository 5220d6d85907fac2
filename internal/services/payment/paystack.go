package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const paystackDefaultBaseURL = "https://api.paystack.co"

// PaystackClient talks to the Paystack transaction API.
type PaystackClient struct {
	secretKey   string
	baseURL     string
	callbackURL string
	httpClient  *http.Client
}

func NewPaystackClient(secretKey, baseURL, callbackURL string) *PaystackClient {
	if baseURL == "" {
		baseURL = paystackDefaultBaseURL
	}
	return &PaystackClient{
		secretKey:   secretKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *PaystackClient) WithHTTPClient(hc *http.Client) *PaystackClient {
	c.httpClient = hc
	return c
}

func (c *PaystackClient) Name() string { return "paystack" }

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// PaystackVerification is the subset of /transaction/verify the ledger uses.
type PaystackVerification struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func (c *PaystackClient) InitializeDeposit(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	payload := map[string]interface{}{
		"email":  req.Email,
		"amount": req.Amount,
	}
	if req.Currency != "" {
		payload["currency"] = req.Currency
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}
	if c.callbackURL != "" {
		payload["callback_url"] = c.callbackURL
	}

	var data paystackInitializeData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}
	if data.Reference == "" || data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: paystack initialize returned no reference", ErrProvider)
	}
	return &Initialization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// VerifyTransaction asks Paystack for the current state of a charge.
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*PaystackVerification, error) {
	var data PaystackVerification
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode paystack request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: unreadable paystack response (HTTP %d): %v", ErrProvider, resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Status {
		return fmt.Errorf("%w: paystack %s %s failed (HTTP %d): %s",
			ErrProvider, method, path, resp.StatusCode, envelope.Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: unexpected paystack payload: %v", ErrProvider, err)
		}
	}
	return nil
}
