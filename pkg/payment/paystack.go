package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/railline/train-booking-backend/internal/models"
)

// PaystackClient talks to the Paystack transaction API. Amounts on the wire
// are in kobo (NGN * 100).
type PaystackClient struct {
	secretKey   string
	baseURL     string
	callbackURL string
	httpClient  *http.Client
}

// NewPaystackClient creates a new Paystack API client
func NewPaystackClient(secretKey, baseURL, callbackURL string) *PaystackClient {
	return &PaystackClient{
		secretKey:   secretKey,
		baseURL:     baseURL,
		callbackURL: callbackURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// InitializeResult holds the checkout handle returned by Paystack
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult holds the settled state of a transaction
type VerifyResult struct {
	Status    string  `json:"status"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"` // in NGN, converted back from kobo
	Currency  string  `json:"currency"`
	PaidAt    string  `json:"paid_at"`
}

// Succeeded reports whether the transaction settled successfully
func (v *VerifyResult) Succeeded() bool {
	return v.Status == "success"
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"` // kobo
	CallbackURL string `json:"callback_url,omitempty"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize starts a Paystack transaction for the given amount in NGN and
// returns the authorization URL the client completes payment on.
func (c *PaystackClient) Initialize(ctx context.Context, email string, amountNGN float64) (*InitializeResult, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      int64(amountNGN * 100),
		CallbackURL: c.callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	envelope, err := c.do(req)
	if err != nil {
		return nil, err
	}

	result := &InitializeResult{}
	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return nil, fmt.Errorf("%w: malformed initialize response: %v", models.ErrPaymentGateway, err)
	}
	return result, nil
}

// Verify fetches the settled state of a transaction by reference
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	envelope, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var data struct {
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"` // kobo
		Currency string  `json:"currency"`
		PaidAt   string  `json:"paid_at"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed verify response: %v", models.ErrPaymentGateway, err)
	}

	return &VerifyResult{
		Status:    data.Status,
		Reference: reference,
		Amount:    data.Amount / 100,
		Currency:  data.Currency,
		PaidAt:    data.PaidAt,
	}, nil
}

func (c *PaystackClient) do(req *http.Request) (*apiEnvelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentGateway, err)
	}
	defer resp.Body.Close()

	envelope := &apiEnvelope{}
	if err := json.NewDecoder(resp.Body).Decode(envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", models.ErrPaymentGateway, err)
	}

	if resp.StatusCode != http.StatusOK || !envelope.Status {
		return nil, fmt.Errorf("%w: %s (http %d)", models.ErrPaymentGateway, envelope.Message, resp.StatusCode)
	}
	return envelope, nil
}
