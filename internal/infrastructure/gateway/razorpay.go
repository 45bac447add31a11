package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chakravyuh/backend/internal/domain/registration"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RazorpayConfig holds the gateway credentials and endpoint
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// Validate checks that required credentials are present
func (c *RazorpayConfig) Validate() error {
	if c.KeyID == "" || c.KeySecret == "" {
		return fmt.Errorf("razorpay key_id and key_secret are required")
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.razorpay.com"
	}
	return nil
}

// RazorpayAdapter implements registration.PaymentGateway against the
// Razorpay Orders API.
type RazorpayAdapter struct {
	config     RazorpayConfig
	httpClient *http.Client
}

// NewRazorpayAdapter creates a new Razorpay adapter
func NewRazorpayAdapter(config RazorpayConfig) (*RazorpayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RazorpayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

var _ registration.PaymentGateway = (*RazorpayAdapter)(nil)

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"` // smallest currency unit (paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates an order on the gateway. The amount is converted from
// whole currency units to paise as the Orders API expects.
func (a *RazorpayAdapter) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*registration.GatewayOrder, error) {
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(a.config.KeyID, a.config.KeySecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewDomainError("UPSTREAM_UNAVAILABLE", "Payment gateway is unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var gatewayErr razorpayErrorResponse
		if json.Unmarshal(respBody, &gatewayErr) == nil && gatewayErr.Error.Description != "" {
			return nil, shared.NewDomainError("UPSTREAM_UNAVAILABLE",
				fmt.Sprintf("Payment gateway rejected the order: %s", gatewayErr.Error.Description))
		}
		return nil, shared.NewDomainError("UPSTREAM_UNAVAILABLE",
			fmt.Sprintf("Payment gateway returned status %d", resp.StatusCode))
	}

	var order razorpayOrderResponse
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if order.ID == "" {
		return nil, shared.NewDomainError("UPSTREAM_UNAVAILABLE", "Payment gateway returned an empty order id")
	}

	return &registration.GatewayOrder{
		OrderID:  order.ID,
		Amount:   decimal.NewFromInt(order.Amount).Div(decimal.NewFromInt(100)),
		Currency: order.Currency,
	}, nil
}

// VerifySignature checks the checkout callback signature:
// hex(HMAC-SHA256(key_secret, order_id + "|" + payment_id)).
func (a *RazorpayAdapter) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(a.config.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
