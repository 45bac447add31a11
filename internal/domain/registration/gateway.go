package registration

import (
	"context"

	"github.com/shopspring/decimal"
)

// GatewayOrder is a provider-side payment intent correlated to a
// registration.
type GatewayOrder struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
}

// PaymentGateway is the contract towards the external payment provider.
// VerifySignature must use a full-length comparison so a partial match is
// never observable through timing.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}
