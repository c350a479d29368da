package adapter

import "context"

// GatewayPaymentStatus is the provider-side state of a payment entity.
type GatewayPaymentStatus string

const (
	GatewayPaymentCaptured GatewayPaymentStatus = "captured"
	GatewayPaymentFailed   GatewayPaymentStatus = "failed"
	GatewayPaymentPending  GatewayPaymentStatus = "pending"
)

// GatewayPayment is a minimal provider-agnostic payment entity.
type GatewayPayment struct {
	ID       string
	OrderID  string
	Status   GatewayPaymentStatus
	Amount   int64 // minor units
	Currency string
}

// PaymentGateway is the hex port for the payment provider.
//
// All calls carry a bounded timeout through ctx; a transport failure is
// surfaced as domain.ErrGatewayUnavailable by implementations.
type PaymentGateway interface {
	Name() string

	// CreateOrder creates a remote order for the (already discounted)
	// amount and returns the provider order id.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (orderID string, err error)
	// FetchPayment fetches one payment entity by provider payment id.
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
	// FetchOrderPayments lists payments made against an order (used by the
	// stale-order reconciler).
	FetchOrderPayments(ctx context.Context, orderID string) ([]*GatewayPayment, error)
}
