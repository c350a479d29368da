package adapter

import (
	"context"
	"time"
)

// InvoiceData is everything the generator needs to render one artifact.
type InvoiceData struct {
	PaymentID    string
	OrderID      string
	Receipt      string
	UserFullName string
	UserEmail    string
	PlanTitle    string
	Amount       int64 // minor units
	Currency     string
	CouponUsed   string
	PaidAt       time.Time
}

// InvoiceGenerator renders a durable artifact for a paid purchase. The
// artifact is content-addressed by payment id upstream; the generator
// itself is a pure renderer and may be slow or unavailable without ever
// touching purchase state.
type InvoiceGenerator interface {
	Render(ctx context.Context, data InvoiceData) (body []byte, contentType string, err error)
}

// ArtifactCache stores rendered artifacts keyed by payment id. A miss or a
// cache failure degrades to a re-render, never to an error for the caller.
type ArtifactCache interface {
	Get(ctx context.Context, paymentID string) ([]byte, bool)
	Set(ctx context.Context, paymentID string, body []byte)
}
