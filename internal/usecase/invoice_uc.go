// File: internal/usecase/invoice_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/adapter"
	"counseling-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ InvoiceService = (*invoiceUC)(nil)

// Invoice is a rendered artifact plus the fields the edge needs for
// authorization and caching headers.
type Invoice struct {
	Body        []byte
	ContentType string
	OwnerID     string
}

// InvoiceService serves the durable artifact for a paid purchase, rendered
// lazily on first request and content-addressed by payment id thereafter.
// A slow or unavailable generator never touches purchase state.
type InvoiceService interface {
	Artifact(ctx context.Context, paymentID string) (*Invoice, error)
}

type invoiceUC struct {
	purchases repository.PurchaseRepository
	users     repository.UserRepository
	generator adapter.InvoiceGenerator
	cache     adapter.ArtifactCache
	log       *zerolog.Logger
}

func NewInvoiceService(
	purchases repository.PurchaseRepository,
	users repository.UserRepository,
	generator adapter.InvoiceGenerator,
	cache adapter.ArtifactCache,
	logger *zerolog.Logger,
) *invoiceUC {
	return &invoiceUC{purchases: purchases, users: users, generator: generator, cache: cache, log: logger}
}

const invoiceContentType = "text/html; charset=utf-8"

func (u *invoiceUC) Artifact(ctx context.Context, paymentID string) (*Invoice, error) {
	if paymentID == "" {
		return nil, domain.ErrValidation
	}
	p, err := u.purchases.FindByPaymentID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PurchaseStatusPaid {
		return nil, fmt.Errorf("purchase %s not paid: %w", p.ID, domain.ErrNotFound)
	}

	if body, ok := u.cache.Get(ctx, paymentID); ok {
		return &Invoice{Body: body, ContentType: invoiceContentType, OwnerID: p.UserID}, nil
	}

	user, err := u.users.FindByID(ctx, nil, p.UserID)
	if err != nil {
		return nil, err
	}
	data := adapter.InvoiceData{
		PaymentID:    paymentID,
		OrderID:      p.OrderID,
		Receipt:      p.Receipt,
		UserFullName: user.FullName,
		UserEmail:    user.Email,
		PlanTitle:    p.PlanTitle,
		Amount:       p.Amount,
		Currency:     p.Currency,
		PaidAt:       p.UpdatedAt,
	}
	if p.CouponUsed != nil {
		data.CouponUsed = *p.CouponUsed
	}

	body, contentType, err := u.generator.Render(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("render invoice for %s: %w", paymentID, err)
	}
	// Best-effort: a cache failure just means the next request re-renders.
	u.cache.Set(ctx, paymentID, body)
	return &Invoice{Body: body, ContentType: contentType, OwnerID: p.UserID}, nil
}
