package repository

import (
	"context"
	"time"

	"counseling-platform/internal/domain/model"
)

// PurchaseRepository is the persistence port for the purchase ledger.
//
// MarkIfCreated is the primitive the whole reconciliation design leans on:
// it must be a single conditional storage operation keyed on "status was
// still created". A read-then-write implementation re-opens the race
// between the synchronous verify call and webhook redeliveries.
type PurchaseRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Purchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Purchase, error)
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.Purchase, error)
	// FindOpenByUserAndPlan returns the latest non-failed purchase for the
	// pair (a `created` retry candidate or a terminal `paid` blocker).
	FindOpenByUserAndPlan(ctx context.Context, tx Tx, userID, planID string) (*model.Purchase, error)

	// MarkIfCreated atomically sets payment id and terminal status iff the
	// row is still in `created`. Returns false (no error) when another
	// caller already transitioned the row.
	MarkIfCreated(ctx context.Context, tx Tx, orderID string, status model.PurchaseStatus, paymentID string) (bool, error)

	// ListCreatedOlderThan feeds the stale-order reconciler.
	ListCreatedOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Purchase, error)
	// ListWithUsers returns all purchases joined with user display fields,
	// newest first (admin payments screen).
	ListWithUsers(ctx context.Context, tx Tx) ([]*model.PurchaseRecord, error)
	// SumPaidByPeriod sums paid amounts since the start of the given
	// date-trunc period ("week" | "month" | "year").
	SumPaidByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
