package model

import (
	"time"

	"counseling-platform/internal/domain"
)

type PurchaseStatus string

const (
	PurchaseStatusCreated PurchaseStatus = "created" // gateway order exists; awaiting an outcome
	PurchaseStatusPaid    PurchaseStatus = "paid"    // terminal
	PurchaseStatusFailed  PurchaseStatus = "failed"  // terminal
)

// Terminal reports whether no further transition is allowed from s.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseStatusPaid || s == PurchaseStatusFailed
}

// PaymentOutcome is what a confirmation signal (verify call, webhook,
// reconciler) observed at the gateway.
type PaymentOutcome string

const (
	OutcomePaid   PaymentOutcome = "paid"
	OutcomeFailed PaymentOutcome = "failed"
)

func (o PaymentOutcome) Status() PurchaseStatus {
	if o == OutcomePaid {
		return PurchaseStatusPaid
	}
	return PurchaseStatusFailed
}

// TransitionResult is the outcome of one ApplyOutcome call against the
// ledger. Exactly one caller ever sees TransitionApplied for a purchase.
type TransitionResult string

const (
	// TransitionApplied means this call won the created->terminal transition.
	TransitionApplied TransitionResult = "applied"
	// TransitionAlreadyApplied means the same outcome with the same payment
	// id was recorded earlier; the call is a successful no-op. This is the
	// duplicate-webhook-delivery defense.
	TransitionAlreadyApplied TransitionResult = "already_applied"
	// TransitionConflict means the recorded state disagrees with the signal
	// (different payment id, or a payment against a failed order). Never
	// auto-resolved.
	TransitionConflict TransitionResult = "conflict"
)

// Purchase is one purchase attempt of a plan by a user: the single source
// of truth for payment state. Rows are never deleted; terminal rows stay
// as the audit trail.
type Purchase struct {
	ID         string // UUID
	UserID     string
	PlanID     string
	PlanTitle  string
	OrderID    string  // gateway order id, immutable after creation
	PaymentID  *string // gateway payment id, set once on first confirmation
	Amount     int64   // charged amount after discount, minor units
	Currency   string
	Receipt    string
	Status     PurchaseStatus
	CouponUsed *string
	Validity   time.Time // entitlement expiry computed at order creation
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPurchase constructs a created-state purchase referencing a freshly
// created gateway order.
func NewPurchase(id, userID, planID, planTitle, orderID string, amount int64, currency, receipt string, coupon *string, validity time.Time) (*Purchase, error) {
	if id == "" || userID == "" || planID == "" || orderID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Purchase{
		ID:         id,
		UserID:     userID,
		PlanID:     planID,
		PlanTitle:  planTitle,
		OrderID:    orderID,
		Amount:     amount,
		Currency:   currency,
		Receipt:    receipt,
		Status:     PurchaseStatusCreated,
		CouponUsed: coupon,
		Validity:   validity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// PurchaseRecord is a purchase joined with user display fields for the
// admin payments screen.
type PurchaseRecord struct {
	Purchase
	UserFullName string
	UserEmail    string
	UserRole     string
}
