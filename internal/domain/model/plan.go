package model

import (
	"time"

	"counseling-platform/internal/domain"
)

// PlanType discriminates pricing, validity and entitlement behavior.
// Every call site switches on the enum; behavior is never re-derived from
// raw strings scattered around the codebase.
type PlanType string

const (
	// PlanTypeTool is a one-time purchase of the rank/college tools; its
	// entitlement never expires.
	PlanTypeTool PlanType = "tool"
	// PlanTypePremium flips the account-wide premium flag.
	PlanTypePremium PlanType = "premium"
	// Counseling plan types map to per-plan entitlement slots on the user.
	PlanTypeNational  PlanType = "national"
	PlanTypeState     PlanType = "state"
	PlanTypeCommunity PlanType = "community"
)

// PerpetualValidity is the far-future sentinel used for tool purchases.
var PerpetualValidity = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

func ParsePlanType(s string) (PlanType, error) {
	switch t := PlanType(s); t {
	case PlanTypeTool, PlanTypePremium, PlanTypeNational, PlanTypeState, PlanTypeCommunity:
		return t, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// IsCounseling reports whether the type grants a counseling-plan slot
// (as opposed to the premium flag or the perpetual tool access).
func (t PlanType) IsCounseling() bool {
	switch t {
	case PlanTypeNational, PlanTypeState, PlanTypeCommunity:
		return true
	default:
		return false
	}
}

// GrantKey is the key under the user's counseling_plans document.
func (t PlanType) GrantKey() string { return string(t) }

// Validity computes the entitlement expiry for a purchase made at now.
// A plan-level expiry date takes precedence; otherwise each type carries
// its own window. Tool purchases never expire.
func (t PlanType) Validity(now time.Time, planExpiry *time.Time) time.Time {
	if t == PlanTypeTool {
		return PerpetualValidity
	}
	if planExpiry != nil {
		return *planExpiry
	}
	switch t {
	case PlanTypeNational, PlanTypeState, PlanTypeCommunity:
		return now.AddDate(0, 6, 0)
	default:
		return now.AddDate(0, 0, 30)
	}
}

// Plan is a purchasable counseling/subscription plan. Price is stored in
// gateway minor units (paise) to avoid float errors.
type Plan struct {
	ID         string
	Title      string
	Type       PlanType
	Price      int64
	ExpiryDate *time.Time
	CreatedAt  time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, title string, typ PlanType, price int64, expiryDate *time.Time) (*Plan, error) {
	if id == "" || title == "" || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := ParsePlanType(string(typ)); err != nil {
		return nil, err
	}
	return &Plan{
		ID:         id,
		Title:      title,
		Type:       typ,
		Price:      price,
		ExpiryDate: expiryDate,
		CreatedAt:  time.Now(),
	}, nil
}
