package model

import (
	"time"

	"counseling-platform/internal/domain"
)

// CounselingGrant is one granted counseling-plan slot on a user. A slot is
// only ever added or extended; a failed payment never clears one.
type CounselingGrant struct {
	Active      bool       `json:"active"`
	PurchasedOn time.Time  `json:"purchased_on"`
	ValidUntil  time.Time  `json:"valid_until"`
	PaymentID   string     `json:"payment_id"`
	InviteToken string     `json:"invite_token,omitempty"` // community plans only, minted once
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`   // admin action, never set by payments
}

// User carries identity/display fields plus the entitlement fields owned by
// the entitlement granter. Entitlements are mutated exactly once per
// successful purchase, through conditional storage updates only.
type User struct {
	ID       string
	Email    string
	FullName string
	Role     string // mentor | mentee | admin
	Active   bool

	Premium      bool
	PremiumSince *time.Time
	// CounselingPlans maps PlanType grant keys to granted slots.
	CounselingPlans map[string]CounselingGrant

	CreatedAt    time.Time
	LastActiveAt time.Time
}

// NewUser constructs and validates a User with default entitlements.
func NewUser(id, email, fullName, role string) (*User, error) {
	if id == "" || email == "" || fullName == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch role {
	case "mentor", "mentee", "admin":
	default:
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:              id,
		Email:           email,
		FullName:        fullName,
		Role:            role,
		Active:          true,
		CounselingPlans: map[string]CounselingGrant{},
		CreatedAt:       now,
		LastActiveAt:    now,
	}, nil
}

// HasGrant reports whether key already carries a grant for paymentID.
func (u *User) HasGrant(key, paymentID string) bool {
	g, ok := u.CounselingPlans[key]
	return ok && g.PaymentID == paymentID
}
