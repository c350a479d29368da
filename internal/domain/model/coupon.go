package model

import (
	"time"

	"counseling-platform/internal/domain"
)

// Coupon is a read-mostly discount code scoped to a set of plan types.
type Coupon struct {
	Code            string
	DiscountPercent int
	IsActive        bool
	ExpiryDate      time.Time
	ApplicablePlans []PlanType
	CreatedAt       time.Time
}

// Validate checks the coupon against now and the plan type being bought.
// Check order matters for error reporting: inactive before expired before
// not-applicable.
func (c *Coupon) Validate(now time.Time, planType PlanType) error {
	if !c.IsActive {
		return domain.ErrCouponInactive
	}
	if c.ExpiryDate.Before(now) {
		return domain.ErrCouponExpired
	}
	for _, t := range c.ApplicablePlans {
		if t == planType {
			return nil
		}
	}
	return domain.ErrCouponNotApplicable
}

// Apply returns the discounted amount in minor units, floored to the
// gateway's minor-unit precision.
func (c *Coupon) Apply(amount int64) int64 {
	return amount * int64(100-c.DiscountPercent) / 100
}

// NewCoupon validates and constructs a coupon.
func NewCoupon(code string, discountPercent int, expiryDate time.Time, applicable []PlanType) (*Coupon, error) {
	if code == "" || discountPercent <= 0 || discountPercent > 100 || len(applicable) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Coupon{
		Code:            code,
		DiscountPercent: discountPercent,
		IsActive:        true,
		ExpiryDate:      expiryDate,
		ApplicablePlans: applicable,
		CreatedAt:       time.Now(),
	}, nil
}
