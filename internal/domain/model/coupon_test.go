//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"counseling-platform/internal/domain"
)

func TestCoupon_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	valid := func() *Coupon {
		return &Coupon{
			Code:            "SAVE",
			DiscountPercent: 10,
			IsActive:        true,
			ExpiryDate:      now.AddDate(0, 1, 0),
			ApplicablePlans: []PlanType{PlanTypePremium},
		}
	}

	t.Run("a valid coupon passes", func(t *testing.T) {
		if err := valid().Validate(now, PlanTypePremium); err != nil {
			t.Fatalf("validate: %v", err)
		}
	})

	t.Run("inactive wins over expired", func(t *testing.T) {
		c := valid()
		c.IsActive = false
		c.ExpiryDate = now.AddDate(0, 0, -1)
		if err := c.Validate(now, PlanTypePremium); !errors.Is(err, domain.ErrCouponInactive) {
			t.Fatalf("expected ErrCouponInactive, got %v", err)
		}
	})

	t.Run("expired wins over not-applicable", func(t *testing.T) {
		c := valid()
		c.ExpiryDate = now.Add(-time.Millisecond)
		if err := c.Validate(now, PlanTypeNational); !errors.Is(err, domain.ErrCouponExpired) {
			t.Fatalf("expected ErrCouponExpired, got %v", err)
		}
	})

	t.Run("expiry is exclusive at the boundary", func(t *testing.T) {
		c := valid()
		c.ExpiryDate = now
		// ExpiryDate == now is not yet expired.
		if err := c.Validate(now, PlanTypePremium); err != nil {
			t.Fatalf("coupon expiring exactly now rejected: %v", err)
		}
		if err := c.Validate(now.Add(time.Millisecond), PlanTypePremium); !errors.Is(err, domain.ErrCouponExpired) {
			t.Fatalf("expected ErrCouponExpired just past expiry, got %v", err)
		}
	})

	t.Run("plan type outside the scope is not applicable", func(t *testing.T) {
		if err := valid().Validate(now, PlanTypeState); !errors.Is(err, domain.ErrCouponNotApplicable) {
			t.Fatalf("expected ErrCouponNotApplicable, got %v", err)
		}
	})
}

func TestCoupon_Apply(t *testing.T) {
	cases := []struct {
		pct    int
		amount int64
		want   int64
	}{
		{10, 29900, 26910},
		{33, 999, 669}, // 999*67/100 floors
		{100, 29900, 0},
		{1, 1, 0}, // floors to zero
	}
	for _, c := range cases {
		coupon := &Coupon{DiscountPercent: c.pct}
		if got := coupon.Apply(c.amount); got != c.want {
			t.Errorf("Apply(%d) with %d%% = %d, want %d", c.amount, c.pct, got, c.want)
		}
	}
}

func TestNewCoupon(t *testing.T) {
	expiry := time.Now().AddDate(0, 1, 0)
	if _, err := NewCoupon("SAVE", 0, expiry, []PlanType{PlanTypePremium}); err == nil {
		t.Error("zero discount accepted")
	}
	if _, err := NewCoupon("SAVE", 101, expiry, []PlanType{PlanTypePremium}); err == nil {
		t.Error("discount above 100 accepted")
	}
	if _, err := NewCoupon("SAVE", 10, expiry, nil); err == nil {
		t.Error("empty applicability accepted")
	}
	c, err := NewCoupon("SAVE", 10, expiry, []PlanType{PlanTypePremium})
	if err != nil {
		t.Fatalf("new coupon: %v", err)
	}
	if !c.IsActive {
		t.Error("new coupon not active")
	}
}
