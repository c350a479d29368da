package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

func (r *couponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	applicable := make([]string, 0, len(c.ApplicablePlans))
	for _, t := range c.ApplicablePlans {
		applicable = append(applicable, string(t))
	}
	const q = `
INSERT INTO coupons (code, discount_percent, is_active, expiry_date, applicable_plans, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (code) DO UPDATE SET
  discount_percent=$2, is_active=$3, expiry_date=$4, applicable_plans=$5;`
	if _, err := execSQL(ctx, r.pool, tx, q, c.Code, c.DiscountPercent, c.IsActive, c.ExpiryDate, applicable, c.CreatedAt); err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	const q = `SELECT code, discount_percent, is_active, expiry_date, applicable_plans, created_at FROM coupons WHERE code=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	c := &model.Coupon{}
	var applicable []string
	if err := row.Scan(&c.Code, &c.DiscountPercent, &c.IsActive, &c.ExpiryDate, &applicable, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	for _, s := range applicable {
		c.ApplicablePlans = append(c.ApplicablePlans, model.PlanType(s))
	}
	return c, nil
}
