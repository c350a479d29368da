package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, user_id, plan_id, plan_title, order_id, payment_id, amount, currency, receipt, status, coupon_used, validity, created_at, updated_at`

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	p := &model.Purchase{}
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.PlanTitle, &p.OrderID, &p.PaymentID, &p.Amount, &p.Currency, &p.Receipt, &p.Status, &p.CouponUsed, &p.Validity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	const q = `
INSERT INTO purchases (
  id, user_id, plan_id, plan_title, order_id, payment_id, amount, currency, receipt, status, coupon_used, validity, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
);`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.PlanID, p.PlanTitle, p.OrderID, p.PaymentID, p.Amount, p.Currency, p.Receipt, p.Status, p.CouponUsed, p.Validity, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// The partial unique index on (user_id, plan_id) for open rows
			// turns a concurrent duplicate createOrder into a clean signal.
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id=$1`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE order_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE payment_id=$1 LIMIT 1`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) FindOpenByUserAndPlan(ctx context.Context, tx repository.Tx, userID, planID string) (*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1 AND plan_id=$2 AND status IN ('created','paid') ORDER BY created_at DESC LIMIT 1`
	row, err := pickRow(ctx, r.pool, tx, q, userID, planID)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

// MarkIfCreated atomically closes the created->terminal transition: the
// read and the conditional write are a single statement keyed on the status
// still being 'created', so of any number of concurrent confirmation paths
// exactly one observes RowsAffected == 1.
func (r *purchaseRepo) MarkIfCreated(ctx context.Context, tx repository.Tx, orderID string, status model.PurchaseStatus, paymentID string) (bool, error) {
	const q = `
    UPDATE purchases
       SET status = $2,
           payment_id = $3,
           updated_at = NOW()
     WHERE order_id = $1
       AND status = 'created';`
	cmd, err := execSQL(ctx, r.pool, tx, q, orderID, string(status), paymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) ListCreatedOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE status='created' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *purchaseRepo) ListWithUsers(ctx context.Context, tx repository.Tx) ([]*model.PurchaseRecord, error) {
	const q = `
SELECT p.id, p.user_id, p.plan_id, p.plan_title, p.order_id, p.payment_id, p.amount, p.currency, p.receipt, p.status, p.coupon_used, p.validity, p.created_at, p.updated_at,
       u.full_name, u.email, u.role
  FROM purchases p
  JOIN users u ON u.id = p.user_id
 ORDER BY p.created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PurchaseRecord
	for rows.Next() {
		rec := &model.PurchaseRecord{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.PlanID, &rec.PlanTitle, &rec.OrderID, &rec.PaymentID, &rec.Amount, &rec.Currency, &rec.Receipt, &rec.Status, &rec.CouponUsed, &rec.Validity, &rec.CreatedAt, &rec.UpdatedAt, &rec.UserFullName, &rec.UserEmail, &rec.UserRole); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *purchaseRepo) SumPaidByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM purchases WHERE status='paid' AND updated_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
