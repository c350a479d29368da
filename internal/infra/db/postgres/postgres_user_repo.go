package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, full_name, role, active, premium, premium_since, counseling_plans, created_at, last_active_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var plans []byte
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Active, &u.Premium, &u.PremiumSince, &plans, &u.CreatedAt, &u.LastActiveAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	u.CounselingPlans = map[string]model.CounselingGrant{}
	if len(plans) > 0 {
		if err := json.Unmarshal(plans, &u.CounselingPlans); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return u, nil
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	plans, err := json.Marshal(u.CounselingPlans)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO users (id, email, full_name, role, active, premium, premium_since, counseling_plans, created_at, last_active_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  email=$2, full_name=$3, role=$4, active=$5, last_active_at=$10;`
	if _, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.FullName, u.Role, u.Active, u.Premium, u.PremiumSince, plans, u.CreatedAt, u.LastActiveAt); err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	row, err := pickRow(ctx, r.pool, tx, q, email)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

// GrantPremium is conditional on premium still being false, so a replayed
// grant never moves premium_since.
func (r *userRepo) GrantPremium(ctx context.Context, tx repository.Tx, userID string, since time.Time) (bool, error) {
	const q = `
    UPDATE users
       SET premium = TRUE,
           premium_since = $2
     WHERE id = $1
       AND premium = FALSE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, since)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// GrantCounselingPlan writes the slot only when it does not already carry
// this grant's payment id: a crash-and-retry between the ledger transition
// and the grant cannot double-extend validity or re-mint an invite token.
func (r *userRepo) GrantCounselingPlan(ctx context.Context, tx repository.Tx, userID, key string, grant model.CounselingGrant) (bool, error) {
	body, err := json.Marshal(grant)
	if err != nil {
		return false, domain.ErrInvalidArgument
	}
	const q = `
    UPDATE users
       SET counseling_plans = jsonb_set(COALESCE(counseling_plans, '{}'::jsonb), ARRAY[$2], $3::jsonb, true)
     WHERE id = $1
       AND COALESCE(counseling_plans #>> ARRAY[$2, 'payment_id'], '') <> $4;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, key, body, grant.PaymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
