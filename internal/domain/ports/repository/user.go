package repository

import (
	"context"
	"time"

	"counseling-platform/internal/domain/model"
)

// UserRepository reads users and applies entitlement grants.
//
// The two Grant methods are conditional writes: they return false (no
// error) when the entitlement was already present, so a retried grant is a
// no-op instead of a double-extension.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)

	// GrantPremium sets premium + premium_since iff premium is still false.
	GrantPremium(ctx context.Context, tx Tx, userID string, since time.Time) (bool, error)
	// GrantCounselingPlan writes counseling_plans[key] iff the slot does not
	// already carry this grant's payment id.
	GrantCounselingPlan(ctx context.Context, tx Tx, userID, key string, grant model.CounselingGrant) (bool, error)
}
