// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ EntitlementService = (*entitlementUC)(nil)

// EntitlementService applies the business effect of a successful payment to
// the user's profile. Grant must be callable more than once per purchase
// (a crash between the ledger transition and the grant is healed by the
// gateway's redelivery) and must never double-apply: the repository writes
// are conditional on the entitlement not already carrying this payment id.
type EntitlementService interface {
	Grant(ctx context.Context, tx repository.Tx, purchase *model.Purchase, plan *model.Plan) error
}

type entitlementUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewEntitlementService(users repository.UserRepository, logger *zerolog.Logger) *entitlementUC {
	return &entitlementUC{users: users, log: logger}
}

func (u *entitlementUC) Grant(ctx context.Context, tx repository.Tx, purchase *model.Purchase, plan *model.Plan) error {
	if purchase == nil || plan == nil || purchase.PaymentID == nil {
		return domain.ErrInvalidArgument
	}
	paymentID := *purchase.PaymentID

	if plan.Type == model.PlanTypePremium {
		applied, err := u.users.GrantPremium(ctx, tx, purchase.UserID, time.Now())
		if err != nil {
			return fmt.Errorf("grant premium: %w", err)
		}
		if !applied {
			u.log.Debug().Str("user_id", purchase.UserID).Str("payment_id", paymentID).
				Msg("premium already granted; grant is a no-op")
		} else {
			u.log.Info().Str("user_id", purchase.UserID).Str("payment_id", paymentID).
				Msg("premium granted")
		}
		return nil
	}

	grant := model.CounselingGrant{
		Active:      true,
		PurchasedOn: time.Now(),
		ValidUntil:  purchase.Validity,
		PaymentID:   paymentID,
	}
	if plan.Type == model.PlanTypeCommunity {
		// Single-use invite reference, minted exactly once; a replayed grant
		// keeps the original token because the conditional write loses.
		grant.InviteToken = uuid.NewString()
	}

	applied, err := u.users.GrantCounselingPlan(ctx, tx, purchase.UserID, plan.Type.GrantKey(), grant)
	if err != nil {
		return fmt.Errorf("grant counseling plan %q: %w", plan.Type.GrantKey(), err)
	}
	if !applied {
		u.log.Debug().Str("user_id", purchase.UserID).Str("plan_key", plan.Type.GrantKey()).
			Str("payment_id", paymentID).Msg("counseling plan already granted; grant is a no-op")
		return nil
	}
	u.log.Info().Str("user_id", purchase.UserID).Str("plan_key", plan.Type.GrantKey()).
		Str("payment_id", paymentID).Time("valid_until", grant.ValidUntil).
		Msg("counseling plan granted")
	return nil
}
