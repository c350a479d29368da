// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ LedgerService = (*ledgerUC)(nil)

// LedgerService owns the single state transition of a purchase. Any number
// of confirmation paths (synchronous verify, webhook redeliveries, the
// reconciler) may call ApplyOutcome concurrently for the same order;
// exactly one wins the created->terminal transition and every other caller
// deterministically lands on AlreadyApplied or Conflict.
type LedgerService interface {
	// ApplyOutcome records a payment outcome against the order's purchase.
	// Returns domain.ErrUnknownOrder when no purchase references orderID and
	// domain.ErrConflict together with TransitionConflict when the recorded
	// state disagrees with the signal.
	ApplyOutcome(ctx context.Context, orderID, paymentID string, outcome model.PaymentOutcome) (model.TransitionResult, error)
}

type ledgerUC struct {
	purchases repository.PurchaseRepository
	plans     repository.PlanRepository
	granter   EntitlementService
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewLedgerService(
	purchases repository.PurchaseRepository,
	plans repository.PlanRepository,
	granter EntitlementService,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *ledgerUC {
	return &ledgerUC{purchases: purchases, plans: plans, granter: granter, tm: tm, log: logger}
}

func (u *ledgerUC) ApplyOutcome(ctx context.Context, orderID, paymentID string, outcome model.PaymentOutcome) (model.TransitionResult, error) {
	if orderID == "" || paymentID == "" {
		return "", domain.ErrInvalidArgument
	}

	var result model.TransitionResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.purchases.FindByOrderID(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Never create a row from a confirmation signal.
				return fmt.Errorf("order %s: %w", orderID, domain.ErrUnknownOrder)
			}
			return err
		}

		if p.Status.Terminal() {
			result, err = u.classifyTerminal(ctx, tx, p, paymentID, outcome)
			return err
		}

		won, err := u.purchases.MarkIfCreated(ctx, tx, orderID, outcome.Status(), paymentID)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent caller transitioned the row between our read and
			// the conditional write. Re-read and classify against the
			// winner's state.
			p, err = u.purchases.FindByOrderID(ctx, tx, orderID)
			if err != nil {
				return err
			}
			result, err = u.classifyTerminal(ctx, tx, p, paymentID, outcome)
			return err
		}

		result = model.TransitionApplied
		if outcome == model.OutcomePaid {
			p.PaymentID = &paymentID
			p.Status = model.PurchaseStatusPaid
			return u.grant(ctx, tx, p)
		}
		u.log.Info().Str("order_id", orderID).Str("payment_id", paymentID).
			Msg("purchase marked failed")
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// classifyTerminal decides the idempotent/no-op vs. conflict branch for a
// purchase that is already terminal.
func (u *ledgerUC) classifyTerminal(ctx context.Context, tx repository.Tx, p *model.Purchase, paymentID string, outcome model.PaymentOutcome) (model.TransitionResult, error) {
	switch p.Status {
	case model.PurchaseStatusPaid:
		if outcome == model.OutcomePaid && p.PaymentID != nil && *p.PaymentID == paymentID {
			// Duplicate delivery of the winning confirmation. Re-run the
			// (idempotent) grant so a crash between transition and grant
			// heals on redelivery.
			if err := u.grant(ctx, tx, p); err != nil {
				return "", err
			}
			return model.TransitionAlreadyApplied, nil
		}
		u.conflict(p, paymentID, outcome, "purchase already paid with a different payment")
		return model.TransitionConflict, domain.ErrConflict

	case model.PurchaseStatusFailed:
		if outcome == model.OutcomeFailed {
			return model.TransitionAlreadyApplied, nil
		}
		// A payment cannot resurrect a failed order.
		u.conflict(p, paymentID, outcome, "paid outcome for a failed purchase")
		return model.TransitionConflict, domain.ErrConflict
	}
	return "", domain.ErrOperationFailed
}

func (u *ledgerUC) grant(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	plan, err := u.plans.FindByID(ctx, tx, p.PlanID)
	if err != nil {
		return fmt.Errorf("plan %s for grant: %w", p.PlanID, err)
	}
	return u.granter.Grant(ctx, tx, p, plan)
}

// conflict logs are mandatory: a conflict means either a race bug or a
// forged/replayed confirmation, and is investigated by hand.
func (u *ledgerUC) conflict(p *model.Purchase, paymentID string, outcome model.PaymentOutcome, msg string) {
	ev := u.log.Warn().
		Str("order_id", p.OrderID).
		Str("purchase_id", p.ID).
		Str("status", string(p.Status)).
		Str("incoming_payment_id", paymentID).
		Str("incoming_outcome", string(outcome))
	if p.PaymentID != nil {
		ev = ev.Str("recorded_payment_id", *p.PaymentID)
	}
	ev.Msg(msg)
}
