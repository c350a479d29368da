package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/adapter"
	"counseling-platform/internal/domain/ports/repository"
	"counseling-platform/internal/usecase"
)

// OrderReconciler periodically scans for stale created orders and asks the
// gateway what actually happened to them. This covers abandoned checkouts,
// lost verify callbacks and webhook deliveries that never arrived.
type OrderReconciler struct {
	purchases repository.PurchaseRepository
	gateway   adapter.PaymentGateway
	ledger    usecase.LedgerService
	interval  time.Duration // how often to scan
	minAge    time.Duration // how old a created order must be to look at
	log       *zerolog.Logger
}

func NewOrderReconciler(
	purchases repository.PurchaseRepository,
	gateway adapter.PaymentGateway,
	ledger usecase.LedgerService,
	interval, minAge time.Duration,
	logger *zerolog.Logger,
) *OrderReconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if minAge <= 0 {
		minAge = 15 * time.Minute
	}
	return &OrderReconciler{
		purchases: purchases,
		gateway:   gateway,
		ledger:    ledger,
		interval:  interval,
		minAge:    minAge,
		log:       logger,
	}
}

func (w *OrderReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *OrderReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.minAge)
	stale, err := w.purchases.ListCreatedOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("order-reconciler: list stale orders")
		return
	}
	for _, p := range stale {
		if err := w.reconcileOne(ctx, p); err != nil {
			w.log.Warn().Err(err).Str("order_id", p.OrderID).
				Msg("order-reconciler: reconcile failed")
		}
	}
}

// reconcileOne applies the settled outcome the gateway reports for the
// order. A captured payment wins over failed attempts regardless of order:
// an order with three failed retries and one capture is paid. Orders with
// no settled payment yet are left alone; the next tick picks them up again.
func (w *OrderReconciler) reconcileOne(ctx context.Context, p *model.Purchase) error {
	payments, err := w.gateway.FetchOrderPayments(ctx, p.OrderID)
	if err != nil {
		return err
	}

	var paymentID string
	var outcome model.PaymentOutcome
	for _, gp := range payments {
		switch gp.Status {
		case adapter.GatewayPaymentCaptured:
			paymentID, outcome = gp.ID, model.OutcomePaid
		case adapter.GatewayPaymentFailed:
			if outcome != model.OutcomePaid {
				paymentID, outcome = gp.ID, model.OutcomeFailed
			}
		}
	}
	if paymentID == "" {
		return nil
	}

	res, err := w.ledger.ApplyOutcome(ctx, p.OrderID, paymentID, outcome)
	if err != nil {
		// A conflict is terminal for this order; nothing a retry can fix.
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return err
	}
	if res == model.TransitionApplied {
		w.log.Info().Str("order_id", p.OrderID).Str("payment_id", paymentID).
			Str("outcome", string(outcome)).Msg("order-reconciler: stale order settled")
	}
	return nil
}
