// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/adapter"
	"counseling-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ OrderService = (*orderUC)(nil)

// OrderDetails is what the client needs to hand the payment over to the
// gateway checkout.
type OrderDetails struct {
	PurchaseID string
	OrderID    string
	Amount     int64 // minor units
	Currency   string
	PlanTitle  string
	Reused     bool // true when an existing open order was returned
}

// OrderService creates purchase orders and settles the synchronous
// client-side verification path.
type OrderService interface {
	CreateOrder(ctx context.Context, userID, planID, couponCode string) (*OrderDetails, error)
	// VerifyPayment checks the client callback signature, confirms the
	// payment state at the gateway and applies the outcome to the ledger.
	VerifyPayment(ctx context.Context, orderID, paymentID, signatureHex string) (model.TransitionResult, error)
}

type orderUC struct {
	users     repository.UserRepository
	plans     repository.PlanRepository
	coupons   repository.CouponRepository
	purchases repository.PurchaseRepository
	gateway   adapter.PaymentGateway
	verifier  adapter.SignatureVerifier
	ledger    LedgerService
	log       *zerolog.Logger
}

func NewOrderService(
	users repository.UserRepository,
	plans repository.PlanRepository,
	coupons repository.CouponRepository,
	purchases repository.PurchaseRepository,
	gateway adapter.PaymentGateway,
	verifier adapter.SignatureVerifier,
	ledger LedgerService,
	logger *zerolog.Logger,
) *orderUC {
	return &orderUC{
		users:     users,
		plans:     plans,
		coupons:   coupons,
		purchases: purchases,
		gateway:   gateway,
		verifier:  verifier,
		ledger:    ledger,
		log:       logger,
	}
}

func (u *orderUC) CreateOrder(ctx context.Context, userID, planID, couponCode string) (*OrderDetails, error) {
	user, err := u.users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	if !user.Active {
		return nil, domain.ErrAccountDeactivated
	}
	plan, err := u.plans.FindByID(ctx, nil, planID)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", planID, err)
	}

	// An open order for the pair is returned verbatim: the client may have
	// lost the response of an earlier call. The coupon of the original call
	// stays in force for the life of the order even if this retry names a
	// different one.
	if existing, err := u.purchases.FindOpenByUserAndPlan(ctx, nil, userID, planID); err == nil {
		if existing.Status == model.PurchaseStatusPaid {
			return nil, domain.ErrAlreadyPurchased
		}
		return details(existing, plan.Title, true), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	amount := plan.Price
	var couponUsed *string
	if couponCode != "" {
		coupon, err := u.coupons.FindByCode(ctx, nil, couponCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrCouponNotFound
			}
			return nil, err
		}
		if err := coupon.Validate(now, plan.Type); err != nil {
			return nil, err
		}
		amount = coupon.Apply(amount)
		couponUsed = &coupon.Code
	}

	validity := plan.Type.Validity(now, plan.ExpiryDate)
	receipt := "receipt_" + ulid.Make().String()
	notes := map[string]string{
		"user_id":  userID,
		"plan_id":  planID,
		"validity": validity.Format(time.RFC3339),
	}
	if couponUsed != nil {
		notes["coupon"] = *couponUsed
	}

	// Remote order first, row second: a gateway timeout must not leave a
	// purchase row without a corresponding remote order.
	orderID, err := u.gateway.CreateOrder(ctx, amount, "INR", receipt, notes)
	if err != nil {
		return nil, err
	}

	purchase, err := model.NewPurchase(uuid.NewString(), userID, planID, plan.Title, orderID, amount, "INR", receipt, couponUsed, validity)
	if err != nil {
		return nil, err
	}
	if err := u.purchases.Save(ctx, nil, purchase); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost an insert race with a concurrent createOrder; return the
			// winner's order instead of a duplicate.
			if winner, ferr := u.purchases.FindOpenByUserAndPlan(ctx, nil, userID, planID); ferr == nil {
				if winner.Status == model.PurchaseStatusPaid {
					return nil, domain.ErrAlreadyPurchased
				}
				return details(winner, plan.Title, true), nil
			}
		}
		return nil, err
	}

	u.log.Info().Str("user_id", userID).Str("plan_id", planID).
		Str("order_id", orderID).Int64("amount", amount).
		Msg("purchase order created")
	return details(purchase, plan.Title, false), nil
}

func (u *orderUC) VerifyPayment(ctx context.Context, orderID, paymentID, signatureHex string) (model.TransitionResult, error) {
	if orderID == "" || paymentID == "" || signatureHex == "" {
		return "", domain.ErrValidation
	}
	if !u.verifier.VerifyOrder(orderID, paymentID, signatureHex) {
		u.log.Error().Str("order_id", orderID).Str("payment_id", paymentID).
			Msg("order signature mismatch")
		return "", domain.ErrInvalidSignature
	}

	gp, err := u.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if gp.OrderID != orderID {
		u.log.Warn().Str("order_id", orderID).Str("payment_id", paymentID).
			Str("gateway_order_id", gp.OrderID).Msg("payment belongs to a different order")
		return model.TransitionConflict, domain.ErrConflict
	}

	var outcome model.PaymentOutcome
	switch gp.Status {
	case adapter.GatewayPaymentCaptured:
		outcome = model.OutcomePaid
	case adapter.GatewayPaymentFailed:
		outcome = model.OutcomeFailed
	default:
		return "", fmt.Errorf("payment %s not settled at gateway: %w", paymentID, domain.ErrValidation)
	}
	return u.ledger.ApplyOutcome(ctx, orderID, paymentID, outcome)
}

func details(p *model.Purchase, planTitle string, reused bool) *OrderDetails {
	return &OrderDetails{
		PurchaseID: p.ID,
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		PlanTitle:  planTitle,
		Reused:     reused,
	}
}
