//go:build !integration

package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
)

type webhookFixture struct {
	purchases *memPurchaseRepo
	users     *memUserRepo
	verifier  *memVerifier
	webhook   WebhookService
	user      *model.User
	plan      *model.Plan
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	user, err := model.NewUser("user-1", "mentee@example.com", "Mentee One", "mentee")
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	plan, err := model.NewPlan("plan-1", "Premium", model.PlanTypePremium, 29900, nil)
	if err != nil {
		t.Fatalf("new plan: %v", err)
	}

	f := &webhookFixture{
		purchases: newMemPurchaseRepo(),
		users:     newMemUserRepo(user),
		verifier:  &memVerifier{orderOK: true, webhookOK: true},
		user:      user,
		plan:      plan,
	}
	plans := newMemPlanRepo(plan)
	granter := NewEntitlementService(f.users, newTestLogger())
	ledger := NewLedgerService(f.purchases, plans, granter, &memTxManager{}, newTestLogger())
	f.webhook = NewWebhookService(f.verifier, ledger, newTestLogger())
	return f
}

func (f *webhookFixture) seedCreated(t *testing.T, orderID string) {
	t.Helper()
	p, err := model.NewPurchase("purchase-1", f.user.ID, f.plan.ID, f.plan.Title, orderID, 29900, "INR", "receipt_x", nil, time.Now().AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("new purchase: %v", err)
	}
	if err := f.purchases.Save(context.Background(), nil, p); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func capturedBody(event, paymentID, orderID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":"captured","amount":29900}}}}`,
		event, paymentID, orderID))
}

func TestWebhook_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("a captured delivery settles the order and grants", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.seedCreated(t, "order_1")

		res, err := f.webhook.Handle(ctx, capturedBody("payment.captured", "pay_1", "order_1"), "sig")
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Event != model.EventPaymentCaptured || res.Transition != model.TransitionApplied {
			t.Fatalf("unexpected result: %+v", res)
		}
		if res.Amount != 29900 {
			t.Fatalf("amount = %d", res.Amount)
		}
		if !f.user.Premium {
			t.Fatal("premium not granted")
		}
	})

	t.Run("a duplicate delivery grants nothing new", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.seedCreated(t, "order_1")
		body := capturedBody("payment.captured", "pay_1", "order_1")

		if _, err := f.webhook.Handle(ctx, body, "sig"); err != nil {
			t.Fatalf("first delivery: %v", err)
		}
		res, err := f.webhook.Handle(ctx, body, "sig")
		if err != nil {
			t.Fatalf("second delivery: %v", err)
		}
		if res.Transition != model.TransitionAlreadyApplied {
			t.Fatalf("transition = %s", res.Transition)
		}
		if f.users.premiumGrants != 1 {
			t.Fatalf("premium granted %d times", f.users.premiumGrants)
		}
	})

	t.Run("a bad signature is rejected before parsing", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.seedCreated(t, "order_1")
		f.verifier.webhookOK = false

		// Deliberately unparseable: the signature check must come first.
		_, err := f.webhook.Handle(ctx, []byte("not json"), "sig")
		if !errors.Is(err, domain.ErrInvalidSignature) {
			t.Fatalf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("a valid signature over junk is a validation error", func(t *testing.T) {
		f := newWebhookFixture(t)

		_, err := f.webhook.Handle(ctx, []byte("not json"), "sig")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("missing entity fields are a validation error", func(t *testing.T) {
		f := newWebhookFixture(t)

		body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)
		_, err := f.webhook.Handle(ctx, body, "sig")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("an unhandled event is acknowledged as a no-op", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.seedCreated(t, "order_1")

		res, err := f.webhook.Handle(ctx, capturedBody("refund.created", "pay_1", "order_1"), "sig")
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Event != model.EventUnhandled || res.Transition != "" {
			t.Fatalf("unexpected result: %+v", res)
		}
		p, _ := f.purchases.FindByOrderID(ctx, nil, "order_1")
		if p.Status != model.PurchaseStatusCreated {
			t.Fatalf("unhandled event mutated the purchase: %s", p.Status)
		}
	})

	t.Run("a failed event records the failure", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.seedCreated(t, "order_1")

		body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","status":"failed","amount":29900}}}}`)
		res, err := f.webhook.Handle(ctx, body, "sig")
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Transition != model.TransitionApplied {
			t.Fatalf("transition = %s", res.Transition)
		}
		p, _ := f.purchases.FindByOrderID(ctx, nil, "order_1")
		if p.Status != model.PurchaseStatusFailed {
			t.Fatalf("status = %s", p.Status)
		}
	})

	t.Run("an unknown order propagates so the gateway redelivers", func(t *testing.T) {
		f := newWebhookFixture(t)

		_, err := f.webhook.Handle(ctx, capturedBody("payment.captured", "pay_1", "order_nope"), "sig")
		if !errors.Is(err, domain.ErrUnknownOrder) {
			t.Fatalf("expected ErrUnknownOrder, got %v", err)
		}
	})

	t.Run("order.paid settles like a capture", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.seedCreated(t, "order_1")

		res, err := f.webhook.Handle(ctx, capturedBody("order.paid", "pay_1", "order_1"), "sig")
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Event != model.EventOrderPaid || res.Transition != model.TransitionApplied {
			t.Fatalf("unexpected result: %+v", res)
		}
	})
}
