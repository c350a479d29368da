//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
)

func TestPurchaseRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPurchaseRepo(testPool)
	userRepo := NewUserRepo(testPool)
	planRepo := NewPlanRepo(testPool)

	user, _ := model.NewUser(uuid.NewString(), "mentee@example.com", "Mentee One", "mentee")
	plan, _ := model.NewPlan(uuid.NewString(), "Premium", model.PlanTypePremium, 29900, nil)

	setupPrerequisites := func(t *testing.T) {
		cleanup(t)
		if err := userRepo.Save(ctx, nil, user); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}
		if err := planRepo.Save(ctx, nil, plan); err != nil {
			t.Fatalf("failed to save plan: %v", err)
		}
	}

	newPurchase := func(orderID string) *model.Purchase {
		p, err := model.NewPurchase(uuid.NewString(), user.ID, plan.ID, plan.Title, orderID, 29900, "INR", "receipt_x", nil, time.Now().AddDate(0, 0, 30))
		if err != nil {
			t.Fatalf("new purchase: %v", err)
		}
		return p
	}

	t.Run("should save and find a purchase by order id", func(t *testing.T) {
		setupPrerequisites(t)

		p := newPurchase("order_abc")
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatalf("save: %v", err)
		}
		found, err := repo.FindByOrderID(ctx, nil, "order_abc")
		if err != nil {
			t.Fatalf("find by order id: %v", err)
		}
		if found.ID != p.ID || found.Status != model.PurchaseStatusCreated {
			t.Fatalf("unexpected row: %+v", found)
		}
	})

	t.Run("second open order for the pair violates the partial index", func(t *testing.T) {
		setupPrerequisites(t)

		if err := repo.Save(ctx, nil, newPurchase("order_1")); err != nil {
			t.Fatalf("save: %v", err)
		}
		err := repo.Save(ctx, nil, newPurchase("order_2"))
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("failed purchase does not block a new order", func(t *testing.T) {
		setupPrerequisites(t)

		first := newPurchase("order_1")
		if err := repo.Save(ctx, nil, first); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, err := repo.MarkIfCreated(ctx, nil, "order_1", model.PurchaseStatusFailed, "pay_1"); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
		if err := repo.Save(ctx, nil, newPurchase("order_2")); err != nil {
			t.Fatalf("expected second order after failure, got %v", err)
		}
	})

	t.Run("MarkIfCreated admits exactly one winner under contention", func(t *testing.T) {
		setupPrerequisites(t)

		if err := repo.Save(ctx, nil, newPurchase("order_race")); err != nil {
			t.Fatalf("save: %v", err)
		}

		const callers = 8
		var wg sync.WaitGroup
		wins := make(chan bool, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				won, err := repo.MarkIfCreated(ctx, nil, "order_race", model.PurchaseStatusPaid, "pay_race")
				if err != nil {
					t.Errorf("mark: %v", err)
					return
				}
				wins <- won
			}()
		}
		wg.Wait()
		close(wins)

		winners := 0
		for w := range wins {
			if w {
				winners++
			}
		}
		if winners != 1 {
			t.Fatalf("expected exactly 1 winner, got %d", winners)
		}

		final, err := repo.FindByOrderID(ctx, nil, "order_race")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if final.Status != model.PurchaseStatusPaid || final.PaymentID == nil || *final.PaymentID != "pay_race" {
			t.Fatalf("unexpected final row: %+v", final)
		}
	})

	t.Run("conditional grant writes the entitlement once", func(t *testing.T) {
		setupPrerequisites(t)

		grant := model.CounselingGrant{Active: true, PurchasedOn: time.Now(), ValidUntil: time.Now().AddDate(0, 6, 0), PaymentID: "pay_1"}
		applied, err := userRepo.GrantCounselingPlan(ctx, nil, user.ID, "national", grant)
		if err != nil || !applied {
			t.Fatalf("first grant: applied=%v err=%v", applied, err)
		}
		applied, err = userRepo.GrantCounselingPlan(ctx, nil, user.ID, "national", grant)
		if err != nil {
			t.Fatalf("second grant: %v", err)
		}
		if applied {
			t.Fatal("second grant with the same payment id must be a no-op")
		}

		u, err := userRepo.FindByID(ctx, nil, user.ID)
		if err != nil {
			t.Fatalf("find user: %v", err)
		}
		if !u.HasGrant("national", "pay_1") {
			t.Fatalf("grant missing: %+v", u.CounselingPlans)
		}
	})

	t.Run("GrantPremium is conditional on premium being unset", func(t *testing.T) {
		setupPrerequisites(t)

		since := time.Now()
		applied, err := userRepo.GrantPremium(ctx, nil, user.ID, since)
		if err != nil || !applied {
			t.Fatalf("first grant: applied=%v err=%v", applied, err)
		}
		applied, err = userRepo.GrantPremium(ctx, nil, user.ID, since.Add(time.Hour))
		if err != nil {
			t.Fatalf("second grant: %v", err)
		}
		if applied {
			t.Fatal("second premium grant must be a no-op")
		}
	})
}
