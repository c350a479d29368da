package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"counseling-platform/internal/config"
	"counseling-platform/internal/domain/model"
	pg "counseling-platform/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)

	// If plans already exist, do nothing
	plans, err := planRepo.List(ctx, nil)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (type=%s, price=%d paise)\n", p.Title, p.Type, p.Price)
		}
		return
	}

	// Sample plans for testing the payment flow. Prices are minor units.
	seed := []struct {
		Title string
		Type  model.PlanType
		Price int64
	}{
		{"Rank & College Predictor Tools", model.PlanTypeTool, 19900},
		{"Premium Membership", model.PlanTypePremium, 29900},
		{"National Counseling", model.PlanTypeNational, 99900},
		{"State Counseling", model.PlanTypeState, 79900},
		{"Community Counseling", model.PlanTypeCommunity, 49900},
	}

	planTypes := make([]model.PlanType, 0, len(seed))
	for _, s := range seed {
		p, err := model.NewPlan(uuid.NewString(), s.Title, s.Type, s.Price, nil)
		if err != nil {
			log.Fatalf("build plan %q: %v", s.Title, err)
		}
		if err := planRepo.Save(ctx, nil, p); err != nil {
			log.Fatalf("save plan %q: %v", s.Title, err)
		}
		planTypes = append(planTypes, s.Type)
		fmt.Printf("seeded plan: %s (id=%s, type=%s, price=%d)\n", p.Title, p.ID, p.Type, p.Price)
	}

	// A broad launch coupon so the discount path is exercisable end to end.
	coupon, err := model.NewCoupon("WELCOME10", 10, time.Now().AddDate(0, 3, 0), planTypes)
	if err != nil {
		log.Fatalf("build coupon: %v", err)
	}
	if err := couponRepo.Save(ctx, nil, coupon); err != nil {
		log.Fatalf("save coupon: %v", err)
	}
	fmt.Printf("seeded coupon: %s (%d%% off, expires %s)\n", coupon.Code, coupon.DiscountPercent, coupon.ExpiryDate.Format("2006-01-02"))

	fmt.Println("Seeding complete.")
}
