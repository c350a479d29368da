package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"counseling-platform/internal/config"
	pg "counseling-platform/internal/infra/db/postgres"
	"counseling-platform/internal/infra/invoice"
	"counseling-platform/internal/infra/logging"
	"counseling-platform/internal/infra/metrics"
	"counseling-platform/internal/infra/payment"
	red "counseling-platform/internal/infra/redis"
	"counseling-platform/internal/infra/sched"
	"counseling-platform/internal/infra/web"
	"counseling-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("development mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	invoiceCache := red.NewInvoiceCache(redisClient, cfg.Redis.TTL, logger)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Gateway adapters ----
	gateway := payment.NewRazorpayGateway(cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	verifier := payment.NewVerifier(cfg.Gateway.KeySecret, cfg.Gateway.WebhookSecret)
	generator := invoice.NewHTMLGenerator("Counseling Platform")

	// ---- Use cases ----
	granter := usecase.NewEntitlementService(userRepo, logger)
	ledger := usecase.NewLedgerService(purchaseRepo, planRepo, granter, txManager, logger)
	orderUC := usecase.NewOrderService(userRepo, planRepo, couponRepo, purchaseRepo, gateway, verifier, ledger, logger)
	webhookUC := usecase.NewWebhookService(verifier, ledger, logger)
	invoiceUC := usecase.NewInvoiceService(purchaseRepo, userRepo, generator, invoiceCache, logger)
	adminUC := usecase.NewAdminService(purchaseRepo)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, 24*time.Hour)
	srv := web.NewServer(orderUC, webhookUC, invoiceUC, adminUC, auth, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(cfg.Server.RequestTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Stale order reconciler ----
	reconciler := sched.NewOrderReconciler(purchaseRepo, gateway, ledger, cfg.Reconciler.Interval, cfg.Reconciler.MinAge, logger)
	go reconciler.Start(ctx)

	// ---- Pool stats sampler ----
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
