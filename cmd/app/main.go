// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rental-billing/internal/config"
	pg "rental-billing/internal/infra/db/postgres"
	"rental-billing/internal/infra/identity"
	"rental-billing/internal/infra/logging"
	"rental-billing/internal/infra/metrics"
	"rental-billing/internal/infra/payment"
	red "rental-billing/internal/infra/redis"
	"rental-billing/internal/infra/sched"
	"rental-billing/internal/infra/security"
	"rental-billing/internal/infra/web"
	"rental-billing/internal/infra/worker"
	"rental-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
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
	replayGuard := red.NewReplayGuard(redisClient, cfg.Redis.TTL)
	statusCache := red.NewStatusCache(redisClient, cfg.Redis.TTL)

	// ---- Encryption (PII at rest) ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; falling back to dev key (INSECURE)")
		encKey = "0123456789abcdef0123456789abcdef"
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption")
	}

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	orderRepo := pg.NewOrderRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	pointRepo := pg.NewPointRepo(pool)
	verifyRepo := pg.NewVerificationRepo(pool, encSvc)
	auditRepo := pg.NewAuditRepo(pool)

	// ---- Gateway + identity adapters ----
	gateway := payment.NewInicisClient(cfg.Gateway.MerchantID, cfg.Gateway.SignKey, cfg.Gateway.Timeout)
	provider := identity.NewProvider(
		cfg.Identity.MerchantID,
		cfg.Identity.APIKey,
		cfg.Identity.DecryptKey,
		cfg.Identity.DecryptIV,
		cfg.Identity.SuccessURL,
		cfg.Identity.FailURL,
	)

	// ---- Net-cancel dispatcher ----
	dispatcher := worker.NewNetCancelDispatcher(gateway, auditRepo, cfg.Gateway.NetCancelWorkers, cfg.Gateway.NetCancelQueue, cfg.Gateway.Timeout, logger)
	dispatcher.Start(ctx)

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(subRepo, pointRepo, auditRepo, txManager, statusCache, logger)
	checkoutUC := usecase.NewCheckoutUseCase(
		orderRepo,
		cfg.Gateway.MerchantID,
		cfg.Gateway.MobileMerchantID,
		cfg.Gateway.SignKey,
		cfg.Gateway.HashKey,
		cfg.Gateway.Currency,
		logger,
	)
	settleUC := usecase.NewSettlementUseCase(
		orderRepo,
		auditRepo,
		planUC,
		gateway,
		dispatcher,
		replayGuard,
		cfg.Gateway.Currency,
		cfg.Gateway.AllowURLMismatch,
		logger,
	)
	verifyUC := usecase.NewVerificationUseCase(provider, verifyRepo, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Security.APISecret, !cfg.Runtime.Dev, "", 0)
	srv := web.NewServer(cfg, checkoutUC, settleUC, verifyUC, planUC, auth, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Expiry worker ----
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, planUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	dispatcher.Stop()
}
