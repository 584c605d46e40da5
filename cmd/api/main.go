package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-processing-core/config"
	httpHandler "payment-processing-core/internal/adapter/http/handler"
	pgStorage "payment-processing-core/internal/adapter/storage/postgres"
	redisStorage "payment-processing-core/internal/adapter/storage/redis"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/internal/gateway"
	"payment-processing-core/internal/service"
	"payment-processing-core/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting payment processing core")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories and Redis stores
	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Gateway adapters fail fast on missing credentials: a node that cannot
	// reach its providers must not accept charges.
	cardGw, err := gateway.NewCardGateway(cfg.Gateways.Card, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize card gateway")
	}
	bankGw, err := gateway.NewBankTransferGateway(cfg.Gateways.BankTransfer, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bank transfer gateway")
	}

	// Core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc)
	accountSvc := service.NewAccountService(accountRepo, hashSvc, cfg.Payment.DefaultCommissionBps, log)
	paymentSvc := service.NewPaymentService(
		txRepo,
		accountRepo,
		idempotencyCache,
		[]ports.Gateway{cardGw, bankGw},
		service.PaymentPolicy{
			MinAmountMinor: cfg.Payment.MinAmountMinor,
			GatewayTimeout: cfg.Payment.GatewayTimeout,
			RetryAttempts:  cfg.Payment.RetryAttempts,
			RetryBackoff:   cfg.Payment.RetryBackoff,
			IdempotencyTTL: cfg.Payment.IdempotencyTTL,
		},
		log,
	)
	reportingSvc := service.NewReportingService(txRepo, accountRepo)

	// Health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		PaymentSvc:     paymentSvc,
		AccountSvc:     accountSvc,
		ReportingSvc:   reportingSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown: stop accepting connections, let in-flight charges
	// finish persisting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
