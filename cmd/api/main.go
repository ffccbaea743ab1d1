package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger-core/config"
	httpHandler "wallet-ledger-core/internal/adapter/http/handler"
	pgStorage "wallet-ledger-core/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger-core/internal/adapter/storage/redis"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/internal/service"
	"wallet-ledger-core/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Ledger Core")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	reservationRepo := pgStorage.NewReservationRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	verificationRepo := pgStorage.NewVerificationRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	claimStore := redisStorage.NewClaimStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	identitySvc := service.NewIdentityService(userRepo, hashSvc, tokenSvc)
	registry := service.NewWalletRegistry(walletRepo, reservationRepo, log)
	gate := service.NewVerificationGate(verificationRepo, log)
	index := service.NewIdempotencyIndex(claimStore, idempotencyRepo, cfg.Idempotency.ClaimTTL, cfg.Idempotency.ResultTTL, log)
	engine := service.NewLedgerEngine(txRepo, registry, gate, index, walletRepo, transactor, log)
	reportingSvc := service.NewReportingService(txRepo, walletRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		IdentitySvc:      identitySvc,
		LedgerEngine:     engine,
		WalletRegistry:   registry,
		ReportingSvc:     reportingSvc,
		VerificationGate: gate,
		TokenSvc:         tokenSvc,
		SigSvc:           sigSvc,
		ConfirmerSecret:  cfg.Callbacks.ConfirmerSecret,
		VerifierSecret:   cfg.Callbacks.VerifierSecret,
		CallbackMaxAge:   cfg.Callbacks.MaxTimestampAge,
		RateLimitStore:   rateLimitStore,
		HealthCheckers:   []ports.HealthChecker{pgHealth, redisHealth},
		Logger:           log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
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
