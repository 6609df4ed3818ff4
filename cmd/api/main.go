package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custody-wallet/config"
	"custody-wallet/internal/adapter/chain/ethereum"
	httpHandler "custody-wallet/internal/adapter/http/handler"
	pgStorage "custody-wallet/internal/adapter/storage/postgres"
	redisStorage "custody-wallet/internal/adapter/storage/redis"
	"custody-wallet/internal/core/domain"
	"custody-wallet/internal/core/ports"
	"custody-wallet/internal/service"
	"custody-wallet/pkg/logger"
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

	mode := domain.ParseChainMode(cfg.Chain.Mode)
	log.Info().
		Str("chain_mode", string(mode)).
		Int("port", cfg.Server.Port).
		Msg("Starting Custody Wallet Backend")

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
	txRepo := pgStorage.NewTransactionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Key vault refuses to start on a missing, short, or placeholder secret.
	vault, err := service.NewKeyVault(cfg.Vault.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize key vault")
	}

	hasher := service.NewArgon2PasswordHasher()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Select the ledger strategy once, at startup.
	var ledger ports.Ledger
	if mode.OnChain() {
		provider := ethereum.NewProvider(mode, cfg.Chain.RPCURL, log)
		ledger = service.NewOnChainLedger(provider, vault, txRepo, transactor)
	} else {
		ledger = service.NewSimulatedLedger(walletRepo, txRepo, transactor)
	}

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, log)
	walletSvc := service.NewWalletService(walletRepo, vault, mode, log)
	txSvc := service.NewTransactionService(walletRepo, txRepo, vault, ledger, cfg.Chain.RPCURL, log)

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		TxSvc:          txSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
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
