// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mollie-gateway/internal/application"
	"mollie-gateway/internal/config"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/adapter"
	payAdapters "mollie-gateway/internal/infra/adapters/payment"
	"mollie-gateway/internal/infra/api"
	pg "mollie-gateway/internal/infra/db/postgres"
	"mollie-gateway/internal/infra/logging"
	"mollie-gateway/internal/infra/metrics"
	red "mollie-gateway/internal/infra/redis"
	"mollie-gateway/internal/infra/security"
	"mollie-gateway/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

const devEncryptionKey = "0123456789abcdef0123456789abcdef"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mollie-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs and an in-memory payment provider")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if encKey == "" {
		if !cfg.Runtime.Dev {
			return errors.New("security.encryption_key is required outside developer mode")
		}
		logger.Warn().Msg("security.encryption_key not set; using the built-in dev key (INSECURE)")
		encKey = devEncryptionKey
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		return fmt.Errorf("encryption: %w", err)
	}

	// ---- Repositories ----
	settingsRepo := pg.NewSettingsRepoCacheDecorator(
		pg.NewGatewaySettingsRepo(pool, encSvc),
		redisClient, encSvc, cfg.Redis.TTL, logger,
	)
	ledger := pg.NewInvoiceLedger(pool)
	gatewayLog := pg.NewGatewayLogRepo(pool)
	moduleLogs := pg.NewModuleCallLogRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment provider ----
	var providers adapter.ProviderFactory
	if cfg.Runtime.Dev {
		providers = payAdapters.NewNoopPaymentGateway().Factory()
		logger.Info().Msg("payment provider: in-memory")
	} else {
		providers = payAdapters.NewMollieFactory(cfg.Mollie.BaseURL, cfg.Mollie.Timeout)
		logger.Info().Str("base_url", cfg.Mollie.BaseURL).Msg("payment provider: mollie")
	}

	// ---- Use cases ----
	configUC := usecase.NewConfigUseCase()
	linkUC := usecase.NewLinkUseCase(providers, moduleLogs, logger)
	refundUC := usecase.NewRefundUseCase(providers, moduleLogs, logger)
	callbackUC := usecase.NewCallbackUseCase(settingsRepo, ledger, gatewayLog, moduleLogs, providers, txManager, locker, cfg.Callback.LockTTL, logger)

	// ---- Facade ----
	registry := application.NewRegistry(
		application.NewGatewayFacade(model.ModuleName, configUC, linkUC, refundUC, callbackUC),
	)

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Host.JWTSecret)
	server := api.NewServer(registry, auth, gatewayLog, rateLimiter, cfg.HTTP, logger).Handler()

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Strs("modules", registry.Names()).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
