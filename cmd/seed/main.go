package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"mollie-gateway/internal/config"
	"mollie-gateway/internal/domain/model"
	pg "mollie-gateway/internal/infra/db/postgres"
	"mollie-gateway/internal/infra/logging"
	red "mollie-gateway/internal/infra/redis"
	"mollie-gateway/internal/infra/security"
	"mollie-gateway/internal/usecase"
)

// seed activates the Mollie module with the given API keys and creates one
// unpaid invoice assigned to it, so a local host can walk the checkout flow.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	liveKey := flag.String("live-key", os.Getenv("MOLLIE_LIVE_API_KEY"), "Mollie live API key")
	testKey := flag.String("test-key", os.Getenv("MOLLIE_TEST_API_KEY"), "Mollie test API key")
	testMode := flag.Bool("testmode", true, "use the test key")
	amount := flag.String("amount", "10.00", "total of the sample invoice")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	if cfg.Security.EncryptionKey == "" {
		log.Fatalf("security.encryption_key must be set so the keys can be stored encrypted")
	}
	encSvc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatalf("encryption: %v", err)
	}

	// through the cache decorator so a running app drops its cached copy
	settings := pg.NewSettingsRepoCacheDecorator(pg.NewGatewaySettingsRepo(pool, encSvc), redisClient, encSvc, cfg.Redis.TTL, logger)
	params := model.GatewayParams{
		model.SettingType:                   "CC",
		model.SettingName:                   model.ModuleName,
		model.SettingFriendlyName:           model.ModuleName,
		model.SettingTransactionDescription: usecase.DefaultTransactionDescription,
		model.SettingLiveAPIKey:             *liveKey,
		model.SettingTestAPIKey:             *testKey,
	}
	if *testMode {
		params[model.SettingTestMode] = "on"
	}
	if err := settings.Save(ctx, model.ModuleName, params); err != nil {
		log.Fatalf("save settings: %v", err)
	}
	fmt.Printf("module %s activated (testmode=%v, live key %s, test key %s)\n",
		model.ModuleName, *testMode, logging.Redact(*liveKey, false), logging.Redact(*testKey, false))

	total, err := decimal.NewFromString(*amount)
	if err != nil || !total.IsPositive() {
		log.Fatalf("invalid amount %q", *amount)
	}
	inv := &model.Invoice{
		Currency:      usecase.SupportedCurrency,
		Total:         total,
		AmountPaid:    decimal.Zero,
		PaymentMethod: model.ModuleName,
	}
	if err := pg.NewInvoiceLedger(pool).CreateInvoice(ctx, nil, inv); err != nil {
		log.Fatalf("create invoice: %v", err)
	}
	fmt.Printf("invoice #%d created: %s %s due via %s\n", inv.ID, inv.Currency, inv.Total.StringFixed(2), inv.PaymentMethod)
}
