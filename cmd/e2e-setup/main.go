package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"mollie-gateway/internal/config"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/infra/api"
	"mollie-gateway/internal/infra/db/postgres"
	"mollie-gateway/internal/infra/redis"
)

// This script puts the database and cache into a clean, predictable state
// for manual end-to-end testing and prints a host token for the dispatch routes.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "lifetime of the printed host token")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	if err := cleanDatabase(ctx, pool); err != nil {
		log.Fatalf("failed to clean database: %v", err)
	}
	log.Println("Database cleaned.")

	if err := redisClient.Del(ctx, postgres.SettingsCacheKey(model.ModuleName)); err != nil {
		log.Fatalf("failed to clear settings cache: %v", err)
	}
	log.Println("Settings cache cleared.")

	tok, err := api.NewAuthManager(cfg.Host.JWTSecret).Mint("e2e", *tokenTTL, model.ModuleName)
	if err != nil {
		log.Fatalf("mint host token: %v", err)
	}

	base := strings.TrimRight(cfg.Host.SystemURL, "/")
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", cfg.HTTP.Port)
	}
	log.Println("--- E2E Environment Setup Complete ---")
	fmt.Printf("Run cmd/seed next, then for example:\n\n")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' %s/gateways/mollie/config\n", tok, base)
}

func cleanDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	tables := []string{
		"ledger_transactions",
		"gateway_logs",
		"module_call_logs",
		"gateway_settings",
		"invoices",
	}
	_, err := pool.Exec(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE")
	return err
}
