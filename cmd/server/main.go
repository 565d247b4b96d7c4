// Package main runs the dashboard server: the aggregation/profile/admin HTTP
// API, the WebSocket playback boundary and the Prometheus metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cricket-rank-lab/internal/admin"
	"cricket-rank-lab/internal/aggregate"
	"cricket-rank-lab/internal/config"
	"cricket-rank-lab/internal/observability"
	"cricket-rank-lab/internal/profile"
	"cricket-rank-lab/internal/rankingapi"
	"cricket-rank-lab/internal/server"
	"cricket-rank-lab/internal/storage"
	chstore "cricket-rank-lab/internal/storage/clickhouse"
	"cricket-rank-lab/internal/storage/memory"
	"cricket-rank-lab/internal/storage/migrations"
	pgstore "cricket-rank-lab/internal/storage/postgres"
)

// stores holds the storage implementations behind the dashboard.
type stores struct {
	cache    storage.RankingCacheStore
	timeline storage.TimelineStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override environment configuration.
	flag.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "HTTP listen address")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address")
	flag.StringVar(&cfg.RankingBaseURL, "ranking-base-url", cfg.RankingBaseURL, "Base URL of the ranking service")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	flag.StringVar(&cfg.ClickhouseDSN, "clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	flag.BoolVar(&cfg.UseMemory, "use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.IntVar(&cfg.MatchWindow, "match-window", cfg.MatchWindow, "Number of recent matches used for rankings")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Ranking cache freshness window")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	st, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Remote ranking service client
	client := rankingapi.NewClient(cfg.RankingBaseURL,
		rankingapi.WithTimeout(cfg.RequestTimeout),
		rankingapi.WithMaxRetries(cfg.MaxRetries),
	)

	engine := aggregate.New(aggregate.Options{
		Provider: client,
		Window:   cfg.MatchWindow,
		Logger:   log.New(os.Stdout, "[aggregate] ", log.LstdFlags|log.Lshortfile),
	})

	profiles := profile.NewService(profile.Options{
		Rankings: client,
		Finder:   engine,
		Timeline: st.timeline,
		Window:   cfg.MatchWindow,
		Logger:   log.New(os.Stdout, "[profile] ", log.LstdFlags|log.Lshortfile),
	})

	rebuilder := admin.New(admin.Options{
		Service: client,
		Logger:  log.New(os.Stdout, "[admin] ", log.LstdFlags|log.Lshortfile),
	})

	srv := server.New(server.Options{
		Engine:    engine,
		Profiles:  profiles,
		Rebuilder: rebuilder,
		Rankings:  client,
		Cache:     st.cache,
		Window:    cfg.MatchWindow,
		CacheTTL:  cfg.CacheTTL,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Second signal forces immediate exit
		go func() {
			sig := <-sigCh
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		}()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	// Standalone metrics server, separate from the API listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server error: %v", err)
		}
	}()

	logger.Printf("Starting dashboard server on %s (window=%d, memory=%v)",
		cfg.ListenAddr, cfg.MatchWindow, cfg.UseMemory)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the ranking cache and timeline archive stores.
func createStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.UseMemory {
		st := &stores{
			cache:    memory.NewRankingCacheStore(),
			timeline: memory.NewTimelineStore(),
		}
		return st, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	st := &stores{
		cache:    pgstore.NewRankingCacheStore(pool),
		timeline: chstore.NewTimelineStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return st, cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
