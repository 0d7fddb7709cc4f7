package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arclend/lenddash/internal/cache"
	"github.com/arclend/lenddash/internal/config"
	"github.com/arclend/lenddash/internal/logging"
	"github.com/arclend/lenddash/internal/schema"
	"github.com/arclend/lenddash/internal/store"
	"github.com/arclend/lenddash/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"max_records", cfg.Validation.MaxRecords,
		"cache_enabled", cfg.Redis.Addr != "",
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	reportStore := store.New(pool)
	if err := reportStore.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// Build the validation engine with the built-in report schemas, plus
	// any extra schemas from the configured YAML file.
	engine := schema.NewEngine()
	if cfg.Validation.SchemaFile != "" {
		if err := schema.RegisterFile(engine, cfg.Validation.SchemaFile); err != nil {
			slog.Error("failed to load schema file",
				"path", cfg.Validation.SchemaFile, "error", err)
			os.Exit(1)
		}
		slog.Info("extra schemas loaded", "path", cfg.Validation.SchemaFile)
	}
	slog.Info("report schemas registered", "count", len(engine.ReportTypes()))

	// Redis summary cache is optional; without it summaries come straight
	// from PostgreSQL.
	var summaryCache web.SummaryCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to ping redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		summaryCache = cache.NewSummaryCache(rdb, cfg.Redis.SummaryTTL)
		slog.Info("summary cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.SummaryTTL)
	}

	server := web.NewServer(engine, reportStore, summaryCache, web.Config{
		MaxBodySize:    cfg.Validation.MaxBodySize,
		MaxRecords:     cfg.Validation.MaxRecords,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	err = server.Start(cfg.Server.Addr(),
		cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
