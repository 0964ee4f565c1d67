package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/querybridge/querybridge/internal/api"
	"github.com/querybridge/querybridge/internal/config"
	"github.com/querybridge/querybridge/internal/dashboard"
	"github.com/querybridge/querybridge/internal/guard"
	"github.com/querybridge/querybridge/internal/nl2sql"
	"github.com/querybridge/querybridge/internal/observability"
	"github.com/querybridge/querybridge/internal/pipeline"
	"github.com/querybridge/querybridge/internal/query"
	duckdbexec "github.com/querybridge/querybridge/internal/query/duckdb"
	pgexec "github.com/querybridge/querybridge/internal/query/postgres"
	s3store "github.com/querybridge/querybridge/internal/storage/s3"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("querybridge-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	executor, readiness, closeBackend := openBackend(cfg, logger)
	defer closeBackend()

	completer, err := nl2sql.NewOpenAICompleter(nl2sql.OpenAIConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize llm client", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("llm api key is not set; every question will fail at generation")
	}

	service := pipeline.NewService(
		nl2sql.NewGenerator(completer),
		guard.Sanitizer{ParserCheck: cfg.Guard.ParserCheck},
		executor,
		logger,
	)

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:            logger,
		Asker:             service,
		Dashboard:         dashboard.NewService(executor),
		Readiness:         api.CombineReadinessChecks(readiness, api.CheckLLMConfig(cfg)),
		DependencyTimeout: 5 * time.Second,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("backend", string(cfg.Database.Backend)),
			slog.String("model", completer.Model()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

// openBackend never aborts startup. A backend that cannot be opened leaves
// the executor nil and every question reports the database as unavailable.
func openBackend(cfg config.Config, logger *slog.Logger) (query.Executor, api.ReadinessCheck, func()) {
	noop := func() {}
	switch cfg.Database.Backend {
	case config.BackendDuckDB:
		store, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			return nil, api.PingCheck("object store", nil), noop
		}
		return duckdbexec.NewExecutor(store, cfg.Snapshot.Prefix), api.PingCheck("object store", store.Ping), noop
	default:
		db, err := pgexec.Open(pgexec.DBConfig{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open database", slog.Any("error", err))
			return nil, api.PingCheck("database", nil), noop
		}
		if err := pgexec.Verify(context.Background(), db); err != nil {
			logger.Error("database connection check failed", slog.Any("error", err))
		} else {
			logger.Info("database connection verified")
		}
		ping := func(ctx context.Context) error { return pgexec.Verify(ctx, db) }
		return pgexec.NewExecutor(db), api.PingCheck("database", ping), closeDB(db)
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
