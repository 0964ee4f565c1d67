package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/querybridge/querybridge/internal/config"
	"github.com/querybridge/querybridge/internal/observability"
	pgexec "github.com/querybridge/querybridge/internal/query/postgres"
	"github.com/querybridge/querybridge/internal/seed"
	s3store "github.com/querybridge/querybridge/internal/storage/s3"
)

func main() {
	input := flag.String("input", "", "analytics export JSON file; synthetic invoices are generated when empty")
	count := flag.Int("count", 100, "number of synthetic invoices")
	seedValue := flag.Int64("seed", time.Now().UTC().UnixNano(), "random seed")
	target := flag.String("target", "postgres", "seed target: postgres|parquet|both")
	truncate := flag.Bool("truncate", false, "empty the target tables before seeding")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("querybridge-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sinks []seed.Sink
	if *target == "postgres" || *target == "both" {
		if cfg.Database.DSN == "" {
			logger.Error("QUERYBRIDGE_DB_DSN (or DATABASE_URL) is required for the postgres target")
			os.Exit(1)
		}
		db, err := pgexec.Open(pgexec.DBConfig{DSN: cfg.Database.DSN, MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			logger.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		if err := pgexec.Verify(ctx, db); err != nil {
			logger.Error("database connection check failed", slog.Any("error", err))
			os.Exit(1)
		}
		sinks = append(sinks, seed.NewPostgresSink(db))
	}
	if *target == "parquet" || *target == "both" {
		store, err := s3store.New(ctx, s3store.Config{
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
			os.Exit(1)
		}
		sinks = append(sinks, seed.NewSnapshotSink(store, cfg.Snapshot.Prefix))
	}
	if len(sinks) == 0 {
		logger.Error("invalid seed target", slog.String("target", *target))
		os.Exit(1)
	}

	runner := seed.NewRunner(logger, *truncate, sinks...)
	var stats seed.Stats
	if *input != "" {
		stats, err = seedFromFile(ctx, runner, *input, *seedValue)
	} else {
		stats, err = runner.SeedSynthetic(ctx, *count, seed.NewGenerator(*seedValue, time.Time{}))
	}
	if err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Printf("seeded %d invoice(s); failed %d; skipped %d\n", stats.Succeeded, stats.Failed, stats.Skipped)
}

func seedFromFile(ctx context.Context, runner *seed.Runner, path string, seedValue int64) (seed.Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return seed.Stats{}, err
	}
	defer func() { _ = file.Close() }()

	docs, err := seed.DecodeDocuments(file)
	if err != nil {
		return seed.Stats{}, err
	}
	return runner.SeedDocuments(ctx, docs, seed.NewMapper(seedValue))
}
