package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Sink is a destination for seeded invoices. Write may record assigned ids
// on inv for the sinks after it.
type Sink interface {
	Name() string
	Truncate(ctx context.Context) error
	Write(ctx context.Context, inv *Invoice) error
	Flush(ctx context.Context) error
}

type Stats struct {
	Succeeded int
	Failed    int
	Skipped   int
}

type Runner struct {
	sinks    []Sink
	log      *slog.Logger
	truncate bool
}

func NewRunner(logger *slog.Logger, truncate bool, sinks ...Sink) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{sinks: sinks, log: logger, truncate: truncate}
}

// SeedDocuments maps and writes every document. Mapping and write failures
// are counted and logged; only truncate and flush failures abort the run.
func (r *Runner) SeedDocuments(ctx context.Context, docs []Document, mapper *Mapper) (Stats, error) {
	return r.run(ctx, len(docs), func(i int) (Invoice, bool, error) {
		return mapper.Map(docs[i], i)
	})
}

// SeedSynthetic writes count generated invoices.
func (r *Runner) SeedSynthetic(ctx context.Context, count int, generator *Generator) (Stats, error) {
	return r.run(ctx, count, func(int) (Invoice, bool, error) {
		return generator.Next(), true, nil
	})
}

func (r *Runner) run(ctx context.Context, total int, next func(i int) (Invoice, bool, error)) (Stats, error) {
	if len(r.sinks) == 0 {
		return Stats{}, fmt.Errorf("at least one sink is required")
	}
	if r.truncate {
		for _, sink := range r.sinks {
			if err := sink.Truncate(ctx); err != nil {
				return Stats{}, fmt.Errorf("%s: %w", sink.Name(), err)
			}
			r.log.Info("truncated seed target", slog.String("sink", sink.Name()))
		}
	}

	r.log.Info("seeding started", slog.Int("records", total))
	var stats Stats
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		inv, ok, err := next(i)
		if !ok {
			stats.Skipped++
			r.log.Warn("skipping record without extracted data", slog.Int("record", i))
			continue
		}
		if err != nil {
			stats.Failed++
			r.log.Error("failed to map record", slog.Int("record", i), slog.Any("error", err))
			continue
		}
		if err := r.write(ctx, &inv); err != nil {
			stats.Failed++
			r.log.Error("failed to seed record", slog.Int("record", i), slog.String("invoice_id", inv.InvoiceID), slog.Any("error", err))
			continue
		}
		stats.Succeeded++
		if i%20 == 0 {
			r.log.Info("seeding progress", slog.Int("succeeded", stats.Succeeded))
		}
	}

	for _, sink := range r.sinks {
		if err := sink.Flush(ctx); err != nil {
			return stats, fmt.Errorf("%s: flush: %w", sink.Name(), err)
		}
	}
	r.log.Info("seeding complete",
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (r *Runner) write(ctx context.Context, inv *Invoice) error {
	for _, sink := range r.sinks {
		if err := sink.Write(ctx, inv); err != nil {
			return fmt.Errorf("%s: %w", sink.Name(), err)
		}
	}
	return nil
}
