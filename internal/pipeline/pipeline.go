// Package pipeline runs one question through filter, generation,
// sanitization and execution, and reports where it stopped.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/querybridge/querybridge/internal/guard"
	"github.com/querybridge/querybridge/internal/observability"
	"github.com/querybridge/querybridge/internal/query"
)

const (
	MessageEmptyQuestion = "Please enter a question."
	MessageTrivial       = "I'm here to help with data-related questions like spend, vendors, or invoices — please ask something like 'Show total spend by vendor'."
	MessageIrrelevant    = "I couldn’t find a relevant query for that. Try asking about invoices, vendors, or spending."
	MessageBlocked       = "Blocked unsafe SQL command."
	MessageNotSelect     = "Only SELECT queries are allowed."
	MessageEmptyResult   = "Query executed successfully, but returned no results."

	generationFailedPrefix = "SQL generation failed: "
)

type Stage string

const (
	StageFiltered  Stage = "filtered"
	StageGenerated Stage = "generated"
	StageSanitized Stage = "sanitized"
	StageExecuted  Stage = "executed"
)

type Status string

const (
	StatusEmptyQuestion    Status = "empty_question"
	StatusTrivial          Status = "trivial"
	StatusGenerationFailed Status = "generation_failed"
	StatusIrrelevant       Status = "irrelevant"
	StatusBlocked          Status = "blocked"
	StatusNotSelect        Status = "not_select"
	StatusExecutionFailed  Status = "execution_failed"
	StatusEmpty            Status = "empty"
	StatusPopulated        Status = "populated"
)

// Outcome is the terminal state of one question. Error holds the
// user-facing failure text; Message is informational.
type Outcome struct {
	Stage   Stage
	Status  Status
	SQL     string
	Records []query.Record
	Error   string
	Message string
}

func (o Outcome) Failed() bool {
	return o.Error != ""
}

type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
}

type Service struct {
	generator Generator
	sanitizer guard.Sanitizer
	executor  query.Executor
	logger    *slog.Logger
}

func NewService(generator Generator, sanitizer guard.Sanitizer, executor query.Executor, logger *slog.Logger) *Service {
	return &Service{generator: generator, sanitizer: sanitizer, executor: executor, logger: logger}
}

func (s *Service) Ask(ctx context.Context, question string) Outcome {
	logger := observability.RequestLogger(ctx, s.logger)
	outcome := s.ask(ctx, logger, question)
	observability.ObservePipelineOutcome(string(outcome.Status))

	attrs := []any{
		slog.String("stage", string(outcome.Stage)),
		slog.String("status", string(outcome.Status)),
		slog.Int("rows", len(outcome.Records)),
	}
	if outcome.SQL != "" {
		attrs = append(attrs, slog.String("sql", outcome.SQL))
	}
	if outcome.Failed() {
		logger.Info("question rejected", append(attrs, slog.String("error", outcome.Error))...)
	} else {
		logger.Info("question answered", attrs...)
	}
	return outcome
}

func (s *Service) ask(ctx context.Context, logger *slog.Logger, question string) Outcome {
	if question == "" {
		return Outcome{Stage: StageFiltered, Status: StatusEmptyQuestion, Error: MessageEmptyQuestion}
	}
	if guard.IsTrivial(question) {
		return Outcome{Stage: StageFiltered, Status: StatusTrivial, Error: MessageTrivial}
	}

	if s.generator == nil {
		return Outcome{Stage: StageGenerated, Status: StatusGenerationFailed, Error: generationFailedPrefix + "sql generator is not configured"}
	}
	generateStart := time.Now()
	raw, err := s.generator.Generate(ctx, question)
	observability.ObserveGeneration(time.Since(generateStart), err)
	if err != nil {
		return Outcome{Stage: StageGenerated, Status: StatusGenerationFailed, Error: generationFailedPrefix + err.Error()}
	}
	logger.Debug("sql generated", slog.Duration("elapsed", time.Since(generateStart)), slog.String("raw", raw))

	cleaned, err := s.sanitizer.Sanitize(raw)
	if err != nil {
		var rejection *guard.RejectionError
		switch {
		case errors.Is(err, guard.ErrIrrelevant):
			return Outcome{Stage: StageSanitized, Status: StatusIrrelevant, Error: MessageIrrelevant}
		case errors.As(err, &rejection) && rejection.Kind == guard.RejectBlocked:
			logger.Warn("unsafe sql blocked", slog.String("reason", rejection.Reason))
			return Outcome{Stage: StageSanitized, Status: StatusBlocked, SQL: rejection.SQL, Error: MessageBlocked}
		case errors.As(err, &rejection):
			logger.Warn("non-select sql rejected", slog.String("reason", rejection.Reason))
			return Outcome{Stage: StageSanitized, Status: StatusNotSelect, SQL: rejection.SQL, Error: MessageNotSelect}
		default:
			return Outcome{Stage: StageSanitized, Status: StatusNotSelect, Error: MessageNotSelect}
		}
	}

	if s.executor == nil {
		return Outcome{Stage: StageExecuted, Status: StatusExecutionFailed, SQL: cleaned, Error: query.ErrNotConfigured.Error()}
	}
	executeStart := time.Now()
	result, err := s.executor.Execute(ctx, cleaned)
	observability.ObserveQuery(s.executor.Backend(), time.Since(executeStart), len(result.Records), err)
	if err != nil {
		return Outcome{Stage: StageExecuted, Status: StatusExecutionFailed, SQL: cleaned, Error: err.Error()}
	}
	records := result.Records
	if records == nil {
		records = []query.Record{}
	}
	if len(records) == 0 {
		return Outcome{Stage: StageExecuted, Status: StatusEmpty, SQL: cleaned, Records: records, Message: MessageEmptyResult}
	}
	return Outcome{Stage: StageExecuted, Status: StatusPopulated, SQL: cleaned, Records: records}
}
