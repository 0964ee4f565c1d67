package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/querybridge/querybridge/internal/guard"
	"github.com/querybridge/querybridge/internal/observability"
	"github.com/querybridge/querybridge/internal/query"
)

type fakeGenerator struct {
	sql   string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	f.calls++
	return f.sql, f.err
}

type fakeExecutor struct {
	result   query.Result
	err      error
	executed []string
}

func (f *fakeExecutor) Execute(_ context.Context, sqlText string) (query.Result, error) {
	f.executed = append(f.executed, sqlText)
	return f.result, f.err
}

func (f *fakeExecutor) Backend() string { return "fake" }

func newTestService(gen *fakeGenerator, exec *fakeExecutor) *Service {
	return NewService(gen, guard.Sanitizer{ParserCheck: true}, exec, nil)
}

func TestAskFilteredQuestionsSkipGeneration(t *testing.T) {
	tests := []struct {
		question string
		status   Status
		message  string
	}{
		{question: "", status: StatusEmptyQuestion, message: MessageEmptyQuestion},
		{question: "hi", status: StatusTrivial, message: MessageTrivial},
		{question: "asdf", status: StatusTrivial, message: MessageTrivial},
		{question: "!!!???", status: StatusTrivial, message: MessageTrivial},
	}
	for _, tt := range tests {
		gen := &fakeGenerator{sql: `SELECT * FROM "Vendor"`}
		outcome := newTestService(gen, &fakeExecutor{}).Ask(context.Background(), tt.question)
		if outcome.Status != tt.status || outcome.Error != tt.message || outcome.Stage != StageFiltered {
			t.Fatalf("Ask(%q) = %+v", tt.question, outcome)
		}
		if gen.calls != 0 {
			t.Fatalf("Ask(%q) called the generator", tt.question)
		}
	}
}

func TestAskGenerationFailure(t *testing.T) {
	exec := &fakeExecutor{}
	outcome := newTestService(&fakeGenerator{err: errors.New("status=401")}, exec).Ask(context.Background(), "Show total spend by vendor")
	if outcome.Status != StatusGenerationFailed || outcome.Error != "SQL generation failed: status=401" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(exec.executed) != 0 {
		t.Fatal("executor must not run after a generation failure")
	}
}

func TestAskSanitizerRejections(t *testing.T) {
	tests := []struct {
		raw     string
		status  Status
		message string
		sql     string
	}{
		{raw: "UNRELATED", status: StatusIrrelevant, message: MessageIrrelevant},
		{raw: "```sql\nSELECT 1\n```", status: StatusIrrelevant, message: MessageIrrelevant},
		{raw: "SELECT * FROM x; DROP TABLE x;", status: StatusBlocked, message: MessageBlocked, sql: "SELECT * FROM x; DROP TABLE x;"},
		{raw: `CREATE TABLE "x" (id int)`, status: StatusNotSelect, message: MessageNotSelect, sql: `CREATE TABLE "x" (id int)`},
	}
	for _, tt := range tests {
		exec := &fakeExecutor{}
		outcome := newTestService(&fakeGenerator{sql: tt.raw}, exec).Ask(context.Background(), "Show total spend by vendor")
		if outcome.Status != tt.status || outcome.Error != tt.message || outcome.SQL != tt.sql {
			t.Fatalf("Ask() with %q = %+v", tt.raw, outcome)
		}
		if len(exec.executed) != 0 {
			t.Fatalf("executor ran rejected sql %q", tt.raw)
		}
	}
}

func TestAskExecutionFailureCarriesSQL(t *testing.T) {
	exec := &fakeExecutor{err: errors.New(`relation "Invoices" does not exist`)}
	outcome := newTestService(&fakeGenerator{sql: `SELECT * FROM "Invoices"`}, exec).Ask(context.Background(), "list all invoices")
	if outcome.Status != StatusExecutionFailed || outcome.Error != `relation "Invoices" does not exist` {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.SQL != `SELECT * FROM "Invoices"` {
		t.Fatalf("SQL = %q", outcome.SQL)
	}
}

func TestAskWithoutExecutor(t *testing.T) {
	svc := NewService(&fakeGenerator{sql: `SELECT * FROM "Vendor"`}, guard.Sanitizer{}, nil, nil)
	outcome := svc.Ask(context.Background(), "list all vendors")
	if outcome.Status != StatusExecutionFailed || outcome.Error != "database is not configured" {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestAskEmptyResult(t *testing.T) {
	exec := &fakeExecutor{result: query.Result{Columns: []string{"id"}}}
	outcome := newTestService(&fakeGenerator{sql: "```sql\nSELECT \"id\" FROM \"Vendor\"\n```"}, exec).Ask(context.Background(), "list all vendors")
	if outcome.Status != StatusEmpty || outcome.Message != MessageEmptyResult || outcome.Failed() {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Records == nil || len(outcome.Records) != 0 {
		t.Fatalf("records = %#v", outcome.Records)
	}
	if exec.executed[0] != `SELECT "id" FROM "Vendor"` {
		t.Fatalf("executed = %q", exec.executed[0])
	}
}

func TestAskPopulatedResult(t *testing.T) {
	record := query.NewRecord([]string{"name"}, []any{"Acme"})
	exec := &fakeExecutor{result: query.Result{Columns: []string{"name"}, Records: []query.Record{record}}}
	outcome := newTestService(&fakeGenerator{sql: `SELECT "name" FROM "Vendor"`}, exec).Ask(context.Background(), "list all vendors")
	if outcome.Status != StatusPopulated || outcome.Stage != StageExecuted || len(outcome.Records) != 1 || outcome.Message != "" {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestAskLogsWithTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := NewService(&fakeGenerator{}, guard.Sanitizer{}, &fakeExecutor{}, logger)

	ctx := observability.ContextWithTraceID(context.Background(), "trace-42")
	svc.Ask(ctx, "hi")

	line := buf.String()
	if !strings.Contains(line, `"trace_id":"trace-42"`) || !strings.Contains(line, `"status":"trivial"`) {
		t.Fatalf("log = %s", line)
	}
}
