package seed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type recordingSink struct {
	name      string
	written   []string
	truncated bool
	flushed   bool
	failOn    string
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Truncate(context.Context) error {
	s.truncated = true
	return nil
}

func (s *recordingSink) Write(_ context.Context, inv *Invoice) error {
	if inv.InvoiceID == s.failOn {
		return errors.New("constraint violation")
	}
	s.written = append(s.written, inv.InvoiceID)
	return nil
}

func (s *recordingSink) Flush(context.Context) error {
	s.flushed = true
	return nil
}

func TestSeedDocumentsCountsOutcomes(t *testing.T) {
	docs, err := DecodeDocuments(strings.NewReader(`[
  {"_id": "a", "extractedData": {"llmData": {}}},
  {"_id": "b", "extractedData": {}},
  {"_id": "c", "extractedData": {"llmData": {"invoice": {"value": {"invoiceDate": {"value": "not a date"}}}}}},
  {"_id": "d", "extractedData": {"llmData": {}}},
  {"_id": "e", "extractedData": {"llmData": {}}}
]`))
	if err != nil {
		t.Fatalf("DecodeDocuments() error = %v", err)
	}
	sink := &recordingSink{name: "rec", failOn: "d-3"}
	runner := NewRunner(nil, true, sink)

	stats, err := runner.SeedDocuments(context.Background(), docs, NewMapper(1))
	if err != nil {
		t.Fatalf("SeedDocuments() error = %v", err)
	}
	if stats != (Stats{Succeeded: 2, Failed: 2, Skipped: 1}) {
		t.Fatalf("stats = %+v", stats)
	}
	if !sink.truncated || !sink.flushed {
		t.Fatalf("truncated=%v flushed=%v", sink.truncated, sink.flushed)
	}
	if len(sink.written) != 2 || sink.written[0] != "a-0" || sink.written[1] != "e-4" {
		t.Fatalf("written = %v", sink.written)
	}
}

func TestSeedSyntheticWritesEverySink(t *testing.T) {
	first := &recordingSink{name: "one"}
	second := &recordingSink{name: "two"}
	runner := NewRunner(nil, false, first, second)

	stats, err := runner.SeedSynthetic(context.Background(), 4, NewGenerator(3, time.Time{}))
	if err != nil {
		t.Fatalf("SeedSynthetic() error = %v", err)
	}
	if stats.Succeeded != 4 || len(first.written) != 4 || len(second.written) != 4 {
		t.Fatalf("stats=%+v first=%v second=%v", stats, first.written, second.written)
	}
	if first.truncated || second.truncated {
		t.Fatal("sinks truncated without request")
	}
}

func TestRunnerRequiresSink(t *testing.T) {
	if _, err := NewRunner(nil, false).SeedSynthetic(context.Background(), 1, NewGenerator(1, time.Time{})); err == nil {
		t.Fatal("expected error without sinks")
	}
}
