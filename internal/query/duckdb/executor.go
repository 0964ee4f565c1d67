package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/querybridge/querybridge/internal/query"
	"github.com/querybridge/querybridge/internal/schema"
	"github.com/querybridge/querybridge/internal/storage"
)

// Executor answers queries from the Parquet snapshots in the object store.
// Every call loads the snapshots into a fresh in-memory DuckDB, so results
// always reflect the latest upload.
type Executor struct {
	store  storage.ObjectStore
	prefix string
	tables []string
}

func NewExecutor(store storage.ObjectStore, snapshotPrefix string) *Executor {
	snapshots := schema.SnapshotTables()
	tables := make([]string, 0, len(snapshots))
	for _, table := range snapshots {
		tables = append(tables, table.Name)
	}
	return &Executor{store: store, prefix: snapshotPrefix, tables: tables}
}

func (e *Executor) Backend() string {
	return "duckdb"
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	if e == nil || e.store == nil {
		return query.Result{}, query.ErrNotConfigured
	}
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	workDir, err := os.MkdirTemp("", "querybridge-snapshot-")
	if err != nil {
		return query.Result{}, fmt.Errorf("create snapshot temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return query.Result{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return query.Result{}, fmt.Errorf("open duckdb connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	for _, table := range e.tables {
		localPath, err := e.download(ctx, workDir, table)
		if err != nil {
			return query.Result{}, err
		}
		loadSQL := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM read_parquet(%s)`, schema.QuoteIdent(table), quoteString(localPath))
		if _, err := conn.ExecContext(ctx, loadSQL); err != nil {
			return query.Result{}, fmt.Errorf("load snapshot for %s: %w", table, err)
		}
	}
	// Generated SQL must not reach files beyond the loaded snapshots.
	if _, err := conn.ExecContext(ctx, `SET enable_external_access = false`); err != nil {
		return query.Result{}, fmt.Errorf("restrict duckdb file access: %w", err)
	}

	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, records, err := query.ScanRows(rows)
	if err != nil {
		return query.Result{}, err
	}
	return query.Result{
		Columns:  columns,
		Records:  records,
		Duration: time.Since(start),
	}, nil
}

func (e *Executor) download(ctx context.Context, workDir, table string) (string, error) {
	reader, err := storage.OpenSnapshot(ctx, e.store, e.prefix, table)
	if err != nil {
		return "", err
	}
	defer func() { _ = reader.Close() }()

	localPath := filepath.Join(workDir, table+".parquet")
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local snapshot %s: %w", localPath, err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("download snapshot for %s: %w", table, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close local snapshot %s: %w", localPath, err)
	}
	return localPath, nil
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
