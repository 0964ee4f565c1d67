package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/querybridge/querybridge/internal/query"
)

// Executor runs each statement on its own connection inside a read-only
// transaction that is always rolled back.
type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

func (e *Executor) Backend() string {
	return "postgres"
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	if e == nil || e.db == nil {
		return query.Result{}, query.ErrNotConfigured
	}
	start := time.Now()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return query.Result{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return query.Result{}, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, sqlText)
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
