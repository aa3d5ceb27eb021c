package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// WithTx starts a transaction, runs fn, and commits if fn returns nil.
// If fn returns an error or panics, the transaction is rolled back.
func WithTx(ctx context.Context, d *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) (err error) {
	if d == nil {
		return errors.New("db: DB is nil")
	}
	tx, err := d.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("db: commit: %w", e)
		}
	}()
	err = fn(tx)
	return
}

// ColumnSet is the result of introspecting one table. It is computed per
// operation and passed along; nothing caches it process-wide.
type ColumnSet map[string]bool

func (c ColumnSet) Has(name string) bool { return c[strings.ToLower(name)] }

// Names returns the columns in sorted order.
func (c ColumnSet) Names() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Columns lists the columns of table.
func Columns(ctx context.Context, q Querier, driver Driver, table string) (ColumnSet, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch driver {
	case DriverSQLite:
		// PRAGMA does not accept bound parameters
		if !isIdent(table) {
			return nil, fmt.Errorf("db: bad table name %q", table)
		}
		rows, err = q.QueryContext(ctx, `SELECT name FROM pragma_table_info('`+table+`')`)
	case DriverPostgres:
		rows, err = q.QueryContext(ctx,
			`SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`,
			table)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := ColumnSet{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[strings.ToLower(name)] = true
	}
	return out, rows.Err()
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
