// Package testutil provides a database/sql driver stub for the postgres store.
// It understands the handful of statement shapes the store issues.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

var stubSeq atomic.Int64

// Row is one stored table row keyed by column name.
type Row map[string]any

// StubConn records executed statements and keeps rows per table.
type StubConn struct {
	Execs      []string
	Tables     map[string][]Row
	FailPing   bool
	FailCommit bool
}

// NewStubDB registers a fresh driver and returns a sql.DB bound to its connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]Row)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct{ conn *StubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("prepare unsupported") }
func (c *StubConn) Close() error                        { return nil }
func (c *StubConn) Begin() (driver.Tx, error)           { return &stubTx{conn: c}, nil }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext accepts CREATE TABLE (ignored), INSERT with an optional
// ON CONFLICT upsert keyed on the first column, and
// DELETE FROM t WHERE col = $1.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty statement")
	}
	switch fields[0] {
	case "create":
		return driver.RowsAffected(0), nil
	case "insert":
		return c.insert(query, args)
	case "delete":
		return c.delete(fields, args)
	}
	return nil, fmt.Errorf("unsupported statement: %s", query)
}

func (c *StubConn) insert(query string, args []driver.NamedValue) (driver.Result, error) {
	into := strings.Index(strings.ToUpper(query), "INTO ")
	if into == -1 {
		return nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := query[into+len("INTO "):]
	open, closeIdx := strings.Index(rest, "("), strings.Index(rest, ")")
	if open == -1 || closeIdx < open {
		return nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	cols := splitColumns(rest[open+1 : closeIdx])
	if len(cols) != len(args) {
		return nil, fmt.Errorf("%s: %d columns, %d args", table, len(cols), len(args))
	}
	row := make(Row, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	if strings.Contains(strings.ToUpper(query), "ON CONFLICT") {
		c.remove(table, cols[0], row[cols[0]])
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

// delete handles "delete from <table> where <col> = $1".
func (c *StubConn) delete(fields []string, args []driver.NamedValue) (driver.Result, error) {
	if len(fields) < 7 || fields[1] != "from" || fields[3] != "where" || len(args) != 1 {
		return nil, fmt.Errorf("cannot parse delete: %s", strings.Join(fields, " "))
	}
	n := c.remove(fields[2], fields[4], args[0].Value)
	return driver.RowsAffected(int64(n)), nil
}

func (c *StubConn) remove(table, col string, value any) int {
	var kept []Row
	for _, row := range c.Tables[table] {
		if row[col] != value {
			kept = append(kept, row)
		}
	}
	removed := len(c.Tables[table]) - len(kept)
	c.Tables[table] = kept
	return removed
}

// QueryContext answers "SELECT a, b FROM t".
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	lower := strings.ToLower(strings.TrimSpace(query))
	from := strings.Index(lower, " from ")
	if !strings.HasPrefix(lower, "select ") || from == -1 {
		return nil, fmt.Errorf("cannot parse select: %s", query)
	}
	table := strings.Fields(lower[from+len(" from "):])[0]
	cols := splitColumns(lower[len("select "):from])
	out := &stubRows{cols: cols}
	for _, row := range c.Tables[table] {
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		out.rows = append(out.rows, vals)
	}
	return out, nil
}

type stubTx struct{ conn *StubConn }

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
