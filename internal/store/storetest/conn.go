// Package storetest provides an in-memory stand-in for a pgx connection that
// records statements and transaction boundaries.
package storetest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Result is the canned outcome of one statement. Tag is the command tag
// reported by Exec, e.g. "UPDATE 2".
type Result struct {
	Rows [][]any
	Tag  string
	Err  error
}

// Statement is one recorded Exec, Query or QueryRow call.
type Statement struct {
	SQL  string
	Args []any
}

// Copy is one recorded CopyFrom call.
type Copy struct {
	Table   pgx.Identifier
	Columns []string
	Rows    [][]any
}

// Conn satisfies store.Beginner. Results are consumed in statement order;
// once exhausted every statement succeeds with no rows.
type Conn struct {
	mu sync.Mutex

	BeginErr  error
	CommitErr error

	Begun      int
	Commits    int
	Rollbacks  int
	Statements []Statement
	Copies     []Copy
	// RollbackCtxErrs holds ctx.Err() as seen by each Rollback.
	RollbackCtxErrs []error

	results []Result
}

// NewConn returns a connection that will answer with results in order.
func NewConn(results ...Result) *Conn {
	return &Conn{results: results}
}

// Push queues more results.
func (c *Conn) Push(results ...Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, results...)
}

// LastSQL returns the most recent statement text, or "" if none ran.
func (c *Conn) LastSQL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Statements) == 0 {
		return ""
	}
	return c.Statements[len(c.Statements)-1].SQL
}

func (c *Conn) Begin(ctx context.Context) (pgx.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BeginErr != nil {
		return nil, c.BeginErr
	}
	c.Begun++
	return &Tx{conn: c}, nil
}

func (c *Conn) next(sql string, args []any) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statements = append(c.Statements, Statement{SQL: sql, Args: args})
	if len(c.results) == 0 {
		return Result{}
	}
	res := c.results[0]
	c.results = c.results[1:]
	return res
}

// Tx is the fake transaction handed out by Conn.Begin. Only the methods the
// store package calls are implemented.
type Tx struct {
	pgx.Tx
	conn   *Conn
	closed bool
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.Commits++
	return t.conn.CommitErr
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.Rollbacks++
	t.conn.RollbackCtxErrs = append(t.conn.RollbackCtxErrs, ctx.Err())
	return nil
}

func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	res := t.conn.next(sql, args)
	if res.Err != nil {
		return pgconn.CommandTag{}, res.Err
	}
	return pgconn.NewCommandTag(res.Tag), nil
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	res := t.conn.next(sql, args)
	if res.Err != nil {
		return nil, res.Err
	}
	return &Rows{rows: res.Rows}, nil
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &Row{res: t.conn.next(sql, args)}
}

func (t *Tx) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	var rows [][]any
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		rows = append(rows, values)
	}
	res := t.conn.next("COPY "+table.Sanitize(), nil)

	t.conn.mu.Lock()
	t.conn.Copies = append(t.conn.Copies, Copy{Table: table, Columns: columns, Rows: rows})
	t.conn.mu.Unlock()

	if res.Err != nil {
		return 0, res.Err
	}
	return int64(len(rows)), nil
}

// Row answers QueryRow.
type Row struct {
	res Result
}

func (r *Row) Scan(dest ...any) error {
	if r.res.Err != nil {
		return r.res.Err
	}
	if len(r.res.Rows) == 0 {
		return pgx.ErrNoRows
	}
	return scanInto(dest, r.res.Rows[0])
}

// Rows answers Query.
type Rows struct {
	pgx.Rows
	rows [][]any
	idx  int
}

func (r *Rows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *Rows) Scan(dest ...any) error {
	return scanInto(dest, r.rows[r.idx-1])
}

func (r *Rows) Err() error { return nil }

func (r *Rows) Close() {}

func (r *Rows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

// scanInto copies values into pointer destinations by position. A value is
// assigned directly, through one level of pointer, or by conversion.
func scanInto(dest []any, values []any) error {
	for i, d := range dest {
		if i >= len(values) || values[i] == nil {
			continue
		}
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("storetest: destination %d is not a pointer", i)
		}
		target := dv.Elem()
		val := reflect.ValueOf(values[i])
		switch {
		case val.Type().AssignableTo(target.Type()):
			target.Set(val)
		case target.Kind() == reflect.Pointer && val.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(val)
			target.Set(p)
		case val.Type().ConvertibleTo(target.Type()):
			target.Set(val.Convert(target.Type()))
		default:
			return fmt.Errorf("storetest: cannot scan %T into %s", values[i], target.Type())
		}
	}
	return nil
}
