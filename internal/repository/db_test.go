package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectation is one scripted statement. SQL must contain every fragment,
// compared with whitespace collapsed.
type expectation struct {
	fragments []string
	args      []any
	tag       string
	rows      [][]any
	err       error
}

type stubDB struct {
	t        *testing.T
	expected []*expectation
	executed []string
	pingErr  error
}

func newStubDB(t *testing.T) *stubDB {
	t.Helper()
	db := &stubDB{t: t}
	t.Cleanup(func() {
		assert.Empty(t, db.expected, "unmet statement expectations")
	})
	return db
}

func (db *stubDB) expect(fragments ...string) *expectation {
	e := &expectation{fragments: fragments}
	db.expected = append(db.expected, e)
	return e
}

func (e *expectation) withArgs(args ...any) *expectation {
	e.args = args
	return e
}

func (e *expectation) returnsTag(tag string) *expectation {
	e.tag = tag
	return e
}

func (e *expectation) returnsRows(rows ...[]any) *expectation {
	e.rows = rows
	return e
}

func (e *expectation) fails(err error) *expectation {
	e.err = err
	return e
}

func (db *stubDB) next(sql string, args []any) *expectation {
	db.t.Helper()
	require.NotEmpty(db.t, db.expected, "unexpected statement: %s", sql)
	e := db.expected[0]
	db.expected = db.expected[1:]

	normalized := strings.Join(strings.Fields(sql), " ")
	db.executed = append(db.executed, normalized)
	for _, fragment := range e.fragments {
		assert.Contains(db.t, normalized, fragment)
	}
	if e.args != nil {
		require.Len(db.t, args, len(e.args), "argument count for %s", normalized)
		for i, want := range e.args {
			if want == anyArg {
				continue
			}
			assert.Equal(db.t, want, args[i], "argument $%d", i+1)
		}
	}
	return e
}

var (
	_ DBTX     = (*stubDB)(nil)
	_ pgx.Rows = (*stubRows)(nil)
)

type anyArgument struct{}

var anyArg = anyArgument{}

func (db *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e := db.next(sql, args)
	if e.err != nil {
		return pgconn.CommandTag{}, e.err
	}
	return pgconn.NewCommandTag(e.tag), nil
}

func (db *stubDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	e := db.next(sql, args)
	if e.err != nil {
		return nil, e.err
	}
	return &stubRows{rows: e.rows, pos: -1}, nil
}

func (db *stubDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	e := db.next(sql, args)
	return &stubRow{rows: e.rows, err: e.err}
}

func (db *stubDB) Ping(context.Context) error {
	return db.pingErr
}

type stubRow struct {
	rows [][]any
	err  error
}

func (r *stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(r.rows) == 0 {
		return pgx.ErrNoRows
	}
	return assign(r.rows[0], dest)
}

type stubRows struct {
	rows [][]any
	pos  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return r.rows[r.pos], nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(r.rows[r.pos], dest)
}

func assign(row []any, dest []any) error {
	if len(row) != len(dest) {
		return fmt.Errorf("row has %d columns, scan wants %d", len(row), len(dest))
	}
	for i, value := range row {
		target := reflect.ValueOf(dest[i]).Elem()
		if value == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(value)
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("column %d: cannot scan %T into %s", i, value, target.Type())
		}
		target.Set(v)
	}
	return nil
}
