// Package querybuilder renders small postgres statements with positional arguments.
package querybuilder

import (
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

var ErrIncompleteQuery = crerr.New("incomplete query")

// Condition renders one predicate of a WHERE clause.
type Condition interface {
	render(w *writer)
}

// writer accumulates SQL text and numbers placeholders as arguments are appended.
type writer struct {
	sql  strings.Builder
	args []any
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.sql.WriteString("$")
	w.sql.WriteString(strconv.Itoa(len(w.args)))
}

func (w *writer) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.sql.WriteString(" WHERE ")
		} else {
			w.sql.WriteString(" AND ")
		}
		c.render(w)
	}
}

type eq struct {
	column string
	value  any
}

func Eq(column string, value any) Condition { return eq{column: column, value: value} }

func (c eq) render(w *writer) {
	w.sql.WriteString(c.column + " = ")
	w.bind(c.value)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 || strings.TrimSpace(b.table) == "" {
		return "", nil, crerr.Wrap(ErrIncompleteQuery, "select needs columns and a table")
	}

	var w writer
	w.sql.WriteString("SELECT " + strings.Join(b.columns, ", ") + " FROM " + b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.sql.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.sql.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	return w.sql.String(), w.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = columns
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, values)
	return b
}

// Suffix is appended verbatim, e.g. an ON CONFLICT clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" || len(b.columns) == 0 || len(b.rows) == 0 {
		return "", nil, crerr.Wrap(ErrIncompleteQuery, "insert needs a table, columns and rows")
	}

	var w writer
	w.sql.WriteString("INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES ")
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, crerr.Wrapf(ErrIncompleteQuery, "insert row %d has %d values, want %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.sql.WriteString(", ")
		}
		w.sql.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.sql.WriteString(", ")
			}
			w.bind(value)
		}
		w.sql.WriteString(")")
	}
	if b.suffix != "" {
		w.sql.WriteString(" " + b.suffix)
	}
	return w.sql.String(), w.args, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses to render an unconditional delete.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" || len(b.where) == 0 {
		return "", nil, crerr.Wrap(ErrIncompleteQuery, "delete needs a table and a condition")
	}

	var w writer
	w.sql.WriteString("DELETE FROM " + b.table)
	w.where(b.where)
	return w.sql.String(), w.args, nil
}
