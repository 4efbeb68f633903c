package builder

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// InsertQuery represents a single-row INSERT.
type InsertQuery struct {
	exec       runtime.Executor
	table      string
	columns    []string
	values     []any
	onConflict *OnConflict
	returning  []string
}

// NewInsert creates an INSERT into table bound to exec.
func NewInsert(exec runtime.Executor, table string) *InsertQuery {
	return &InsertQuery{exec: exec, table: table}
}

// Set appends a column value. Columns render in call order.
func (q *InsertQuery) Set(column string, value any) *InsertQuery {
	if i := slices.Index(q.columns, column); i >= 0 {
		q.values[i] = value
		return q
	}
	q.columns = append(q.columns, column)
	q.values = append(q.values, value)
	return q
}

// SetMap sets every entry of values, in sorted column order.
func (q *InsertQuery) SetMap(values map[string]any) *InsertQuery {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, values[k])
	}
	return q
}

// Returning specifies columns to return after insert.
func (q *InsertQuery) Returning(columns ...string) *InsertQuery {
	q.returning = columns
	return q
}

// OnConflictDoNothing adds ON CONFLICT DO NOTHING clause.
func (q *InsertQuery) OnConflictDoNothing(columns ...string) *InsertQuery {
	q.onConflict = &OnConflict{
		Columns: columns,
		Action:  DoNothing,
	}
	return q
}

// OnConflictDoUpdate adds ON CONFLICT DO UPDATE SET for the given inserted columns.
// Each update reuses the placeholder of its inserted value. Conflict columns are
// never part of the SET list, and an empty list degrades to DO NOTHING.
func (q *InsertQuery) OnConflictDoUpdate(columns []string, updates ...string) *InsertQuery {
	filtered := make([]string, 0, len(updates))
	for _, u := range updates {
		if !slices.Contains(columns, u) {
			filtered = append(filtered, u)
		}
	}

	action := DoUpdate
	if len(filtered) == 0 {
		action = DoNothing
	}

	q.onConflict = &OnConflict{
		Columns: columns,
		Action:  action,
		Updates: filtered,
	}
	return q
}

// ToSQL generates the INSERT SQL and arguments.
func (q *InsertQuery) ToSQL() (string, []any, error) {
	if q.table == "" {
		return "", nil, runtime.NewQueryBuilderError("missing INSERT table")
	}

	var sql strings.Builder
	var p params

	sql.WriteString("INSERT INTO ")
	sql.WriteString(q.table)

	placeholders := make(map[string]string, len(q.columns))
	if len(q.columns) == 0 {
		sql.WriteString(" DEFAULT VALUES")
	} else {
		marks := make([]string, len(q.columns))
		for i, col := range q.columns {
			marks[i] = p.bind(q.values[i])
			placeholders[col] = marks[i]
		}
		sql.WriteString(" (")
		sql.WriteString(strings.Join(q.columns, ", "))
		sql.WriteString(") VALUES (")
		sql.WriteString(strings.Join(marks, ", "))
		sql.WriteString(")")
	}

	if q.onConflict != nil {
		sql.WriteString(" ON CONFLICT")

		if len(q.onConflict.Columns) > 0 {
			sql.WriteString(" (")
			sql.WriteString(strings.Join(q.onConflict.Columns, ", "))
			sql.WriteString(")")
		}

		if q.onConflict.Action == DoNothing {
			sql.WriteString(" DO NOTHING")
		} else {
			updates := make([]string, 0, len(q.onConflict.Updates))
			for _, col := range q.onConflict.Updates {
				mark, ok := placeholders[col]
				if !ok {
					return "", nil, runtime.NewQueryBuilderError("conflict update column %s is not inserted", col)
				}
				updates = append(updates, fmt.Sprintf("%s = %s", col, mark))
			}
			sql.WriteString(" ")
			sql.WriteString(string(DoUpdate))
			sql.WriteString(" ")
			sql.WriteString(strings.Join(updates, ", "))
		}
	}

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), p.values, nil
}

// Exec executes the INSERT query and returns the number of inserted rows.
func (q *InsertQuery) Exec(ctx context.Context) (int64, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	if err := requireExecutor(q.exec); err != nil {
		return 0, err
	}

	if len(q.returning) == 0 {
		return q.exec.Exec(ctx, sql, args...)
	}

	result, err := q.exec.Query(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return int64(len(result.Rows)), nil
}

// ExecReturning executes the INSERT and returns the inserted rows.
// Without an explicit RETURNING list every column is returned.
func (q *InsertQuery) ExecReturning(ctx context.Context) (*runtime.Result, error) {
	if len(q.returning) == 0 {
		q.Returning("*")
	}

	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	if err := requireExecutor(q.exec); err != nil {
		return nil, err
	}
	return q.exec.Query(ctx, sql, args...)
}
