package builder

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// UpdateQuery represents an UPDATE. SET values bind before WHERE values.
type UpdateQuery struct {
	exec      runtime.Executor
	table     string
	columns   []string
	values    []any
	where     whereClause
	returning []string
}

// NewUpdate creates an UPDATE of table bound to exec.
func NewUpdate(exec runtime.Executor, table string) *UpdateQuery {
	return &UpdateQuery{exec: exec, table: table}
}

// Set sets a column value for the UPDATE.
func (q *UpdateQuery) Set(column string, value any) *UpdateQuery {
	if i := slices.Index(q.columns, column); i >= 0 {
		q.values[i] = value
		return q
	}
	q.columns = append(q.columns, column)
	q.values = append(q.values, value)
	return q
}

// SetMap sets multiple column values from a map, in sorted column order.
func (q *UpdateQuery) SetMap(values map[string]any) *UpdateQuery {
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

// Where adds a WHERE condition.
func (q *UpdateQuery) Where(conds ...Condition) *UpdateQuery {
	for _, cond := range conds {
		q.where.add(cond)
	}
	return q
}

// Or adds an OR condition.
func (q *UpdateQuery) Or(cond Condition) *UpdateQuery {
	q.where.add(Or(cond))
	return q
}

// Returning specifies columns to return after update.
func (q *UpdateQuery) Returning(columns ...string) *UpdateQuery {
	q.returning = columns
	return q
}

// ToSQL generates the UPDATE SQL and arguments.
func (q *UpdateQuery) ToSQL() (string, []any, error) {
	if q.table == "" {
		return "", nil, runtime.NewQueryBuilderError("missing UPDATE table")
	}
	if len(q.columns) == 0 {
		return "", nil, runtime.NewQueryBuilderError("no columns to update")
	}

	var sql strings.Builder
	var p params

	sql.WriteString("UPDATE ")
	sql.WriteString(q.table)
	sql.WriteString(" SET ")

	setClauses := make([]string, len(q.columns))
	for i, col := range q.columns {
		setClauses[i] = fmt.Sprintf("%s = %s", col, p.bind(q.values[i]))
	}
	sql.WriteString(strings.Join(setClauses, ", "))

	if !q.where.empty() {
		where, err := q.where.render(&p)
		if err != nil {
			return "", nil, runtime.NewQueryBuilderError("where: %v", err)
		}
		sql.WriteString(" WHERE " + where)
	}

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), p.values, nil
}

// Exec executes the UPDATE query and returns the number of affected rows.
func (q *UpdateQuery) Exec(ctx context.Context) (int64, error) {
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

// ExecReturning executes the UPDATE and returns the updated rows.
func (q *UpdateQuery) ExecReturning(ctx context.Context) (*runtime.Result, error) {
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
