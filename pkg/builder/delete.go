package builder

import (
	"context"
	"strings"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// DeleteQuery represents a DELETE.
type DeleteQuery struct {
	exec      runtime.Executor
	table     string
	where     whereClause
	returning []string
}

// NewDelete creates a DELETE from table bound to exec.
func NewDelete(exec runtime.Executor, table string) *DeleteQuery {
	return &DeleteQuery{exec: exec, table: table}
}

// Where adds a WHERE condition to the DELETE query.
func (q *DeleteQuery) Where(conds ...Condition) *DeleteQuery {
	for _, cond := range conds {
		q.where.add(cond)
	}
	return q
}

// Or adds an OR condition.
func (q *DeleteQuery) Or(cond Condition) *DeleteQuery {
	q.where.add(Or(cond))
	return q
}

// Returning specifies columns to return after delete.
func (q *DeleteQuery) Returning(columns ...string) *DeleteQuery {
	q.returning = columns
	return q
}

// ToSQL generates the DELETE SQL and arguments.
func (q *DeleteQuery) ToSQL() (string, []any, error) {
	if q.table == "" {
		return "", nil, runtime.NewQueryBuilderError("missing DELETE table")
	}

	var sql strings.Builder
	var p params

	sql.WriteString("DELETE FROM ")
	sql.WriteString(q.table)

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

// Exec executes the DELETE query and returns the number of affected rows.
func (q *DeleteQuery) Exec(ctx context.Context) (int64, error) {
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
