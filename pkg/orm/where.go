package orm

import (
	"strings"

	"github.com/marshallshelly/babyorm/pkg/builder"
)

// Where selects the rows an operation applies to. The zero value matches
// every row.
type Where struct {
	conds []builder.Condition
}

// Raw uses expr as the whole predicate. Each ? in expr binds the next arg
// and ?? writes a literal ?.
func Raw(expr string, args ...any) Where {
	return Where{conds: []builder.Condition{builder.Raw(expr, args...)}}
}

// Conds AND-combines conds in order.
func Conds(conds ...builder.Condition) Where {
	return Where{conds: conds}
}

// Field is a bare predicate such as "active" or "deleted_at IS NULL".
func Field(expr string) builder.Condition {
	return builder.Raw(expr)
}

// Eq is "field = value".
func Eq(field string, value any) builder.Condition {
	return builder.Eq(field, value)
}

// Op is "field op value"; op is matched case-insensitively.
func Op(field, op string, value any) builder.Condition {
	return builder.Op(field, builder.Operator(strings.ToUpper(strings.TrimSpace(op))), value)
}

// Empty reports whether w matches every row.
func (w Where) Empty() bool {
	return len(w.conds) == 0
}

// Order is one ORDER BY entry.
type Order struct {
	Field     string
	Direction builder.OrderDirection
}

// Asc orders by field ascending.
func Asc(field string) Order { return Order{Field: field, Direction: builder.Asc} }

// Desc orders by field descending.
func Desc(field string) Order { return Order{Field: field, Direction: builder.Desc} }

func applySelect(q *builder.SelectQuery, where Where, order []Order) *builder.SelectQuery {
	q.WhereCond(where.conds...)
	for _, o := range order {
		q.OrderBy(o.Field, o.Direction)
	}
	return q
}
