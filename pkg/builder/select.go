package builder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// SelectQuery accumulates a SELECT statement.
// Clauses render in a fixed order regardless of call order, and the first
// structural error is kept until the query is rendered.
type SelectQuery struct {
	exec    runtime.Executor
	fields  []string
	table   string
	alias   string
	joins   []Join
	where   whereClause
	groupBy []string
	orderBy []OrderBy
	limit   *int
	offset  *int
	err     error
}

// NewSelect creates an empty SELECT bound to exec. exec may be nil for render-only use.
func NewSelect(exec runtime.Executor) *SelectQuery {
	return &SelectQuery{exec: exec}
}

func (q *SelectQuery) fail(format string, args ...any) *SelectQuery {
	if q.err == nil {
		q.err = runtime.NewQueryBuilderError(format, args...)
	}
	return q
}

// Select appends fields to the select list.
func (q *SelectQuery) Select(fields ...string) *SelectQuery {
	q.fields = append(q.fields, fields...)
	return q
}

// SelectAs appends a single field rendered as "field AS alias".
func (q *SelectQuery) SelectAs(field, alias string) *SelectQuery {
	return q.Select(field).As(alias)
}

// As renames the most recently selected field.
func (q *SelectQuery) As(alias string) *SelectQuery {
	if len(q.fields) == 0 {
		return q.fail("alias %q given without a selected field", alias)
	}
	last := len(q.fields) - 1
	q.fields[last] = q.fields[last] + " AS " + alias
	return q
}

// From sets the target table. The last call wins.
func (q *SelectQuery) From(table string, alias ...string) *SelectQuery {
	q.table = table
	q.alias = ""
	if len(alias) > 0 {
		q.alias = alias[0]
	}
	return q
}

// Join adds an INNER JOIN. Each ? in condition is bound to the next arg and
// ?? writes a literal ?.
func (q *SelectQuery) Join(table, alias, condition string, args ...any) *SelectQuery {
	q.joins = append(q.joins, Join{Type: InnerJoin, Table: table, Alias: alias, Condition: condition, Args: args})
	return q
}

// LeftJoin adds a LEFT JOIN. Each ? in condition is bound to the next arg.
func (q *SelectQuery) LeftJoin(table, alias, condition string, args ...any) *SelectQuery {
	q.joins = append(q.joins, Join{Type: LeftJoin, Table: table, Alias: alias, Condition: condition, Args: args})
	return q
}

// Where adds "field = value", AND-combined.
func (q *SelectQuery) Where(field string, value any) *SelectQuery {
	q.where.add(Eq(field, value))
	return q
}

// WhereOp adds "field op value", AND-combined.
func (q *SelectQuery) WhereOp(field string, op Operator, value any) *SelectQuery {
	return q.addOp(LogicAnd, field, op, value)
}

// WhereRaw adds a free-form predicate, AND-combined. Markers follow Raw.
func (q *SelectQuery) WhereRaw(expr string, args ...any) *SelectQuery {
	q.where.add(Raw(expr, args...))
	return q
}

// WhereCond adds a prepared condition keeping its own logic operator.
func (q *SelectQuery) WhereCond(conds ...Condition) *SelectQuery {
	for _, cond := range conds {
		q.where.add(cond)
	}
	return q
}

// OrWhere adds "field = value", OR-combined.
func (q *SelectQuery) OrWhere(field string, value any) *SelectQuery {
	q.where.add(Or(Eq(field, value)))
	return q
}

// OrWhereOp adds "field op value", OR-combined.
func (q *SelectQuery) OrWhereOp(field string, op Operator, value any) *SelectQuery {
	return q.addOp(LogicOr, field, op, value)
}

// OrWhereRaw adds a free-form predicate, OR-combined.
func (q *SelectQuery) OrWhereRaw(expr string, args ...any) *SelectQuery {
	q.where.add(Or(Raw(expr, args...)))
	return q
}

// OrWhereCond adds a prepared condition, OR-combined.
func (q *SelectQuery) OrWhereCond(cond Condition) *SelectQuery {
	q.where.add(Or(cond))
	return q
}

// WhereNull adds "field IS NULL".
func (q *SelectQuery) WhereNull(field string) *SelectQuery {
	q.where.add(IsNull(field))
	return q
}

// WhereNotNull adds "field IS NOT NULL".
func (q *SelectQuery) WhereNotNull(field string) *SelectQuery {
	q.where.add(IsNotNull(field))
	return q
}

func (q *SelectQuery) addOp(logic LogicOperator, field string, op Operator, value any) *SelectQuery {
	op = Operator(strings.ToUpper(strings.TrimSpace(string(op))))
	if !ValidOperator(op) {
		return q.fail("unsupported operator %q", op)
	}
	cond := Op(field, op, value)
	cond.Logic = logic
	q.where.add(cond)
	return q
}

// GroupBy appends to the GROUP BY list.
func (q *SelectQuery) GroupBy(exprs ...string) *SelectQuery {
	q.groupBy = append(q.groupBy, exprs...)
	return q
}

// OrderBy appends an ordering. Direction defaults to ASC.
func (q *SelectQuery) OrderBy(field string, direction ...OrderDirection) *SelectQuery {
	dir := Asc
	if len(direction) > 0 {
		dir = OrderDirection(strings.ToUpper(string(direction[0])))
	}
	if dir != Asc && dir != Desc {
		return q.fail("invalid order direction %q", dir)
	}
	q.orderBy = append(q.orderBy, OrderBy{Column: field, Direction: dir})
	return q
}

// OrderByRaw appends a free-form ordering.
func (q *SelectQuery) OrderByRaw(expr string) *SelectQuery {
	q.orderBy = append(q.orderBy, OrderBy{Column: expr, Raw: true})
	return q
}

// Limit sets the LIMIT and optionally the OFFSET.
func (q *SelectQuery) Limit(count int, offset ...int) *SelectQuery {
	if count < 0 {
		return q.fail("limit must not be negative, got %d", count)
	}
	q.limit = &count
	if len(offset) > 0 {
		return q.Offset(offset[0])
	}
	return q
}

// Offset sets the OFFSET. A limit must already be set.
func (q *SelectQuery) Offset(count int) *SelectQuery {
	if q.limit == nil {
		return q.fail("offset requires a limit")
	}
	if count < 0 {
		return q.fail("offset must not be negative, got %d", count)
	}
	q.offset = &count
	return q
}

// Err returns the first structural error recorded while building.
func (q *SelectQuery) Err() error {
	return q.err
}

// ToSQL renders the statement and its ordered parameters.
func (q *SelectQuery) ToSQL() (string, []any, error) {
	var p params
	sql, err := q.render(&p)
	if err != nil {
		return "", nil, err
	}
	return sql, p.values, nil
}

// render writes the statement binding into p, so a nested SELECT shares
// the numbering of its parent.
func (q *SelectQuery) render(p *params) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	if q.table == "" {
		return "", runtime.NewQueryBuilderError("missing FROM clause")
	}

	var sql strings.Builder

	sql.WriteString("SELECT ")
	if len(q.fields) == 0 {
		sql.WriteString("*")
	} else {
		sql.WriteString(strings.Join(q.fields, ", "))
	}

	sql.WriteString(" FROM ")
	sql.WriteString(q.table)
	if q.alias != "" {
		sql.WriteString(" " + q.alias)
	}

	for _, join := range q.joins {
		cond, err := rebind(join.Condition, join.Args, p)
		if err != nil {
			return "", runtime.NewQueryBuilderError("join %s: %v", join.Table, err)
		}
		sql.WriteString(" " + string(join.Type) + " " + join.Table)
		if join.Alias != "" {
			sql.WriteString(" " + join.Alias)
		}
		sql.WriteString(" ON " + cond)
	}

	if !q.where.empty() {
		where, err := q.where.render(p)
		if err != nil {
			return "", runtime.NewQueryBuilderError("where: %v", err)
		}
		sql.WriteString(" WHERE " + where)
	}

	if len(q.groupBy) > 0 {
		sql.WriteString(" GROUP BY ")
		sql.WriteString(strings.Join(q.groupBy, ", "))
	}

	if len(q.orderBy) > 0 {
		parts := make([]string, len(q.orderBy))
		for i, order := range q.orderBy {
			if order.Raw {
				parts[i] = order.Column
				continue
			}
			parts[i] = order.Column + " " + string(order.Direction)
		}
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(parts, ", "))
	}

	if q.limit != nil {
		sql.WriteString(fmt.Sprintf(" LIMIT %d", *q.limit))
	}
	if q.offset != nil {
		sql.WriteString(fmt.Sprintf(" OFFSET %d", *q.offset))
	}

	return sql.String(), nil
}

// GetQuery renders the SQL text only.
func (q *SelectQuery) GetQuery() (string, error) {
	sql, _, err := q.ToSQL()
	return sql, err
}

// Params returns the ordered parameter list, or nil when the query cannot render.
func (q *SelectQuery) Params() []any {
	_, args, err := q.ToSQL()
	if err != nil {
		return nil
	}
	return args
}

// Execute runs the query and returns every row.
func (q *SelectQuery) Execute(ctx context.Context) (*runtime.Result, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	if err := requireExecutor(q.exec); err != nil {
		return nil, err
	}
	return q.exec.Query(ctx, sql, args...)
}

// GetRow forces LIMIT 1 OFFSET 0 and returns the first row, or nil when none matched.
func (q *SelectQuery) GetRow(ctx context.Context) (map[string]any, error) {
	result, err := q.Limit(1, 0).Execute(ctx)
	if err != nil {
		return nil, err
	}
	return result.First(), nil
}

// GetValue forces LIMIT 1 OFFSET 0 and returns the first column of the first row.
func (q *SelectQuery) GetValue(ctx context.Context) (any, error) {
	result, err := q.Limit(1, 0).Execute(ctx)
	if err != nil {
		return nil, err
	}
	if result.Empty() || len(result.Columns) == 0 {
		return nil, nil
	}
	return result.Rows[0][result.Columns[0]], nil
}

// Count adds COUNT(field) AS total to the query and returns the total.
// It owns the select list, so it fails when fields were already selected.
func (q *SelectQuery) Count(ctx context.Context, field ...string) (int64, error) {
	if len(q.fields) > 0 {
		q.fail("count cannot be combined with select")
		return 0, q.err
	}

	target := "*"
	if len(field) > 0 && field[0] != "" {
		target = field[0]
	}
	q.fields = append(q.fields, fmt.Sprintf("COUNT(%s) AS total", target))

	result, err := q.Execute(ctx)
	if err != nil {
		return 0, err
	}
	row := result.First()
	if row == nil {
		return 0, nil
	}
	return ToInt64(row["total"])
}

// ToInt64 converts the numeric types drivers return for aggregates.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}
