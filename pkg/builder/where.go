package builder

import (
	"fmt"
	"reflect"
	"strings"
)

// whereClause accumulates predicates and renders them on demand.
type whereClause struct {
	conditions []Condition
}

func (w *whereClause) add(cond Condition) {
	w.conditions = append(w.conditions, cond)
}

func (w *whereClause) empty() bool {
	return len(w.conditions) == 0
}

// render writes the predicates without the WHERE keyword.
func (w *whereClause) render(p *params) (string, error) {
	return renderConditions(w.conditions, p)
}

// renderConditions joins each predicate in parentheses with its logic operator.
func renderConditions(conditions []Condition, p *params) (string, error) {
	var sb strings.Builder

	for i, cond := range conditions {
		var part string
		var err error

		if len(cond.Group) > 0 {
			part, err = renderConditions(cond.Group, p)
		} else {
			part, err = renderCondition(cond, p)
		}
		if err != nil {
			return "", err
		}

		if cond.Not {
			part = "NOT (" + part + ")"
		}

		if i > 0 {
			logic := cond.Logic
			if logic == "" {
				logic = LogicAnd
			}
			sb.WriteString(" " + string(logic) + " ")
		}
		sb.WriteString("(" + part + ")")
	}

	return sb.String(), nil
}

// renderCondition builds a single predicate, binding values in order.
func renderCondition(cond Condition, p *params) (string, error) {
	if cond.Raw {
		args, _ := cond.Value.([]any)
		return rebind(cond.Column, args, p)
	}

	column := cond.Column
	operator := cond.Operator
	value := cond.Value

	if sub, ok := value.(*SelectQuery); ok {
		return renderSubquery(column, operator, sub, p)
	}

	switch {
	case binaryOperators[operator]:
		return fmt.Sprintf("%s %s %s", column, operator, p.bind(value)), nil

	case operator == OpIn || operator == OpNotIn:
		values, ok := toSlice(value)
		if !ok || len(values) == 0 {
			return "", fmt.Errorf("%s operator requires a non-empty list value", operator)
		}

		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = p.bind(v)
		}
		return fmt.Sprintf("%s %s (%s)", column, operator, strings.Join(placeholders, ", ")), nil

	case operator == OpIsNull:
		return fmt.Sprintf("%s IS NULL", column), nil

	case operator == OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", column), nil

	case operator == OpBetween:
		values, ok := toSlice(value)
		if !ok || len(values) != 2 {
			return "", fmt.Errorf("BETWEEN operator requires [min, max] values")
		}
		low := p.bind(values[0])
		high := p.bind(values[1])
		return fmt.Sprintf("%s BETWEEN %s AND %s", column, low, high), nil

	case operator == OpTSMatch:
		return fmt.Sprintf("%s @@ to_tsquery(%s)", column, p.bind(value)), nil

	default:
		return "", fmt.Errorf("unknown operator: %s", operator)
	}
}

// rebind replaces each ? marker in expr with the next placeholder. A doubled
// ?? writes a literal ? so the JSONB operators ?, ?| and ?& stay usable
// alongside bound args. Without args a lone ? is also kept as written.
func rebind(expr string, args []any, p *params) (string, error) {
	markers := strings.Count(expr, "?") - 2*strings.Count(expr, "??")
	if len(args) > 0 && markers != len(args) {
		return "", fmt.Errorf("expression %q has %d markers but %d arguments", expr, markers, len(args))
	}

	var sb strings.Builder
	next := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c != '?':
			sb.WriteByte(c)
		case i+1 < len(expr) && expr[i+1] == '?':
			sb.WriteByte('?')
			i++
		case len(args) == 0:
			sb.WriteByte('?')
		default:
			sb.WriteString(p.bind(args[next]))
			next++
		}
	}
	return sb.String(), nil
}

// toSlice flattens any slice or array value into []any.
func toSlice(value any) ([]any, bool) {
	if values, ok := value.([]any); ok {
		return values, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, true
}

// Helper functions for building conditions

// Eq creates an equality condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value, Logic: LogicAnd}
}

// NotEq creates a not-equal condition.
func NotEq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpNotEqual, Value: value, Logic: LogicAnd}
}

// Gt creates a greater-than condition.
func Gt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGreaterThan, Value: value, Logic: LogicAnd}
}

// Gte creates a greater-than-or-equal condition.
func Gte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGreaterThanOrEqual, Value: value, Logic: LogicAnd}
}

// Lt creates a less-than condition.
func Lt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLessThan, Value: value, Logic: LogicAnd}
}

// Lte creates a less-than-or-equal condition.
func Lte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLessThanOrEqual, Value: value, Logic: LogicAnd}
}

// Op creates a condition with an arbitrary operator.
func Op(column string, operator Operator, value any) Condition {
	return Condition{Column: column, Operator: operator, Value: value, Logic: LogicAnd}
}

// In creates an IN condition.
func In(column string, values ...any) Condition {
	return Condition{Column: column, Operator: OpIn, Value: values, Logic: LogicAnd}
}

// NotIn creates a NOT IN condition.
func NotIn(column string, values ...any) Condition {
	return Condition{Column: column, Operator: OpNotIn, Value: values, Logic: LogicAnd}
}

// Like creates a LIKE condition.
func Like(column string, pattern string) Condition {
	return Condition{Column: column, Operator: OpLike, Value: pattern, Logic: LogicAnd}
}

// ILike creates an ILIKE condition (case-insensitive).
func ILike(column string, pattern string) Condition {
	return Condition{Column: column, Operator: OpILike, Value: pattern, Logic: LogicAnd}
}

// IsNull creates an IS NULL condition.
func IsNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNull, Logic: LogicAnd}
}

// IsNotNull creates an IS NOT NULL condition.
func IsNotNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNotNull, Logic: LogicAnd}
}

// Between creates a BETWEEN condition.
func Between(column string, min, max any) Condition {
	return Condition{Column: column, Operator: OpBetween, Value: []any{min, max}, Logic: LogicAnd}
}

// Raw creates a free-form predicate. Each ? in expr is bound to the next arg;
// write ?? for a literal ? such as the JSONB key operators.
func Raw(expr string, args ...any) Condition {
	return Condition{Column: expr, Value: args, Logic: LogicAnd, Raw: true}
}

// Or sets the logic operator to OR for the condition.
func Or(cond Condition) Condition {
	cond.Logic = LogicOr
	return cond
}

// Not negates a condition.
func Not(cond Condition) Condition {
	cond.Not = true
	return cond
}

// Group creates a grouped condition.
func Group(conditions ...Condition) Condition {
	return Condition{Group: conditions, Logic: LogicAnd}
}
