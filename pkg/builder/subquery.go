package builder

import (
	"errors"
	"fmt"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// InQuery creates a "column IN (SELECT ...)" condition. The nested query
// binds its values into the parent's placeholder sequence.
func InQuery(column string, sub *SelectQuery) Condition {
	return Condition{Column: column, Operator: OpIn, Value: sub, Logic: LogicAnd}
}

// NotInQuery creates a "column NOT IN (SELECT ...)" condition.
func NotInQuery(column string, sub *SelectQuery) Condition {
	return Condition{Column: column, Operator: OpNotIn, Value: sub, Logic: LogicAnd}
}

// Exists creates an EXISTS (SELECT ...) condition.
func Exists(sub *SelectQuery) Condition {
	return Condition{Operator: OpExists, Value: sub, Logic: LogicAnd}
}

// NotExists creates a NOT EXISTS (SELECT ...) condition.
func NotExists(sub *SelectQuery) Condition {
	return Condition{Operator: OpNotExists, Value: sub, Logic: LogicAnd}
}

// WhereInQuery adds "field IN (sub)" joined with AND.
func (q *SelectQuery) WhereInQuery(field string, sub *SelectQuery) *SelectQuery {
	return q.WhereCond(InQuery(field, sub))
}

// WhereExists adds "EXISTS (sub)" joined with AND.
func (q *SelectQuery) WhereExists(sub *SelectQuery) *SelectQuery {
	return q.WhereCond(Exists(sub))
}

func renderSubquery(column string, operator Operator, sub *SelectQuery, p *params) (string, error) {
	if sub == nil {
		return "", fmt.Errorf("%s operator requires a subquery", operator)
	}

	inner, err := sub.render(p)
	if err != nil {
		var qbErr *runtime.QueryBuilderError
		if errors.As(err, &qbErr) {
			return "", fmt.Errorf("subquery: %s", qbErr.Message)
		}
		return "", err
	}

	switch operator {
	case OpIn, OpNotIn:
		return fmt.Sprintf("%s %s (%s)", column, operator, inner), nil
	case OpExists, OpNotExists:
		return fmt.Sprintf("%s (%s)", operator, inner), nil
	default:
		return "", fmt.Errorf("operator %s does not accept a subquery", operator)
	}
}
