// Package builder renders parameterized PostgreSQL statements from chained calls.
package builder

import (
	"context"
	"fmt"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// Query represents a statement that can be rendered.
type Query interface {
	// ToSQL generates the SQL query and parameter values.
	ToSQL() (sql string, args []any, err error)
}

// Executable represents a statement that can be executed.
type Executable interface {
	Query
	// Exec executes the statement and returns the number of affected rows.
	Exec(ctx context.Context) (int64, error)
}

// Condition represents a WHERE predicate.
// When Raw is set, Column holds a free-form expression and Value an optional []any
// whose entries replace the ? markers of the expression.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
	Logic    LogicOperator
	Not      bool
	Group    []Condition
	Raw      bool
}

// Join represents a JOIN clause. ? markers in Condition are bound to Args.
type Join struct {
	Type      JoinType
	Table     string
	Alias     string
	Condition string
	Args      []any
}

// OrderBy represents one ORDER BY entry. Raw entries render without a direction.
type OrderBy struct {
	Column    string
	Direction OrderDirection
	Raw       bool
}

// OnConflict represents an ON CONFLICT clause.
// Updates lists inserted columns whose placeholders are reused in the SET list.
type OnConflict struct {
	Columns []string
	Action  ConflictAction
	Updates []string
}

// Operator represents a comparison operator.
type Operator string

const (
	// OpEqual represents the = operator.
	OpEqual Operator = "="
	// OpNotEqual represents the != operator.
	OpNotEqual Operator = "!="
	// OpDiffer represents the <> operator.
	OpDiffer Operator = "<>"
	// OpGreaterThan represents the > operator.
	OpGreaterThan Operator = ">"
	// OpGreaterThanOrEqual represents the >= operator.
	OpGreaterThanOrEqual Operator = ">="
	// OpLessThan represents the < operator.
	OpLessThan Operator = "<"
	// OpLessThanOrEqual represents the <= operator.
	OpLessThanOrEqual Operator = "<="
	// OpIn represents the IN operator.
	OpIn Operator = "IN"
	// OpNotIn represents the NOT IN operator.
	OpNotIn Operator = "NOT IN"
	// OpLike represents the LIKE operator.
	OpLike Operator = "LIKE"
	// OpILike represents the ILIKE operator (case-insensitive).
	OpILike Operator = "ILIKE"
	// OpNotLike represents the NOT LIKE operator.
	OpNotLike Operator = "NOT LIKE"
	// OpNotILike represents the NOT ILIKE operator.
	OpNotILike Operator = "NOT ILIKE"
	// OpIsNull represents the IS NULL operator.
	OpIsNull Operator = "IS NULL"
	// OpIsNotNull represents the IS NOT NULL operator.
	OpIsNotNull Operator = "IS NOT NULL"
	// OpBetween represents the BETWEEN operator.
	OpBetween Operator = "BETWEEN"

	// OpContains represents the JSONB/array @> operator.
	OpContains Operator = "@>"
	// OpContainedBy represents the JSONB/array <@ operator.
	OpContainedBy Operator = "<@"
	// OpHasKey represents the JSONB ? operator.
	OpHasKey Operator = "?"
	// OpHasAnyKey represents the JSONB ?| operator.
	OpHasAnyKey Operator = "?|"
	// OpHasAllKeys represents the JSONB ?& operator.
	OpHasAllKeys Operator = "?&"
	// OpOverlap represents the array && operator.
	OpOverlap Operator = "&&"
	// OpRegexMatch represents the ~ operator.
	OpRegexMatch Operator = "~"
	// OpRegexIMatch represents the ~* operator.
	OpRegexIMatch Operator = "~*"
	// OpRegexNotMatch represents the !~ operator.
	OpRegexNotMatch Operator = "!~"
	// OpExists represents an EXISTS (subquery) predicate.
	OpExists Operator = "EXISTS"
	// OpNotExists represents a NOT EXISTS (subquery) predicate.
	OpNotExists Operator = "NOT EXISTS"
	// OpTSMatch represents the full text @@ operator.
	OpTSMatch Operator = "@@"
)

// binaryOperators render as "column op $n".
var binaryOperators = map[Operator]bool{
	OpEqual: true, OpNotEqual: true, OpDiffer: true,
	OpGreaterThan: true, OpGreaterThanOrEqual: true,
	OpLessThan: true, OpLessThanOrEqual: true,
	OpLike: true, OpILike: true, OpNotLike: true, OpNotILike: true,
	OpContains: true, OpContainedBy: true,
	OpHasKey: true, OpHasAnyKey: true, OpHasAllKeys: true,
	OpOverlap:    true,
	OpRegexMatch: true, OpRegexIMatch: true, OpRegexNotMatch: true,
}

// ValidOperator reports whether op is accepted in a parameterized predicate.
func ValidOperator(op Operator) bool {
	switch op {
	case OpIn, OpNotIn, OpIsNull, OpIsNotNull, OpBetween, OpTSMatch:
		return true
	}
	return binaryOperators[op]
}

// LogicOperator represents a logical operator (AND/OR).
type LogicOperator string

const (
	// LogicAnd represents the AND operator.
	LogicAnd LogicOperator = "AND"
	// LogicOr represents the OR operator.
	LogicOr LogicOperator = "OR"
)

// JoinType represents a type of JOIN.
type JoinType string

const (
	// InnerJoin represents an INNER JOIN.
	InnerJoin JoinType = "INNER JOIN"
	// LeftJoin represents a LEFT JOIN.
	LeftJoin JoinType = "LEFT JOIN"
)

// OrderDirection represents the sort direction.
type OrderDirection string

const (
	// Asc represents ascending order.
	Asc OrderDirection = "ASC"
	// Desc represents descending order.
	Desc OrderDirection = "DESC"
)

// ConflictAction represents the action for ON CONFLICT.
type ConflictAction string

const (
	// DoNothing does nothing on conflict.
	DoNothing ConflictAction = "DO NOTHING"
	// DoUpdate updates on conflict.
	DoUpdate ConflictAction = "DO UPDATE SET"
)

// params is the ordered parameter list shared by every clause of a statement.
type params struct {
	values []any
}

// bind appends v and returns its placeholder.
func (p *params) bind(v any) string {
	p.values = append(p.values, v)
	return fmt.Sprintf("$%d", len(p.values))
}

func requireExecutor(exec runtime.Executor) error {
	if exec == nil {
		return runtime.ErrNoConnection
	}
	return nil
}
