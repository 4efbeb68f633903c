package validator

import (
	"context"
	"fmt"

	"github.com/marshallshelly/babyorm/pkg/builder"
)

// exist counts matching rows of rule.Table. A zero count or a failed query
// fails the rule.
func (v *Validator) exist(ctx context.Context, field string, value any, rule Rule) (string, bool) {
	msg := fmt.Sprintf("Field %s must exist in database (received : %v)", field, value)

	if v.counter == nil {
		return msg + ": no database connection configured", false
	}

	q := builder.NewSelect(v.counter).From(rule.Table).Where(rule.Column, value)
	switch rule.Kind {
	case KindExistNotDeleted:
		q.WhereNull("deleted_at")
	case KindExistEnabled:
		q.WhereRaw("enabled = TRUE")
	case KindExistEnabledNotDeleted:
		q.WhereRaw("enabled = TRUE").WhereNull("deleted_at")
	}

	total, err := q.Count(ctx)
	if err != nil {
		v.logger.WarnContext(ctx, "exist rule query failed",
			"field", field, "rule", rule.String(), "error", err)
		return msg, false
	}
	if total == 0 {
		return msg, false
	}
	return "", true
}
