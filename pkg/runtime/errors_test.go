package runtime

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation",
			err:  &ValidationError{Model: "user", Errors: []string{"Field email can not be empty or undefined", "Field age must be a number (received : x)"}},
			want: "validation failed for model user: Field email can not be empty or undefined; Field age must be a number (received : x)",
		},
		{
			name: "model not found",
			err:  &ModelNotFoundError{Name: "ghost"},
			want: "model ghost not found",
		},
		{
			name: "protected field",
			err:  &ProtectedFieldError{Model: "user", Field: "id"},
			want: "field id of model user is protected",
		},
		{
			name: "relation not found",
			err:  &RelationNotFoundError{Model: "user", Relation: "company"},
			want: "relation company not found on model user",
		},
		{
			name: "builder",
			err:  NewQueryBuilderError("offset requires %s", "limit"),
			want: "query builder: offset requires limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("connection refused")

	wrapped := fmt.Errorf("create user: %w", &QueryExecutionError{Query: "SELECT 1", Err: base})
	if !errors.Is(wrapped, base) {
		t.Error("QueryExecutionError should unwrap to the backend error")
	}

	var qerr *QueryExecutionError
	if !errors.As(wrapped, &qerr) {
		t.Fatal("expected QueryExecutionError in chain")
	}
	if qerr.Query != "SELECT 1" {
		t.Errorf("Query = %q", qerr.Query)
	}

	conn := &ConnectionError{Err: base}
	if !errors.Is(conn, base) {
		t.Error("ConnectionError should unwrap to the cause")
	}
}
