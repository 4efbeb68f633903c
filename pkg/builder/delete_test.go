package builder

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteQuery_ToSQL(t *testing.T) {
	tests := []struct {
		name    string
		query   *DeleteQuery
		wantSQL string
		argLen  int
	}{
		{
			name:    "by id",
			query:   NewDelete(nil, "users").Where(Eq("id", 1)),
			wantSQL: "DELETE FROM users WHERE (id = $1)",
			argLen:  1,
		},
		{
			name:    "or condition with returning",
			query:   NewDelete(nil, "users").Where(Lt("age", 18)).Or(IsNotNull("banned_at")).Returning("id"),
			wantSQL: "DELETE FROM users WHERE (age < $1) OR (banned_at IS NOT NULL) RETURNING id",
			argLen:  1,
		},
		{
			name:    "whole table",
			query:   NewDelete(nil, "sessions"),
			wantSQL: "DELETE FROM sessions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.query.ToSQL()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("expected %q, got %q", tt.wantSQL, sql)
			}
			if len(args) != tt.argLen {
				t.Errorf("expected %d args, got %d", tt.argLen, len(args))
			}
		})
	}
}

func TestDeleteQuery_Exec(t *testing.T) {
	exec, mock := newMockExecutor(t)

	mock.ExpectExec("DELETE FROM users WHERE (id = $1)").
		WithArgs(12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := New(exec).Delete("users").Where(Eq("id", 12)).Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
