package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"empty string", "", false},
		{"whitespace", "  \t", false},
		{"nil", nil, false},
		{"nil pointer", (*string)(nil), false},
		{"zero", 0, true},
		{"false", false, true},
		{"text", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			got := v.Execute(context.Background(), "name", tt.value, []Rule{Required()})
			assert.Equal(t, tt.want, got)
			if !tt.want {
				assert.Equal(t, []string{"Field name can not be empty or undefined"}, v.Errors())
			}
		})
	}
}

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		value any
		want  bool
	}{
		{"string ok", String(), "abc", true},
		{"string rejects int", String(), 4, false},
		{"number int", Number(), 12, true},
		{"number numeric string", Number(), "12.5", true},
		{"number rejects word", Number(), "twelve", false},
		{"integer float whole", Integer(), float64(3), true},
		{"integer float fraction", Integer(), 3.2, false},
		{"integer rejects string", Integer(), "3", false},
		{"boolean", Boolean(), true, true},
		{"boolean rejects string", Boolean(), "true", false},
		{"date string", Date(), "2024-02-29", true},
		{"date time", Date(), time.Now(), true},
		{"date garbage", Date(), "yesterday", false},
		{"object map", Object(), map[string]any{"a": 1}, true},
		{"object rejects int", Object(), 1, false},
		{"min length ok", MinLength(3), "abc", true},
		{"min length runes", MinLength(3), "éé", false},
		{"max length", MaxLength(3), "abcd", false},
		{"max length slice", MaxLength(2), []int{1, 2}, true},
		{"min value zero fails", MinValue(5), 0, false},
		{"min value", MinValue(5), 5, true},
		{"max value", MaxValue(10), 10.5, false},
		{"between inside", Between(1, 10), 10, true},
		{"between outside", Between(1, 10), 11, false},
		{"between non numeric", Between(1, 10), "x", false},
		{"in list", In("draft", "published"), "draft", true},
		{"in number compared as string", In("1", "2"), 2, true},
		{"not in list", In("draft"), "deleted", false},
		{"uniqid", Uniqid(), "65a1b2c3d4e5f6", true},
		{"uniqid too short", Uniqid(), "65a1b2", false},
		{"password", Password(), "Secr3t!pass", true},
		{"password no special", Password(), "Secr3tpass", false},
		{"password short", Password(), "S3c!a", false},
		{"email", Email(), "jane@example.com", true},
		{"email invalid", Email(), "jane@", false},
		{"zipcode", Zipcode(), "75011", true},
		{"zipcode corsica", Zipcode(), "2A004", true},
		{"zipcode invalid", Zipcode(), "99000", false},
		{"telephone", Telephone(), "06 12 34 56 78", true},
		{"telephone international", Telephone(), "+33612345678", true},
		{"telephone invalid", Telephone(), "12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			got := v.Execute(context.Background(), "field", tt.value, []Rule{tt.rule})
			assert.Equal(t, tt.want, got, "errors: %v", v.Errors())
			if tt.want {
				assert.Empty(t, v.Errors())
			} else {
				require.Len(t, v.Errors(), 1)
				assert.Contains(t, v.Errors()[0], "field")
			}
		})
	}
}

func TestEmptyValuesSkipRules(t *testing.T) {
	v := New()
	rules := []Rule{String(), Email(), MinLength(10), Exist("users", "id")}

	for _, value := range []any{nil, "", "   "} {
		assert.True(t, v.Execute(context.Background(), "email", value, rules))
	}
	assert.Empty(t, v.Errors())
}

func TestMakeAllTests(t *testing.T) {
	rules := []Rule{Required(), String(), MinLength(5)}

	all := New()
	assert.False(t, all.Execute(context.Background(), "code", 42, rules))
	assert.Len(t, all.Errors(), 2)

	first := New(WithMakeAllTests(false))
	assert.False(t, first.Execute(context.Background(), "code", 42, rules))
	assert.Equal(t, []string{"Field code must be a string (received : 42)"}, first.Errors())

	first.Clear()
	assert.Empty(t, first.Errors())
}

func TestExecuteReportsOnlyItsOwnRules(t *testing.T) {
	v := New()
	assert.False(t, v.Execute(context.Background(), "a", "", []Rule{Required()}))
	assert.True(t, v.Execute(context.Background(), "b", "ok", []Rule{Required()}))
	assert.Len(t, v.Errors(), 1)
}

func newCounter(t *testing.T) (*runtime.SQLDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return runtime.NewSQLDB(db), mock
}

func TestExistRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		query string
		total int64
		want  bool
	}{
		{
			name:  "exist",
			rule:  Exist("companies", "id"),
			query: "SELECT COUNT(*) AS total FROM companies WHERE (id = $1)",
			total: 1,
			want:  true,
		},
		{
			name:  "exist not deleted",
			rule:  ExistNotDeleted("companies", "id"),
			query: "SELECT COUNT(*) AS total FROM companies WHERE (id = $1) AND (deleted_at IS NULL)",
			total: 0,
			want:  false,
		},
		{
			name:  "exist enabled",
			rule:  ExistEnabled("companies", "id"),
			query: "SELECT COUNT(*) AS total FROM companies WHERE (id = $1) AND (enabled = TRUE)",
			total: 3,
			want:  true,
		},
		{
			name:  "exist enabled not deleted",
			rule:  ExistEnabledNotDeleted("companies", "id"),
			query: "SELECT COUNT(*) AS total FROM companies WHERE (id = $1) AND (enabled = TRUE) AND (deleted_at IS NULL)",
			total: 1,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, mock := newCounter(t)
			mock.ExpectQuery(tt.query).
				WithArgs(7).
				WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(tt.total))

			v := New(WithCounter(counter))
			assert.Equal(t, tt.want, v.Execute(context.Background(), "company_id", 7, []Rule{tt.rule}))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExistRuleFailures(t *testing.T) {
	t.Run("query error fails the rule", func(t *testing.T) {
		counter, mock := newCounter(t)
		mock.ExpectQuery("SELECT COUNT(*) AS total FROM companies WHERE (id = $1)").
			WithArgs(7).
			WillReturnError(errors.New("relation does not exist"))

		v := New(WithCounter(counter))
		assert.False(t, v.Execute(context.Background(), "company_id", 7, []Rule{Exist("companies", "id")}))
		assert.Equal(t, []string{"Field company_id must exist in database (received : 7)"}, v.Errors())
	})

	t.Run("no counter", func(t *testing.T) {
		v := New()
		assert.False(t, v.Execute(context.Background(), "company_id", 7, []Rule{Exist("companies", "id")}))
		assert.Contains(t, v.Errors()[0], "no database connection")
	})
}
