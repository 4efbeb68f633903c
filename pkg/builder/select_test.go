package builder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectQuery_ToSQL(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *SelectQuery
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "select all",
			build:   func() *SelectQuery { return NewSelect(nil).From("users") },
			wantSQL: "SELECT * FROM users",
		},
		{
			name: "fields alias and table alias",
			build: func() *SelectQuery {
				return NewSelect(nil).Select("u.id", "u.name").SelectAs("c.name", "company").From("users", "u")
			},
			wantSQL: "SELECT u.id, u.name, c.name AS company FROM users u",
		},
		{
			name: "where and or where",
			build: func() *SelectQuery {
				return NewSelect(nil).From("users").Where("age", 30).WhereOp("name", "like", "jo%").OrWhere("role", "admin")
			},
			wantSQL:  "SELECT * FROM users WHERE (age = $1) AND (name LIKE $2) OR (role = $3)",
			wantArgs: []any{30, "jo%", "admin"},
		},
		{
			name: "raw predicate is not parameterized",
			build: func() *SelectQuery {
				return NewSelect(nil).From("users").WhereRaw("deleted_at IS NULL").Where("id", 4)
			},
			wantSQL:  "SELECT * FROM users WHERE (deleted_at IS NULL) AND (id = $1)",
			wantArgs: []any{4},
		},
		{
			name: "null checks",
			build: func() *SelectQuery {
				return NewSelect(nil).From("users").WhereNull("deleted_at").WhereNotNull("email")
			},
			wantSQL: "SELECT * FROM users WHERE (deleted_at IS NULL) AND (email IS NOT NULL)",
		},
		{
			name: "clause order is fixed regardless of call order",
			build: func() *SelectQuery {
				return NewSelect(nil).
					Limit(10, 20).
					OrderBy("name").
					GroupBy("company_id").
					Where("active", true).
					LeftJoin("companies", "c", "c.id = u.company_id AND c.country = ?", "FR").
					Select("u.company_id", "COUNT(*) AS n").
					From("users", "u")
			},
			wantSQL:  "SELECT u.company_id, COUNT(*) AS n FROM users u LEFT JOIN companies c ON c.id = u.company_id AND c.country = $1 WHERE (active = $2) GROUP BY company_id ORDER BY name ASC LIMIT 10 OFFSET 20",
			wantArgs: []any{"FR", true},
		},
		{
			name: "group by is comma appended and order by mixes raw",
			build: func() *SelectQuery {
				return NewSelect(nil).From("orders").GroupBy("a").GroupBy("b").OrderBy("a", Desc).OrderByRaw("random()")
			},
			wantSQL: "SELECT * FROM orders GROUP BY a, b ORDER BY a DESC, random()",
		},
		{
			name: "inner join without args",
			build: func() *SelectQuery {
				return NewSelect(nil).From("users", "u").Join("profiles", "p", "p.user_id = u.id")
			},
			wantSQL: "SELECT * FROM users u INNER JOIN profiles p ON p.user_id = u.id",
		},
		{
			name:    "last from wins",
			build:   func() *SelectQuery { return NewSelect(nil).From("a", "x").From("b") },
			wantSQL: "SELECT * FROM b",
		},
		{
			name:    "limit without offset",
			build:   func() *SelectQuery { return NewSelect(nil).From("users").Limit(5) },
			wantSQL: "SELECT * FROM users LIMIT 5",
		},
		{
			name: "where cond with IN",
			build: func() *SelectQuery {
				return NewSelect(nil).From("users").Where("a", 1).WhereCond(In("id", 7, 8)).OrWhereCond(IsNull("b"))
			},
			wantSQL:  "SELECT * FROM users WHERE (a = $1) AND (id IN ($2, $3)) OR (b IS NULL)",
			wantArgs: []any{1, 7, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.build().ToSQL()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(tt.wantArgs) == 0 && len(args) == 0 {
				return
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectQuery_PlaceholdersAreContiguous(t *testing.T) {
	placeholder := regexp.MustCompile(`\$(\d+)`)

	for n := 1; n <= 12; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			q := NewSelect(nil).From("t")
			for i := 0; i < n; i++ {
				field := fmt.Sprintf("f%d", i)
				switch i % 3 {
				case 0:
					q.Where(field, i)
				case 1:
					q.OrWhere(field, i)
				default:
					q.WhereOp(field, OpGreaterThan, i)
				}
			}

			sql, args, err := q.ToSQL()
			require.NoError(t, err)

			matches := placeholder.FindAllStringSubmatch(sql, -1)
			require.Len(t, matches, len(args))
			for i, m := range matches {
				assert.Equal(t, strconv.Itoa(i+1), m[1])
				assert.Equal(t, i, args[i])
			}
		})
	}
}

func TestSelectQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *SelectQuery
		wantMsg string
	}{
		{
			name:    "missing from",
			build:   func() *SelectQuery { return NewSelect(nil).Select("id").Where("a", 1) },
			wantMsg: "missing FROM clause",
		},
		{
			name:    "offset before limit",
			build:   func() *SelectQuery { return NewSelect(nil).From("users").Offset(10).Limit(5) },
			wantMsg: "offset requires a limit",
		},
		{
			name:    "unsupported operator",
			build:   func() *SelectQuery { return NewSelect(nil).From("users").WhereOp("a", "; DROP TABLE users", 1) },
			wantMsg: "unsupported operator",
		},
		{
			name:    "negative limit",
			build:   func() *SelectQuery { return NewSelect(nil).From("users").Limit(-1) },
			wantMsg: "limit must not be negative",
		},
		{
			name:    "bad direction",
			build:   func() *SelectQuery { return NewSelect(nil).From("users").OrderBy("a", "sideways") },
			wantMsg: "invalid order direction",
		},
		{
			name:    "join marker mismatch",
			build:   func() *SelectQuery { return NewSelect(nil).From("users").Join("b", "b", "b.x = ? AND b.y = ?", 1) },
			wantMsg: "2 markers but 1 arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.build()
			_, _, err := q.ToSQL()
			require.Error(t, err)
			var qbErr *runtime.QueryBuilderError
			require.ErrorAs(t, err, &qbErr)
			assert.Contains(t, qbErr.Message, tt.wantMsg)

			_, gerr := q.GetQuery()
			assert.Error(t, gerr)
			assert.Nil(t, q.Params())
		})
	}
}

func newMockExecutor(t *testing.T) (*runtime.SQLDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return runtime.NewSQLDB(db), mock
}

func TestSelectQuery_Terminals(t *testing.T) {
	ctx := context.Background()

	t.Run("execute", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT * FROM users WHERE (age = $1)").
			WithArgs(30).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

		result, err := New(exec).From("users").Where("age", 30).Execute(ctx)
		require.NoError(t, err)
		assert.Len(t, result.Rows, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get row forces limit", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT * FROM users WHERE (id = $1) LIMIT 1 OFFSET 0").
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(9), "ann"))

		row, err := New(exec).From("users").Where("id", 9).GetRow(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ann", row["name"])
	})

	t.Run("get row returns nil when empty", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT * FROM users LIMIT 1 OFFSET 0").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		row, err := New(exec).From("users").GetRow(ctx)
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("get value", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT name FROM users WHERE (id = $1) LIMIT 1 OFFSET 0").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("zoe"))

		v, err := New(exec).Select("name").From("users").Where("id", 3).GetValue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "zoe", v)
	})

	t.Run("count", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT COUNT(id) AS total FROM users WHERE (deleted_at IS NULL)").
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(47)))

		n, err := New(exec).From("users").WhereNull("deleted_at").Count(ctx, "id")
		require.NoError(t, err)
		assert.Equal(t, int64(47), n)
	})

	t.Run("count after select fails without touching the database", func(t *testing.T) {
		exec, mock := newMockExecutor(t)

		_, err := New(exec).Select("id").From("users").Count(ctx)
		var qbErr *runtime.QueryBuilderError
		require.ErrorAs(t, err, &qbErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no executor", func(t *testing.T) {
		_, err := NewSelect(nil).From("users").Execute(ctx)
		assert.True(t, errors.Is(err, runtime.ErrNoConnection))
	})
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{nil, 0},
		{int64(5), 5},
		{int32(6), 6},
		{7, 7},
		{float64(8), 8},
		{"9", 9},
		{[]byte("10"), 10},
	}
	for _, tt := range tests {
		got, err := ToInt64(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ToInt64(struct{}{})
	assert.Error(t, err)
}
