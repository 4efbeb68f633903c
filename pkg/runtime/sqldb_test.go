package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSQLDB(t *testing.T) (*SQLDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLDB(db), mock
}

func TestSQLDB_Query(t *testing.T) {
	exec, mock := newMockSQLDB(t)

	mock.ExpectQuery("SELECT id, name FROM users WHERE (age = $1)").
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("alice")).
			AddRow(int64(2), "bob"))

	result, err := exec.Query(context.Background(), "SELECT id, name FROM users WHERE (age = $1)", 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, result.Columns)
	assert.Equal(t, int64(2), result.RowCount)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "alice", result.Rows[0]["name"], "byte slices are returned as strings")
	assert.Equal(t, int64(2), result.Rows[1]["id"])
	assert.Equal(t, result.Rows[0], result.First())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDB_QueryEmpty(t *testing.T) {
	exec, mock := newMockSQLDB(t)

	mock.ExpectQuery("SELECT * FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := exec.Query(context.Background(), "SELECT * FROM users")
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Nil(t, result.First())
}

func TestSQLDB_QueryError(t *testing.T) {
	exec, mock := newMockSQLDB(t)
	backend := errors.New("relation \"missing\" does not exist")

	mock.ExpectQuery("SELECT * FROM missing").WillReturnError(backend)

	_, err := exec.Query(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)

	var qerr *QueryExecutionError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "SELECT * FROM missing", qerr.Query)
	assert.ErrorIs(t, err, backend)
}

func TestSQLDB_Exec(t *testing.T) {
	exec, mock := newMockSQLDB(t)

	mock.ExpectExec("DELETE FROM users WHERE (id = $1)").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := exec.Exec(context.Background(), "DELETE FROM users WHERE (id = $1)", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDB_InTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		exec, mock := newMockSQLDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users SET name = $1").
			WithArgs("x").
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := exec.InTx(context.Background(), func(tx Executor) error {
			_, err := tx.Exec(context.Background(), "UPDATE users SET name = $1", "x")
			return err
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		exec, mock := newMockSQLDB(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := exec.InTx(context.Background(), func(tx Executor) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
