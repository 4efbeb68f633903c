package builder

import (
	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// DB binds query builders to an executor.
type DB struct {
	exec runtime.Executor
}

// New creates a query builder DB from an executor.
func New(exec runtime.Executor) *DB {
	return &DB{exec: exec}
}

// Executor returns the underlying executor.
func (d *DB) Executor() runtime.Executor {
	return d.exec
}

// Query starts an empty SELECT.
// Usage: db.Query().From("users").Where("age", 30).Execute(ctx)
func (d *DB) Query() *SelectQuery {
	return NewSelect(d.exec)
}

// Select starts a SELECT of the given fields.
func (d *DB) Select(fields ...string) *SelectQuery {
	return NewSelect(d.exec).Select(fields...)
}

// From starts a SELECT * from table.
func (d *DB) From(table string, alias ...string) *SelectQuery {
	return NewSelect(d.exec).From(table, alias...)
}

// Insert starts an INSERT into table.
func (d *DB) Insert(table string) *InsertQuery {
	return NewInsert(d.exec, table)
}

// Update starts an UPDATE of table.
func (d *DB) Update(table string) *UpdateQuery {
	return NewUpdate(d.exec, table)
}

// Delete starts a DELETE from table.
func (d *DB) Delete(table string) *DeleteQuery {
	return NewDelete(d.exec, table)
}
