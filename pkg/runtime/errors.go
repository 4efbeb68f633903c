// Package runtime provides the execution layer and error types shared by the ORM.
package runtime

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrNotImplemented is returned by operations that are deliberately unsupported.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNoConnection is returned when no database connection is available.
	ErrNoConnection = errors.New("no database connection")
)

// ValidationError carries every rule failure collected for a mutation.
type ValidationError struct {
	Model  string
	Errors []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for model %s: %s", e.Model, strings.Join(e.Errors, "; "))
}

// ModelNotFoundError is returned when no definition is registered under a name.
type ModelNotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %s not found", e.Name)
}

// ProtectedFieldError is returned when a write targets a field outside the fillable set.
type ProtectedFieldError struct {
	Model string
	Field string
}

// Error implements the error interface.
func (e *ProtectedFieldError) Error() string {
	return fmt.Sprintf("field %s of model %s is protected", e.Field, e.Model)
}

// RelationNotFoundError is returned when a model declares no relation with the given name.
type RelationNotFoundError struct {
	Model    string
	Relation string
}

// Error implements the error interface.
func (e *RelationNotFoundError) Error() string {
	return fmt.Sprintf("relation %s not found on model %s", e.Relation, e.Model)
}

// QueryBuilderError reports structural misuse of the query builder.
// It is raised before any SQL reaches the database.
type QueryBuilderError struct {
	Message string
}

// Error implements the error interface.
func (e *QueryBuilderError) Error() string {
	return "query builder: " + e.Message
}

// NewQueryBuilderError creates a QueryBuilderError from a format string.
func NewQueryBuilderError(format string, args ...any) *QueryBuilderError {
	return &QueryBuilderError{Message: fmt.Sprintf(format, args...)}
}

// QueryExecutionError represents a statement the backend rejected or failed to run.
type QueryExecutionError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// ConnectionError is returned when the pool cannot be created or reached.
type ConnectionError struct {
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// MigrationError represents a migration error.
type MigrationError struct {
	Version string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration error (version %s): %s: %v", e.Version, e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}
