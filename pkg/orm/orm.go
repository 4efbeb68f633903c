// Package orm runs create, find, update, upsert, delete, paginate and
// relation-load operations for registered models.
//
// Usage:
//
//	db := orm.New(executor)
//	users, err := db.Model("user")
//	if err != nil {
//	    return err
//	}
//	rec, err := users.Create(ctx, schema.Record{"name": "Ann"})
package orm

import (
	"io"
	"log/slog"
	"time"

	"github.com/marshallshelly/babyorm/pkg/ident"
	"github.com/marshallshelly/babyorm/pkg/registry"
	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// autoFillable are the columns the ORM manages itself. They are written
// from caller data only with the Force option.
var autoFillable = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"deleted_at": true,
}

// ORM binds an executor to a model registry. It holds no per-call state and
// is safe for concurrent use.
type ORM struct {
	exec     runtime.Executor
	registry *registry.Registry
	logger   *slog.Logger
	newID    ident.Generator
	now      func() time.Time
}

// Option configures an ORM.
type Option func(*ORM)

// WithRegistry sets the registry models are looked up in.
// Defaults to the global registry.
func WithRegistry(r *registry.Registry) Option {
	return func(o *ORM) {
		o.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *ORM) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator sets the generator for models without autoincrement ids.
func WithIDGenerator(gen ident.Generator) Option {
	return func(o *ORM) {
		o.newID = gen
	}
}

// WithClock sets the time source used for timestamps and soft deletes.
func WithClock(now func() time.Time) Option {
	return func(o *ORM) {
		o.now = now
	}
}

// New creates an ORM running statements through exec.
func New(exec runtime.Executor, opts ...Option) *ORM {
	o := &ORM{
		exec:     exec,
		registry: registry.Default(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:    ident.Default,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Model starts a session on a fresh copy of the named definition.
// Sessions never share field state.
func (o *ORM) Model(name string) (*Session, error) {
	def, err := o.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return &Session{orm: o, def: def}, nil
}

// Registry returns the registry models are resolved from.
func (o *ORM) Registry() *registry.Registry {
	return o.registry
}
