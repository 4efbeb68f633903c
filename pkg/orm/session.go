package orm

import (
	"context"
	"fmt"
	"sort"

	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/marshallshelly/babyorm/pkg/schema"
	"github.com/marshallshelly/babyorm/pkg/validator"
)

// Session is one model instance: a private copy of the definition, its
// field state and the validation messages of the last write.
// A Session is not safe for concurrent use.
type Session struct {
	orm    *ORM
	def    *schema.Definition
	errors []string
}

// Name returns the model name.
func (s *Session) Name() string {
	return s.def.Name
}

// Definition returns the session's definition. Mutating it changes only
// this session.
func (s *Session) Definition() *schema.Definition {
	return s.def
}

// Get reads a field or a computed get<Name> method.
func (s *Session) Get(name string) (any, bool) {
	return s.def.Get(name)
}

// Set writes a fillable field.
func (s *Session) Set(name string, value any) error {
	return s.def.Set(name, value)
}

// Has reports whether name is a public field or method.
func (s *Session) Has(name string) bool {
	return s.def.Has(name)
}

// Fields returns the visible field state.
func (s *Session) Fields() schema.Record {
	return s.def.Visible()
}

// Errors returns the messages of the last failed validation.
func (s *Session) Errors() []string {
	out := make([]string, len(s.errors))
	copy(out, s.errors)
	return out
}

// Save persists the in-memory field state.
func (s *Session) Save(context.Context) error {
	return fmt.Errorf("save %s: %w", s.def.Name, runtime.ErrNotImplemented)
}

// validate runs the rules of every field accepted by check against values.
// The exist rules count through exec so they see the caller's transaction.
func (s *Session) validate(ctx context.Context, exec runtime.Executor, values schema.Record, check func(field string) bool) error {
	v := validator.New(
		validator.WithCounter(exec),
		validator.WithLogger(s.orm.logger),
	)
	for _, field := range s.def.ValidatedFields() {
		if check != nil && !check(field) {
			continue
		}
		v.Execute(ctx, field, values[field], s.def.Validations[field])
	}

	s.errors = v.Errors()
	if len(s.errors) > 0 {
		return &runtime.ValidationError{Model: s.def.Name, Errors: s.Errors()}
	}
	return nil
}

func sortedKeys(rec schema.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
