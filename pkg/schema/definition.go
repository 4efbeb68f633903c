// Package schema holds model definitions and the record accessors the ORM
// applies to them.
package schema

import (
	"maps"
	"slices"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/marshallshelly/babyorm/pkg/ident"
	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/marshallshelly/babyorm/pkg/validator"
)

// Record is a row or a set of field values keyed by column name.
type Record map[string]any

// PrimaryKeyStrategy tells the ORM who produces the id of a new row.
type PrimaryKeyStrategy string

const (
	// PrimaryKeyAutoIncrement leaves the id to the database.
	PrimaryKeyAutoIncrement PrimaryKeyStrategy = "autoincrement"
	// PrimaryKeyGenerated makes the ORM bind a generated id on insert.
	PrimaryKeyGenerated PrimaryKeyStrategy = "generated"
)

// Relation links a model to a row of another model.
type Relation struct {
	Model        string `yaml:"model" json:"model"`
	LocalField   string `yaml:"local_field" json:"localField"`
	DistantField string `yaml:"distant_field" json:"distantField"`
}

// Method computes a derived value from the current field state.
type Method func(fields Record) any

// Definition is the metadata of one model plus its in-memory field state.
type Definition struct {
	Name        string
	Table       string
	PrimaryKey  PrimaryKeyStrategy
	IDFormat    string // ident format for generated keys; "" uses the ORM generator
	Timestamps  bool
	SoftDelete  bool
	Fillable    []string // nil means no field can be filled
	Hidden      []string
	Validations map[string][]validator.Rule
	Relations   map[string]Relation
	Fields      Record
	Methods     map[string]Method
}

// New returns a definition for name with every default applied.
func New(name string) *Definition {
	return &Definition{
		Name:        name,
		Table:       name,
		PrimaryKey:  PrimaryKeyAutoIncrement,
		Timestamps:  true,
		Hidden:      []string{},
		Validations: map[string][]validator.Rule{},
		Relations:   map[string]Relation{},
		Fields:      Record{},
		Methods:     map[string]Method{},
	}
}

// Validate checks that the definition is usable by the ORM.
func (d *Definition) Validate() error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Table, validation.Required),
		validation.Field(&d.PrimaryKey, validation.Required,
			validation.In(PrimaryKeyAutoIncrement, PrimaryKeyGenerated)),
		validation.Field(&d.IDFormat, validation.In(ident.FormatUniqid, ident.FormatUUID)),
	); err != nil {
		return err
	}

	for name, rel := range d.Relations {
		if err := validation.ValidateStruct(&rel,
			validation.Field(&rel.Model, validation.Required),
			validation.Field(&rel.LocalField, validation.Required),
			validation.Field(&rel.DistantField, validation.Required),
		); err != nil {
			return validation.Errors{"relations." + name: err}
		}
	}
	return nil
}

// IsFillable reports whether name may be written through Fill or Set.
func (d *Definition) IsFillable(name string) bool {
	return d.Fillable != nil && slices.Contains(d.Fillable, name)
}

// IsHidden reports whether name is left out of the visible projection.
func (d *Definition) IsHidden(name string) bool {
	return slices.Contains(d.Hidden, name)
}

// GetField returns the current value of name, or nil.
func (d *Definition) GetField(name string) any {
	return d.Fields[name]
}

// Get looks name up in the fields first, then calls a get<Name> method.
func (d *Definition) Get(name string) (any, bool) {
	if v, ok := d.Fields[name]; ok {
		return v, true
	}
	if m, ok := d.Methods[getterName(name)]; ok && m != nil {
		return m(d.Fields), true
	}
	return nil, false
}

// Set writes a single field. Fields outside the fillable set are refused.
func (d *Definition) Set(name string, value any) error {
	if !d.IsFillable(name) {
		return &runtime.ProtectedFieldError{Model: d.Name, Field: name}
	}
	if d.Fields == nil {
		d.Fields = Record{}
	}
	d.Fields[name] = value
	return nil
}

// Has reports whether name is a field or a method. Names starting with
// an underscore are private and never reported.
func (d *Definition) Has(name string) bool {
	if strings.HasPrefix(name, "_") {
		return false
	}
	if _, ok := d.Fields[name]; ok {
		return true
	}
	_, ok := d.Methods[name]
	return ok
}

// Fill copies the fillable keys of data into the fields and returns them.
func (d *Definition) Fill(data Record) Record {
	accepted := Record{}
	for k, v := range data {
		if d.IsFillable(k) {
			accepted[k] = v
		}
	}
	d.merge(accepted)
	return accepted
}

// Complete copies every non-hidden key of data into the fields and returns
// them. It hydrates the definition from a row read back from the database.
func (d *Definition) Complete(data Record) Record {
	accepted := Record{}
	for k, v := range data {
		if !d.IsHidden(k) {
			accepted[k] = v
		}
	}
	d.merge(accepted)
	return accepted
}

func (d *Definition) merge(values Record) {
	if d.Fields == nil {
		d.Fields = Record{}
	}
	maps.Copy(d.Fields, values)
}

// Visible returns a copy of the fields without hidden or private ones.
func (d *Definition) Visible() Record {
	return d.Project(d.Fields)
}

// Project applies the hidden-field policy to any record.
func (d *Definition) Project(rec Record) Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		if d.IsHidden(k) || strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

// Keys returns the visible field names, sorted.
func (d *Definition) Keys() []string {
	keys := make([]string, 0, len(d.Fields))
	for k := range d.Visible() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidatedFields returns the names that carry rules, sorted.
func (d *Definition) ValidatedFields() []string {
	names := make([]string, 0, len(d.Validations))
	for k := range d.Validations {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that shares no mutable state with d.
func (d *Definition) Clone() *Definition {
	c := *d
	if d.Fillable != nil {
		c.Fillable = slices.Clone(d.Fillable)
	}
	c.Hidden = slices.Clone(d.Hidden)
	c.Validations = make(map[string][]validator.Rule, len(d.Validations))
	for k, rules := range d.Validations {
		c.Validations[k] = slices.Clone(rules)
	}
	c.Relations = maps.Clone(d.Relations)
	c.Fields = maps.Clone(d.Fields)
	c.Methods = maps.Clone(d.Methods)
	if c.Relations == nil {
		c.Relations = map[string]Relation{}
	}
	if c.Fields == nil {
		c.Fields = Record{}
	}
	if c.Methods == nil {
		c.Methods = map[string]Method{}
	}
	return &c
}

func getterName(field string) string {
	if field == "" {
		return "get"
	}
	return "get" + strings.ToUpper(field[:1]) + field[1:]
}
