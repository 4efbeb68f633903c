package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/marshallshelly/babyorm/pkg/validator"
)

// StructTagKey is the struct tag read by FromStruct and Decode,
// e.g. `orm:"email,fillable,validate=required|email"`. The validate option
// must come last.
const StructTagKey = "orm"

type tagOptions struct {
	column   string
	fillable bool
	hidden   bool
	rules    []string
}

// parseTag splits on commas until validate=, which takes the rest of the
// tag so rule arguments such as between:1,10 keep their commas.
func parseTag(tag string) tagOptions {
	column, rest, _ := strings.Cut(tag, ",")
	opts := tagOptions{column: strings.TrimSpace(column)}
	for rest != "" {
		var part string
		if r, ok := strings.CutPrefix(strings.TrimSpace(rest), "validate="); ok {
			opts.rules = strings.Split(r, "|")
			break
		}
		part, rest, _ = strings.Cut(rest, ",")
		switch strings.TrimSpace(part) {
		case "fillable":
			opts.fillable = true
		case "hidden":
			opts.hidden = true
		}
	}
	return opts
}

// FromStruct builds a definition for name from the orm tags of a struct.
// Untagged fields are ignored; "-" skips a field explicitly.
func FromStruct(name string, model any) (*Definition, error) {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %T", model)
	}

	def := New(name)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup(StructTagKey)
		if !field.IsExported() || !ok || tag == "-" {
			continue
		}

		opts := parseTag(tag)
		if opts.column == "" {
			return nil, fmt.Errorf("field %s: missing column name", field.Name)
		}
		if opts.fillable {
			def.Fillable = append(def.Fillable, opts.column)
		}
		if opts.hidden {
			def.Hidden = append(def.Hidden, opts.column)
		}
		if len(opts.rules) > 0 {
			rules, err := validator.ParseRules(opts.rules)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			def.Validations[opts.column] = rules
		}
	}
	return def, nil
}

// Decode copies rec into the orm-tagged fields of the struct dst points to.
// Columns without a matching field are ignored.
func Decode(rec Record, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a non-nil pointer to struct, got %T", dst)
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup(StructTagKey)
		if !field.IsExported() || !ok || tag == "-" {
			continue
		}
		column := parseTag(tag).column
		raw, ok := rec[column]
		if !ok || raw == nil {
			continue
		}
		if err := assign(v.Field(i), raw); err != nil {
			return fmt.Errorf("column %s: %w", column, err)
		}
	}
	return nil
}

func assign(dst reflect.Value, raw any) error {
	src := reflect.ValueOf(raw)

	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && convertible(src.Kind(), dst.Kind()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", raw, dst.Type())
	}
	return nil
}

// convertible allows conversions between numeric kinds and between
// values of the same kind. An int is never turned into a string.
func convertible(from, to reflect.Kind) bool {
	isNumber := func(k reflect.Kind) bool {
		return k >= reflect.Int && k <= reflect.Float64
	}
	if isNumber(from) && isNumber(to) {
		return true
	}
	return from == to
}
