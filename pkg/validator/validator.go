// Package validator evaluates field rules before a record is written.
package validator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/marshallshelly/babyorm/pkg/runtime"
)

var (
	uniqidPattern    = regexp.MustCompile(`^[a-zA-Z0-9]{14}$`)
	zipcodePattern   = regexp.MustCompile(`^(([0-8][0-9])|(9[0-5])|(2[abAB]))[0-9]{3}$`)
	telephonePattern = regexp.MustCompile(`^(?:(?:\+|00)33|0)\s*[1-9](?:[\s.-]*\d{2}){4}$`)

	passwordRules = []validation.Rule{
		validation.RuneLength(8, 0),
		validation.Match(regexp.MustCompile(`[a-z]`)),
		validation.Match(regexp.MustCompile(`[A-Z]`)),
		validation.Match(regexp.MustCompile(`[0-9]`)),
		validation.Match(regexp.MustCompile(`[!@+?#$%&*]`)),
	}

	dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly}
)

// Validator runs rules against field values and collects error messages.
// A Validator is not safe for concurrent use; create one per operation.
type Validator struct {
	counter      runtime.Executor
	makeAllTests bool
	logger       *slog.Logger
	errors       []string
}

// Option configures a Validator.
type Option func(*Validator)

// WithCounter sets the executor used by the exist rules.
func WithCounter(exec runtime.Executor) Option {
	return func(v *Validator) {
		v.counter = exec
	}
}

// WithMakeAllTests controls whether Execute keeps evaluating after the
// first failing rule. Defaults to true.
func WithMakeAllTests(all bool) Option {
	return func(v *Validator) {
		v.makeAllTests = all
	}
}

// WithLogger sets the logger used to report exist-rule query failures.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		makeAllTests: true,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Execute evaluates rules against value and reports whether all of them
// passed. Each failure appends one message naming field.
func (v *Validator) Execute(ctx context.Context, field string, value any, rules []Rule) bool {
	passed := true
	for _, rule := range rules {
		if rule.Kind != KindRequired && IsEmptyOrNull(value) {
			continue
		}

		if msg, ok := v.check(ctx, field, value, rule); !ok {
			v.errors = append(v.errors, msg)
			passed = false
			if !v.makeAllTests {
				return false
			}
		}
	}
	return passed
}

// Errors returns the accumulated messages in the order they were recorded.
func (v *Validator) Errors() []string {
	out := make([]string, len(v.errors))
	copy(out, v.errors)
	return out
}

// Clear drops every recorded message.
func (v *Validator) Clear() {
	v.errors = v.errors[:0]
}

func (v *Validator) check(ctx context.Context, field string, value any, rule Rule) (string, bool) {
	switch rule.Kind {
	case KindRequired:
		if IsEmptyOrNull(value) {
			return fmt.Sprintf("Field %s can not be empty or undefined", field), false
		}

	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("Field %s must be a string (received : %v)", field, value), false
		}

	case KindNumber:
		if validation.Validate(value, validation.By(isNumber)) != nil {
			return fmt.Sprintf("Field %s must be a number (received : %v)", field, value), false
		}

	case KindInteger:
		if validation.Validate(value, validation.By(isInteger)) != nil {
			return fmt.Sprintf("Field %s must be an integer (received : %v)", field, value), false
		}

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("Field %s must be a boolean (received : %v)", field, value), false
		}

	case KindDate:
		if !isDate(value) {
			return fmt.Sprintf("Field %s must be a Date (received : %v)", field, value), false
		}

	case KindObject:
		if !isObject(value) {
			return fmt.Sprintf("Field %s must be an Object (received : %v)", field, value), false
		}

	case KindMinLength:
		n := lengthOf(value)
		if n < rule.Length {
			return fmt.Sprintf("Length of %s must be greater or equal than %d (actual length : %d)", field, rule.Length, n), false
		}

	case KindMaxLength:
		n := lengthOf(value)
		if n > rule.Length {
			return fmt.Sprintf("Length of %s must be less than or equal to %d (actual length : %d)", field, rule.Length, n), false
		}

	case KindMinValue:
		f, ok := toFloat(value)
		if !ok || f < rule.Min {
			return fmt.Sprintf("Field %s must have a value greater than or equal to %s (received : %v)", field, formatFloat(rule.Min), value), false
		}

	case KindMaxValue:
		f, ok := toFloat(value)
		if !ok || f > rule.Max {
			return fmt.Sprintf("Field %s must have a value less than or equal to %s (received : %v)", field, formatFloat(rule.Max), value), false
		}

	case KindBetween:
		f, ok := toFloat(value)
		if !ok || f < rule.Min || f > rule.Max {
			return fmt.Sprintf("Field %s must have a value between %s and %s (received : %v)", field, formatFloat(rule.Min), formatFloat(rule.Max), value), false
		}

	case KindIn:
		allowed := make([]any, len(rule.Values))
		for i, s := range rule.Values {
			allowed[i] = s
		}
		if validation.Validate(fmt.Sprint(value), validation.In(allowed...)) != nil {
			return fmt.Sprintf("Field %s must be in the list : %s (received : %v)", field, strings.Join(rule.Values, ","), value), false
		}

	case KindUniqid:
		if validation.Validate(fmt.Sprint(value), validation.Match(uniqidPattern)) != nil {
			return fmt.Sprintf("Field %s must be a UniqId of database (received : %v)", field, value), false
		}

	case KindPassword:
		s, ok := value.(string)
		if !ok || validation.Validate(s, passwordRules...) != nil {
			return fmt.Sprintf("Field %s must be a correct password which contains minimum 8 char, 1 lowercase, 1 uppercase, 1 number and 1 special char (in : !@+?#$%%&*)", field), false
		}

	case KindEmail:
		s, ok := value.(string)
		if !ok || validation.Validate(s, is.EmailFormat) != nil {
			return fmt.Sprintf("Field %s must have an email format (received : %v)", field, value), false
		}

	case KindZipcode:
		if validation.Validate(fmt.Sprint(value), validation.Match(zipcodePattern)) != nil {
			return fmt.Sprintf("Field %s must be a french zipcode (received : %v)", field, value), false
		}

	case KindTelephone:
		if validation.Validate(fmt.Sprint(value), validation.Match(telephonePattern)) != nil {
			return fmt.Sprintf("Field %s must be a french number phone (received : %v)", field, value), false
		}

	case KindExist, KindExistNotDeleted, KindExistEnabled, KindExistEnabledNotDeleted:
		return v.exist(ctx, field, value, rule)

	default:
		return fmt.Sprintf("Field %s has an unknown validation rule %q", field, rule.Kind), false
	}

	return "", true
}

// IsEmptyOrNull reports whether value is nil, a nil pointer, or a string
// made only of whitespace.
func IsEmptyOrNull(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// lengthOf measures strings in runes and collections by element count.
// Any other value is measured through its printed form.
func lengthOf(value any) int {
	if n, err := validation.LengthOfValue(value); err == nil {
		if s, ok := value.(string); ok {
			return len([]rune(s))
		}
		return n
	}
	return len([]rune(fmt.Sprint(value)))
}

func isNumber(value any) error {
	if _, ok := toFloat(value); !ok {
		return validation.NewError("validation_is_number", "must be a number")
	}
	return nil
}

func isInteger(value any) error {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == float64(int64(f)) {
			return nil
		}
	}
	return validation.NewError("validation_is_integer", "must be an integer")
}

// toFloat accepts any numeric kind and numeric strings.
func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		return f, err == nil
	}
	return 0, false
}

func isDate(value any) bool {
	switch d := value.(type) {
	case time.Time:
		return !d.IsZero()
	case *time.Time:
		return d != nil && !d.IsZero()
	case string:
		for _, layout := range dateLayouts {
			if validation.Validate(d, validation.Date(layout)) == nil {
				return true
			}
		}
	}
	return false
}

func isObject(value any) bool {
	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		_, isTime := value.(time.Time)
		return !isTime
	}
	return false
}
