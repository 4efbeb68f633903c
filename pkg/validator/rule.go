package validator

import (
	"fmt"
	"strconv"
	"strings"
)

// RuleKind identifies a validation rule.
type RuleKind string

// Supported rule kinds. The string values are the names used in model files.
const (
	KindRequired               RuleKind = "required"
	KindString                 RuleKind = "string"
	KindNumber                 RuleKind = "number"
	KindInteger                RuleKind = "integer"
	KindBoolean                RuleKind = "boolean"
	KindDate                   RuleKind = "date"
	KindObject                 RuleKind = "object"
	KindMinLength              RuleKind = "minLength"
	KindMaxLength              RuleKind = "maxLength"
	KindMinValue               RuleKind = "minValue"
	KindMaxValue               RuleKind = "maxValue"
	KindBetween                RuleKind = "between"
	KindIn                     RuleKind = "in"
	KindUniqid                 RuleKind = "uniqid"
	KindPassword               RuleKind = "password"
	KindEmail                  RuleKind = "email"
	KindZipcode                RuleKind = "zipcode"
	KindTelephone              RuleKind = "telephone"
	KindExist                  RuleKind = "exist"
	KindExistNotDeleted        RuleKind = "existNotDeleted"
	KindExistEnabled           RuleKind = "existEnabled"
	KindExistEnabledNotDeleted RuleKind = "existEnabledNotDeleted"
)

// Rule is a parsed validation rule. Only the payload fields relevant to
// Kind are set.
type Rule struct {
	Kind   RuleKind
	Length int
	Min    float64
	Max    float64
	Values []string
	Table  string
	Column string
}

// Required rejects nil values, nil pointers and blank strings.
func Required() Rule { return Rule{Kind: KindRequired} }

// String requires a Go string.
func String() Rule { return Rule{Kind: KindString} }

// Number requires any integer or floating point value.
func Number() Rule { return Rule{Kind: KindNumber} }

// Integer requires a whole number.
func Integer() Rule { return Rule{Kind: KindInteger} }

// Boolean requires a bool.
func Boolean() Rule { return Rule{Kind: KindBoolean} }

// Date requires a non-zero time.Time or a parseable date string.
func Date() Rule { return Rule{Kind: KindDate} }

// Object requires a map, struct, slice or array other than a time.Time.
func Object() Rule { return Rule{Kind: KindObject} }

// Uniqid requires a 14 character alphanumeric key, the format of generated ids.
func Uniqid() Rule { return Rule{Kind: KindUniqid} }

// Password requires 8 or more characters with a lowercase letter, an
// uppercase letter, a digit and one of !@+?#$%&*.
func Password() Rule { return Rule{Kind: KindPassword} }

// Email requires an email address.
func Email() Rule { return Rule{Kind: KindEmail} }

// Zipcode requires a French postal code, Corsican 2A/2B included.
func Zipcode() Rule { return Rule{Kind: KindZipcode} }

// Telephone requires a French phone number, local or +33/0033 prefixed.
func Telephone() Rule { return Rule{Kind: KindTelephone} }

// MinLength requires at least n characters (or elements).
func MinLength(n int) Rule { return Rule{Kind: KindMinLength, Length: n} }

// MaxLength allows at most n characters (or elements).
func MaxLength(n int) Rule { return Rule{Kind: KindMaxLength, Length: n} }

// MinValue requires a numeric value >= min.
func MinValue(min float64) Rule { return Rule{Kind: KindMinValue, Min: min} }

// MaxValue requires a numeric value <= max.
func MaxValue(max float64) Rule { return Rule{Kind: KindMaxValue, Max: max} }

// Between requires min <= value <= max.
func Between(min, max float64) Rule { return Rule{Kind: KindBetween, Min: min, Max: max} }

// In restricts the value to an allow-list, compared in string form.
func In(values ...string) Rule { return Rule{Kind: KindIn, Values: values} }

// Exist requires a row of table whose column equals the value.
func Exist(table, column string) Rule {
	return Rule{Kind: KindExist, Table: table, Column: column}
}

// ExistNotDeleted is Exist restricted to rows with a NULL deleted_at.
func ExistNotDeleted(table, column string) Rule {
	return Rule{Kind: KindExistNotDeleted, Table: table, Column: column}
}

// ExistEnabled is Exist restricted to rows with enabled = TRUE.
func ExistEnabled(table, column string) Rule {
	return Rule{Kind: KindExistEnabled, Table: table, Column: column}
}

// ExistEnabledNotDeleted combines ExistEnabled and ExistNotDeleted.
func ExistEnabledNotDeleted(table, column string) Rule {
	return Rule{Kind: KindExistEnabledNotDeleted, Table: table, Column: column}
}

// String renders the rule in model-file syntax, e.g. "between:1,10".
func (r Rule) String() string {
	switch r.Kind {
	case KindMinLength, KindMaxLength:
		return fmt.Sprintf("%s:%d", r.Kind, r.Length)
	case KindMinValue:
		return fmt.Sprintf("%s:%s", r.Kind, formatFloat(r.Min))
	case KindMaxValue:
		return fmt.Sprintf("%s:%s", r.Kind, formatFloat(r.Max))
	case KindBetween:
		return fmt.Sprintf("%s:%s,%s", r.Kind, formatFloat(r.Min), formatFloat(r.Max))
	case KindIn:
		return fmt.Sprintf("%s:%s", r.Kind, strings.Join(r.Values, ","))
	case KindExist, KindExistNotDeleted, KindExistEnabled, KindExistEnabledNotDeleted:
		return fmt.Sprintf("%s:%s,%s", r.Kind, r.Table, r.Column)
	default:
		return string(r.Kind)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseRule.
func (r *Rule) UnmarshalText(text []byte) error {
	parsed, err := ParseRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRule parses "name" or "name:argument". The argument may hold
// comma-separated parts, as in "between:1,10" or "exist:users,id".
func ParseRule(s string) (Rule, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	kind := RuleKind(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	needArg := func() error {
		if !hasArg || arg == "" {
			return fmt.Errorf("rule %s requires an argument", kind)
		}
		return nil
	}

	switch kind {
	case KindRequired, KindString, KindNumber, KindInteger, KindBoolean, KindDate, KindObject,
		KindUniqid, KindPassword, KindEmail, KindZipcode, KindTelephone:
		return Rule{Kind: kind}, nil

	case KindMinLength, KindMaxLength:
		if err := needArg(); err != nil {
			return Rule{}, err
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return Rule{}, fmt.Errorf("rule %s: invalid length %q", kind, arg)
		}
		return Rule{Kind: kind, Length: n}, nil

	case KindMinValue, KindMaxValue:
		if err := needArg(); err != nil {
			return Rule{}, err
		}
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: invalid number %q", kind, arg)
		}
		if kind == KindMinValue {
			return MinValue(f), nil
		}
		return MaxValue(f), nil

	case KindBetween:
		if err := needArg(); err != nil {
			return Rule{}, err
		}
		parts := splitArg(arg)
		if len(parts) != 2 {
			return Rule{}, fmt.Errorf("rule between: expected min,max, got %q", arg)
		}
		min, err1 := strconv.ParseFloat(parts[0], 64)
		max, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return Rule{}, fmt.Errorf("rule between: invalid bounds %q", arg)
		}
		if min > max {
			return Rule{}, fmt.Errorf("rule between: min %s is greater than max %s", parts[0], parts[1])
		}
		return Between(min, max), nil

	case KindIn:
		if err := needArg(); err != nil {
			return Rule{}, err
		}
		return In(splitArg(arg)...), nil

	case KindExist, KindExistNotDeleted, KindExistEnabled, KindExistEnabledNotDeleted:
		if err := needArg(); err != nil {
			return Rule{}, err
		}
		parts := splitArg(arg)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return Rule{}, fmt.Errorf("rule %s: expected table,column, got %q", kind, arg)
		}
		return Rule{Kind: kind, Table: parts[0], Column: parts[1]}, nil

	default:
		return Rule{}, fmt.Errorf("unknown validation rule %q", name)
	}
}

// ParseRules parses every entry, failing on the first invalid one.
func ParseRules(specs []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func splitArg(arg string) []string {
	parts := strings.Split(arg, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
