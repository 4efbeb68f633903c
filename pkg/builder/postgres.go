package builder

import (
	"fmt"
	"strings"
)

// PostgreSQL-specific predicates. Every value is bound as a parameter.

// JSONBContains checks if the JSONB column contains value.
func JSONBContains(column string, value any) Condition {
	return Op(column, OpContains, value)
}

// JSONBContainedBy checks if the JSONB column is contained by value.
func JSONBContainedBy(column string, value any) Condition {
	return Op(column, OpContainedBy, value)
}

// JSONBHasKey checks if the JSONB column has a top-level key.
func JSONBHasKey(column string, key string) Condition {
	return Op(column, OpHasKey, key)
}

// JSONBHasAnyKey checks if the JSONB column has any of the keys.
func JSONBHasAnyKey(column string, keys []string) Condition {
	return Op(column, OpHasAnyKey, keys)
}

// JSONBHasAllKeys checks if the JSONB column has all of the keys.
func JSONBHasAllKeys(column string, keys []string) Condition {
	return Op(column, OpHasAllKeys, keys)
}

// JSONBPath extracts value at specified path. Keys are written as quoted
// literals with any single quote doubled.
// Usage: JSONBPath("data", "user", "name") -> data->'user'->'name'
func JSONBPath(column string, path ...string) string {
	result := column
	for _, p := range path {
		result += fmt.Sprintf("->'%s'", quoteKey(p))
	}
	return result
}

// JSONBPathText extracts value at specified path as text. Keys are quoted
// the same way as JSONBPath.
// Usage: JSONBPathText("data", "user", "name") -> data->'user'->>'name'
func JSONBPathText(column string, path ...string) string {
	if len(path) == 0 {
		return column
	}
	result := column
	for i, p := range path {
		if i == len(path)-1 {
			result += fmt.Sprintf("->>'%s'", quoteKey(p))
		} else {
			result += fmt.Sprintf("->'%s'", quoteKey(p))
		}
	}
	return result
}

func quoteKey(key string) string {
	return strings.ReplaceAll(key, "'", "''")
}

// ArrayContains checks if the array column contains every element of value.
func ArrayContains(column string, value any) Condition {
	return Op(column, OpContains, value)
}

// ArrayContainedBy checks if the array column is contained by value.
func ArrayContainedBy(column string, value any) Condition {
	return Op(column, OpContainedBy, value)
}

// ArrayOverlap checks if arrays have common elements.
func ArrayOverlap(column string, value any) Condition {
	return Op(column, OpOverlap, value)
}

// RegexpMatch checks if string matches regex pattern.
func RegexpMatch(column string, pattern string) Condition {
	return Op(column, OpRegexMatch, pattern)
}

// RegexpMatchInsensitive checks if string matches regex pattern (case-insensitive).
func RegexpMatchInsensitive(column string, pattern string) Condition {
	return Op(column, OpRegexIMatch, pattern)
}

// RegexpNotMatch checks if string doesn't match regex pattern.
func RegexpNotMatch(column string, pattern string) Condition {
	return Op(column, OpRegexNotMatch, pattern)
}

// TSMatch performs a full-text match of column against a bound tsquery.
func TSMatch(column string, query string) Condition {
	return Op(fmt.Sprintf("to_tsvector(%s)", column), OpTSMatch, query)
}
