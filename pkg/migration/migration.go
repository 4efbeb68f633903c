// Package migration creates, reads and applies YAML migration files.
//
// A migration file is named <version>_<name>.yaml, where version is a
// YYYYMMDDHHmmss timestamp, and lists the statements to run:
//
//	queries:
//	  - CREATE TABLE users (id SERIAL PRIMARY KEY)
//	down:
//	  - DROP TABLE IF EXISTS users
package migration

import (
	"fmt"
	"regexp"
	"time"
)

// VersionLayout formats migration versions.
const VersionLayout = "20060102150405"

var (
	fileNamePattern = regexp.MustCompile(`^(\d{14})_([A-Za-z0-9_-]+)\.ya?ml$`)
	namePattern     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// File is the on-disk document of a migration.
type File struct {
	Queries []string `yaml:"queries"`
	Down    []string `yaml:"down,omitempty"`
}

// Migration is a parsed migration file.
type Migration struct {
	Version string
	Name    string
	Path    string
	Queries []string
	Down    []string
}

// MigrationFile locates a migration on disk without reading it.
type MigrationFile struct {
	Version string `json:"version"`
	Name    string `json:"name"`
	Path    string `json:"path"`
}

// Kind selects the template of a new migration.
type Kind string

const (
	KindCreate Kind = "create"
	KindAlter  Kind = "alter"
)

// ParseKind accepts "create" and "alter". Empty means create.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindCreate:
		return KindCreate, nil
	case KindAlter:
		return KindAlter, nil
	}
	return "", fmt.Errorf("unknown migration kind %q (expected create or alter)", s)
}

// MigrationStatus is the state of a migration in schema_migrations.
type MigrationStatus string

const (
	StatusPending MigrationStatus = "pending"
	StatusApplied MigrationStatus = "applied"
	StatusFailed  MigrationStatus = "failed"
)

// MigrationRecord is one row of schema_migrations, or a pending file.
type MigrationRecord struct {
	Version   string          `db:"version" json:"version"`
	Name      string          `db:"name" json:"name"`
	Status    MigrationStatus `db:"status" json:"status"`
	AppliedAt *time.Time      `db:"applied_at" json:"appliedAt,omitempty"`
	Error     *string         `db:"error" json:"error,omitempty"`
}

// GenerateVersion formats t as a migration version.
func GenerateVersion(t time.Time) string {
	return t.Format(VersionLayout)
}

// GenerateFileName returns "<version>_<name>.yaml".
func GenerateFileName(version, name string) string {
	return version + "_" + name + ".yaml"
}

// parseFileName splits a migration file name into version and name.
func parseFileName(fileName string) (version, name string, ok bool) {
	m := fileNamePattern.FindStringSubmatch(fileName)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
