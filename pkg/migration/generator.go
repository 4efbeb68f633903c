package migration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const fileHeader = "# auto-generated migration\n"

// Generator creates and reads migration files in one directory.
type Generator struct {
	migrationsDir string
	now           func() time.Time
}

// NewGenerator creates a generator for migrationsDir.
func NewGenerator(migrationsDir string) *Generator {
	return &Generator{
		migrationsDir: migrationsDir,
		now:           time.Now,
	}
}

// WithClock sets the time source used for new versions.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Dir returns the migrations directory.
func (g *Generator) Dir() string {
	return g.migrationsDir
}

// Create writes a template migration for table. An empty table defaults to
// "tablename". Existing files are never overwritten.
func (g *Generator) Create(name, table string, kind Kind) (*MigrationFile, error) {
	if err := validation.Validate(name,
		validation.Required,
		validation.Match(namePattern).Error("must contain only letters, digits, '_' or '-'"),
	); err != nil {
		return nil, fmt.Errorf("invalid migration name %q: %w", name, err)
	}
	if table == "" {
		table = "tablename"
	}
	if kind == "" {
		kind = KindCreate
	}

	if err := os.MkdirAll(g.migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := GenerateVersion(g.now())
	mf := &MigrationFile{
		Version: version,
		Name:    name,
		Path:    filepath.Join(g.migrationsDir, GenerateFileName(version, name)),
	}

	content, err := renderTemplate(table, kind)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(mf.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write migration file: %w", err)
	}
	return mf, nil
}

func renderTemplate(table string, kind Kind) ([]byte, error) {
	var doc File
	switch kind {
	case KindCreate:
		doc.Queries = []string{fmt.Sprintf(`CREATE TABLE %s (
  id SERIAL PRIMARY KEY,
  field VARCHAR(64) NOT NULL,
  created_at TIMESTAMP NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP DEFAULT NULL,
  deleted_at TIMESTAMP DEFAULT NULL
)`, table)}
		doc.Down = []string{fmt.Sprintf("DROP TABLE IF EXISTS %s", table)}
	case KindAlter:
		doc.Queries = []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN field VARCHAR(64) DEFAULT NULL", table)}
		doc.Down = []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS field", table)}
	default:
		return nil, fmt.Errorf("unknown migration kind %q", kind)
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode migration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ListMigrations returns the migration files of the directory sorted by
// version. Other files are ignored. A missing directory has no migrations.
func (g *Generator) ListMigrations() ([]MigrationFile, error) {
	entries, err := os.ReadDir(g.migrationsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []MigrationFile{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := []MigrationFile{}
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, ok := parseFileName(entry.Name())
		if !ok {
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %s: %s and %s", version, other, entry.Name())
		}
		seen[version] = entry.Name()
		migrations = append(migrations, MigrationFile{
			Version: version,
			Name:    name,
			Path:    filepath.Join(g.migrationsDir, entry.Name()),
		})
	}

	slices.SortFunc(migrations, func(a, b MigrationFile) int {
		return strings.Compare(a.Version, b.Version)
	})
	return migrations, nil
}

// ReadMigration parses a migration file. A file without queries is an error.
func (g *Generator) ReadMigration(file MigrationFile) (*Migration, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration %s: %w", file.Path, err)
	}

	var doc File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse migration %s: %w", file.Path, err)
	}

	queries := compact(doc.Queries)
	if len(queries) == 0 {
		return nil, fmt.Errorf("migration %s has no queries", file.Path)
	}

	return &Migration{
		Version: file.Version,
		Name:    file.Name,
		Path:    file.Path,
		Queries: queries,
		Down:    compact(doc.Down),
	}, nil
}

// LoadAll lists and reads every migration.
func (g *Generator) LoadAll() ([]Migration, error) {
	files, err := g.ListMigrations()
	if err != nil {
		return nil, err
	}
	migrations := make([]Migration, 0, len(files))
	for _, f := range files {
		m, err := g.ReadMigration(f)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, *m)
	}
	return migrations, nil
}

// compact trims each statement and drops the empty ones.
func compact(stmts []string) []string {
	out := make([]string, 0, len(stmts))
	for _, s := range stmts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
