// Package config loads babyorm settings from defaults, a YAML file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

const (
	// DefaultFile is read when no config file is named and it exists.
	DefaultFile = "babyorm.yaml"
	// EnvPrefix prefixes babyorm's own environment variables. A double
	// underscore separates nesting levels: BABYORM_DATABASE__HOST.
	EnvPrefix = "BABYORM_"
)

// Config holds every setting of the library and the CLI.
type Config struct {
	Environment   string   `koanf:"environment"`
	ModelsDir     string   `koanf:"models_dir"`
	MigrationsDir string   `koanf:"migrations_dir"`
	LogLevel      string   `koanf:"log_level"`
	Database      Database `koanf:"database"`
}

// Database holds connection settings. URL wins over the discrete fields.
type Database struct {
	URL      string `koanf:"url"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
	MaxConns int32  `koanf:"max_conns"`
	MinConns int32  `koanf:"min_conns"`
}

// Options tells Load where to look.
type Options struct {
	// File is the YAML config file. Empty means DefaultFile when present.
	File string
	// EnvFile is a dotenv file loaded outside production. Empty means ".env".
	EnvFile string
	// Flags overrides every other source for the flags that were set.
	Flags *pflag.FlagSet
}

// pgEnv maps the libpq variables onto config keys.
var pgEnv = map[string]string{
	"PGHOST":     "database.host",
	"PGPORT":     "database.port",
	"PGDATABASE": "database.name",
	"PGUSER":     "database.user",
	"PGPASSWORD": "database.password",
	"PGSSLMODE":  "database.sslmode",
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"database-url":   "database.url",
	"models-dir":     "models_dir",
	"migrations-dir": "migrations_dir",
	"log-level":      "log_level",
	"env":            "environment",
}

func defaults() map[string]any {
	return map[string]any{
		"environment":        "development",
		"models_dir":         "models",
		"migrations_dir":     "database/migration",
		"log_level":          "info",
		"database.host":      "localhost",
		"database.port":      5432,
		"database.name":      "postgres",
		"database.user":      "postgres",
		"database.sslmode":   "prefer",
		"database.max_conns": 10,
		"database.min_conns": 2,
	}
}

// Load merges, lowest priority first: defaults, the config file, PG*
// variables, BABYORM_* variables and flags. The result is validated.
func Load(opts Options) (*Config, error) {
	if err := loadDotenv(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := opts.File
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("PG", ".", func(s string) string {
		return pgEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load PG env vars: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// loadDotenv reads the dotenv file unless BABYORM_ENVIRONMENT says
// production. Variables already set in the process are kept.
func loadDotenv(path string) error {
	if strings.EqualFold(os.Getenv(EnvPrefix+"ENVIRONMENT"), "production") {
		return nil
	}
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ModelsDir, validation.Required),
		validation.Field(&c.MigrationsDir, validation.Required),
		validation.Field(&c.LogLevel, validation.Required,
			validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Database),
	)
}

// Validate checks the connection settings.
func (d Database) Validate() error {
	if d.URL != "" {
		return nil
	}
	return validation.ValidateStruct(&d,
		validation.Field(&d.Host, validation.Required),
		validation.Field(&d.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.User, validation.Required),
		validation.Field(&d.SSLMode,
			validation.In("disable", "allow", "prefer", "require", "verify-ca", "verify-full")),
		validation.Field(&d.MinConns, validation.Min(int32(0))),
		validation.Field(&d.MaxConns, validation.Min(d.MinConns)),
	)
}

// Runtime converts the settings for runtime.Connect.
func (d Database) Runtime() *runtime.Config {
	return &runtime.Config{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Name,
		User:     d.User,
		Password: d.Password,
		SSLMode:  d.SSLMode,
		MaxConns: d.MaxConns,
		MinConns: d.MinConns,
	}
}

// DSN returns URL when set, otherwise a libpq keyword/value string.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return d.Runtime().ConnectionString()
}

// SlogLevel maps LogLevel onto a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
