package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/babyorm/pkg/config"
	"github.com/marshallshelly/babyorm/pkg/runtime"
)

var (
	// Global flags
	cfgFile    string
	jsonOutput bool

	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "babyorm",
	Short: "babyorm - lightweight PostgreSQL ORM tooling",
	Long: `babyorm manages the migrations and model files of a project using the
babyorm PostgreSQL ORM.

Configuration is read from babyorm.yaml, .env, PG* and BABYORM_* environment
variables, then flags.`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.Options{File: cfgFile, Flags: cmd.Flags()})
		if err != nil {
			return err
		}
		cfg = loaded
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
		logger.Debug("configuration loaded",
			"models_dir", cfg.ModelsDir,
			"migrations_dir", cfg.MigrationsDir,
			"environment", cfg.Environment)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (default babyorm.yaml when present)")
	flags.String("database-url", "", "Database connection URL")
	flags.String("models-dir", "", "Directory of *.model.yaml files")
	flags.String("migrations-dir", "", "Directory of migration files")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("env", "", "Environment name; production skips .env")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// connect opens a pool from the loaded configuration.
func connect(ctx context.Context) (*runtime.DB, error) {
	var (
		db  *runtime.DB
		err error
	)
	if cfg.Database.URL != "" {
		db, err = runtime.ConnectWithURL(ctx, cfg.Database.URL)
	} else {
		db, err = runtime.Connect(ctx, cfg.Database.Runtime())
	}
	if err != nil {
		return nil, err
	}
	return db.WithLogger(logger), nil
}
