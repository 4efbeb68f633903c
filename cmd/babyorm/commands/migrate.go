package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/babyorm/cmd/babyorm/output"
	"github.com/marshallshelly/babyorm/cmd/babyorm/tui"
	"github.com/marshallshelly/babyorm/pkg/migration"
)

var (
	// Migrate flags
	dryRun      bool
	steps       int
	interactive bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply, roll back and inspect the YAML migrations of the migrations directory.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back applied migrations
  status  - Show migration status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply pending migrations in version order. Each file runs in its own
transaction and the run stops at the first failure.

Examples:
  babyorm migrate up               # Apply every pending migration
  babyorm migrate up --steps 1     # Apply the next migration only
  babyorm migrate up --dry-run     # List what would be applied
  babyorm migrate up -i            # Pick migrations interactively`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateUp(cmd.Context())
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	Long: `Roll back the most recently applied migrations using their down queries.

Examples:
  babyorm migrate down             # Roll back the last migration
  babyorm migrate down --steps 3   # Roll back the last three`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateDown(cmd.Context())
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateStatus(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	migrateUpCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Choose migrations in an interactive list")
	migrateUpCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview migrations without applying")
	migrateUpCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to apply (0 = all)")

	migrateDownCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview rollback without executing")
	migrateDownCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
}

// session bundles what every migrate subcommand needs.
type session struct {
	executor   *migration.Executor
	migrations []migration.Migration
	close      func()
}

func openSession(ctx context.Context) (*session, error) {
	migrations, err := migration.NewGenerator(cfg.MigrationsDir).LoadAll()
	if err != nil {
		return nil, err
	}

	db, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	executor := migration.NewExecutor(db.Pool()).WithLogger(logger)
	if err := executor.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &session{executor: executor, migrations: migrations, close: db.Close}, nil
}

func runMigrateUp(ctx context.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if len(s.migrations) == 0 {
		output.Warning("No migrations found in %s", cfg.MigrationsDir)
		return nil
	}

	status, err := s.executor.GetStatus(ctx, s.migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	if interactive {
		return tui.RunMigrateUI(ctx, s.executor, s.migrations, status)
	}

	applied := make(map[string]bool)
	for _, r := range status {
		if r.Status == migration.StatusApplied {
			applied[r.Version] = true
		}
	}
	toApply := migration.Pending(s.migrations, applied)
	if steps > 0 && len(toApply) > steps {
		toApply = toApply[:steps]
	}

	if len(toApply) == 0 {
		output.Info("No pending migrations")
		return nil
	}

	if dryRun {
		output.Section("DRY RUN - Preview")
		for _, m := range toApply {
			output.Muted("  %s %s - %s (%d queries)", output.StatusIcon("pending"), m.Version, m.Name, len(m.Queries))
		}
		return nil
	}

	if err := s.executor.Lock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.executor.Unlock(context.WithoutCancel(ctx)) }()

	output.Section("Applying Migrations")
	for _, m := range toApply {
		start := time.Now()
		if err := s.executor.Apply(ctx, m, false); err != nil {
			output.Error("%s - %s", m.Version, m.Name)
			return err
		}
		output.Success("%s - %s (%s)", m.Version, m.Name, time.Since(start).Round(time.Millisecond))
	}

	output.Success("End of migration, %d file(s) imported", len(toApply))
	return nil
}

func runMigrateDown(ctx context.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	applied, err := s.executor.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		output.Info("No migrations to roll back")
		return nil
	}

	byVersion := make(map[string]migration.Migration, len(s.migrations))
	for _, m := range s.migrations {
		byVersion[m.Version] = m
	}

	n := min(max(steps, 1), len(applied))
	targets := make([]migration.Migration, 0, n)
	for i := len(applied) - 1; i >= len(applied)-n; i-- {
		m, ok := byVersion[applied[i].Version]
		if !ok {
			return fmt.Errorf("migration file not found for version %s", applied[i].Version)
		}
		targets = append(targets, m)
	}

	if dryRun {
		output.Section("DRY RUN - Preview")
		for _, m := range targets {
			output.Muted("  %s %s - %s", output.StatusIcon("applied"), m.Version, m.Name)
		}
		return nil
	}

	if err := s.executor.Lock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.executor.Unlock(context.WithoutCancel(ctx)) }()

	output.Section("Rolling Back Migrations")
	for _, m := range targets {
		if err := s.executor.Rollback(ctx, m, false); err != nil {
			output.Error("%s - %s", m.Version, m.Name)
			return err
		}
		output.Success("Rolled back %s - %s", m.Version, m.Name)
	}
	return nil
}

func runMigrateStatus(ctx context.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	status, err := s.executor.GetStatus(ctx, s.migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	if jsonOutput {
		return output.JSON(status)
	}
	if len(status) == 0 {
		output.Warning("No migrations found in %s", cfg.MigrationsDir)
		return nil
	}

	rows := make([][]string, 0, len(status))
	counts := map[migration.MigrationStatus]int{}
	for _, r := range status {
		appliedAt := "N/A"
		if r.AppliedAt != nil {
			appliedAt = r.AppliedAt.Format(time.DateTime)
		}
		rows = append(rows, []string{r.Version, r.Name, output.StatusIcon(string(r.Status)) + " " + string(r.Status), appliedAt})
		counts[r.Status]++
	}
	if err := output.Table([]string{"VERSION", "NAME", "STATUS", "APPLIED AT"}, rows); err != nil {
		return err
	}

	summary := fmt.Sprintf("\nSummary: %d applied, %d pending", counts[migration.StatusApplied], counts[migration.StatusPending])
	if failed := counts[migration.StatusFailed]; failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}
	output.Muted("%s", summary)

	records, err := s.executor.GetAllMigrations(ctx)
	if err != nil {
		return err
	}
	for _, v := range migration.MissingFiles(s.migrations, records) {
		output.Warning("Version %s is recorded but has no file", v)
	}
	return nil
}
