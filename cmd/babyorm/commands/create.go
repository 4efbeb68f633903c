package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/babyorm/cmd/babyorm/output"
	"github.com/marshallshelly/babyorm/pkg/migration"
)

var createCmd = &cobra.Command{
	Use:   "create <name> [table] [create|alter]",
	Short: "Create a migration file",
	Long: `Create a timestamped YAML migration in the migrations directory.

The kind defaults to create, which scaffolds a CREATE TABLE with the
standard id and timestamp columns. alter scaffolds an ADD COLUMN.

Examples:
  babyorm create create_users users
  babyorm create add_phone users alter`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var table, kindArg string
		if len(args) > 1 {
			table = args[1]
		}
		if len(args) > 2 {
			kindArg = args[2]
		}
		kind, err := migration.ParseKind(kindArg)
		if err != nil {
			return err
		}

		file, err := migration.NewGenerator(cfg.MigrationsDir).Create(args[0], table, kind)
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.JSON(file)
		}
		output.Success("Migration created: %s", filepath.Base(file.Path))
		output.Muted("  %s", file.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
