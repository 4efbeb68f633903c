package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/babyorm/cmd/babyorm/output"
	"github.com/marshallshelly/babyorm/pkg/loader"
	"github.com/marshallshelly/babyorm/pkg/registry"
	"github.com/marshallshelly/babyorm/pkg/schema"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model definitions of the models directory",
	Long: `Load every *.model.yaml file of the models directory and print the
resulting definitions. Loading fails on the first invalid file, which makes
this command a quick check of the model files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.NewRegistry()
		if _, err := loader.LoadModelsFromPath(cfg.ModelsDir, reg); err != nil {
			return err
		}
		defs := reg.All()

		if jsonOutput {
			out := make([]modelSummary, 0, len(defs))
			for _, d := range defs {
				out = append(out, summarize(d))
			}
			return output.JSON(out)
		}

		if len(defs) == 0 {
			output.Warning("No models found in %s", cfg.ModelsDir)
			return nil
		}

		rows := make([][]string, 0, len(defs))
		for _, d := range defs {
			s := summarize(d)
			rows = append(rows, []string{
				s.Name,
				s.Table,
				string(s.PrimaryKey),
				yesNo(s.Timestamps),
				yesNo(s.SoftDelete),
				list(s.Fillable),
				list(s.Hidden),
				list(s.Relations),
			})
		}
		if err := output.Table([]string{"MODEL", "TABLE", "PK", "TIMESTAMPS", "SOFT DELETE", "FILLABLE", "HIDDEN", "RELATIONS"}, rows); err != nil {
			return err
		}
		output.Muted("\n%d model(s) loaded", len(defs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

type modelSummary struct {
	Name        string                    `json:"name"`
	Table       string                    `json:"table"`
	PrimaryKey  schema.PrimaryKeyStrategy `json:"primaryKey"`
	Timestamps  bool                      `json:"timestamps"`
	SoftDelete  bool                      `json:"softDelete"`
	Fillable    []string                  `json:"fillable"`
	Hidden      []string                  `json:"hidden"`
	Validations map[string][]string       `json:"validations,omitempty"`
	Relations   []string                  `json:"relations,omitempty"`
}

func summarize(d *schema.Definition) modelSummary {
	s := modelSummary{
		Name:       d.Name,
		Table:      d.Table,
		PrimaryKey: d.PrimaryKey,
		Timestamps: d.Timestamps,
		SoftDelete: d.SoftDelete,
		Fillable:   d.Fillable,
		Hidden:     d.Hidden,
	}
	if len(d.Validations) > 0 {
		s.Validations = make(map[string][]string, len(d.Validations))
		for field, rules := range d.Validations {
			for _, r := range rules {
				s.Validations[field] = append(s.Validations[field], r.String())
			}
		}
	}
	for name, rel := range d.Relations {
		s.Relations = append(s.Relations, fmt.Sprintf("%s -> %s(%s=%s)", name, rel.Model, rel.LocalField, rel.DistantField))
	}
	sort.Strings(s.Relations)
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
