package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/loader"
	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/planner"
	"github.com/dev-five-git/vespertide/validator"
)

var (
	revisionMessage  string
	revisionFillWith []string
)

// parseFillWith parses table.column=value arguments.
func parseFillWith(args []string) (map[[2]string]string, error) {
	fills := make(map[[2]string]string)
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --fill-with %q (want table.column=value)", arg)
		}
		table, column, ok := strings.Cut(key, ".")
		if !ok {
			return nil, fmt.Errorf("invalid --fill-with %q (want table.column=value)", arg)
		}
		fills[[2]string{table, column}] = value
	}
	return fills, nil
}

var revisionCmd = &cobra.Command{
	Use:   "revision",
	Short: "Create a new migration from the pending diff",
	Run: func(cmd *cobra.Command, args []string) {
		if revisionMessage == "" {
			fail(fmt.Errorf("a message is required: revision -m \"<message>\""))
		}
		fills, err := parseFillWith(revisionFillWith)
		if err != nil {
			fail(err)
		}

		p := loadProject()
		plan, baseline := p.planPending()
		if len(plan.Actions) == 0 {
			color.New(color.FgGreen).Println("No changes to record")
			return
		}

		for i := range plan.Actions {
			act := &plan.Actions[i]
			switch act.Type {
			case migration.AddColumn:
				if act.Column != nil {
					if fill, ok := fills[[2]string{act.Table, act.Column.Name}]; ok {
						act.FillWith = fill
					}
				}
			case migration.ModifyColumnNullable:
				if fill, ok := fills[[2]string{act.Table, act.ColumnName}]; ok {
					act.FillWith = fill
				}
			}
		}

		if missing := planner.FindMissingFillWith(plan); len(missing) > 0 {
			yellow := color.New(color.FgYellow)
			yellow.Println("The following columns need fill values for existing rows:")
			for _, m := range missing {
				fmt.Printf("  %s.%s (%s)\n", m.Table, m.Column, m.ColumnType)
			}
			fail(fmt.Errorf("re-run with --fill-with table.column=value for each column above"))
		}

		plan.Comment = revisionMessage
		plan.CreatedAt = time.Now().UTC().Format(time.RFC3339)

		result := validator.ValidatePlan(plan, baseline)
		if !result.Valid {
			printValidation(result)
			failInternal(fmt.Errorf("generated plan does not replay cleanly"))
		}

		path, err := loader.WriteMigration(p.cfg.MigrationsDir, plan)
		if err != nil {
			fail(err)
		}
		color.New(color.FgGreen, color.Bold).Println("Created migration:", path)
		fmt.Printf("  version %d, %d action(s)\n", plan.Version, len(plan.Actions))
	},
}

func init() {
	revisionCmd.Flags().StringVarP(&revisionMessage, "message", "m", "", "Migration message")
	revisionCmd.Flags().StringArrayVar(&revisionFillWith, "fill-with", nil, "Fill value for a NOT NULL column without default (table.column=value)")
}
