package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/generator"
	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/planner"
	"github.com/dev-five-git/vespertide/schema"
)

var logBackend string

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show SQL per applied migration in chronological order",
	Run: func(cmd *cobra.Command, args []string) {
		backend, err := generator.ParseBackend(logBackend)
		if err != nil {
			fail(err)
		}
		p := loadProject()
		if len(p.migrations) == 0 {
			fmt.Println("No migrations yet")
			return
		}

		bold := color.New(color.Bold)
		working := schema.EmptySchema()
		for _, plan := range p.migrations {
			bold.Printf("-- %04d %s\n", plan.Version, plan.Comment)
			queries, err := generator.BuildPlanQueries(backend, plan, working)
			if err != nil {
				fail(err)
			}
			for _, q := range queries {
				if sql := q.SQL(backend); sql != "" {
					fmt.Println(sql)
				}
			}
			if err := applyAll(working, plan); err != nil {
				failInternal(err)
			}
			fmt.Println()
		}
	},
}

func applyAll(s *schema.Schema, plan *migration.Plan) error {
	for i := range plan.Actions {
		if err := planner.Apply(s, &plan.Actions[i]); err != nil {
			return fmt.Errorf("migration %d: %w", plan.Version, err)
		}
	}
	return nil
}

func init() {
	logCmd.Flags().StringVarP(&logBackend, "backend", "b", "postgres", "Database backend: postgres|mysql|sqlite")
}
