package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/generator"
)

var sqlBackend string

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Show SQL statements for the pending migration plan",
	Run: func(cmd *cobra.Command, args []string) {
		backend, err := generator.ParseBackend(sqlBackend)
		if err != nil {
			fail(err)
		}
		p := loadProject()
		plan, baseline := p.planPending()
		if len(plan.Actions) == 0 {
			color.New(color.FgGreen).Println("Nothing to do")
			return
		}
		queries, err := generator.BuildPlanQueries(backend, plan, baseline)
		if err != nil {
			fail(err)
		}
		for _, q := range queries {
			if sql := q.SQL(backend); sql != "" {
				fmt.Println(sql)
			}
		}
	},
}

func init() {
	sqlCmd.Flags().StringVarP(&sqlBackend, "backend", "b", "postgres", "Database backend: postgres|mysql|sqlite")
}
