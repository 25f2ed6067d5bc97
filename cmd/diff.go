package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/migration"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show differences between applied migrations and current models",
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()
		plan, _ := p.planPending()

		if len(plan.Actions) == 0 {
			color.New(color.FgGreen).Println("No differences between models and migration history")
			return
		}

		green := color.New(color.FgGreen, color.Bold)
		red := color.New(color.FgRed, color.Bold)
		blue := color.New(color.FgBlue, color.Bold)

		fmt.Printf("Pending changes (%d actions):\n", len(plan.Actions))
		for i := range plan.Actions {
			act := &plan.Actions[i]
			switch act.Type {
			case migration.CreateTable, migration.AddColumn, migration.AddConstraint,
				migration.AddIndex, migration.CreateEnum, migration.AlterEnumAddValue:
				green.Printf("  + %s\n", act)
			case migration.DeleteTable, migration.DeleteColumn, migration.RemoveConstraint,
				migration.RemoveIndex, migration.DropEnum:
				red.Printf("  - %s\n", act)
			default:
				blue.Printf("  ~ %s\n", act)
			}
		}
		fmt.Println("\nRun 'vespertide revision -m \"<message>\"' to persist these changes")
	},
}
