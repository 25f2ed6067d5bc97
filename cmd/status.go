package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show models, applied migrations and pending actions",
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()
		plan, _ := p.planPending()

		fmt.Printf("Models:     %d\n", len(p.tables))
		fmt.Printf("Migrations: %d\n", len(p.migrations))
		if len(p.migrations) > 0 {
			last := p.migrations[len(p.migrations)-1]
			fmt.Printf("Latest:     %04d %s\n", last.Version, last.Comment)
		}
		if len(plan.Actions) == 0 {
			color.New(color.FgGreen).Println("Up to date")
			return
		}
		color.New(color.FgYellow).Printf("Pending:    %d action(s); run 'vespertide diff' for details\n", len(plan.Actions))
	},
}
