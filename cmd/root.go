package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/utils"
)

var rootCmd = &cobra.Command{
	Use:   "vespertide",
	Short: "Declarative schema migrations for PostgreSQL, MySQL and SQLite",
	Long: `vespertide derives migrations from declarative model files.

Describe the desired shape of your schema as JSON models; vespertide
replays your migration history, diffs it against the models and emits
the SQL that closes the gap.

Examples:

  vespertide init
  vespertide new user
  vespertide diff
  vespertide revision -m "add user table"
  vespertide sql --backend sqlite
`,
}

// Execute runs the CLI.
func Execute() {
	utils.LoadEnv()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(revisionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(exportCmd)
}
