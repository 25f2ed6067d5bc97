package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/loader"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize vespertide.json with defaults",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(loader.ConfigFile); err == nil {
			fail(fmt.Errorf("%s already exists", loader.ConfigFile))
		}
		cfg := loader.DefaultConfig()
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			failInternal(err)
		}
		data = append(data, '\n')
		if err := os.WriteFile(loader.ConfigFile, data, 0644); err != nil {
			fail(err)
		}
		for _, dir := range []string{cfg.ModelsDir, cfg.MigrationsDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fail(err)
			}
		}
		fmt.Println("Created", loader.ConfigFile)
		fmt.Println("Created", cfg.ModelsDir+"/")
		fmt.Println("Created", cfg.MigrationsDir+"/")
		fmt.Println("Define models with 'vespertide new <name>' and run 'vespertide diff'")
	},
}
