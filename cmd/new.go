package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/loader"
	"github.com/dev-five-git/vespertide/utils"
)

var newFormat string

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new model file from template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		cfg, err := loader.LoadConfig(loader.ConfigFile)
		if err != nil {
			fail(err)
		}
		format := newFormat
		if format == "" {
			format = cfg.ModelFormat
		}
		if format != "json" && format != "yaml" {
			fail(fmt.Errorf("unknown format: %s (want json|yaml)", format))
		}
		if err := os.MkdirAll(cfg.ModelsDir, 0755); err != nil {
			fail(err)
		}
		path := filepath.Join(cfg.ModelsDir, name+"."+format)
		if _, err := os.Stat(path); err == nil {
			fail(fmt.Errorf("model file already exists: %s", path))
		}
		if err := loader.WriteModelTemplate(path, name, format, utils.ModelSchemaURL(format)); err != nil {
			fail(err)
		}
		color.New(color.FgGreen, color.Bold).Println("Created model template:", path)
	},
}

func init() {
	newCmd.Flags().StringVarP(&newFormat, "format", "f", "", "Model file format: json|yaml (default: config modelFormat)")
}
