package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dev-five-git/vespertide/exporter"
	"github.com/dev-five-git/vespertide/schema"
)

var (
	exportORM string
	exportDir string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export models into ORM-specific code",
	Run: func(cmd *cobra.Command, args []string) {
		orm, err := exporter.ParseORM(exportORM)
		if err != nil {
			fail(err)
		}
		p := loadProject()
		target, serr := schema.NewSchema(p.tables)
		if serr != nil {
			fail(serr)
		}
		dir := exportDir
		if dir == "" {
			dir = "src/models"
		}
		written, err := exporter.Export(target, orm, dir)
		if err != nil {
			fail(err)
		}
		green := color.New(color.FgGreen)
		for _, path := range written {
			green.Println("Exported", path)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportORM, "orm", "o", "seaorm", "Target ORM: seaorm|sqlalchemy|sqlmodel")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (default src/models)")
}
