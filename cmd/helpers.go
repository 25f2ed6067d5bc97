package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/dev-five-git/vespertide/loader"
	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/planner"
	"github.com/dev-five-git/vespertide/schema"
	"github.com/dev-five-git/vespertide/validator"
)

// exit codes: 1 for user errors, 2 for internal invariant failures.
func fail(err error) {
	color.New(color.FgRed, color.Bold).Println("Error:", err)
	os.Exit(1)
}

func failInternal(err error) {
	color.New(color.FgRed, color.Bold).Println("Internal error:", err)
	os.Exit(2)
}

type project struct {
	cfg        *loader.Config
	tables     []schema.TableDef
	migrations []*migration.Plan
}

// loadProject reads config, models and migration history; models are
// validated before anything else runs.
func loadProject() *project {
	cfg, err := loader.LoadConfig(loader.ConfigFile)
	if err != nil {
		fail(err)
	}
	tables, err := loader.LoadModels(cfg.ModelsDir)
	if err != nil {
		fail(err)
	}
	plans, err := loader.LoadMigrations(cfg.MigrationsDir)
	if err != nil {
		fail(err)
	}

	if len(tables) > 0 {
		target, serr := schema.NewSchema(tables)
		if serr != nil {
			fail(serr)
		}
		tableCase, _ := cfg.TableCase()
		columnCase, _ := cfg.ColumnCase()
		result := validator.ValidateSchema(target, tableCase, columnCase)
		if !result.Valid {
			printValidation(result)
			os.Exit(1)
		}
	}
	return &project{cfg: cfg, tables: tables, migrations: plans}
}

func (p *project) planPending() (*migration.Plan, *schema.Schema) {
	baseline, warnings, err := planner.Replay(p.migrations)
	if err != nil {
		fail(err)
	}
	for _, w := range warnings {
		color.New(color.FgYellow).Println("Warning:", w.Message)
	}
	plan, _, perr := planner.PlanNextMigration(p.tables, p.migrations)
	if perr != nil {
		fail(perr)
	}
	return plan, baseline
}

func printValidation(result *validator.Result) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	for _, e := range result.Errors {
		red.Printf("  error: %s\n", e.Message)
	}
	for _, w := range result.Warnings {
		yellow.Printf("  warning: %s\n", w.Message)
	}
	fmt.Printf("%d error(s), %d warning(s)\n", len(result.Errors), len(result.Warnings))
}
