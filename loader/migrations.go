package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dev-five-git/vespertide/migration"
)

// LoadMigrations parses every migration document in the directory and
// returns the plans sorted by version. A missing directory is an empty
// history, not an error.
func LoadMigrations(migrationsDir string) ([]*migration.Plan, error) {
	if _, err := os.Stat(migrationsDir); err != nil {
		return nil, nil
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var plans []*migration.Plan
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(migrationsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", path, err)
		}
		var plan migration.Plan
		if ext == ".json" {
			if err := json.Unmarshal(data, &plan); err != nil {
				return nil, fmt.Errorf("parsing migration file %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(data, &plan); err != nil {
				return nil, fmt.Errorf("parsing migration file %s: %w", path, err)
			}
		}
		if plan.Version <= 0 {
			return nil, fmt.Errorf("migration file %s has no positive version", path)
		}
		plans = append(plans, &plan)
	}

	sort.SliceStable(plans, func(a, b int) bool {
		return plans[a].Version < plans[b].Version
	})
	return plans, nil
}

// WriteMigration persists a plan as {version}_{slug}.json in the
// migrations directory, creating it when needed.
func WriteMigration(migrationsDir string, plan *migration.Plan) (string, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return "", fmt.Errorf("creating migrations directory: %w", err)
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering migration: %w", err)
	}
	data = append(data, '\n')
	path := filepath.Join(migrationsDir, plan.Filename("json"))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	return path, nil
}
