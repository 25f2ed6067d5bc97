package loader

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/dev-five-git/vespertide/naming"
)

const ConfigFile = "vespertide.json"

// Config mirrors vespertide.json.
type Config struct {
	ModelsDir        string `mapstructure:"modelsDir" json:"modelsDir"`
	MigrationsDir    string `mapstructure:"migrationsDir" json:"migrationsDir"`
	TableNamingCase  string `mapstructure:"tableNamingCase" json:"tableNamingCase"`
	ColumnNamingCase string `mapstructure:"columnNamingCase" json:"columnNamingCase"`
	ModelFormat      string `mapstructure:"modelFormat" json:"modelFormat"`
}

// DefaultConfig returns the configuration used when vespertide.json is
// absent or partial.
func DefaultConfig() *Config {
	return &Config{
		ModelsDir:        "models",
		MigrationsDir:    "migrations",
		TableNamingCase:  string(naming.Snake),
		ColumnNamingCase: string(naming.Snake),
		ModelFormat:      "json",
	}
}

// TableCase returns the parsed table naming case.
func (c *Config) TableCase() (naming.Case, error) {
	return naming.ParseCase(c.TableNamingCase)
}

// ColumnCase returns the parsed column naming case.
func (c *Config) ColumnCase() (naming.Case, error) {
	return naming.ParseCase(c.ColumnNamingCase)
}

// LoadConfig reads vespertide.json from path, falling back to defaults for
// missing keys. A missing file is an error: init must run first.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s not found, run 'vespertide init' first", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	defaults := DefaultConfig()
	v.SetDefault("modelsDir", defaults.ModelsDir)
	v.SetDefault("migrationsDir", defaults.MigrationsDir)
	v.SetDefault("tableNamingCase", defaults.TableNamingCase)
	v.SetDefault("columnNamingCase", defaults.ColumnNamingCase)
	v.SetDefault("modelFormat", defaults.ModelFormat)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if _, err := cfg.TableCase(); err != nil {
		return nil, err
	}
	if _, err := cfg.ColumnCase(); err != nil {
		return nil, err
	}
	if cfg.ModelFormat != "json" && cfg.ModelFormat != "yaml" {
		return nil, fmt.Errorf("unknown modelFormat: %s (want json|yaml)", cfg.ModelFormat)
	}
	return &cfg, nil
}

// LoadConfigOrDefault loads vespertide.json when present and falls back to
// defaults otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
