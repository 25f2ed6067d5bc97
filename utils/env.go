package utils

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

const defaultSchemaBaseURL = "https://raw.githubusercontent.com/dev-five-git/vespertide/refs/heads/main/schemas"

// LoadEnv pulls a .env file into the environment when one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing...")
	}
}

// SchemaBaseURL returns the base URL written into model templates as the
// $schema reference. VESP_SCHEMA_BASE_URL overrides the default.
func SchemaBaseURL() string {
	if base := os.Getenv("VESP_SCHEMA_BASE_URL"); base != "" {
		return base
	}
	return defaultSchemaBaseURL
}

// ModelSchemaURL returns the full $schema URL for a model file format.
func ModelSchemaURL(format string) string {
	base := SchemaBaseURL()
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if format == "yaml" || format == "yml" {
		return base + "/model.schema.yaml.json"
	}
	return base + "/model.schema.json"
}
