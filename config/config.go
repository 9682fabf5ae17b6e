// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"deepmine/models"
)

// Store backends selectable with DB_TYPE
const (
	StoreJSON     = "json"
	StorePostgres = "postgres"
	StoreRemote   = "remote"
)

// Config holds the server settings
type Config struct {
	Port            string
	DBType          string
	DBFile          string
	DatabaseURL     string
	BackendURL      string
	DefaultExitForm models.ExitForm
	// SeedTemplates is the number of generated templates stored per exit form
	// when the store has none
	SeedTemplates int
	OTelEnabled   bool
}

// Load reads a .env file when present, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not loaded: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup, applying defaults
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:        valueOr(getenv("PORT"), "8080"),
		DBType:      strings.ToLower(valueOr(getenv("DB_TYPE"), StoreJSON)),
		DBFile:      valueOr(getenv("DB_FILE"), "db.json"),
		DatabaseURL: valueOr(getenv("DATABASE_URL"), "host=localhost user=deepmine password=deepmine dbname=deepmine sslmode=disable"),
		BackendURL:  valueOr(getenv("BACKEND_URL"), "http://localhost:3000"),
	}

	switch cfg.DBType {
	case StoreJSON, StorePostgres, StoreRemote:
	default:
		return nil, fmt.Errorf("DB_TYPE %q: want json, postgres or remote", cfg.DBType)
	}

	form, err := models.ParseExitForm(valueOr(getenv("DEFAULT_EXIT_FORM"), "NESW"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_EXIT_FORM: %w", err)
	}
	cfg.DefaultExitForm = form

	seed, err := strconv.Atoi(valueOr(getenv("SEED_TEMPLATES"), "3"))
	if err != nil || seed < 0 {
		return nil, fmt.Errorf("SEED_TEMPLATES %q: want a non-negative integer", getenv("SEED_TEMPLATES"))
	}
	cfg.SeedTemplates = seed

	if v := getenv("OTEL_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("OTEL_ENABLED: %w", err)
		}
		cfg.OTelEnabled = enabled
	}

	return cfg, nil
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}
