package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration. Environment variables provide the
// defaults; an optional YAML file named by CONFIG_PATH overrides them
// (the file is where deploy secrets like the webhook host live).
type Config struct {
	Port           string  `yaml:"port"`
	DBPath         string  `yaml:"db_path"`
	HistoryBackend string  `yaml:"history_backend"`
	MaxHistory     int     `yaml:"max_history"`
	IngestRate     float64 `yaml:"ingest_rate"`
	LogLevel       string  `yaml:"log_level"`
}

// Load reads configuration from environment variables with sensible
// defaults, then overlays the YAML file at CONFIG_PATH if one is set.
func Load() Config {
	cfg := Config{
		Port:           envOrDefault("PORT", "8080"),
		DBPath:         envOrDefault("DB_PATH", "picstream.db"),
		HistoryBackend: envOrDefault("HISTORY_BACKEND", "sqlite"),
		MaxHistory:     envOrDefaultInt("MAX_HISTORY", 101),
		IngestRate:     envOrDefaultFloat("INGEST_RATE", 50),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// Unmarshal over the env-derived values; absent keys keep them.
			yaml.Unmarshal(data, &cfg)
		}
	}
	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
