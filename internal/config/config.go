package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	defaultDBPath          = "./printcost.db"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultEstimateTimeout = 5 * time.Second
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Port            string
	DBPath          string
	AppEnv          string
	LogLevel        string
	EstimateTimeout time.Duration
	ProfilePath     string
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "", "dev", "development":
		return true
	}
	return false
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	return load(".env")
}

func load(envFile string) Config {
	// Real environment variables win over the file.
	_ = godotenv.Load(envFile)

	cfg := Config{
		Port:        os.Getenv("PORT"),
		DBPath:      os.Getenv("DB_PATH"),
		AppEnv:      os.Getenv("APP_ENV"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		ProfilePath: os.Getenv("PROFILE_PATH"),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	cfg.EstimateTimeout = defaultEstimateTimeout
	if raw := os.Getenv("ESTIMATE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Warn().Str("value", raw).Msg("invalid ESTIMATE_TIMEOUT, using default")
		} else {
			cfg.EstimateTimeout = d
		}
	}

	return cfg
}
