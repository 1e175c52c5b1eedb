package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the server and the desk console read from the environment.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ProductCacheTTL  time.Duration
	APIBaseURL       string
	ReportWindowDays int
	HTTPTimeout      time.Duration
}

// LoadEnv loads environment variables from .env.local if APP_ENV is "local",
// otherwise from .env when one exists. Variables already set win.
func LoadEnv() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
		os.Setenv("APP_ENV", appEnv)
	}

	file := ".env"
	if appEnv == "local" {
		file = ".env.local"
	}
	if err := godotenv.Load(file); err != nil {
		log.Printf("Warning: %s not loaded (%v). Relying on system environment variables.", file, err)
		return
	}
	log.Printf("Loaded %s for %s environment.", file, appEnv)
}

// Load reads Config from the environment, filling defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:          getenv("PORT", "8082"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		APIBaseURL:    getenv("API_BASE_URL", "http://localhost:8082"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			getenv("DB_HOST", "localhost"),
			getenv("DB_PORT", "5432"),
			getenv("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getenv("DB_NAME", "mamushop"),
		)
	}

	var err error
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.ReportWindowDays, err = intEnv("REPORT_WINDOW_DAYS", 7); err != nil {
		return Config{}, err
	}
	if cfg.ReportWindowDays < 1 {
		return Config{}, fmt.Errorf("REPORT_WINDOW_DAYS must be >= 1, got %d", cfg.ReportWindowDays)
	}
	if cfg.ProductCacheTTL, err = durationEnv("PRODUCT_CACHE_TTL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
