package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "PRODUCT_CACHE_TTL", "API_BASE_URL", "REPORT_WINDOW_DAYS", "HTTP_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8082" || cfg.ReportWindowDays != 7 || cfg.ProductCacheTTL != time.Minute || cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	want := "host=localhost port=5432 user=postgres password= dbname=mamushop sslmode=disable"
	if cfg.DatabaseURL != want {
		t.Fatalf("DatabaseURL = %q, want %q", cfg.DatabaseURL, want)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected cache disabled by default, got %q", cfg.RedisAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db/shop")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PRODUCT_CACHE_TTL", "30s")
	t.Setenv("REPORT_WINDOW_DAYS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://u:p@db/shop" || cfg.RedisDB != 3 || cfg.ProductCacheTTL != 30*time.Second || cfg.ReportWindowDays != 30 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"REDIS_DB":           "x",
		"PRODUCT_CACHE_TTL":  "soon",
		"REPORT_WINDOW_DAYS": "0",
		"HTTP_TIMEOUT":       "5",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", k, v)
			}
		})
	}
}

func TestLoadEnv_LocalFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("MAMU_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("APP_ENV", "local")
	t.Setenv("MAMU_TEST_VALUE", "")
	os.Unsetenv("MAMU_TEST_VALUE")

	LoadEnv()
	if got := os.Getenv("MAMU_TEST_VALUE"); got != "from-file" {
		t.Fatalf("MAMU_TEST_VALUE = %q", got)
	}
}
