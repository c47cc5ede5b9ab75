package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FirstRunCreatesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen == "" || cfg.RefreshCron == "" {
		t.Fatalf("defaults not populated: %+v", cfg)
	}
	if cfg.Market.Weekday != int(time.Saturday) || cfg.Market.Occurrences != 4 {
		t.Fatalf("unexpected market defaults: %+v", cfg.Market)
	}
	if len(cfg.Institutions) == 0 || len(cfg.Community) == 0 {
		t.Fatal("default template tables are empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config file perms: got %o, want 600", perm)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:9999"
	cfg.Institutions = []InstitutionTemplate{
		{Name: "Custom Hall", Weekday: int(time.Friday), Hour: 19, Category: "community"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Listen != "127.0.0.1:9999" {
		t.Fatalf("listen not preserved: %q", got.Listen)
	}
	if len(got.Institutions) != 1 || got.Institutions[0].Name != "Custom Hall" {
		t.Fatalf("institutions not preserved: %+v", got.Institutions)
	}
}

func TestNormalize_BackfillsZeroValues(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.Normalize()

	if cfg.Listen == "" || cfg.Timezone == "" || cfg.RefreshCron == "" || cfg.LogLevel == "" {
		t.Fatalf("zero config not backfilled: %+v", cfg)
	}
	if cfg.Market.Title == "" || cfg.Market.Occurrences <= 0 {
		t.Fatalf("market template not backfilled: %+v", cfg.Market)
	}
	if cfg.Institutions == nil || cfg.Community == nil {
		t.Fatal("template tables not backfilled")
	}
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	t.Parallel()

	cfg := Config{Timezone: "Not/AZone"}
	if loc := cfg.Location(); loc != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", loc)
	}
}
