package runtimeconfig

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want Default()", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.MaxInFlightTransfers = 4
	cfg.LogLevel = "debug"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.MaxInFlightTransfers = 9999
	cfg.ReadTimeoutMillis = -5
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MaxInFlightTransfers != maxInFlightTransfers {
		t.Fatalf("MaxInFlightTransfers = %d, want clamped %d", got.MaxInFlightTransfers, maxInFlightTransfers)
	}
	if got.ReadTimeoutMillis != minTimeoutMillis {
		t.Fatalf("ReadTimeoutMillis = %d, want clamped %d", got.ReadTimeoutMillis, minTimeoutMillis)
	}
}

func TestLoggerFromConfig(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"
	log, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if log == nil {
		t.Fatalf("expected non-nil logger")
	}
}
