// Package runtimeconfig loads and validates the JSON-file configuration
// that sizes the streaming core's channels and pools, modeled on the
// load/default/clamp pattern the teacher's telemetry.Hub uses for its own
// persisted Config (internal/telemetry/hub.go).
package runtimeconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rjboer/govision/internal/logging"
)

// Config is the on-disk, user-editable configuration for a streaming
// session.
type Config struct {
	MaxInFlightTransfers int    `json:"maxInFlightTransfers"`
	SenderQueueDepth     int    `json:"senderQueueDepth"`
	RecycleQueueDepth    int    `json:"recycleQueueDepth"`
	ReadTimeoutMillis    int    `json:"readTimeoutMillis"`
	LogLevel             string `json:"logLevel"`
	LogFormat            string `json:"logFormat"`
}

const (
	minInFlightTransfers = 1
	maxInFlightTransfers = 64

	minQueueDepth = 1
	maxQueueDepth = 1024

	minTimeoutMillis = 1
	maxTimeoutMillis = 60_000
)

// Default returns the configuration a fresh install starts with.
func Default() Config {
	return Config{
		MaxInFlightTransfers: 8,
		SenderQueueDepth:     16,
		RecycleQueueDepth:    16,
		ReadTimeoutMillis:    1000,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load reads Config from path, falling back to Default when the file
// does not exist yet, the same first-run behavior the teacher's hub
// applies to its persisted config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("runtimeconfig: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("runtimeconfig: parse %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// Save persists cfg to path as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("runtimeconfig: marshal: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("runtimeconfig: write %s: %w", path, err)
	}
	return nil
}

// clamp pulls every numeric field back within its supported range rather
// than rejecting the whole file over one bad value.
func (c *Config) clamp() {
	c.MaxInFlightTransfers = clampInt(c.MaxInFlightTransfers, minInFlightTransfers, maxInFlightTransfers)
	c.SenderQueueDepth = clampInt(c.SenderQueueDepth, minQueueDepth, maxQueueDepth)
	c.RecycleQueueDepth = clampInt(c.RecycleQueueDepth, minQueueDepth, maxQueueDepth)
	c.ReadTimeoutMillis = clampInt(c.ReadTimeoutMillis, minTimeoutMillis, maxTimeoutMillis)
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ReadTimeout converts the configured millisecond timeout into a
// time.Duration; cmd/visiondump uses it as the control-plane register
// client's per-transaction timeout.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMillis) * time.Millisecond
}

// Logger builds a logging.Logger from the configured level and format,
// writing to stderr.
func (c Config) Logger() (logging.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format, os.Stderr), nil
}
