package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// StaticPort is the static asset server port. The frontend hardcodes it,
// so unlike the API port it is not configurable.
const StaticPort = 8000

// Config holds all agent configuration loaded from environment variables.
type Config struct {
	// Host is the bind address for the metrics API.
	Host string

	// Port is the metrics API port.
	Port int

	// LogDir is the directory the launcher writes child log files into.
	LogDir string

	// ImageDir is the directory scanned by the image listing endpoint.
	ImageDir string

	// Debug enables verbose logging.
	Debug bool
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     "0.0.0.0",
		Port:     8001,
		LogDir:   "logs",
		ImageDir: "image",
	}
}

// Load reads configuration from environment variables, applying defaults
// for anything not explicitly set.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("NASMON_HOST")); v != "" {
		cfg.Host = v
	}

	if v := strings.TrimSpace(os.Getenv("NASMON_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("NASMON_PORT: invalid port %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("NASMON_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}

	if v := os.Getenv("NASMON_IMAGE_DIR"); v != "" {
		cfg.ImageDir = v
	}

	cfg.Debug = os.Getenv("NASMON_DEBUG") == "true"

	return cfg, nil
}

// NewLogger creates a structured logger writing JSON to stdout. The
// launcher redirects each child's stdout to its own log file, so the
// server itself never opens files.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
