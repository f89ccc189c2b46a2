package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-md2slides/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath   string        // MD2SLIDES_CONFIG: config file path
	Target       string        // MD2SLIDES_TARGET: slides or document
	Style        string        // MD2SLIDES_STYLE: CSS style name or path
	Timeout      time.Duration // MD2SLIDES_TIMEOUT: PDF generation timeout
	InputDir     string        // MD2SLIDES_INPUT_DIR: default input directory
	OutputDir    string        // MD2SLIDES_OUTPUT_DIR: default output directory
	DiagramURL   string        // MD2SLIDES_DIAGRAM_URL: render service URL
	DiagramCache string        // MD2SLIDES_DIAGRAM_CACHE: diagram cache directory
	Workers      int           // MD2SLIDES_WORKERS: parallel workers
}

// envPrefix marks the variables read by loadEnvConfig.
const envPrefix = "MD2SLIDES_"

// knownEnvVars lists valid MD2SLIDES_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2SLIDES_CONFIG":        true,
	"MD2SLIDES_TARGET":        true,
	"MD2SLIDES_STYLE":         true,
	"MD2SLIDES_TIMEOUT":       true,
	"MD2SLIDES_INPUT_DIR":     true,
	"MD2SLIDES_OUTPUT_DIR":    true,
	"MD2SLIDES_DIAGRAM_URL":   true,
	"MD2SLIDES_DIAGRAM_CACHE": true,
	"MD2SLIDES_WORKERS":       true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:   os.Getenv("MD2SLIDES_CONFIG"),
		Target:       os.Getenv("MD2SLIDES_TARGET"),
		Style:        os.Getenv("MD2SLIDES_STYLE"),
		InputDir:     os.Getenv("MD2SLIDES_INPUT_DIR"),
		OutputDir:    os.Getenv("MD2SLIDES_OUTPUT_DIR"),
		DiagramURL:   os.Getenv("MD2SLIDES_DIAGRAM_URL"),
		DiagramCache: os.Getenv("MD2SLIDES_DIAGRAM_CACHE"),
	}

	if timeout := os.Getenv("MD2SLIDES_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("MD2SLIDES_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs a warning for each unrecognized MD2SLIDES_* variable.
func warnUnknownEnvVars(logger *slog.Logger) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			logger.Warn("unknown environment variable (typo?)", "name", name)
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// The default config already names the slides target.
	if env.Target != "" && (cfg.Target == "" || cfg.Target == config.TargetSlides) {
		cfg.Target = env.Target
	}
	if env.Style != "" && cfg.Style.Name == "" {
		cfg.Style.Name = env.Style
	}
	if env.Timeout > 0 && cfg.Output.Timeout == "" {
		cfg.Output.Timeout = env.Timeout.String()
	}
	if env.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.DiagramURL != "" && cfg.Diagram.Endpoint == "" {
		cfg.Diagram.Endpoint = env.DiagramURL
	}
	if env.DiagramCache != "" && cfg.Diagram.CacheDir == "" {
		cfg.Diagram.CacheDir = env.DiagramCache
	}
}
