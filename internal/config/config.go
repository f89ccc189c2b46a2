package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength  = 4096
	MaxURLLength   = 2048
	MaxTagLength   = 32
	MaxNameLength  = 64
	MaxThemeLength = 32
)

// Range limits for numeric fields.
const (
	MaxWorkers      = 32
	MaxRetries      = 10
	MaxCharsPerLine = 400
	MaxLinesPerPage = 100
	MaxItems        = 100
	MaxPages        = 50
)

// Output targets.
const (
	TargetSlides   = "slides"
	TargetDocument = "document"
)

// configDirName is the directory under os.UserConfigDir searched by LoadConfig.
const configDirName = "go-md2slides"

// Config holds all configuration for a conversion run.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Target  string        `yaml:"target"` // "slides" (default) or "document"
	Parser  ParserConfig  `yaml:"parser"`
	Diagram DiagramConfig `yaml:"diagram"`
	Layout  LayoutConfig  `yaml:"layout"`
	Style   StyleConfig   `yaml:"style"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	HTML       bool   `yaml:"html"`       // Also write the intermediate HTML
	Timeout    string `yaml:"timeout"`    // PDF generation timeout, e.g. "30s"
}

// ParserConfig controls how Markdown becomes sections and items.
type ParserConfig struct {
	MaxParagraphLength int    `yaml:"maxParagraphLength"` // 0 = keep all paragraphs
	DiagramTag         string `yaml:"diagramTag"`         // default "mermaid"
}

// DiagramConfig configures the diagram renderer.
type DiagramConfig struct {
	Endpoint  string `yaml:"endpoint"`  // default https://mermaid.ink
	ImageType string `yaml:"imageType"` // png, jpeg or webp
	Theme     string `yaml:"theme"`
	CacheDir  string `yaml:"cacheDir"` // empty = user cache dir
	Workers   int    `yaml:"workers"`
	Retries   int    `yaml:"retries"`
	Timeout   string `yaml:"timeout"` // per request, e.g. "30s"
}

// LayoutConfig tunes slide pagination. Zero values select the defaults.
type LayoutConfig struct {
	CharsPerLine int  `yaml:"charsPerLine"`
	MaxLines     int  `yaml:"maxLines"`
	MaxItems     int  `yaml:"maxItems"`
	MaxPages     int  `yaml:"maxPages"`
	MinTruncate  int  `yaml:"minTruncate"`
	DisplayWidth bool `yaml:"displayWidth"` // count wide runes as two columns
}

// StyleConfig selects stylesheets and assets.
type StyleConfig struct {
	Name      string `yaml:"name"`      // style name or CSS file path (empty = target default)
	AssetPath string `yaml:"assetPath"` // custom asset directory (empty = embedded)
	Highlight string `yaml:"highlight"` // chroma style for code in the document target
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"parser.diagramTag", c.Parser.DiagramTag, MaxTagLength},
		{"diagram.endpoint", c.Diagram.Endpoint, MaxURLLength},
		{"diagram.theme", c.Diagram.Theme, MaxThemeLength},
		{"diagram.cacheDir", c.Diagram.CacheDir, MaxPathLength},
		{"style.name", c.Style.Name, MaxPathLength},
		{"style.assetPath", c.Style.AssetPath, MaxPathLength},
		{"style.highlight", c.Style.Highlight, MaxNameLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.Target) {
	case "", TargetSlides, TargetDocument:
	default:
		return fmt.Errorf("%w: target %q (must be slides or document)", ErrInvalidValue, c.Target)
	}

	switch strings.ToLower(c.Diagram.ImageType) {
	case "", "png", "jpeg", "jpg", "webp":
	default:
		return fmt.Errorf("%w: diagram.imageType %q (must be png, jpeg or webp)", ErrInvalidValue, c.Diagram.ImageType)
	}

	if c.Diagram.Endpoint != "" &&
		!strings.HasPrefix(c.Diagram.Endpoint, "http://") && !strings.HasPrefix(c.Diagram.Endpoint, "https://") {
		return fmt.Errorf("%w: diagram.endpoint %q (must be an http or https URL)", ErrInvalidValue, c.Diagram.Endpoint)
	}

	ranges := []struct {
		field string
		value int
		max   int
	}{
		{"parser.maxParagraphLength", c.Parser.MaxParagraphLength, 10000},
		{"diagram.workers", c.Diagram.Workers, MaxWorkers},
		{"diagram.retries", c.Diagram.Retries, MaxRetries},
		{"layout.charsPerLine", c.Layout.CharsPerLine, MaxCharsPerLine},
		{"layout.maxLines", c.Layout.MaxLines, MaxLinesPerPage},
		{"layout.maxItems", c.Layout.MaxItems, MaxItems},
		{"layout.maxPages", c.Layout.MaxPages, MaxPages},
		{"layout.minTruncate", c.Layout.MinTruncate, MaxCharsPerLine},
	}
	for _, r := range ranges {
		if r.value < 0 || r.value > r.max {
			return fmt.Errorf("%w: %s must be between 0 and %d, got %d", ErrInvalidValue, r.field, r.max, r.value)
		}
	}

	for field, value := range map[string]string{
		"diagram.timeout": c.Diagram.Timeout,
		"output.timeout":  c.Output.Timeout,
	} {
		if _, err := ParseTimeout(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
	}

	return nil
}

// ParseTimeout parses a duration string. Empty means zero (use the default).
func ParseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given:
// slides target, every other value left to the component defaults.
func DefaultConfig() *Config {
	return &Config{Target: TargetSlides}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-md2slides/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
