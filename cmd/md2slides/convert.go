package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/config"
)

// errUsage marks command-line usage errors (bad flags, wrong argument count).
var errUsage = errors.New("usage error")

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment, logger *slog.Logger) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(positionalArgs) > 1 {
		return fmt.Errorf("%w: expected one input, got %d", errUsage, len(positionalArgs))
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(logger)

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}

	// Precedence: CLI flags > env vars > config file > defaults.
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	files, err := discoverDecks(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, inputPath)
	}

	css, err := readCSS(flags.assets.css)
	if err != nil {
		return err
	}

	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	poolSize := min(md2slides.ResolvePoolSize(workers), len(files))
	logger.Debug("starting conversion", "files", len(files), "workers", poolSize, "target", cfg.Target)

	pool, err := env.NewPool(poolSize, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing converter pool", "error", err)
		}
	}()

	params := &conversionParams{
		css:        css,
		htmlOutput: cfg.Output.HTML,
		htmlOnly:   flags.outputMode.htmlOnly,
	}
	results := convertBatch(ctx, pool, files, params)

	summary := printResults(results, flags.common.quiet, flags.common.verbose, cfg.Diagram.Endpoint, env)
	if summary.Failed > 0 {
		return fmt.Errorf("%d conversion(s) failed: %w", summary.Failed, firstError(results))
	}
	return nil
}

// loadConfig loads the file named by the flag, else by MD2SLIDES_CONFIG,
// else returns the defaults.
func loadConfig(flagConfig string, envCfg *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.target != "" {
		cfg.Target = flags.target
	}
	if flags.timeout != "" {
		cfg.Output.Timeout = flags.timeout
	}
	if flags.outputMode.html {
		cfg.Output.HTML = true
	}

	// Assets
	if flags.assets.style != "" {
		cfg.Style.Name = flags.assets.style
	}
	if flags.assets.assetPath != "" {
		cfg.Style.AssetPath = flags.assets.assetPath
	}
	if flags.assets.highlight != "" {
		cfg.Style.Highlight = flags.assets.highlight
	}

	// Diagrams
	if flags.diagram.url != "" {
		cfg.Diagram.Endpoint = flags.diagram.url
	}
	if flags.diagram.cacheDir != "" {
		cfg.Diagram.CacheDir = flags.diagram.cacheDir
	}
	if flags.diagram.imageType != "" {
		cfg.Diagram.ImageType = flags.diagram.imageType
	}
	if flags.diagram.theme != "" {
		cfg.Diagram.Theme = flags.diagram.theme
	}
	if flags.diagram.workers > 0 {
		cfg.Diagram.Workers = flags.diagram.workers
	}
	if flags.diagram.retries > 0 {
		cfg.Diagram.Retries = flags.diagram.retries
	}
	if flags.diagram.timeout != "" {
		cfg.Diagram.Timeout = flags.diagram.timeout
	}

	// Layout
	if flags.layout.maxParagraph > 0 {
		cfg.Parser.MaxParagraphLength = flags.layout.maxParagraph
	}
	if flags.layout.charsPerLine > 0 {
		cfg.Layout.CharsPerLine = flags.layout.charsPerLine
	}
	if flags.layout.maxLines > 0 {
		cfg.Layout.MaxLines = flags.layout.maxLines
	}
	if flags.layout.displayWidth {
		cfg.Layout.DisplayWidth = true
	}
}

// converterOptions translates config into converter options.
func converterOptions(cfg *config.Config, logger *slog.Logger) ([]md2slides.Option, error) {
	target, err := md2slides.ParseTarget(cfg.Target)
	if err != nil {
		return nil, err
	}

	timeout, err := config.ParseTimeout(cfg.Output.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: output.timeout: %v", config.ErrInvalidValue, err)
	}
	diagramTimeout, err := config.ParseTimeout(cfg.Diagram.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: diagram.timeout: %v", config.ErrInvalidValue, err)
	}

	opts := []md2slides.Option{
		md2slides.WithTarget(target),
		md2slides.WithLogger(logger),
		md2slides.WithStyle(cfg.Style.Name),
		md2slides.WithAssetPath(cfg.Style.AssetPath),
		md2slides.WithHighlightStyle(cfg.Style.Highlight),
		md2slides.WithMaxParagraphLength(cfg.Parser.MaxParagraphLength),
		md2slides.WithDiagramTag(cfg.Parser.DiagramTag),
		md2slides.WithLayout(md2slides.LayoutSettings{
			CharsPerLine: cfg.Layout.CharsPerLine,
			MaxLines:     cfg.Layout.MaxLines,
			MaxItems:     cfg.Layout.MaxItems,
			MaxPages:     cfg.Layout.MaxPages,
			MinTruncate:  cfg.Layout.MinTruncate,
			DisplayWidth: cfg.Layout.DisplayWidth,
		}),
		md2slides.WithDiagrams(md2slides.DiagramSettings{
			Endpoint:  cfg.Diagram.Endpoint,
			ImageType: cfg.Diagram.ImageType,
			Theme:     cfg.Diagram.Theme,
			CacheDir:  cfg.Diagram.CacheDir,
			Workers:   cfg.Diagram.Workers,
			Retries:   cfg.Diagram.Retries,
			Timeout:   diagramTimeout,
		}),
	}
	if timeout > 0 {
		opts = append(opts, md2slides.WithTimeout(timeout))
	}
	return opts, nil
}

// resolveInputPath returns the positional input, else the configured default directory.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir returns the flag value, else the configured default directory.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// readCSS reads the extra CSS file, if any.
func readCSS(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadCSS, err)
	}
	return string(content), nil
}

// elapsed formats a duration for verbose output.
func elapsed(start time.Time, now func() time.Time) time.Duration {
	return now().Sub(start).Round(time.Millisecond)
}
