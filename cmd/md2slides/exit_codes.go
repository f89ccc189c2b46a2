package main

import (
	"context"
	"errors"
	"os"
	"strings"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/assets"
	"github.com/alnah/go-md2slides/internal/config"
	"github.com/alnah/go-md2slides/internal/hints"
)

// Exit codes for md2slides CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, md2slides.ErrBrowserConnect) ||
		errors.Is(err, md2slides.ErrPageCreate) ||
		errors.Is(err, md2slides.ErrPageLoad) ||
		errors.Is(err, md2slides.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrOutputDir) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, md2slides.ErrDiagramCache) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, errUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, md2slides.ErrEmptyMarkdown) ||
		errors.Is(err, md2slides.ErrInvalidTarget) ||
		errors.Is(err, md2slides.ErrStyleNotFound) ||
		errors.Is(err, md2slides.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, md2slides.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, md2slides.ErrPageLoad):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, md2slides.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.BuiltinStyles())
	case errors.Is(err, ErrOutputDir):
		return hints.ForOutputDirectory()
	}
	return ""
}

// triedPaths extracts the searched locations from a config-not-found error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}
