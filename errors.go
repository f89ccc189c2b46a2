package md2slides

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrInvalidTarget  = errors.New("invalid output target")
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")

	// Diagram setup errors. Individual diagram failures are reported in
	// ConvertResult.Diagrams, never as a conversion error.
	ErrDiagramCache = errors.New("diagram cache unavailable")

	// ErrPoolClosed is returned by ConverterPool.Acquire after Close.
	ErrPoolClosed = errors.New("converter pool is closed")
)
