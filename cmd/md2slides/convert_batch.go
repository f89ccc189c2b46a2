package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/diagram"
	"github.com/alnah/go-md2slides/internal/fileutil"
	"github.com/alnah/go-md2slides/internal/hints"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrNoInput       = errors.New("no input specified")
	ErrReadCSS       = errors.New("failed to read CSS file")
	ErrReadMarkdown  = errors.New("failed to read markdown file")
	ErrWriteOutput   = errors.New("failed to write output file")
	ErrOutputDir     = errors.New("failed to create output directory")
	ErrConverterInit = errors.New("failed to initialize converter")
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
	Diagrams   diagram.Report
}

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	css        string
	htmlOutput bool
	htmlOnly   bool
}

// convertBatch processes files concurrently using the converter pool.
// Results keep the order of files.
func convertBatch(ctx context.Context, pool Pool, files []deckFile, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark the jobs this worker takes as failed.
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("%w: %w", ErrConverterInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv CLIConverter, f deckFile, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReadMarkdown, err))
	}

	outDir := filepath.Dir(f.OutputPath)
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrOutputDir, err))
	}

	convResult, err := conv.Convert(ctx, md2slides.Input{
		Markdown: string(content),
		Path:     f.InputPath,
		CSS:      params.css,
		HTMLOnly: params.htmlOnly,
	})
	if err != nil {
		return fail(err)
	}
	result.Diagrams = convResult.Diagrams

	// Write HTML output if requested (--html or --html-only)
	if params.htmlOnly || params.htmlOutput {
		htmlPath := htmlOutputPath(f.OutputPath)
		if err := fileutil.WriteFileAtomic(htmlPath, convResult.HTML, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
		}
		if params.htmlOnly {
			result.OutputPath = htmlPath
			result.Duration = time.Since(start)
			return result
		}
	}

	if err := fileutil.WriteFileAtomic(f.OutputPath, convResult.PDF, filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded       int
	Failed          int
	DiagramsSkipped int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.DiagramsSkipped += r.Diagrams.Failed
	}
	return summary
}

// printResults outputs conversion results and returns the summary.
func printResults(results []ConversionResult, quiet, verbose bool, endpoint string, env *Environment) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
		for _, ref := range r.Diagrams.Failures {
			fmt.Fprintf(env.Stderr, "SKIPPED diagram %s: %v\n", ref.ID, ref.Err)
		}
	}

	if !quiet && summary.DiagramsSkipped > 0 {
		fmt.Fprintf(env.Stderr, "%d diagram(s) could not be rendered%s\n", summary.DiagramsSkipped, hints.ForDiagramFailures(endpoint))
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary
}

// firstError returns the first failure in results, or nil.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
