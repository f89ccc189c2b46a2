package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/fileutil"
)

var (
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// deckFile is one markdown source and the PDF it is printed to.
type deckFile struct {
	InputPath  string
	OutputPath string
}

// outputLayout maps markdown sources to PDF paths. With no outputDir the
// PDF is written next to its source. An outputDir ending in .pdf names the
// output of a single deck; any other outputDir receives a copy of the
// source tree below root.
type outputLayout struct {
	root      string
	outputDir string
}

func (l outputLayout) pdfPath(src string) string {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".pdf"
	switch {
	case l.outputDir == "":
		return filepath.Join(filepath.Dir(src), name)
	case strings.HasSuffix(l.outputDir, ".pdf"):
		return l.outputDir
	case l.root != "":
		if rel, err := filepath.Rel(l.root, filepath.Dir(src)); err == nil {
			return filepath.Join(l.outputDir, rel, name)
		}
	}
	return filepath.Join(l.outputDir, name)
}

// discoverDecks returns the decks under inputPath in walk order. A file
// input must carry a markdown extension; in a directory, other files and
// hidden directories are skipped.
func discoverDecks(inputPath, outputDir string) ([]deckFile, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !fileutil.IsMarkdown(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		layout := outputLayout{outputDir: outputDir}
		return []deckFile{{InputPath: inputPath, OutputPath: layout.pdfPath(inputPath)}}, nil
	}

	layout := outputLayout{root: inputPath, outputDir: outputDir}
	var decks []deckFile
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return fmt.Errorf("scanning %s: %w", path, err)
		case d.IsDir() && path != inputPath && strings.HasPrefix(d.Name(), "."):
			return filepath.SkipDir
		case !d.IsDir() && fileutil.IsMarkdown(path):
			decks = append(decks, deckFile{InputPath: path, OutputPath: layout.pdfPath(path)})
		}
		return nil
	})
	return decks, err
}

func validateWorkers(n int) error {
	switch {
	case n < 0:
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	case n > md2slides.MaxPoolSize:
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2slides.MaxPoolSize)
	}
	return nil
}

// htmlOutputPath is where --html-only writes the deck printed to pdfPath.
func htmlOutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, ".pdf") + ".html"
}
