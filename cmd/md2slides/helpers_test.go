package main

// Notes:
// - Test infrastructure shared across the CLI tests: a fake converter, a fake
//   pool and an Environment writing into buffers. No browser is launched.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/diagram"
)

// fakeConverter returns fixed outputs and records its inputs.
type fakeConverter struct {
	mu       sync.Mutex
	html     []byte
	pdf      []byte
	err      error
	diagrams diagram.Report
	inputs   []md2slides.Input
}

func (f *fakeConverter) Convert(_ context.Context, input md2slides.Input) (*md2slides.ConvertResult, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	res := &md2slides.ConvertResult{HTML: f.html, Diagrams: f.diagrams}
	if !input.HTMLOnly {
		res.PDF = f.pdf
	}
	return res, nil
}

// fakePool hands out one shared fakeConverter.
type fakePool struct {
	conv       *fakeConverter
	size       int
	acquireErr error
	closed     bool
	opts       int
}

func (p *fakePool) Acquire() (CLIConverter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.conv, nil
}

func (p *fakePool) Release(CLIConverter) {}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) Close() error {
	p.closed = true
	return nil
}

// testEnv returns an Environment with captured output and a fake pool factory.
func testEnv(pool *fakePool) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) },
		Stdout: stdout,
		Stderr: stderr,
		NewPool: func(size int, opts ...md2slides.Option) (Pool, error) {
			if pool == nil {
				return nil, errors.New("no pool configured")
			}
			pool.size = size
			pool.opts = len(opts)
			return pool, nil
		},
	}
	return env, stdout, stderr
}

// writeFile creates path (and parents) under dir with content.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
