package md2slides

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ConverterPool manages Converter instances for parallel processing.
// Each converter has its own browser instance; all of them share one
// diagram renderer, so a diagram used by several files is fetched once.
// Converters are created lazily on first acquire to avoid startup delay.
type ConverterPool struct {
	size       int
	cfg        converterConfig
	converters []*Converter
	sem        chan *Converter
	mu         sync.Mutex
	created    int
	closed     bool
}

// NewConverterPool creates a pool with capacity for n converters built
// with opts. The shared diagram renderer is created immediately, so cache
// directory errors surface here.
func NewConverterPool(n int, opts ...Option) (*ConverterPool, error) {
	if n < 1 {
		n = 1
	}

	cfg := newConfig(opts...)
	if cfg.resolver == nil {
		cacheDir := cfg.diagram.CacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cfg.diagram.CacheDir = cacheDir

		renderer, err := newDiagramRenderer(cfg.diagram, cacheDir, cfg.logger)
		if err != nil {
			return nil, err
		}
		cfg.resolver = renderer
	}

	return &ConverterPool{
		size:       n,
		cfg:        cfg,
		converters: make([]*Converter, 0, n),
		sem:        make(chan *Converter, n),
	}, nil
}

// Acquire gets a converter from the pool, creating one if needed.
// Blocks if all converters are in use. A creation error frees the slot
// so a later Acquire can retry.
func (p *ConverterPool) Acquire() (*Converter, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case conv, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return conv, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		conv, err := newConverter(p.cfg)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.created--
			return nil, err
		}
		p.converters = append(p.converters, conv)
		return conv, nil
	}
	p.mu.Unlock()

	conv, ok := <-p.sem
	if !ok {
		return nil, ErrPoolClosed
	}
	return conv, nil
}

// Release returns a converter to the pool.
// The lock is released before sending to avoid deadlock when channel is full.
func (p *ConverterPool) Release(conv *Converter) {
	if conv == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- conv
}

// Close releases all browser resources.
// Returns an aggregated error if multiple converters fail to close.
func (p *ConverterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	converters := p.converters
	p.mu.Unlock()

	var errs []error
	for _, conv := range converters {
		if err := conv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return p.size
}

// CacheDir returns the diagram cache directory shared by the pool.
func (p *ConverterPool) CacheDir() string {
	return p.cfg.diagram.CacheDir
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
