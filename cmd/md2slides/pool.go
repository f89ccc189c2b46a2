package main

import (
	"context"

	md2slides "github.com/alnah/go-md2slides"
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input md2slides.Input) (*md2slides.ConvertResult, error)
}

// Compile-time interface implementation checks.
var (
	_ CLIConverter = (*md2slides.Converter)(nil)
	_ Pool         = (*converterPool)(nil)
)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (CLIConverter, error)
	Release(CLIConverter)
	Size() int
	Close() error
}

// PoolFactory creates a pool of size converters built with opts.
type PoolFactory func(size int, opts ...md2slides.Option) (Pool, error)

// converterPool adapts md2slides.ConverterPool to Pool.
type converterPool struct {
	*md2slides.ConverterPool
}

// newConverterPool is the production PoolFactory.
func newConverterPool(size int, opts ...md2slides.Option) (Pool, error) {
	p, err := md2slides.NewConverterPool(size, opts...)
	if err != nil {
		return nil, err
	}
	return &converterPool{p}, nil
}

// Acquire gets a converter from the pool, creating one if needed.
func (p *converterPool) Acquire() (CLIConverter, error) {
	conv, err := p.ConverterPool.Acquire()
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release returns a converter to the pool.
func (p *converterPool) Release(c CLIConverter) {
	if conv, ok := c.(*md2slides.Converter); ok {
		p.ConverterPool.Release(conv)
	}
}
