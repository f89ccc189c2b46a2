package diagram

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Config configures a Renderer.
type Config struct {
	// Store is the on-disk artifact cache (required).
	Store *Store

	// Cache is the run-scoped key -> path map (default: new empty cache).
	Cache *Cache

	// Fetcher performs render requests (default: HTTPFetcher on DefaultBaseURL).
	Fetcher Fetcher

	// Options are sent with every render request.
	Options RenderOptions

	// Workers bounds concurrent renders in Resolve (default: 1, sequential).
	Workers int

	// Timeout bounds one shared render, retries included (default: 2m).
	Timeout time.Duration

	// Logger for progress and failures (default: slog.Default()).
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Cache == nil {
		c.Cache = NewCache()
	}
	if c.Fetcher == nil {
		c.Fetcher = NewHTTPFetcher(DefaultBaseURL, c.Store.Ext, defaultTimeout)
	}
	if c.Options == (RenderOptions{}) {
		c.Options = DefaultRenderOptions()
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultRenderTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// defaultRenderTimeout bounds a shared render when Config.Timeout is unset.
const defaultRenderTimeout = 2 * time.Minute

// Renderer resolves diagram references to cached images.
// Concurrent renders of one cache key are collapsed into a single download.
// The download runs on its own context: a caller that gives up stops waiting
// without failing the others, and the download is canceled only once every
// caller has left.
type Renderer struct {
	cfg       Config
	group     singleflight.Group
	downloads atomic.Int64

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the shared context of one in-progress download.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewRenderer creates a Renderer. Config.Store is required.
func NewRenderer(cfg Config) (*Renderer, error) {
	if cfg.Store == nil {
		return nil, errors.New("diagram renderer requires a store")
	}
	cfg.defaults()
	return &Renderer{cfg: cfg, flights: make(map[string]*flight)}, nil
}

// Cache returns the run-scoped cache used by the renderer.
func (r *Renderer) Cache() *Cache {
	return r.cfg.Cache
}

// Downloads returns how many images were fetched from the endpoint.
func (r *Renderer) Downloads() int64 {
	return r.downloads.Load()
}

// Render resolves ref, setting ImagePath on success or Err on failure.
// The returned error is the one recorded on ref.
func (r *Renderer) Render(ctx context.Context, ref *Ref) error {
	path, err := r.imageFor(ctx, ref)
	if err != nil {
		ref.ImagePath = ""
		ref.Err = err
		r.cfg.Logger.Warn("diagram render failed", "id", ref.ID, "key", ref.Key, "error", err)
		return err
	}
	ref.ImagePath = path
	ref.Err = nil
	return nil
}

func (r *Renderer) imageFor(ctx context.Context, ref *Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(ref.Source) == "" {
		return "", ErrNoSource
	}
	if ref.Key == "" {
		ref.Key = Key(ref.Source)
	}

	if p, ok := r.cfg.Cache.Get(ref.Key); ok {
		r.cfg.Logger.Debug("diagram cache hit", "id", ref.ID, "key", ref.Key, "source", "memory")
		return p, nil
	}

	for {
		f := r.join(ctx, ref.Key)
		ch := r.group.DoChan(ref.Key, func() (any, error) {
			return r.lookupOrFetch(f.ctx, ref)
		})

		select {
		case <-ctx.Done():
			r.leave(ref.Key, f)
			return "", ctx.Err()
		case res := <-ch:
			r.leave(ref.Key, f)
			if res.Err != nil {
				// Joined a download abandoned by all its earlier callers.
				if errors.Is(res.Err, context.Canceled) && ctx.Err() == nil {
					continue
				}
				return "", res.Err
			}
			if res.Shared {
				r.cfg.Logger.Debug("diagram render shared", "id", ref.ID, "key", ref.Key)
			}
			return res.Val.(string), nil
		}
	}
}

// join registers a waiter on the download of key, creating its context
// detached from the caller's cancellation.
func (r *Renderer) join(ctx context.Context, key string) *flight {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[key]
	if !ok {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
		f = &flight{ctx: fctx, cancel: cancel}
		r.flights[key] = f
	}
	f.waiters++
	return f
}

// leave removes a waiter; the last one cancels the download.
func (r *Renderer) leave(key string, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if r.flights[key] == f {
		delete(r.flights, key)
	}
}

// lookupOrFetch runs at most once per key at a time.
func (r *Renderer) lookupOrFetch(ctx context.Context, ref *Ref) (string, error) {
	if p, ok := r.cfg.Cache.Get(ref.Key); ok {
		return p, nil
	}

	p, ok, err := r.cfg.Store.Lookup(ref.Key)
	switch {
	case errors.Is(err, ErrCacheCorrupt):
		r.cfg.Logger.Debug("discarding empty cached diagram", "key", ref.Key)
	case err != nil:
		return "", err
	case ok:
		r.cfg.Logger.Debug("diagram cache hit", "id", ref.ID, "key", ref.Key, "source", "disk")
		r.cfg.Cache.Put(ref.Key, p)
		return p, nil
	}

	payload, err := Encode(ref.Source, r.cfg.Options)
	if err != nil {
		return "", err
	}

	r.cfg.Logger.Info("rendering diagram", "id", ref.ID, "key", ref.Key)
	body, err := r.cfg.Fetcher.Fetch(ctx, payload)
	if err != nil {
		return "", err
	}
	defer body.Close()

	p, err = r.cfg.Store.Write(ref.Key, body)
	if err != nil {
		return "", err
	}
	r.downloads.Add(1)
	r.cfg.Cache.Put(ref.Key, p)
	return p, nil
}

// Resolve returns a lazy sequence of (ref, error) pairs in input order.
// With Workers > 1 renders run ahead concurrently; stopping the iteration
// early cancels work that has not completed.
func (r *Renderer) Resolve(ctx context.Context, refs []*Ref) iter.Seq2[*Ref, error] {
	return func(yield func(*Ref, error) bool) {
		if r.cfg.Workers <= 1 || len(refs) <= 1 {
			for _, ref := range refs {
				if !yield(ref, r.Render(ctx, ref)) {
					return
				}
			}
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		results := make([]chan error, len(refs))
		for i := range results {
			results[i] = make(chan error, 1)
		}

		var g errgroup.Group
		g.SetLimit(r.cfg.Workers)
		dispatched := make(chan struct{})
		go func() {
			defer close(dispatched)
			for i, ref := range refs {
				if err := ctx.Err(); err != nil {
					results[i] <- err
					continue
				}
				g.Go(func() error {
					results[i] <- r.Render(ctx, ref)
					return nil
				})
			}
		}()
		defer func() {
			cancel()
			<-dispatched
			_ = g.Wait()
		}()

		for i, ref := range refs {
			if !yield(ref, <-results[i]) {
				return
			}
		}
	}
}

// Report summarizes a ResolveAll run.
type Report struct {
	Total    int
	Resolved int
	Failed   int
	Failures []*Ref
}

// Err joins the failures into one error, or returns nil.
func (rep Report) Err() error {
	if rep.Failed == 0 {
		return nil
	}
	errs := make([]error, 0, len(rep.Failures))
	for _, ref := range rep.Failures {
		errs = append(errs, fmt.Errorf("diagram %s: %w", ref.ID, ref.Err))
	}
	return errors.Join(errs...)
}

// Merge adds other into rep.
func (rep *Report) Merge(other Report) {
	rep.Total += other.Total
	rep.Resolved += other.Resolved
	rep.Failed += other.Failed
	rep.Failures = append(rep.Failures, other.Failures...)
}

// ResolveAll resolves every reference and reports the outcome.
// Individual failures are recorded on their Ref and counted, never returned.
func (r *Renderer) ResolveAll(ctx context.Context, refs []*Ref) Report {
	rep := Report{Total: len(refs)}
	for ref, err := range r.Resolve(ctx, refs) {
		if err != nil {
			if ref.Err == nil {
				ref.Err = err
			}
			rep.Failed++
			rep.Failures = append(rep.Failures, ref)
			continue
		}
		rep.Resolved++
	}
	if rep.Total > 0 {
		r.cfg.Logger.Info("diagrams resolved", "total", rep.Total, "resolved", rep.Resolved, "failed", rep.Failed)
	}
	return rep
}
