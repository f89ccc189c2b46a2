package diagram

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache maps cache keys to rendered image paths for one generation run.
// It is safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{paths: make(map[string]string)}
}

// Get returns the image path recorded for key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.paths[key]
	return p, ok
}

// Put records the image path for key.
func (c *Cache) Put(key, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[key] = path
}

// Len returns the number of recorded keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.paths)
}

// Store is the on-disk artifact cache. Artifacts are named "<key>.<ext>".
// Writers go through a temp file in the same directory and rename on
// success, so readers never observe a partial download.
type Store struct {
	Dir string
	Ext string
}

// dirPermissions is rwxr-x---.
const dirPermissions = 0o750

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir, ext string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("diagram store directory cannot be empty")
	}
	if ext == "" {
		ext = "png"
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating diagram cache directory: %w", err)
	}
	return &Store{Dir: dir, Ext: strings.TrimPrefix(ext, ".")}, nil
}

// Path returns the artifact path for key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.Dir, key+"."+s.Ext)
}

// Lookup reports whether a usable artifact exists for key.
// A zero-byte artifact is removed and reported as ErrCacheCorrupt; callers
// treat that as a miss.
func (s *Store) Lookup(key string) (string, bool, error) {
	p := s.Path(key)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("checking cached diagram: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("checking cached diagram: %s is a directory", p)
	}
	if info.Size() == 0 {
		_ = os.Remove(p)
		return "", false, fmt.Errorf("%w: %s", ErrCacheCorrupt, p)
	}
	return p, true, nil
}

// Write streams r into the artifact for key and returns its path.
// An empty stream leaves nothing behind and returns ErrEmptyImage.
func (s *Store) Write(key string, r io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.Dir, key+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	discard := func() { _ = os.Remove(tmpPath) }

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		discard()
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, copyErr)
	}
	if closeErr != nil {
		discard()
		return "", fmt.Errorf("closing temp artifact: %w", closeErr)
	}
	if n == 0 {
		discard()
		return "", ErrEmptyImage
	}

	final := s.Path(key)
	if err := os.Rename(tmpPath, final); err != nil {
		discard()
		return "", fmt.Errorf("publishing artifact: %w", err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return "", fmt.Errorf("validating artifact: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(final)
		return "", ErrEmptyImage
	}
	return final, nil
}
