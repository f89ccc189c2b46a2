package diagram

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	c := NewCache()
	if _, ok := c.Get("k"); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Put("k", "/tmp/k.png")
	got, ok := c.Get("k")
	if !ok || got != "/tmp/k.png" {
		t.Errorf("Get = %q, %v; want /tmp/k.png, true", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewCache()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := RefID("k", i%5)
			c.Put(key, key+".png")
			_, _ = c.Get(key)
		}()
	}
	wg.Wait()

	if c.Len() != 5 {
		t.Errorf("Len = %d, want 5", c.Len())
	}
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s, err := NewStore(dir, ".png")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Ext != "png" {
		t.Errorf("Ext = %q, want png", s.Ext)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("cache directory not created: %v", err)
	}
	if got, want := s.Path("abc"), filepath.Join(dir, "abc.png"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}

	if _, err := NewStore("", "png"); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestStore_LookupAndWrite(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir(), "png")
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Lookup("missing"); ok || err != nil {
		t.Errorf("Lookup(missing) = %v, %v; want miss without error", ok, err)
	}

	p, err := s.Write("abc", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if p != s.Path("abc") {
		t.Errorf("Write path = %q, want %q", p, s.Path("abc"))
	}

	got, ok, err := s.Lookup("abc")
	if err != nil || !ok || got != p {
		t.Errorf("Lookup(abc) = %q, %v, %v; want hit", got, ok, err)
	}
}

func TestStore_WriteEmpty(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir(), "png")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Write("empty", strings.NewReader("")); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Write error = %v, want ErrEmptyImage", err)
	}
	entries, _ := os.ReadDir(s.Dir)
	if len(entries) != 0 {
		t.Errorf("store dir not empty after failed write: %v", entries)
	}
}

func TestStore_LookupCorrupt(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir(), "png")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path("zero"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Lookup("zero")
	if ok {
		t.Error("zero-byte artifact reported as hit")
	}
	if !errors.Is(err, ErrCacheCorrupt) {
		t.Errorf("Lookup error = %v, want ErrCacheCorrupt", err)
	}
	if _, statErr := os.Stat(s.Path("zero")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("zero-byte artifact was not removed")
	}
}
