package diagram

import (
	"errors"
	"fmt"
)

// Sentinel errors for diagram operations.
var (
	ErrFetchFailed  = errors.New("failed to download")
	ErrEmptyImage   = errors.New("rendered image is empty")
	ErrCacheCorrupt = errors.New("cached image is empty")
	ErrNoSource     = errors.New("diagram source is empty")
)

// FetchError reports a non-2xx response from the rendering endpoint.
type FetchError struct {
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %d", ErrFetchFailed, e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrFetchFailed).
func (e *FetchError) Unwrap() error {
	return ErrFetchFailed
}
