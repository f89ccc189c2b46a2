package diagram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Mermaid rendering endpoint.
const DefaultBaseURL = "https://mermaid.ink"

// defaultTimeout bounds a single render request.
const defaultTimeout = 30 * time.Second

// Fetcher retrieves a rendered image for an encoded payload.
// Implementations return an error for non-2xx responses; the caller owns
// closing the returned body.
type Fetcher interface {
	Fetch(ctx context.Context, payload string) (io.ReadCloser, error)
}

// HTTPFetcher renders diagrams through a stateless HTTP endpoint of the form
// GET <BaseURL>/img/<payload>?type=<ImageType>.
type HTTPFetcher struct {
	BaseURL   string
	ImageType string // "png", "jpeg" or "webp"
	Client    *http.Client
	Retries   int           // extra attempts after a transport error or 5xx
	Backoff   time.Duration // delay multiplied by the attempt number
}

// Compile-time interface check.
var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTPFetcher with the given request timeout.
func NewHTTPFetcher(baseURL, imageType string, timeout time.Duration) *HTTPFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	switch imageType {
	case "":
		imageType = "png"
	case "jpg":
		imageType = "jpeg"
	}
	return &HTTPFetcher{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ImageType: imageType,
		Client:    &http.Client{Timeout: timeout},
		Backoff:   time.Second,
	}
}

// URL returns the request URL for payload.
func (f *HTTPFetcher) URL(payload string) string {
	u := f.BaseURL + "/img/" + payload
	if f.ImageType != "" {
		u += "?type=" + f.ImageType
	}
	return u
}

// Fetch issues the render request, retrying transient failures.
func (f *HTTPFetcher) Fetch(ctx context.Context, payload string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, f.Backoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		body, err := f.fetchOnce(ctx, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, payload string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(payload), nil)
	if err != nil {
		return nil, fmt.Errorf("building render request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode >= 500 || fe.StatusCode == http.StatusTooManyRequests
	}
	return errors.Is(err, ErrFetchFailed)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
