// Package httpfetch downloads source documents over HTTP(S).
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/libria-search/libria/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "libria/1.0 (document ingestion)"
)

// Config holds configuration for the HTTP fetcher.
type Config struct {
	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// UserAgent is sent with every request. Some document hosts reject
	// requests without one.
	UserAgent string
}

// Fetcher streams remote documents to a local writer.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates an HTTP fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
	}
}

// Fetch downloads url into dst, returning the number of bytes written.
// Any non-2xx status is an error; the body is streamed, never buffered
// whole in memory.
func (f *Fetcher) Fetch(ctx context.Context, url string, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read body of %s: %w", url, err)
	}
	return n, nil
}
