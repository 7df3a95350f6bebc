package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher retrieves raw bytes for a reference such as "results/coverage_curve.png".
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
	// Exists probes for ref without reading it.
	Exists(ctx context.Context, ref string) bool
}

// HTTPFetcher fetches references relative to an origin URL.
type HTTPFetcher struct {
	HTTPClient *http.Client
	Origin     string // e.g. http://localhost:8000
}

// NewHTTPFetcher returns a fetcher for origin. A zero timeout leaves the
// client without one.
func NewHTTPFetcher(origin string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		HTTPClient: &http.Client{Timeout: timeout},
		Origin:     strings.TrimSuffix(origin, "/"),
	}
}

// URL returns the absolute URL of ref.
func (f *HTTPFetcher) URL(ref string) string {
	return f.Origin + "/" + strings.TrimPrefix(ref, "/")
}

func (f *HTTPFetcher) client() *http.Client {
	if f.HTTPClient == nil {
		return http.DefaultClient
	}
	return f.HTTPClient
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u := f.URL(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: u, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func (f *HTTPFetcher) Exists(ctx context.Context, ref string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.URL(ref), nil)
	if err != nil {
		return false
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// DirFetcher reads references from a local web root. References may climb
// above Root with "..", the same way a relative URL can.
type DirFetcher struct {
	Root string
}

func (f DirFetcher) path(ref string) string {
	return filepath.Join(f.Root, filepath.FromSlash(toSlash(ref)))
}

func (f DirFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	p := f.path(ref)
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("fetch %s: %w", ref, errors.ErrUnsupported)
	}
	return os.ReadFile(p)
}

func (f DirFetcher) Exists(_ context.Context, ref string) bool {
	info, err := os.Stat(f.path(ref))
	return err == nil && info.Mode().IsRegular()
}
