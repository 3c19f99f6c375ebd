// Package fetch downloads corpus source files over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultMaxBytes caps the size of a single downloaded file.
const DefaultMaxBytes = 256 << 20

// Fetcher downloads remote files into a local directory, skipping files that
// already exist with content.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxBytes caps the size of a single download.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with a 60 second request timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: DefaultMaxBytes,
		logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url into destPath. An existing non-empty destination is
// left untouched. Failed or cancelled downloads leave no partial file behind.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		f.logger.Debug("skipping existing file", "path", destPath, "size", info.Size())
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", destPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	f.logger.Info("downloading", "url", url, "dest", destPath)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return fmt.Errorf("fetch %s: size %d exceeds limit %d", url, resp.ContentLength, f.maxBytes)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	if written > f.maxBytes {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("fetch %s: size exceeds limit %d", url, f.maxBytes)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("close %s: %w", destPath, err)
	}

	return nil
}

// FetchAll downloads each url into dir, naming files by the url's base path.
// It returns the local paths of all files, downloaded or already present.
func (f *Fetcher) FetchAll(ctx context.Context, dir string, urls []string) ([]string, error) {
	paths := make([]string, 0, len(urls))
	for _, url := range urls {
		dest := filepath.Join(dir, filepath.Base(url))
		if err := f.Fetch(ctx, url, dest); err != nil {
			return nil, err
		}
		paths = append(paths, dest)
	}
	return paths, nil
}
