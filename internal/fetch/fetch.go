// Package fetch retrieves current marketplace snapshots for tracked items.
// It centralizes the HTTP fetching and listing-page extraction used by the
// evaluation pipeline.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// DefaultTimeout is the default HTTP request timeout for a snapshot fetch.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; WatchlistAgent/1.0)"

// Fetcher is the snapshot-fetch collaborator consumed by the pipeline: given
// an item URL it returns the current observed state or a fetch failure.
type Fetcher interface {
	Fetch(ctx context.Context, urlStr string) (*types.Snapshot, error)
}

// Error represents a failure fetching a snapshot. Fetch failures are
// recovered locally by the pipeline: the item is skipped this cycle and
// retried on the next scheduled fire.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	Headers    map[string]string
	UseBrowser bool // render JS-heavy listing pages in a headless browser
	Verbose    bool
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// HTTPFetcher fetches listing pages over HTTP and extracts snapshots from the
// returned HTML.
type HTTPFetcher struct {
	opts *Options
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &HTTPFetcher{opts: opts}
}

// Fetch retrieves the listing page at urlStr and extracts a snapshot from it.
func (f *HTTPFetcher) Fetch(ctx context.Context, urlStr string) (*types.Snapshot, error) {
	html, err := f.fetchHTML(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	if f.opts.UseBrowser && ShouldUseBrowser(html) {
		rendered, berr := WithBrowser(ctx, urlStr, f.opts.Timeout, f.opts.Verbose)
		if berr == nil {
			html = rendered
		}
		// Browser failure falls through to extraction from the plain HTML.
	}

	snapshot, err := ExtractSnapshot(urlStr, html)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract snapshot", Cause: err}
	}
	return snapshot, nil
}

func (f *HTTPFetcher) fetchHTML(ctx context.Context, urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := &http.Client{
		Timeout: f.opts.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return "", &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return string(bodyBytes), nil
}
