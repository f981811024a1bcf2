// Package fetch performs one conditional-GET HTTP request per Source,
// parses the response body with gofeed, normalizes and filters the result,
// and updates the Source's cache metadata according to the response status.
//
// # Response State Machine
//
// A 2xx response with a body that parses cleanly replaces cache metadata
// and entries; a 2xx with no body, or a body gofeed rejects, returns nil
// and leaves cache metadata untouched; a 304 reparses the cached raw body
// without touching cache metadata (or fails if there is no cached body to
// reparse); any other status, or a transport/timeout error, returns nil.
//
// Fetch never mutates a Source's cache metadata except on the single "2xx,
// parsed cleanly" branch.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
	"github.com/fusefeed/fusefeed/internal/filter"
	"github.com/fusefeed/fusefeed/internal/normalize"
)

// DefaultTimeout is the fetch-level timeout applied when Fetch is called
// with timeout <= 0.
const DefaultTimeout = 10 * time.Second

// Fetcher performs HTTP fetches for Sources, reusing one *http.Client (and
// therefore its connection pool) across calls. HTTP client objects are
// safe to share across workers and should be reused.
type Fetcher struct {
	Client *http.Client
	Parser *gofeed.Parser
}

// New returns a Fetcher with a fresh http.Client and gofeed.Parser.
func New() *Fetcher {
	return &Fetcher{
		Client: &http.Client{},
		Parser: gofeed.NewParser(),
	}
}

// Fetch performs one fetch cycle for src, mutating it in place and
// returning it on any success path (2xx-parsed or 304-reparsed), or nil on
// any failure path. timeout <= 0 uses DefaultTimeout.
func (f *Fetcher) Fetch(ctx context.Context, src *feedmodel.Source, timeout time.Duration) *feedmodel.Source {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := f.buildRequest(ctx, src)
	if err != nil {
		return nil
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil // transport error or timeout
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return f.handleNotModified(src)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return f.handleOK(src, resp)
	default:
		return nil // 3xx (other), 4xx, 5xx
	}
}

func (f *Fetcher) buildRequest(ctx context.Context, src *feedmodel.Source) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: building request for %s: %w", src.URI, err)
	}

	for k, v := range src.Headers {
		req.Header.Set(k, v)
	}
	if src.HasBasicAuth() {
		req.SetBasicAuth(src.Username, src.Password)
	}
	if src.UserAgent != "" {
		req.Header.Set("User-Agent", src.UserAgent)
	}
	if src.Cache.ETag != "" {
		req.Header.Set("If-None-Match", src.Cache.ETag)
	}
	if src.Cache.LastModified != "" {
		req.Header.Set("If-Modified-Since", src.Cache.LastModified)
	}
	return req, nil
}

func (f *Fetcher) handleOK(src *feedmodel.Source, resp *http.Response) *feedmodel.Source {
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return nil
	}

	parsed, err := f.Parser.ParseString(string(body))
	if err != nil || parsed == nil {
		return nil // bozo / malformed: cache metadata untouched
	}

	src.Cache.Raw = body
	if etag := resp.Header.Get("ETag"); etag != "" {
		src.Cache.ETag = etag
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		src.Cache.LastModified = lm
	}

	f.populate(src, parsed)
	return src
}

func (f *Fetcher) handleNotModified(src *feedmodel.Source) *feedmodel.Source {
	if len(src.Cache.Raw) == 0 {
		// Caller sent conditional headers without a cache to match them
		// against. The server violated the protocol. Defensive: fail.
		return nil
	}
	parsed, err := f.Parser.ParseString(string(src.Cache.Raw))
	if err != nil || parsed == nil {
		return nil
	}
	// Cache metadata (etag/last-modified) is not updated on 304.
	f.populate(src, parsed)
	return src
}

// populate normalizes parsed's items into src.Entries and applies src's
// filter chain, and records the feed's own link as src.HTMLURI on first
// successful parse.
func (f *Fetcher) populate(src *feedmodel.Source, parsed *gofeed.Feed) {
	if src.HTMLURI == "" {
		src.HTMLURI = parsed.Link
	}

	entries := make([]feedmodel.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry, ok := normalize.FromParsedItem(item)
		if !ok {
			continue // insufficient identity material
		}
		entries = append(entries, entry)
	}

	chain := filter.Chain(src.Filters)
	src.Entries = chain.Apply(entries)
}
