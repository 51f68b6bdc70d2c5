// Package sources fetches deck lists from deck-building sites and
// normalizes them to deck-list text.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

const (
	// DefaultUserAgent identifies deck fetches to the remote sites.
	DefaultUserAgent = "CommanderDecks/1.0"

	// DefaultTimeout bounds a single deck fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps how much of a response is read.
	DefaultMaxBodyBytes = 5 << 20
)

// Deck is a deck list fetched from a site.
type Deck struct {
	Source string
	URL    string
	Name   string
	Text   string
}

// Source knows how to fetch decks from one site.
type Source interface {
	Name() string
	// Matches reports whether u is a deck URL this source understands.
	Matches(u *url.URL) bool
	Fetch(ctx context.Context, u *url.URL) (*Deck, error)
}

// Options configures the HTTP side of every source.
type Options struct {
	HTTPClient   *http.Client
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return o
}

// HTTPStatusError reports a non-2xx response from a deck site.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	switch e.StatusCode {
	case http.StatusNotFound:
		return fmt.Sprintf("deck not found (HTTP %d)", e.StatusCode)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("deck is private (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// ErrUnsupportedURL is returned for URLs no registered source understands.
var ErrUnsupportedURL = errors.New("unsupported deck URL")

// Registry dispatches deck URLs to the source that understands them.
type Registry struct {
	sources []Source
	logger  *zap.Logger
}

// NewRegistry creates a registry. Source names must be unique.
func NewRegistry(logger *zap.Logger, sources ...Source) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if s == nil {
			return nil, fmt.Errorf("source cannot be nil")
		}
		name := strings.ToLower(strings.TrimSpace(s.Name()))
		if name == "" {
			return nil, fmt.Errorf("source name cannot be empty")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate source: %q", name)
		}
		seen[name] = true
	}
	return &Registry{sources: sources, logger: logger}, nil
}

// NewDefaultRegistry registers Archidekt, Moxfield and MTGGoldfish.
func NewDefaultRegistry(opts Options, logger *zap.Logger) *Registry {
	r, err := NewRegistry(logger, NewArchidekt(opts), NewMoxfield(opts), NewMTGGoldfish(opts))
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}

// Lookup returns the source that understands rawURL.
func (r *Registry) Lookup(rawURL string) (Source, *url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid deck URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil, fmt.Errorf("%w: scheme must be http or https", ErrUnsupportedURL)
	}
	for _, s := range r.sources {
		if s.Matches(u) {
			return s, u, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, u.Host)
}

// Fetch downloads the deck at rawURL. Every failure other than
// cancellation is a *deckimport.SourceError with code FETCH_FAILED.
func (r *Registry) Fetch(ctx context.Context, rawURL string) (*Deck, error) {
	source, u, err := r.Lookup(rawURL)
	if err != nil {
		return nil, deckimport.NewFetchError("", rawURL, err)
	}

	start := time.Now()
	deck, err := source.Fetch(ctx, u)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Warn("Deck fetch failed",
			zap.String("source", source.Name()),
			zap.String("url", rawURL),
			zap.Error(err))
		return nil, deckimport.NewFetchError(source.Name(), rawURL, err)
	}

	r.logger.Info("Fetched deck",
		zap.String("source", source.Name()),
		zap.String("deck", deck.Name),
		zap.Duration("elapsed", time.Since(start)))
	return deck, nil
}

// get performs a GET and returns the response body.
func get(ctx context.Context, opts Options, endpoint, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deck: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}

// hostIs reports whether u points at domain or one of its subdomains.
func hostIs(u *url.URL, domain string) bool {
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(u *url.URL) []string {
	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// deckID returns the segment after prefix, e.g. "123" for /decks/123/name.
func deckID(u *url.URL, prefix string) (string, bool) {
	segments := pathSegments(u)
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == prefix {
			return segments[i+1], true
		}
	}
	return "", false
}

func errNoCards(name string) error {
	if name == "" {
		return errors.New("deck has no cards")
	}
	return fmt.Errorf("deck %q has no cards", name)
}
