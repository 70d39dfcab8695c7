package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mcoot/wordbattle/internal/model"
)

// Config holds settings for resolving word images
type Config struct {
	// SearchURL is a page template where %s is replaced by the query-escaped word.
	// Empty disables fetching.
	SearchURL string
	// Selector picks candidate image elements on the page
	Selector string
	Timeout  time.Duration
}

// DefaultConfig returns the default fetcher configuration (fetching disabled)
func DefaultConfig() Config {
	return Config{
		Selector: "img",
		Timeout:  10 * time.Second,
	}
}

// Fetcher resolves an image URL for a word by scraping a search page
type Fetcher struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new Fetcher
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Selector == "" {
		cfg.Selector = DefaultConfig().Selector
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With(slog.String("component", "image-fetcher")),
	}
}

// Enabled reports whether a search URL is configured
func (f *Fetcher) Enabled() bool {
	return f.cfg.SearchURL != ""
}

// Fetch returns the first absolute http(s) image URL found on the word's search page
func (f *Fetcher) Fetch(ctx context.Context, word string) (string, error) {
	if !f.Enabled() {
		return "", model.ErrImageFetchDisabled
	}

	pageURL := fmt.Sprintf(f.cfg.SearchURL, url.QueryEscape(word))
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch search page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("search page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse search page: %w", err)
	}

	var found string
	doc.Find(f.cfg.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src"} {
			raw, ok := sel.Attr(attr)
			if !ok || strings.TrimSpace(raw) == "" {
				continue
			}
			if resolved := resolveImageURL(base, raw); resolved != "" {
				found = resolved
				return false
			}
		}
		return true
	})

	if found == "" {
		return "", model.ErrImageNotFound
	}

	f.logger.Debug("image resolved",
		slog.String("word", word),
		slog.String("image", found))
	return found, nil
}

// resolveImageURL makes raw absolute against base, rejecting non-http(s) schemes such as data:
func resolveImageURL(base *url.URL, raw string) string {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
