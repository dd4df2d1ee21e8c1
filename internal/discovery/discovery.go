// Package discovery turns a search query into a list of article page URLs.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"ArticleHarvester/internal/cascade"
	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/ports"
)

// DefaultSelectors are tried in order on the search results page.
var DefaultSelectors = []string{
	`a[href*="/article/"]`,
	".search-result a",
	".article a",
	".item a",
	".card a",
	"h2 a",
	"h3 a",
}

// Options describes the site's search and article URL scheme.
type Options struct {
	BaseURL           string
	SearchURLTemplate string
	ArticlePathPrefix string
	Selectors         []string
	FallbackSelector  string
}

// Discoverer collects article links from the search results view.
type Discoverer struct {
	opts       Options
	searchPath string
	logger     *slog.Logger
}

// New applies defaults for empty selector settings.
func New(opts Options, log *slog.Logger) *Discoverer {
	if len(opts.Selectors) == 0 {
		opts.Selectors = DefaultSelectors
	}
	if opts.FallbackSelector == "" {
		opts.FallbackSelector = "a"
	}
	if opts.SearchURLTemplate == "" {
		opts.SearchURLTemplate = "{base}/search?q={query}"
	}
	if opts.ArticlePathPrefix == "" {
		opts.ArticlePathPrefix = "/article/"
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	d := &Discoverer{opts: opts, logger: log}
	if parsed, err := url.Parse(d.SearchURL("probe")); err == nil {
		d.searchPath = strings.TrimSuffix(parsed.Path, "/")
	}
	return d
}

// SearchURL renders the search-results URL for query.
func (d *Discoverer) SearchURL(query string) string {
	return strings.NewReplacer(
		"{base}", strings.TrimSuffix(d.opts.BaseURL, "/"),
		"{query}", url.QueryEscape(query),
	).Replace(d.opts.SearchURLTemplate)
}

// Discover opens the search results for query and returns at most max distinct article refs.
// An empty result is not an error; a failed navigation is.
func (d *Discoverer) Discover(ctx context.Context, session ports.WebSession, query string, max int) ([]domain.ArticleRef, error) {
	if max <= 0 {
		return nil, nil
	}

	searchURL := d.SearchURL(query)
	d.logger.Debug("open search page", "url", searchURL)
	if err := session.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("open search page: %w", err)
	}

	pageURL, err := session.CurrentURL(ctx)
	if err != nil || pageURL == "" {
		pageURL = searchURL
	}

	return d.Collect(ctx, session, pageURL, max), nil
}

// Collect scans the current page with the primary selectors, then with the
// fallback selector if fewer than max links were found.
func (d *Discoverer) Collect(ctx context.Context, session ports.WebSession, pageURL string, max int) []domain.ArticleRef {
	c := &collector{
		base:       pageURL,
		prefix:     d.opts.ArticlePathPrefix,
		searchPath: d.searchPath,
		max:        max,
		seen:       map[string]struct{}{},
	}

	primary := make([]cascade.Strategy[[]ports.Element], 0, len(d.opts.Selectors))
	for _, selector := range d.opts.Selectors {
		primary = append(primary, cascade.Elements(ctx, session, selector))
	}
	d.logMisses("primary", cascade.Collect(c.visit, primary...))

	if len(c.refs) < max {
		d.logger.Debug("primary selectors short, scanning all anchors", "found", len(c.refs), "want", max)
		d.logMisses("fallback", cascade.Collect(c.visit, cascade.Elements(ctx, session, d.opts.FallbackSelector)))
	}

	d.logger.Debug("links discovered", "count", len(c.refs))
	return c.refs
}

func (d *Discoverer) logMisses(stage string, misses []cascade.Miss) {
	for _, m := range misses {
		d.logger.Debug("link selector failed", "stage", stage, "selector", m.Strategy, "error", m.Err)
	}
}

type collector struct {
	base       string
	prefix     string
	searchPath string
	max        int
	seen       map[string]struct{}
	refs       []domain.ArticleRef
}

func (c *collector) visit(el ports.Element) bool {
	if len(c.refs) >= c.max {
		return false
	}
	href, ok := el.Attribute("href")
	if !ok {
		return true
	}
	u, ok := c.accept(href)
	if !ok {
		return true
	}
	if _, dup := c.seen[u]; dup {
		return true
	}
	c.seen[u] = struct{}{}
	c.refs = append(c.refs, domain.ArticleRef{URL: u})
	return len(c.refs) < c.max
}

func (c *collector) accept(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := Resolve(c.base, href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	idx := strings.Index(u.Path, c.prefix)
	if idx < 0 || len(strings.Trim(u.Path[idx+len(c.prefix):], "/")) == 0 {
		return "", false
	}
	if c.isSearch(u) {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func (c *collector) isSearch(u *url.URL) bool {
	if c.searchPath == "" {
		return false
	}
	path := strings.TrimSuffix(u.Path, "/")
	return path == c.searchPath || strings.HasPrefix(path, c.searchPath+"/")
}

// Resolve makes href absolute against base.
func Resolve(base, href string) (*url.URL, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	return b.ResolveReference(ref), nil
}
