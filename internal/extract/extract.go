// Package extract pulls title, body text and abstract from a visited article page.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"ArticleHarvester/internal/cascade"
	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/ports"
)

// Title length bounds, in characters, exclusive.
const (
	minTitleLen = 5
	maxTitleLen = 200
)

var (
	DefaultTitleSelectors    = []string{"h1", ".article-title", ".title", "h2", `[class*="title"]`}
	DefaultBodySelectors     = []string{".fulltext", ".article-text", ".content", "article"}
	DefaultAbstractSelectors = []string{".abstract", ".annotation"}
)

// Options lists the selectors of each cascade.
type Options struct {
	TitleSelectors      []string
	BodySelectors       []string
	AbstractSelectors   []string
	TitleSuffix         string
	ReadabilityFallback bool
}

// Content is what the extractor could read from one page.
type Content struct {
	Title    string
	Body     string
	Abstract string
}

// Extractor runs the three independent extraction cascades.
type Extractor struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New applies default selectors where none are configured.
func New(opts Options, log *slog.Logger) *Extractor {
	if len(opts.TitleSelectors) == 0 {
		opts.TitleSelectors = DefaultTitleSelectors
	}
	if len(opts.BodySelectors) == 0 {
		opts.BodySelectors = DefaultBodySelectors
	}
	if len(opts.AbstractSelectors) == 0 {
		opts.AbstractSelectors = DefaultAbstractSelectors
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Extractor{opts: opts, logger: log, now: time.Now}
}

// Extract reads title, body and abstract; none of them can fail.
func (e *Extractor) Extract(ctx context.Context, page ports.WebSession) Content {
	return Content{
		Title:    e.Title(ctx, page),
		Body:     e.Body(ctx, page),
		Abstract: e.Abstract(ctx, page),
	}
}

// Title returns the first heading-like text of acceptable length, then the
// page title without the site suffix, then a timestamped placeholder.
func (e *Extractor) Title(ctx context.Context, page ports.WebSession) string {
	strategies := make([]cascade.Strategy[string], 0, len(e.opts.TitleSelectors)+1)
	for _, selector := range e.opts.TitleSelectors {
		strategies = append(strategies, cascade.Text(ctx, page, selector, acceptableTitle))
	}
	strategies = append(strategies, cascade.Strategy[string]{
		Name: "page title",
		Lookup: func() (string, error) {
			title, err := page.Title(ctx)
			if err != nil {
				return "", err
			}
			if e.opts.TitleSuffix != "" {
				title = strings.ReplaceAll(title, e.opts.TitleSuffix, "")
			}
			return strings.TrimSpace(title), nil
		},
		Accept: cascade.NonEmpty,
	})

	out, ok := cascade.First(strategies...)
	e.trace("title", out.Misses)
	if ok {
		return out.Value
	}
	return fmt.Sprintf("article_%d", e.now().Unix())
}

// Body returns the visible text of the first matching content container.
func (e *Extractor) Body(ctx context.Context, page ports.WebSession) string {
	strategies := make([]cascade.Strategy[string], 0, len(e.opts.BodySelectors)+1)
	for _, selector := range e.opts.BodySelectors {
		strategies = append(strategies, cascade.Text(ctx, page, selector, cascade.NonEmpty))
	}
	if e.opts.ReadabilityFallback {
		strategies = append(strategies, cascade.Strategy[string]{
			Name:   "readability",
			Lookup: func() (string, error) { return readable(ctx, page) },
			Accept: cascade.NonEmpty,
		})
	}

	out, ok := cascade.First(strategies...)
	e.trace("body", out.Misses)
	if !ok {
		return domain.ContentNotFound
	}
	return out.Value
}

// Abstract returns the annotation text or the abstract sentinel.
func (e *Extractor) Abstract(ctx context.Context, page ports.WebSession) string {
	strategies := make([]cascade.Strategy[string], 0, len(e.opts.AbstractSelectors))
	for _, selector := range e.opts.AbstractSelectors {
		strategies = append(strategies, cascade.Text(ctx, page, selector, cascade.NonEmpty))
	}

	out, ok := cascade.First(strategies...)
	e.trace("abstract", out.Misses)
	if !ok {
		return domain.AbstractNotFound
	}
	return out.Value
}

func (e *Extractor) trace(field string, misses []cascade.Miss) {
	for _, m := range misses {
		e.logger.Debug("extraction strategy missed", "field", field, "strategy", m.Strategy, "error", m.Err)
	}
}

func acceptableTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n > minTitleLen && n < maxTitleLen
}

func readable(ctx context.Context, page ports.WebSession) (string, error) {
	markup, err := page.Markup(ctx)
	if err != nil {
		return "", err
	}
	var pageURL *url.URL
	if current, err := page.CurrentURL(ctx); err == nil {
		pageURL, _ = url.Parse(current)
	}
	article, err := readability.FromReader(strings.NewReader(markup), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return strings.TrimSpace(article.TextContent), nil
}
