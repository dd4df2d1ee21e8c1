package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ArticleHarvester/internal/ports"
)

// Page is a loaded HTML document and the URL it was finally served from.
type Page struct {
	URL  string
	HTML string
}

// Loader retrieves pages for a DocumentSession.
type Loader interface {
	Load(ctx context.Context, url string) (Page, error)
}

// FetchLoader loads pages through a ports.Fetcher.
type FetchLoader struct {
	Fetcher ports.Fetcher
}

// Load fetches rawURL and returns its body as HTML.
func (l FetchLoader) Load(ctx context.Context, rawURL string) (Page, error) {
	resp, err := l.Fetcher.Fetch(ctx, ports.FetchRequest{URL: rawURL})
	if err != nil {
		return Page{}, err
	}
	final := resp.URL
	if final == "" {
		final = rawURL
	}
	return Page{URL: final, HTML: string(resp.Body)}, nil
}

// StaticPages serves fixed markup keyed by URL.
type StaticPages map[string]string

// Load returns the markup registered for rawURL.
func (p StaticPages) Load(_ context.Context, rawURL string) (Page, error) {
	html, ok := p[rawURL]
	if !ok {
		return Page{}, fmt.Errorf("static page %s not registered", rawURL)
	}
	return Page{URL: rawURL, HTML: html}, nil
}

// DocumentSession is a WebSession over server-rendered HTML; scripts are never executed.
type DocumentSession struct {
	loader Loader
	page   Page
	doc    *goquery.Document
}

var _ ports.WebSession = (*DocumentSession)(nil)

// NewDocumentSession wires a page loader.
func NewDocumentSession(loader Loader) *DocumentSession {
	return &DocumentSession{loader: loader}
}

// Navigate loads rawURL and makes it the current page.
func (s *DocumentSession) Navigate(ctx context.Context, rawURL string) error {
	if s.loader == nil {
		return fmt.Errorf("%w: loader is not configured", ports.ErrSessionUnavailable)
	}
	page, err := s.loader.Load(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if parsed, err := url.Parse(page.URL); err == nil {
		doc.Url = parsed
	}
	s.page = page
	s.doc = doc
	return nil
}

// CurrentURL returns the URL of the loaded page.
func (s *DocumentSession) CurrentURL(context.Context) (string, error) {
	if s.doc == nil {
		return "", ports.ErrNoPage
	}
	return s.page.URL, nil
}

// Title returns the document title element text.
func (s *DocumentSession) Title(context.Context) (string, error) {
	if s.doc == nil {
		return "", ports.ErrNoPage
	}
	return strings.TrimSpace(s.doc.Find("title").First().Text()), nil
}

// Markup returns the raw page source.
func (s *DocumentSession) Markup(context.Context) (string, error) {
	if s.doc == nil {
		return "", ports.ErrNoPage
	}
	return s.page.HTML, nil
}

// Find returns every element matching a CSS selector.
func (s *DocumentSession) Find(_ context.Context, selector string) ([]ports.Element, error) {
	if s.doc == nil {
		return nil, ports.ErrNoPage
	}
	var elements []ports.Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, documentElement{sel: sel})
	})
	return elements, nil
}

// Close drops the current page.
func (s *DocumentSession) Close() error {
	s.doc = nil
	s.page = Page{}
	return nil
}

type documentElement struct {
	sel *goquery.Selection
}

func (e documentElement) Text(context.Context) (string, error) {
	return VisibleText(e.sel), nil
}

func (e documentElement) Attribute(name string) (string, bool) {
	return e.sel.Attr(name)
}
