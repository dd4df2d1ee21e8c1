package locator

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"ArticleHarvester/internal/cascade"
	"ArticleHarvester/internal/ports"
)

// DefaultSelectors match elements that usually carry a download link.
var DefaultSelectors = []string{
	`a[href*=".pdf"]`,
	`a[href*="/pdf/"]`,
	`a[href*="download"]`,
	".pdf-download",
	".download",
	`[class*="pdf"]`,
	`[class*="download"]`,
	`button[onclick*="pdf"]`,
	`button[onclick*="download"]`,
}

// Mutation rewrites the article URL into a resource guess.
// Replace/With swaps a path fragment; Append adds a suffix.
type Mutation struct {
	Replace string
	With    string
	Append  string
}

// Options describes the site's resource URL scheme. Templates accept {base} and {id}.
type Options struct {
	BaseURL              string
	ArticlePathPrefix    string
	ResourcePathPrefix   string
	ResourceSuffix       string
	DomainFragment       string
	StandardPathTemplate string
	Selectors            []string
	DataAttributes       []string
	Mutations            []Mutation

	absoluteInScript *regexp.Regexp
	relativeInScript *regexp.Regexp
	inMarkup         *regexp.Regexp
}

func (o Options) withDefaults() Options {
	if o.ArticlePathPrefix == "" {
		o.ArticlePathPrefix = "/article/"
	}
	if o.ResourcePathPrefix == "" {
		o.ResourcePathPrefix = "/pdf/"
	}
	if o.ResourceSuffix == "" {
		o.ResourceSuffix = ".pdf"
	}
	if o.StandardPathTemplate == "" {
		o.StandardPathTemplate = "{base}/article/{id}.pdf"
	}
	if o.DomainFragment == "" {
		o.DomainFragment = domainFragment(o.BaseURL)
	}
	if len(o.Selectors) == 0 {
		o.Selectors = DefaultSelectors
	}
	if len(o.DataAttributes) == 0 {
		o.DataAttributes = []string{"data-url", "data-href"}
	}
	if o.Mutations == nil {
		o.Mutations = []Mutation{
			{Replace: o.ArticlePathPrefix, With: o.ResourcePathPrefix},
			{Append: o.ResourceSuffix},
			{Append: "/download"},
		}
	}

	suffix := regexp.QuoteMeta(o.ResourceSuffix)
	o.absoluteInScript = regexp.MustCompile(`['"](https?://[^'"]+` + suffix + `)['"]`)
	o.relativeInScript = regexp.MustCompile(`['"](/[^'"]+` + suffix + `)['"]`)
	o.inMarkup = regexp.MustCompile(`https?://[^"'\s<>]+` + suffix)
	return o
}

// scanSelectors returns the first URL any matching element yields.
func (l *Locator) scanSelectors(ctx context.Context, page ports.WebSession) (string, bool) {
	strategies := make([]cascade.Strategy[string], 0, len(l.opts.Selectors))
	for _, selector := range l.opts.Selectors {
		strategies = append(strategies, cascade.Strategy[string]{
			Name: selector,
			Lookup: func() (string, error) {
				elements, err := page.Find(ctx, selector)
				if err != nil {
					return "", err
				}
				for _, el := range elements {
					if u, ok := l.fromElement(el); ok {
						return u, nil
					}
				}
				return "", cascade.ErrNoElement
			},
		})
	}

	out, ok := cascade.First(strategies...)
	for _, m := range out.Misses {
		l.logger.Debug("resource selector missed", "selector", m.Strategy, "error", m.Err)
	}
	return out.Value, ok
}

// fromElement tries the link attribute, then inline script, then data attributes.
func (l *Locator) fromElement(el ports.Element) (string, bool) {
	if href, ok := el.Attribute("href"); ok && l.looksLikeResource(href) {
		if u, ok := l.absolute(href); ok {
			return u, true
		}
	}

	if onclick, ok := el.Attribute("onclick"); ok && onclick != "" {
		if m := l.opts.absoluteInScript.FindStringSubmatch(onclick); m != nil {
			return m[1], true
		}
		if m := l.opts.relativeInScript.FindStringSubmatch(onclick); m != nil {
			if u, ok := l.absolute(m[1]); ok {
				return u, true
			}
		}
	}

	for _, attr := range l.opts.DataAttributes {
		value, ok := el.Attribute(attr)
		if !ok || value == "" {
			continue
		}
		if l.looksLikeResource(value) {
			if u, ok := l.absolute(value); ok {
				return u, true
			}
		}
		break
	}
	return "", false
}

// standardPath appends the resource suffix to the article identifier.
func (l *Locator) standardPath(current string) (string, bool) {
	idx := strings.LastIndex(current, l.opts.ArticlePathPrefix)
	if idx < 0 {
		return "", false
	}
	id := current[idx+len(l.opts.ArticlePathPrefix):]
	if id == "" {
		return "", false
	}
	return strings.NewReplacer("{base}", trimBase(l.opts.BaseURL), "{id}", id).Replace(l.opts.StandardPathTemplate), true
}

// scanMarkup returns resource URLs on the site's own domain in document order.
func (l *Locator) scanMarkup(markup string) []string {
	var out []string
	for _, u := range l.opts.inMarkup.FindAllString(markup, -1) {
		if l.opts.DomainFragment == "" || strings.Contains(u, l.opts.DomainFragment) {
			out = append(out, u)
		}
	}
	return out
}

// mutations rewrites the current page URL into resource guesses.
func (l *Locator) mutations(current string) []string {
	if current == "" {
		return nil
	}
	var out []string
	for _, m := range l.opts.Mutations {
		switch {
		case m.Replace != "":
			if strings.Contains(current, m.Replace) {
				out = append(out, strings.ReplaceAll(current, m.Replace, m.With))
			}
		case m.Append != "":
			out = append(out, current+m.Append)
		}
	}
	return out
}

func (l *Locator) looksLikeResource(value string) bool {
	return strings.Contains(value, l.opts.ResourceSuffix) || strings.Contains(value, l.opts.ResourcePathPrefix)
}

func (l *Locator) absolute(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http") {
		return href, true
	}
	base, err := url.Parse(trimBase(l.opts.BaseURL) + "/")
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// domainFragment derives the registrable name from a base URL, e.g. "cyberleninka" from cyberleninka.ru.
func domainFragment(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	labels := strings.Split(strings.TrimPrefix(u.Hostname(), "www."), ".")
	if len(labels) >= 2 {
		return labels[len(labels)-2]
	}
	return labels[0]
}
