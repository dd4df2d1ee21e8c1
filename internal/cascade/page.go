package cascade

import (
	"context"
	"fmt"
	"strings"

	"ArticleHarvester/internal/ports"
)

// ErrNoElement is the miss reason for a selector that matched nothing.
var ErrNoElement = fmt.Errorf("%w: no matching element", ErrEmpty)

// Text builds a strategy reading the trimmed visible text of the first element matching selector.
func Text(ctx context.Context, page ports.WebSession, selector string, accept func(string) bool) Strategy[string] {
	return Strategy[string]{
		Name: selector,
		Lookup: func() (string, error) {
			el, err := firstElement(ctx, page, selector)
			if err != nil {
				return "", err
			}
			text, err := el.Text(ctx)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(text), nil
		},
		Accept: accept,
	}
}

// Elements builds a strategy returning every element matching selector.
func Elements(ctx context.Context, page ports.WebSession, selector string) Strategy[[]ports.Element] {
	return Strategy[[]ports.Element]{
		Name: selector,
		Lookup: func() ([]ports.Element, error) {
			return page.Find(ctx, selector)
		},
	}
}

// NonEmpty accepts strings with at least one non-space character.
func NonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

func firstElement(ctx context.Context, page ports.WebSession, selector string) (ports.Element, error) {
	elements, err := page.Find(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, ErrNoElement
	}
	return elements[0], nil
}
