// Package locator finds a downloadable document for an article page.
//
// Candidate URLs come from an ordered list of heuristics. A candidate is only
// accepted after it has actually been fetched and persisted; URL shape alone
// never makes a result "found".
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/ports"
)

// MinResourceBytes is the size a download must exceed to count as a document.
const MinResourceBytes = 1000

var (
	errTooSmall = errors.New("resource too small")
	errStatus   = errors.New("unsuccessful status")
)

// Persist stores a verified resource body and returns the written file name.
type Persist func(ctx context.Context, candidate domain.ResourceCandidate, body []byte) (string, error)

// State of the verification cascade.
type State int

const (
	StateCandidatesRemaining State = iota
	StateVerifying
	StateFound
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateCandidatesRemaining:
		return "candidates_remaining"
	case StateVerifying:
		return "verifying"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Locator runs the candidate strategies against the current page.
type Locator struct {
	opts    Options
	fetcher ports.Fetcher
	logger  *slog.Logger
}

// New wires the fetcher used to verify candidates.
func New(opts Options, fetcher ports.Fetcher, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Locator{opts: opts.withDefaults(), fetcher: fetcher, logger: log}
}

// Locate walks the strategies until a candidate is fetched and persisted.
// Exhausting every strategy is a normal outcome, reported with Found=false.
func (l *Locator) Locate(ctx context.Context, page ports.WebSession, persist Persist) domain.ResourceResult {
	referer, err := page.CurrentURL(ctx)
	if err != nil {
		l.logger.Debug("current url unavailable", "error", err)
	}

	run := &verification{
		locator: l,
		referer: referer,
		persist: persist,
		tried:   map[string]struct{}{},
		state:   StateCandidatesRemaining,
	}

	for _, strategy := range l.strategies(ctx, page, referer) {
		run.try(ctx, strategy)
		if run.state == StateFound {
			return run.result
		}
	}

	run.state = StateExhausted
	l.logger.Info("no downloadable resource found", "page", referer, "attempts", len(run.result.Attempts))
	return run.result
}

// source lazily produces the candidates of one strategy.
type source struct {
	origin     domain.Origin
	candidates func() []string
}

func (l *Locator) strategies(ctx context.Context, page ports.WebSession, current string) []source {
	return []source{
		{origin: domain.OriginSelectorScan, candidates: func() []string {
			if u, ok := l.scanSelectors(ctx, page); ok {
				return []string{u}
			}
			return nil
		}},
		{origin: domain.OriginStandardPath, candidates: func() []string {
			if u, ok := l.standardPath(current); ok {
				return []string{u}
			}
			return nil
		}},
		{origin: domain.OriginMarkupScan, candidates: func() []string {
			markup, err := page.Markup(ctx)
			if err != nil {
				l.logger.Debug("page markup unavailable", "error", err)
				return nil
			}
			return l.scanMarkup(markup)
		}},
		{origin: domain.OriginURLMutation, candidates: func() []string {
			return l.mutations(current)
		}},
	}
}

type verification struct {
	locator *Locator
	referer string
	persist Persist
	tried   map[string]struct{}
	state   State
	result  domain.ResourceResult
}

func (v *verification) try(ctx context.Context, s source) {
	for _, u := range s.candidates() {
		if ctx.Err() != nil {
			return
		}
		if _, seen := v.tried[u]; seen {
			continue
		}
		v.tried[u] = struct{}{}

		candidate := domain.ResourceCandidate{URL: u, Origin: s.origin}
		v.state = StateVerifying
		file, err := v.verify(ctx, candidate)
		v.result.Attempts = append(v.result.Attempts, domain.Attempt{Candidate: candidate, Err: err})
		if err == nil {
			v.state = StateFound
			v.result.Found = true
			v.result.Candidate = candidate
			v.result.File = file
			v.locator.logger.Info("resource downloaded", "url", u, "origin", s.origin, "file", file)
			return
		}
		v.state = StateCandidatesRemaining
		v.locator.logger.Debug("resource candidate rejected", "url", u, "origin", s.origin, "error", err)
	}
}

func (v *verification) verify(ctx context.Context, candidate domain.ResourceCandidate) (string, error) {
	if v.locator.fetcher == nil {
		return "", errors.New("fetcher is not configured")
	}
	resp, err := v.locator.fetcher.Fetch(ctx, ports.FetchRequest{URL: candidate.URL, Referer: v.referer})
	if err != nil {
		return "", err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
	}
	if len(resp.Body) <= MinResourceBytes {
		return "", fmt.Errorf("%w: %d bytes", errTooSmall, len(resp.Body))
	}
	if v.persist == nil {
		return "", nil
	}
	file, err := v.persist(ctx, candidate, resp.Body)
	if err != nil {
		return "", fmt.Errorf("persist resource: %w", err)
	}
	return file, nil
}

func trimBase(base string) string {
	return strings.TrimSuffix(base, "/")
}
