package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/extract"
	"ArticleHarvester/internal/locator"
	"ArticleHarvester/internal/ports"
)

// ErrInvalidQuery is returned for an empty query or a non-positive result limit.
var ErrInvalidQuery = errors.New("invalid search query")

var errNothingHarvested = errors.New("neither text nor resource obtained")

// Discoverer lists article pages for a query.
type Discoverer interface {
	Discover(ctx context.Context, session ports.WebSession, query string, max int) ([]domain.ArticleRef, error)
}

// Extractor reads title, text and abstract from the current page.
type Extractor interface {
	Extract(ctx context.Context, page ports.WebSession) extract.Content
}

// Locator finds and persists the downloadable resource of the current page.
type Locator interface {
	Locate(ctx context.Context, page ports.WebSession, persist locator.Persist) domain.ResourceResult
}

// SessionOpener starts a fresh web session for one batch.
type SessionOpener func(ctx context.Context) (ports.WebSession, error)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	OpenSession   SessionOpener
	Discoverer    Discoverer
	Extractor     Extractor
	Locator       Locator
	Summarize     func(text string) string
	Store         ports.ArtifactStore
	Repository    ports.ArticleRepository
	Notifier      ports.Notifier
	Logger        *slog.Logger
	ArticleDelay  time.Duration
	ScreenshotDir string
}

// Pipeline implements the search, extract, locate and persist workflow.
type Pipeline struct {
	openSession   SessionOpener
	discoverer    Discoverer
	extractor     Extractor
	locator       Locator
	summarize     func(string) string
	store         ports.ArtifactStore
	repository    ports.ArticleRepository
	notifier      ports.Notifier
	logger        *slog.Logger
	articleDelay  time.Duration
	screenshotDir string
	now           func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		openSession:   deps.OpenSession,
		discoverer:    deps.Discoverer,
		extractor:     deps.Extractor,
		locator:       deps.Locator,
		summarize:     deps.Summarize,
		store:         deps.Store,
		repository:    deps.Repository,
		notifier:      deps.Notifier,
		logger:        log,
		articleDelay:  deps.ArticleDelay,
		screenshotDir: deps.ScreenshotDir,
		now:           time.Now,
	}
}

// Search harvests up to max articles found for query.
//
// Per-article failures skip the article. Session faults, cancellation and a
// failed search page abort the batch; the records gathered so far are still
// returned alongside the error.
func (p *Pipeline) Search(ctx context.Context, query string, max int) (domain.Batch, error) {
	query = strings.TrimSpace(query)
	if query == "" || max <= 0 {
		return domain.Batch{}, fmt.Errorf("%w: query=%q max=%d", ErrInvalidQuery, query, max)
	}

	batch := domain.Batch{
		RunID:     uuid.NewString(),
		Query:     query,
		StartedAt: p.now(),
	}
	log := p.logger.With("run_id", batch.RunID)

	if p.openSession == nil || p.discoverer == nil || p.extractor == nil || p.locator == nil || p.store == nil {
		return p.finish(batch), fmt.Errorf("pipeline misconfigured: %w", ports.ErrSessionUnavailable)
	}

	session, err := p.openSession(ctx)
	if err != nil {
		return p.finish(batch), fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("close session", "error", cerr)
		}
	}()

	log.Info("search started", "query", query, "max", max)
	refs, err := p.discoverer.Discover(ctx, session, query, max)
	if err != nil {
		return p.finish(batch), err
	}
	p.screenshot(ctx, session, "search_results.png")

	if len(refs) == 0 {
		log.Info("no articles found", "query", query)
		return p.finish(batch), nil
	}
	log.Info("articles discovered", "count", len(refs))

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return p.finish(batch), err
		}
		if i > 0 && !sleep(ctx, p.articleDelay) {
			return p.finish(batch), ctx.Err()
		}

		batch.Attempted++
		record, err := p.harvest(ctx, session, i+1, ref)
		if err != nil {
			if errors.Is(err, ports.ErrSessionUnavailable) {
				log.Error("session lost, aborting batch", "url", ref.URL, "error", err)
				return p.finish(batch), err
			}
			if ctx.Err() != nil {
				return p.finish(batch), ctx.Err()
			}
			log.Warn("article skipped", "url", ref.URL, "error", err)
			continue
		}

		batch.Add(record)
		log.Info("article harvested",
			"sequence", record.Sequence,
			"title", record.Title,
			"status", record.Status(),
			"resource", record.ResourceURL,
		)

		if p.repository != nil {
			if err := p.repository.SaveHarvested(ctx, batch.RunID, record); err != nil {
				log.Warn("persist history", "url", record.SourceURL, "error", err)
			}
		}
	}

	batch = p.finish(batch)
	log.Info("search finished",
		"attempted", batch.Attempted,
		"succeeded", batch.Succeeded,
		"download_only", batch.DownloadOnly,
	)

	if p.notifier != nil && len(batch.Records) > 0 {
		if err := p.notifier.PublishDigest(ctx, BuildDigestMessage(batch)); err != nil {
			log.Warn("publish digest", "error", err)
		}
	}

	return batch, nil
}

func (p *Pipeline) harvest(ctx context.Context, session ports.WebSession, sequence int, ref domain.ArticleRef) (domain.ArticleRecord, error) {
	if err := session.Navigate(ctx, ref.URL); err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("open article: %w", err)
	}
	p.screenshot(ctx, session, fmt.Sprintf("article_%02d.png", sequence))

	content := p.extractor.Extract(ctx, session)

	sink, err := p.store.Begin(sequence, content.Title)
	if err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("allocate artifacts: %w", err)
	}

	record := domain.ArticleRecord{
		Sequence:  sequence,
		Title:     content.Title,
		FullText:  content.Body,
		Abstract:  content.Abstract,
		SourceURL: ref.URL,
	}

	result := p.locator.Locate(ctx, session, sink.SaveResource)
	if result.Found {
		record.ResourceURL = result.Candidate.URL
		record.ResourceOrigin = result.Candidate.Origin
		record.Files.Original = result.File
	}

	if record.Status() == domain.StatusFailed {
		return record, errNothingHarvested
	}

	if record.Processed() && p.summarize != nil {
		record.Summary = p.summarize(record.FullText)
	}

	saved, err := sink.SaveRecord(ctx, record)
	if err != nil {
		return record, fmt.Errorf("save artifacts: %w", err)
	}
	return saved, nil
}

func (p *Pipeline) screenshot(ctx context.Context, session ports.WebSession, name string) {
	if p.screenshotDir == "" {
		return
	}
	shooter, ok := session.(ports.Screenshotter)
	if !ok {
		return
	}
	path := filepath.Join(p.screenshotDir, name)
	if err := shooter.Screenshot(ctx, path); err != nil {
		p.logger.Debug("screenshot failed", "path", path, "error", err)
	}
}

func (p *Pipeline) finish(batch domain.Batch) domain.Batch {
	batch.FinishedAt = p.now()
	return batch
}

// BuildDigestMessage renders a batch as a plain-text digest.
func BuildDigestMessage(batch domain.Batch) string {
	if len(batch.Records) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nHarvested %d of %d (download only: %d)\n\n",
		batch.Query, batch.Succeeded+batch.DownloadOnly, batch.Attempted, batch.DownloadOnly)

	for _, record := range batch.Records {
		fmt.Fprintf(&b, "%02d. %s\n", record.Sequence, record.Title)
		if record.Summary != "" {
			b.WriteString(record.Summary)
			b.WriteString("\n")
		}
		b.WriteString(record.SourceURL)
		b.WriteString("\n")
		if record.ResourceURL != "" {
			fmt.Fprintf(&b, "Download: %s\n", record.ResourceURL)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
