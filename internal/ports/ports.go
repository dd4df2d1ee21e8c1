package ports

import (
	"context"
	"errors"
	"time"

	"ArticleHarvester/internal/domain"
)

var (
	// ErrSessionUnavailable marks faults of the web session itself; they abort the batch.
	ErrSessionUnavailable = errors.New("web session unavailable")
	// ErrNoPage is returned when the session is queried before any navigation.
	ErrNoPage = errors.New("no page loaded")
)

// Element is a single node matched on the current page.
type Element interface {
	Text(ctx context.Context) (string, error)
	Attribute(name string) (string, bool)
}

// WebSession drives a browser-like page that the pipeline owns exclusively.
type WebSession interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Markup(ctx context.Context) (string, error)
	Find(ctx context.Context, selector string) ([]Element, error)
	Close() error
}

// Screenshotter is implemented by sessions able to capture the rendered page.
type Screenshotter interface {
	Screenshot(ctx context.Context, path string) error
}

// FetchRequest describes a plain HTTP download.
type FetchRequest struct {
	URL     string
	Referer string
}

// FetchResponse carries the fully received body.
type FetchResponse struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher transfers bytes over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// ArticleSink receives the artifacts of one article.
type ArticleSink interface {
	Dir() string
	SaveResource(ctx context.Context, candidate domain.ResourceCandidate, body []byte) (string, error)
	SaveRecord(ctx context.Context, record domain.ArticleRecord) (domain.ArticleRecord, error)
}

// ArtifactStore allocates per-article sinks.
type ArtifactStore interface {
	Begin(sequence int, title string) (ArticleSink, error)
}

// ArticleRepository keeps a history of harvested articles.
type ArticleRepository interface {
	SaveHarvested(ctx context.Context, runID string, record domain.ArticleRecord) error
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Notifier streams batch digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
