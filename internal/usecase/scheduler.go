package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/ports"
)

// Searcher runs one search batch.
type Searcher interface {
	Search(ctx context.Context, query string, max int) (domain.Batch, error)
}

// Scheduler wires the interval driver with a recurring search.
type Scheduler struct {
	driver   ports.Scheduler
	searcher Searcher
	query    string
	max      int
	logger   *slog.Logger
	onBatch  func(domain.Batch)
}

// NewScheduler returns a helper to start/stop a recurring search.
func NewScheduler(driver ports.Scheduler, searcher Searcher, query string, max int, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, searcher: searcher, query: query, max: max, logger: log}
}

// OnBatch registers a callback invoked after every run, including partial ones.
func (s *Scheduler) OnBatch(fn func(domain.Batch)) {
	s.onBatch = fn
}

// Start registers the search with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.searcher == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled search", "trigger", trigger.Format(time.RFC3339), "query", s.query)
		batch, err := s.searcher.Search(ctx, s.query, s.max)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("scheduled search failed", "error", err)
		}
		if s.onBatch != nil {
			s.onBatch(batch)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
