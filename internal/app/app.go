package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"ArticleHarvester/internal/config"
	"ArticleHarvester/internal/discovery"
	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/extract"
	"ArticleHarvester/internal/infrastructure/browser"
	"ArticleHarvester/internal/infrastructure/fetch"
	"ArticleHarvester/internal/infrastructure/scheduler"
	"ArticleHarvester/internal/infrastructure/storage"
	"ArticleHarvester/internal/infrastructure/telegram"
	"ArticleHarvester/internal/locator"
	"ArticleHarvester/internal/logging"
	"ArticleHarvester/internal/ports"
	"ArticleHarvester/internal/summarize"
	"ArticleHarvester/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	pipeline   *usecase.Pipeline
	db         *sql.DB
	repository *storage.PostgresRepository
}

// New builds the application. The database is opened only when a DSN is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	var repo ports.ArticleRepository
	if cfg.Database.DSN != "" {
		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.repository = storage.NewPostgresRepository(db)
		if err := a.repository.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		repo = a.repository
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	fetcher := fetch.NewClient(nil, fetch.Options{
		Timeout:     cfg.Fetch.Timeout,
		UserAgent:   cfg.Fetch.UserAgent,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		MaxBytes:    cfg.Fetch.MaxBytes,
	})

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		OpenSession: a.sessionOpener(fetcher),
		Discoverer: discovery.New(discovery.Options{
			BaseURL:           cfg.Site.BaseURL,
			SearchURLTemplate: cfg.Site.SearchURLTemplate,
			ArticlePathPrefix: cfg.Site.ArticlePathPrefix,
			Selectors:         cfg.Site.Selectors.Results,
		}, baseLogger.With("component", "discovery")),
		Extractor: extract.New(extract.Options{
			TitleSelectors:      cfg.Site.Selectors.Title,
			BodySelectors:       cfg.Site.Selectors.Body,
			AbstractSelectors:   cfg.Site.Selectors.Abstract,
			TitleSuffix:         cfg.Site.TitleSuffix,
			ReadabilityFallback: cfg.Extract.ReadabilityFallback,
		}, baseLogger.With("component", "extract")),
		Locator: locator.New(locatorOptions(cfg.Site), fetcher, baseLogger.With("component", "locator")),
		Summarize: summarize.Summarize,
		Store: storage.NewFileStore(storage.FileStoreOptions{
			Root:           cfg.Output.Dir,
			NameLimit:      cfg.Output.NameLimit,
			ResourceSuffix: cfg.Site.ResourceSuffix,
			TextPDF:        cfg.Output.TextPDF,
			PDFFont:        cfg.Output.PDFFont,
			Logger:         baseLogger.With("component", "storage"),
		}),
		Repository:    repo,
		Notifier:      notifier,
		Logger:        baseLogger.With("component", "pipeline"),
		ArticleDelay:  cfg.Browser.ArticleDelay,
		ScreenshotDir: cfg.Browser.ScreenshotDir,
	})

	return a, nil
}

// Search runs a single batch.
func (a *Application) Search(ctx context.Context, query string, max int) (domain.Batch, error) {
	return a.pipeline.Search(ctx, query, max)
}

// Watch repeats the search every scheduler interval until ctx is done.
func (a *Application) Watch(ctx context.Context, query string, max int, onBatch func(domain.Batch)) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.pipeline, query, max, a.logger.With("component", "scheduler"))
	sched.OnBatch(onBatch)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return sched.Stop(context.WithoutCancel(ctx))
}

// History lists recently harvested articles.
func (a *Application) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if a.repository == nil {
		return nil, errors.New("history requires database.dsn or DATABASE_DSN")
	}
	return a.repository.Recent(ctx, limit)
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// sessionOpener picks the web session adapter; a fresh session is opened per batch.
func (a *Application) sessionOpener(fetcher ports.Fetcher) usecase.SessionOpener {
	b := a.cfg.Browser
	if b.Driver == config.DriverHTTP {
		return func(context.Context) (ports.WebSession, error) {
			return browser.NewDocumentSession(browser.FetchLoader{Fetcher: fetcher}), nil
		}
	}

	log := a.logger.With("component", "chrome")
	return func(ctx context.Context) (ports.WebSession, error) {
		session, err := browser.NewChromeSession(ctx, browser.ChromeOptions{
			ExecPath:          b.ExecPath,
			Headless:          b.Headless,
			UserAgent:         b.UserAgent,
			WindowWidth:       b.WindowWidth,
			WindowHeight:      b.WindowHeight,
			NavigationTimeout: b.NavigationTimeout,
			ActionTimeout:     b.ActionTimeout,
			SettleDelay:       b.SettleDelay,
		}, log)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

func locatorOptions(site config.SiteConfig) locator.Options {
	opts := locator.Options{
		BaseURL:              site.BaseURL,
		ArticlePathPrefix:    site.ArticlePathPrefix,
		ResourcePathPrefix:   site.ResourcePathPrefix,
		ResourceSuffix:       site.ResourceSuffix,
		DomainFragment:       site.DomainFragment,
		StandardPathTemplate: site.StandardPathTemplate,
		Selectors:            site.Selectors.Resource,
	}
	for _, m := range site.Mutations {
		opts.Mutations = append(opts.Mutations, locator.Mutation{Replace: m.Replace, With: m.With, Append: m.Append})
	}
	return opts
}
