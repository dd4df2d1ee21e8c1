package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"ArticleHarvester/internal/ports"
	"ArticleHarvester/pkg/logger"
)

const hideWebdriverJS = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// ChromeOptions configures the headless Chrome session.
type ChromeOptions struct {
	ExecPath          string
	Headless          bool
	UserAgent         string
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	SettleDelay       time.Duration
}

// ChromeSession is a WebSession backed by a chromedp-controlled browser tab.
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        ChromeOptions
	logger      *slog.Logger
}

var (
	_ ports.WebSession    = (*ChromeSession)(nil)
	_ ports.Screenshotter = (*ChromeSession)(nil)
)

// NewChromeSession launches the browser; failures are reported as ports.ErrSessionUnavailable.
func NewChromeSession(ctx context.Context, opts ChromeOptions, log *slog.Logger) (*ChromeSession, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Printf(log, slog.LevelDebug)),
		chromedp.WithErrorf(logger.Printf(log, slog.LevelWarn)),
	)

	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverJS).Do(ctx)
		return err
	}))
	if err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("%w: start chrome: %v", ports.ErrSessionUnavailable, err)
	}

	return &ChromeSession{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		opts:        opts,
		logger:      log,
	}, nil
}

// Navigate opens rawURL, waits for the body or the navigation timeout, then settles.
func (s *ChromeSession) Navigate(ctx context.Context, rawURL string) error {
	err := s.run(ctx, s.opts.NavigationTimeout,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && s.ctx.Err() == nil {
		s.logger.Warn("navigation wait elapsed, continuing with partial page", "url", rawURL)
		err = nil
	}
	if err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	if s.opts.SettleDelay > 0 {
		select {
		case <-time.After(s.opts.SettleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// CurrentURL returns the tab location.
func (s *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

// Title returns the document title.
func (s *ChromeSession) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

// Markup returns the serialized DOM of the current page.
func (s *ChromeSession) Markup(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read markup: %w", err)
	}
	return html, nil
}

// Find returns all nodes matching selector without waiting for them to appear.
func (s *ChromeSession) Find(ctx context.Context, selector string) ([]ports.Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, s.opts.ActionTimeout, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	elements := make([]ports.Element, 0, len(nodes))
	for _, node := range nodes {
		elements = append(elements, chromeElement{session: s, node: node})
	}
	return elements, nil
}

// Screenshot writes a full-page PNG capture to path.
func (s *ChromeSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// Close shuts the browser down.
func (s *ChromeSession) Close() error {
	if s.cancel == nil {
		return nil
	}
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	s.cancel = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}

// run executes actions on the browser context, bounded by timeout and by the caller's ctx.
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrSessionUnavailable, err)
	}

	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && s.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ports.ErrSessionUnavailable, err)
	}
	return err
}

type chromeElement struct {
	session *ChromeSession
	node    *cdp.Node
}

func (e chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.session.run(ctx, e.session.opts.ActionTimeout,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID))
	if err != nil {
		return "", fmt.Errorf("read node text: %w", err)
	}
	return text, nil
}

func (e chromeElement) Attribute(name string) (string, bool) {
	return e.node.Attribute(name)
}
