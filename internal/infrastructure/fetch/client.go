// Package fetch performs plain HTTP downloads with browser-like headers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"ArticleHarvester/internal/ports"
)

const (
	// DefaultTimeout bounds a single request including body transfer.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent mimics a desktop browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	// DefaultMaxBytes is the largest body accepted; bigger bodies fail the fetch.
	DefaultMaxBytes = 64 << 20
)

// Error represents a failed fetch.
type Error struct {
	URL     string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the client.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	MaxAttempts int
	MaxBytes    int64
	Headers     map[string]string
}

// Client implements ports.Fetcher over net/http.
type Client struct {
	http    *http.Client
	opts    Options
	backoff time.Duration
}

var _ ports.Fetcher = (*Client)(nil)

// NewClient applies defaults to opts; a nil httpClient gets one with opts.Timeout.
func NewClient(httpClient *http.Client, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{http: httpClient, opts: opts, backoff: 200 * time.Millisecond}
}

// Fetch downloads req.URL; non-2xx statuses are returned as *Error along with the response.
func (c *Client) Fetch(ctx context.Context, req ports.FetchRequest) (*ports.FetchResponse, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &Error{URL: req.URL, Message: "invalid URL", Cause: err}
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		resp, err := c.once(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == c.opts.MaxAttempts {
			return resp, err
		}
		select {
		case <-time.After(time.Duration(attempt) * c.backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, req ports.FetchRequest) (*ports.FetchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &Error{URL: req.URL, Message: "build request", Cause: err}
	}
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	httpReq.Header.Set("Accept", "*/*")
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}
	for key, value := range c.opts.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{URL: req.URL, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBytes+1))
	if err != nil {
		return nil, &Error{URL: req.URL, Status: resp.StatusCode, Message: "read body", Cause: err}
	}
	if int64(len(body)) > c.opts.MaxBytes {
		return nil, &Error{URL: req.URL, Status: resp.StatusCode, Message: "body exceeds limit"}
	}

	result := &ports.FetchResponse{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{URL: req.URL, Status: resp.StatusCode, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return result, nil
}

func isTransient(err error) bool {
	var fe *Error
	if errors.As(err, &fe) && fe.Status != 0 {
		return fe.Status == http.StatusTooManyRequests || fe.Status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
