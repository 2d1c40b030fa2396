package feed

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls listing retrieval.
type Config struct {
	// BaseURL is the archive root, e.g. https://arxiv.org.
	BaseURL string
	// Category is the listing category, e.g. hep-th.
	Category string
	// UserAgent identifies the bot to the archive.
	UserAgent string
	// Timeout bounds the whole request.
	Timeout time.Duration
}

// Fetcher retrieves one listing page per call using a Colly collector.
type Fetcher struct {
	cfg    Config
	url    string
	base   *colly.Collector
	logger *zap.Logger
}

// NewFetcher builds a Fetcher for the configured category.
func NewFetcher(cfg Config, logger *zap.Logger) *Fetcher {
	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; a bare NewCollector is synchronous, which is what we want.
	c := colly.NewCollector()
	c.WithTransport(newHTTPTransport())
	// The listing lives on the archive itself; robots.txt disallows generic
	// crawling paths, not the public listing pages we request once a day.
	c.IgnoreRobotsTxt = true

	return &Fetcher{
		cfg:    cfg,
		url:    fmt.Sprintf("%s/list/%s/new", cfg.BaseURL, cfg.Category),
		base:   c,
		logger: logger,
	}
}

// URL reports the listing URL this fetcher targets.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch retrieves and parses the listing. Network failures, non-2xx statuses
// and parse failures all surface as *FetchError; no retry happens here.
func (f *Fetcher) Fetch(ctx context.Context) ([]Entry, error) {
	body, err := f.get(ctx)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}

	entries, err := ParseListing(body, f.cfg.BaseURL)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}

	f.logger.Debug("listing fetched",
		zap.String("url", f.url),
		zap.Int("entries", len(entries)),
		zap.Int("bytes", len(body)),
	)
	return entries, nil
}

func (f *Fetcher) get(ctx context.Context) ([]byte, error) {
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(f.url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("listing fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit listing: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("listing response: %w", fetchErr)
		}
		return body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
