package fetcher

import (
	"context"
	"fmt"
	"time"

	"regdoc-scraper/logger"

	"github.com/gocolly/colly/v2"
)

// DownloaderOptions configures the HTTP side of the scraper
type DownloaderOptions struct {
	UserAgent string
	Timeout   time.Duration
	Delay     time.Duration // Pause between requests to the same domain
}

// Downloader fetches located documents and pages over plain HTTP using colly
type Downloader struct {
	collector *colly.Collector
	logger    *logger.Logger
}

// NewDownloader creates a new Downloader instance
func NewDownloader(opts DownloaderOptions, log *logger.Logger) *Downloader {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(0), // PDFs routinely exceed the 10MB default
	)

	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	// One request at a time per domain
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       opts.Delay,
	}); err != nil {
		log.Warn("failed to set download rate limit", "error", err)
	}

	return &Downloader{
		collector: c,
		logger:    log,
	}
}

// Get downloads url and returns the response body
func (d *Downloader) Get(ctx context.Context, url string) ([]byte, error) {
	// Clone per request so callbacks don't pile up on the shared collector
	c := d.collector.Clone()
	c.Context = ctx

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		d.logger.Debug("request failed", "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if body == nil {
		return nil, fmt.Errorf("empty response from %s", url)
	}

	d.logger.Debug("fetched", "url", url, "bytes", len(body))
	return body, nil
}

// GetHTML downloads url and returns it as a string
func (d *Downloader) GetHTML(ctx context.Context, url string) (string, error) {
	body, err := d.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
