package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/proxy"
)

type Unmarshaler interface {
	UnmarshalDoc(doc *goquery.Document) error
}

// FetchOptions tune the retrieval loop shared by every job.
type FetchOptions struct {
	UserAgent   string
	Proxies     []string
	MaxAttempts int
	Backoff     time.Duration
	Delay       time.Duration
	Timeout     time.Duration
	CacheDir    string
}

// Fetcher retrieves pages through a colly collector, retrying failed requests
// with exponential backoff. When proxies are configured each request goes out
// through the next proxy in round-robin order, so a retry uses a fresh one.
type Fetcher struct {
	c           *colly.Collector
	maxAttempts int
	backoff     time.Duration
	sleep       func(context.Context, time.Duration) error
}

func NewFetcher(opts FetchOptions) (*Fetcher, error) {
	c := colly.NewCollector(colly.AllowURLRevisit())
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	if opts.CacheDir != "" {
		c.CacheDir = opts.CacheDir
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	if opts.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: opts.Delay}); err != nil {
			return nil, fmt.Errorf("failed to set rate limit: %w", err)
		}
	}
	if len(opts.Proxies) > 0 {
		switcher, err := proxy.RoundRobinProxySwitcher(opts.Proxies...)
		if err != nil {
			return nil, fmt.Errorf("failed to configure proxies: %w", err)
		}
		c.SetProxyFunc(switcher)
	}

	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Fetcher{c: c, maxAttempts: attempts, backoff: opts.Backoff, sleep: sleepContext}, nil
}

// Get returns the body of url, retrying up to the configured number of
// attempts. Non-2xx responses count as failures.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	c := f.c.Clone() // same collector but without old callbacks
	c.OnResponse(func(res *colly.Response) {
		body = res.Body
	})

	var err error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body = nil
		if err = c.Visit(url); err == nil {
			return body, nil
		}
		if attempt == f.maxAttempts {
			break
		}

		wait := f.backoff << (attempt - 1)
		log.Printf("Warning: attempt %d/%d for %s failed (%v); retrying in %v", attempt, f.maxAttempts, url, err, wait)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w", url, f.maxAttempts, err)
}

// Scrape fetches url and hands the parsed document to u.
func (f *Fetcher) Scrape(ctx context.Context, url string, u Unmarshaler) error {
	body, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return u.UnmarshalDoc(doc)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
