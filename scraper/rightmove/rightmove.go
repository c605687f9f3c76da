package rightmove

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"rightmove-scraper/config"
	"rightmove-scraper/services"
	"rightmove-scraper/utils"
)

// The site serves different markup to obvious bots, so requests carry a
// desktop browser User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:108.0) Gecko/20100101 Firefox/108.0"

// errConnection marks failures below the HTTP layer (refused, reset,
// timed out). Only these qualify for the extractor's long backoff.
var errConnection = errors.New("connection failure")

// Scraper drives all HTTP interaction with Rightmove: result-list
// pagination and listing-page extraction. Fetches are strictly
// sequential; the Pacer owns every inter-request delay.
type Scraper struct {
	cfg       *config.Config
	logger    utils.Logger
	pacer     *services.Pacer
	retry     *utils.RetryConfig
	collector *colly.Collector
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger utils.Logger, pacer *services.Pacer) (*Scraper, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("rightmove: invalid base URL %q: %w", cfg.BaseURL, err)
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowedDomains(base.Hostname()),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(time.Duration(cfg.RequestTimeoutSecs) * time.Second)

	return &Scraper{
		cfg:    cfg,
		logger: logger,
		pacer:  pacer,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		collector: c,
	}, nil
}

// fetchDocument performs one GET and parses the response body into a
// goquery document. The clone inherits the parent collector's limits and
// identity but gets its own handlers.
func (s *Scraper) fetchDocument(pageURL string) (*goquery.Document, error) {
	c := s.collector.Clone()

	var doc *goquery.Document
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		d, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchErr = fmt.Errorf("parse response from %s: %w", pageURL, err)
			return
		}
		doc = d
	})

	c.OnError(func(r *colly.Response, err error) {
		if r.StatusCode == 0 {
			fetchErr = fmt.Errorf("request %s: %w: %v", r.Request.URL, errConnection, err)
			return
		}
		fetchErr = fmt.Errorf("request %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	// Visit returns the raw transport or status error; the OnError
	// callback has already wrapped it in fetchErr with the failure class,
	// so fetchErr wins when both are set.
	if err := c.Visit(pageURL); err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if doc == nil {
		return nil, errors.New("empty response from " + pageURL)
	}
	return doc, nil
}
