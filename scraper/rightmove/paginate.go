package rightmove

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"rightmove-scraper/models"
)

// resultsPerPage is how many listings the site puts on one search page.
const resultsPerPage = 24

// FetchListingRefs walks every search-result page for the query and
// returns the listing references in result order (newest first under the
// default sort). In a test run only the first page is read.
func (s *Scraper) FetchListingRefs(query SearchQuery) ([]models.ListingReference, error) {
	doc, err := s.fetchSearchPage(query.URL(s.cfg.BaseURL), 0)
	if err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}

	resultCount, err := parseResultCount(doc)
	if err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}

	pages := pageCount(resultCount)
	s.logger.Infof("[paginate] %d results — scraping %d pages", resultCount, pages)

	refs := s.collectRefs(doc)

	if s.cfg.TestRun {
		s.logger.Infof("[paginate] test run — stopping after the first page (%d references)", len(refs))
		return refs, nil
	}

	for i := 1; i < pages; i++ {
		delay := s.pacer.PageDelay()
		s.logger.Infof("[paginate] sleeping %.2f seconds before page %d", delay.Seconds(), i)
		time.Sleep(delay)

		pageURL := query.WithIndex(i * resultsPerPage).URL(s.cfg.BaseURL)
		pageDoc, err := s.fetchSearchPage(pageURL, i)
		if err != nil {
			// A page lost after retries would silently punch a hole in
			// the batch, so the whole pagination pass fails instead.
			return nil, fmt.Errorf("paginate: page %d: %w", i, err)
		}

		refs = append(refs, s.collectRefs(pageDoc)...)
	}

	s.logger.Infof("[paginate] collected %d listing references", len(refs))
	return refs, nil
}

func (s *Scraper) fetchSearchPage(pageURL string, page int) (*goquery.Document, error) {
	var doc *goquery.Document
	err := s.retry.Do(fmt.Sprintf("search-page-%d", page), func() error {
		d, err := s.fetchDocument(pageURL)
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	return doc, err
}

// collectRefs extracts the listing references from one search page. The
// first card is always an injected "featured" listing outside the
// query's chronological ordering and is dropped.
func (s *Scraper) collectRefs(doc *goquery.Document) []models.ListingReference {
	cards := doc.Find("div.l-searchResult.is-list")
	if cards.Length() == 0 {
		return nil
	}
	cards = cards.Slice(1, cards.Length())

	var refs []models.ListingReference
	cards.Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a.propertyCard-priceLink.propertyCard-salePrice").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			s.logger.Warn("[paginate] card without a listing link — skipping")
			return
		}

		ref, err := models.NewListingReference(href)
		if err != nil {
			s.logger.Warnf("[paginate] %v — skipping card", err)
			return
		}
		refs = append(refs, ref)
	})
	return refs
}

// parseResultCount reads the declared total result count from the search
// page header.
func parseResultCount(doc *goquery.Document) (int, error) {
	text := strings.TrimSpace(doc.Find("span.searchHeader-resultCount").First().Text())
	if text == "" {
		return 0, fmt.Errorf("no result count on search page")
	}

	text = strings.ReplaceAll(text, ",", "")
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parse result count %q: %w", text, err)
	}
	return count, nil
}

// pageCount computes how many search pages the result count spans. The
// rounding plus mod-24 correction reproduces the site's pagination,
// including its behavior on non-exact multiples.
func pageCount(resultCount int) int {
	pages := int(math.Round(float64(resultCount) / resultsPerPage))
	if resultCount%resultsPerPage > 0 {
		pages++
	}
	return pages
}
