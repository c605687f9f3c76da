package rightmove

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"rightmove-scraper/models"
)

var (
	// postcodeRegexp matches a full UK postcode (outward + inward part).
	postcodeRegexp = regexp.MustCompile(`[A-Z]{1,2}[0-9][A-Z0-9]? [0-9][ABD-HJLNP-UW-Z]{2}`)
	// outcodeRegexp matches the outward part alone (area + district).
	outcodeRegexp = regexp.MustCompile(`[A-Z]{1,2}[0-9][A-Z0-9]?`)
)

// ScrapeListing fetches one listing page and extracts its record. Any
// single field that cannot be read is left absent. A connection-level
// failure earns one long backoff and a final retry; anything else fails
// the record immediately.
func (s *Scraper) ScrapeListing(ref models.ListingReference) (*models.RawRecord, error) {
	pageURL := s.cfg.BaseURL + ref.Path
	s.logger.Infof("[extract] scraping %d", ref.ID)

	doc, err := s.fetchListingPage(pageURL)
	if err != nil {
		if !errors.Is(err, errConnection) {
			return nil, fmt.Errorf("extract: listing %d: %w", ref.ID, err)
		}

		backoff := s.pacer.ConnectionBackoff()
		s.logger.Warnf("[extract] connection to %d lost, waiting %.0f seconds before one more try: %v",
			ref.ID, backoff.Seconds(), err)
		time.Sleep(backoff)

		doc, err = s.fetchListingPage(pageURL)
		if err != nil {
			return nil, fmt.Errorf("extract: listing %d: %w", ref.ID, err)
		}
	}

	return parseListing(doc, ref, time.Now()), nil
}

func (s *Scraper) fetchListingPage(pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := s.retry.Do("listing-page", func() error {
		d, err := s.fetchDocument(pageURL)
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	return doc, err
}

// parseListing pulls every field it can find out of a listing page.
//
// The page has no stable CSS identifiers (class names are generated), so
// extraction keys off heading text and document order: the page body is a
// fixed sequence of <article> sections, and fields are located by marker
// fragments inside them. Each field falls back to absent on its own.
func parseListing(doc *goquery.Document, ref models.ListingReference, now time.Time) *models.RawRecord {
	rec := models.NewRawRecord(ref.ID)

	parseAddress(doc, rec)

	articles := doc.Find("article")

	// The first article holds the photo carousel; price and listing date
	// live in the second.
	if articles.Length() > 1 {
		parsePriceAndDate(articles.Eq(1), rec, now)

		if qualifier := strings.TrimSpace(articles.Eq(1).Find(`div[data-testid="priceQualifier"]`).First().Text()); qualifier != "" {
			rec.Set("price_qualifier", qualifier)
		}
	}

	// The remaining articles vary per listing; each marker appears in at
	// most one of them.
	for i := 2; i < articles.Length(); i++ {
		strs := strippedStrings(articles.Eq(i))

		switch {
		case indexOf(strs, "PROPERTY TYPE") >= 0:
			parsePropertyFacts(strs, rec)
		case indexOf(strs, "About the agent") >= 0:
			parseAgent(strs, rec)
		case indexOf(strs, "About the development") >= 0:
			parseDeveloper(strs, rec)
		case indexOf(strs, "Property description") >= 0:
			parseDescription(strs, rec)
		}
	}

	return rec
}

// parseAddress reads the street address heading and derives postcode and
// outcode from its final comma segment. The two are mutually exclusive:
// a matched postcode yields its own outcode, otherwise the looser
// outward-only pattern is tried on the same segment.
func parseAddress(doc *goquery.Document, rec *models.RawRecord) {
	sel := doc.Find(`h1[itemprop="streetAddress"]`)
	if sel.Length() == 0 {
		return
	}

	address := collapseLines(sel.First().Text())
	rec.Set("address", address)

	segments := strings.Split(address, ",")
	code := segments[len(segments)-1]

	if postcode := postcodeRegexp.FindString(code); postcode != "" {
		rec.Set("postcode", postcode)
		rec.Set("outcode", strings.Split(postcode, " ")[0])
	} else if outcode := outcodeRegexp.FindString(code); outcode != "" {
		rec.Set("outcode", outcode)
	}
}

// parsePriceAndDate scans the price article's text fragments in order.
// Only the first fragment carrying a currency symbol counts as the price
// so a "£" inside later copy can never overwrite it.
func parsePriceAndDate(article *goquery.Selection, rec *models.RawRecord, now time.Time) {
	priceSeen := false

	for _, frag := range strippedStrings(article) {
		if strings.Contains(frag, "£") {
			if priceSeen {
				continue
			}
			priceSeen = true

			cleaned := strings.ReplaceAll(strings.ReplaceAll(frag, "£", ""), ",", "")
			if price, err := strconv.ParseInt(strings.TrimSpace(cleaned), 10, 64); err == nil {
				rec.Set("price", strconv.FormatInt(price, 10))
			}
			continue
		}

		if strings.Contains(frag, "Added") || strings.Contains(frag, "Reduced") {
			tokens := strings.Fields(frag)
			if len(tokens) == 0 {
				continue
			}
			rec.Set("listing_type", tokens[0])

			if date, ok := normalizeListedDate(tokens[len(tokens)-1], now); ok {
				rec.Set("listed_date", date)
			}
		}
	}
}

// normalizeListedDate turns the last token of an "Added ..."/"Reduced ..."
// fragment into ISO form.
func normalizeListedDate(token string, now time.Time) (string, bool) {
	switch token {
	case "today":
		return now.Format("2006-01-02"), true
	case "yesterday":
		return now.AddDate(0, 0, -1).Format("2006-01-02"), true
	}

	t, err := time.Parse("02/01/2006", token)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// parsePropertyFacts reads the PROPERTY TYPE section. The sub-markers are
// each independently optional; a missing one leaves its field absent
// without touching the others.
func parsePropertyFacts(strs []string, rec *models.RawRecord) {
	if v, ok := fragmentAfter(strs, "PROPERTY TYPE"); ok {
		rec.Set("property_type", v)
	}

	if v, ok := fragmentAfter(strs, "BEDROOMS"); ok {
		if n, err := parseLeadingIconCount(v); err == nil {
			rec.Set("bedrooms", strconv.FormatInt(n, 10))
		}
	}

	if v, ok := fragmentAfter(strs, "BATHROOMS"); ok {
		if n, err := parseLeadingIconCount(v); err == nil {
			rec.Set("bathrooms", strconv.FormatInt(n, 10))
		}
	}

	if v, ok := fragmentAfter(strs, "TENURE"); ok {
		rec.Set("tenure", v)
	}

	if v, ok := fragmentAfter(strs, "SIZE"); ok {
		cleaned := strings.ReplaceAll(strings.TrimSuffix(v, " sq. ft."), ",", "")
		if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
			rec.Set("size_sqft", strconv.FormatInt(n, 10))
		}
	}
}

// parseAgent reads the estate-agent section: the full label is
// comma-delimited and its head is the short agent name.
func parseAgent(strs []string, rec *models.RawRecord) {
	if len(strs) > 1 {
		full := strs[1]
		rec.Set("agent_name_full", full)
		rec.Set("agent_name", strings.SplitN(full, ",", 2)[0])
	}
	if len(strs) > 2 {
		rec.Set("agent_address", collapseLines(strs[2]))
	}
}

// parseDeveloper reads the new-development variant of the agent section.
// Developments are marketed by the developer, whose label is used
// verbatim as both short and long name.
func parseDeveloper(strs []string, rec *models.RawRecord) {
	if len(strs) > 1 {
		rec.Set("agent_name_full", strs[1])
		rec.Set("agent_name", strs[1])
	}
	if len(strs) > 2 {
		rec.Set("agent_address", strs[2])
	}
}

// parseDescription joins the free-text fragments between the section
// header and the trailing "Read more" control.
func parseDescription(strs []string, rec *models.RawRecord) {
	readMore := indexOf(strs, "Read more")
	if readMore < 3 {
		return
	}
	rec.Set("description", strings.Join(strs[2:readMore-1], " "))
}

// strippedStrings collects the non-empty, whitespace-trimmed text nodes
// of a selection in document order.
func strippedStrings(sel *goquery.Selection) []string {
	var out []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// indexOf returns the position of the first fragment equal to marker, or -1.
func indexOf(strs []string, marker string) int {
	for i, s := range strs {
		if s == marker {
			return i
		}
	}
	return -1
}

// fragmentAfter returns the fragment immediately following the marker.
func fragmentAfter(strs []string, marker string) (string, bool) {
	idx := indexOf(strs, marker)
	if idx < 0 || idx+1 >= len(strs) {
		return "", false
	}
	return strs[idx+1], true
}

// parseLeadingIconCount parses counts like "x3" where the site prefixes
// the number with an icon character.
func parseLeadingIconCount(s string) (int64, error) {
	runes := []rune(s)
	if len(runes) > 0 && !unicode.IsDigit(runes[0]) {
		runes = runes[1:]
	}
	return strconv.ParseInt(string(runes), 10, 64)
}

// collapseLines flattens embedded line breaks into a single-line string.
func collapseLines(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
