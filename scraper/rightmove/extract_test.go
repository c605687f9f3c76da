package rightmove

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"rightmove-scraper/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("fixture parse: %v", err)
	}
	return doc
}

func testRef(t *testing.T) models.ListingReference {
	t.Helper()
	ref, err := models.NewListingReference("/properties/140915714#/")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	return ref
}

const fullListingHTML = `<html><body>
<h1 itemprop="streetAddress">Flat 3, Example House,
Shoreditch, London, E2 8DY</h1>
<article><div>image carousel</div></article>
<article>
  <div>£1,250,000</div>
  <div data-testid="priceQualifier">Guide Price</div>
  <div>Added on 03/11/2023</div>
</article>
<article>
  <div>PROPERTY TYPE</div><div>Flat</div>
  <div>BEDROOMS</div><div>x2</div>
  <div>BATHROOMS</div><div>x1</div>
  <div>TENURE</div><div>Leasehold</div>
  <div>SIZE</div><div>1,023 sq. ft.</div>
</article>
<article>
  <div>About the agent</div>
  <div>Acme Estates, Covering London</div>
  <div>1 High Street,
London</div>
</article>
<article>
  <div>Property description</div>
  <div>heading filler</div>
  <div>A bright and airy</div>
  <div>two bedroom flat.</div>
  <div>trailing filler</div>
  <div>Read more</div>
</article>
</body></html>`

func TestParseListingFullPage(t *testing.T) {
	rec := parseListing(mustDoc(t, fullListingHTML), testRef(t), time.Now())

	if rec.ID != 140915714 {
		t.Fatalf("id = %d; want 140915714", rec.ID)
	}

	want := map[string]string{
		"outcode":         "E2",
		"postcode":        "E2 8DY",
		"price":           "1250000",
		"price_qualifier": "Guide Price",
		"listing_type":    "Added",
		"listed_date":     "2023-11-03",
		"property_type":   "Flat",
		"bedrooms":        "2",
		"bathrooms":       "1",
		"size_sqft":       "1023",
		"tenure":          "Leasehold",
		"agent_name":      "Acme Estates",
		"agent_name_full": "Acme Estates, Covering London",
		"agent_address":   "1 High Street, London",
		"description":     "A bright and airy two bedroom flat.",
	}

	for field, val := range want {
		got, ok := rec.Get(field)
		if !ok {
			t.Errorf("field %q absent; want %q", field, val)
			continue
		}
		if got != val {
			t.Errorf("field %q = %q; want %q", field, got, val)
		}
	}

	if addr, _ := rec.Get("address"); !strings.Contains(addr, "Shoreditch") || strings.Contains(addr, "\n") {
		t.Errorf("address not collapsed to one line: %q", addr)
	}
}

func TestParseAddressPostcodeDerivation(t *testing.T) {
	tests := []struct {
		address      string
		wantPostcode string
		wantOutcode  string
	}{
		{"Fine Street, Shoreditch, London, E2 8DY", "E2 8DY", "E2"},
		{"Fine Street, Islington, N1", "", "N1"},
		{"Fine Street, nowhere in particular", "", ""},
	}

	for _, tt := range tests {
		doc := mustDoc(t, `<html><body><h1 itemprop="streetAddress">`+tt.address+`</h1></body></html>`)
		rec := parseListing(doc, testRef(t), time.Now())

		postcode, _ := rec.Get("postcode")
		outcode, _ := rec.Get("outcode")

		if postcode != tt.wantPostcode {
			t.Errorf("address %q: postcode = %q; want %q", tt.address, postcode, tt.wantPostcode)
		}
		if outcode != tt.wantOutcode {
			t.Errorf("address %q: outcode = %q; want %q", tt.address, outcode, tt.wantOutcode)
		}
	}
}

func TestNormalizeListedDate(t *testing.T) {
	now := time.Date(2023, 11, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		token  string
		want   string
		wantOK bool
	}{
		{"today", "2023-11-15", true},
		{"yesterday", "2023-11-14", true},
		{"03/11/2023", "2023-11-03", true},
		{"soon", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeListedDate(tt.token, now)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("normalizeListedDate(%q) = (%q, %v); want (%q, %v)", tt.token, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseListingDateFragments(t *testing.T) {
	now := time.Date(2023, 11, 15, 12, 0, 0, 0, time.UTC)

	html := `<html><body>
		<article></article>
		<article><div>£500,000</div><div>Reduced yesterday</div></article>
	</body></html>`
	rec := parseListing(mustDoc(t, html), testRef(t), now)

	if v, _ := rec.Get("listing_type"); v != "Reduced" {
		t.Errorf("listing_type = %q; want Reduced", v)
	}
	if v, _ := rec.Get("listed_date"); v != "2023-11-14" {
		t.Errorf("listed_date = %q; want 2023-11-14", v)
	}
}

func TestParseListingPriceFirstFragmentWins(t *testing.T) {
	html := `<html><body>
		<article></article>
		<article>
			<div>£500,000</div>
			<div>Added today</div>
			<div>a later mention of £1 inside copy</div>
		</article>
	</body></html>`
	rec := parseListing(mustDoc(t, html), testRef(t), time.Now())

	if v, _ := rec.Get("price"); v != "500000" {
		t.Errorf("price = %q; want 500000 (later £ fragment must not overwrite)", v)
	}
}

func TestParseListingUnparsablePriceIsAbsent(t *testing.T) {
	html := `<html><body>
		<article></article>
		<article><div>£POA</div></article>
	</body></html>`
	rec := parseListing(mustDoc(t, html), testRef(t), time.Now())

	if v, ok := rec.Get("price"); ok {
		t.Errorf("price = %q; want absent for unparsable price", v)
	}
}

func TestParseListingMissingBedroomsMarker(t *testing.T) {
	html := `<html><body>
		<article></article>
		<article><div>£500,000</div></article>
		<article>
			<div>PROPERTY TYPE</div><div>Bungalow</div>
			<div>TENURE</div><div>Freehold</div>
		</article>
	</body></html>`
	rec := parseListing(mustDoc(t, html), testRef(t), time.Now())

	if v, _ := rec.Get("property_type"); v != "Bungalow" {
		t.Errorf("property_type = %q; want Bungalow", v)
	}
	if _, ok := rec.Get("bedrooms"); ok {
		t.Error("bedrooms should be absent when its marker is missing")
	}
	if v, _ := rec.Get("tenure"); v != "Freehold" {
		t.Errorf("tenure = %q; want Freehold", v)
	}
}

func TestParseListingDevelopment(t *testing.T) {
	html := `<html><body>
		<article></article>
		<article><div>£750,000</div></article>
		<article>
			<div>About the development</div>
			<div>Shiny Towers by BuildCo</div>
			<div>2 River Walk, London</div>
		</article>
	</body></html>`
	rec := parseListing(mustDoc(t, html), testRef(t), time.Now())

	full, _ := rec.Get("agent_name_full")
	short, _ := rec.Get("agent_name")

	if full != "Shiny Towers by BuildCo" || short != full {
		t.Errorf("development labels = (%q, %q); want both verbatim", short, full)
	}
	if v, _ := rec.Get("agent_address"); v != "2 River Walk, London" {
		t.Errorf("agent_address = %q", v)
	}
}

func TestParseListingEmptyPage(t *testing.T) {
	rec := parseListing(mustDoc(t, "<html><body><p>gone</p></body></html>"), testRef(t), time.Now())

	if rec.ID != 140915714 {
		t.Fatalf("id must come from the reference, got %d", rec.ID)
	}
	if len(rec.Fields) != 0 {
		t.Errorf("expected no extracted fields, got %v", rec.Fields)
	}
}

func TestScrapeListingRetriesAfterConnectionLoss(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first request dies below the HTTP layer; the retry after
		// the backoff gets the real page.
		if atomic.AddInt32(&hits, 1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err != nil {
				t.Errorf("hijack: %v", err)
				return
			}
			conn.Close()
			return
		}
		fmt.Fprint(w, fullListingHTML)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, false)
	s.pacer.ConnBackoffMin = 0
	s.pacer.ConnBackoffMax = 0

	rec, err := s.ScrapeListing(testRef(t))
	if err != nil {
		t.Fatalf("ScrapeListing: %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("fetches = %d; want 2 (one more after the connection backoff)", got)
	}
	if v, _ := rec.Get("price"); v != "1250000" {
		t.Errorf("price = %q; the recovered fetch should parse normally", v)
	}
}

func TestScrapeListingConnectionLossExhausted(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, false)
	s.pacer.ConnBackoffMin = 0
	s.pacer.ConnBackoffMax = 0

	if _, err := s.ScrapeListing(testRef(t)); err == nil {
		t.Fatal("expected error when the connection never recovers")
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("fetches = %d; want 2 (the long backoff earns exactly one more attempt)", got)
	}
}

func TestScrapeListingStatusFailureGetsNoLongRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, false)
	s.pacer.ConnBackoffMin = 0
	s.pacer.ConnBackoffMax = 0

	if _, err := s.ScrapeListing(testRef(t)); err == nil {
		t.Fatal("expected error for a 404 listing page")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("fetches = %d; want 1 (status failures get no connection backoff)", got)
	}
}

func TestStrippedStrings(t *testing.T) {
	doc := mustDoc(t, `<html><body><article><div> a </div><span></span><div><b>b</b> c
	</div></article></body></html>`)

	got := strippedStrings(doc.Find("article"))
	want := []string{"a", "b", "c"}

	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d = %q; want %q", i, got[i], want[i])
		}
	}
}
