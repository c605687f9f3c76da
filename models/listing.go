package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// listingIDRegexp matches the numeric listing identifier embedded in a
// listing URL path. Rightmove ids are 7–15 digits long.
var listingIDRegexp = regexp.MustCompile(`[0-9]{7,15}`)

// ListingReference points at one listing detail page. The id is parsed
// from the URL path, never from page content.
type ListingReference struct {
	Path string
	ID   int64
}

// NewListingReference extracts the listing id from a relative URL path.
// A path without a parseable id is an identity failure: the listing
// cannot enter the batch.
func NewListingReference(path string) (ListingReference, error) {
	match := listingIDRegexp.FindString(path)
	if match == "" {
		return ListingReference{}, fmt.Errorf("no listing id in path %q", path)
	}

	id, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return ListingReference{}, fmt.Errorf("parse listing id %q: %w", match, err)
	}

	return ListingReference{Path: path, ID: id}, nil
}

// FieldNames is the canonical field order of a listing record. The
// quarantine CSV header and the schema coverage check both follow it.
var FieldNames = []string{
	"id",
	"address",
	"outcode",
	"postcode",
	"price",
	"price_qualifier",
	"listing_type",
	"listed_date",
	"property_type",
	"bedrooms",
	"bathrooms",
	"size_sqft",
	"tenure",
	"agent_name",
	"agent_name_full",
	"agent_address",
	"description",
}

// RawRecord holds the extracted field values for one listing before
// schema coercion. A field missing from the map is "not available";
// only the id is guaranteed.
type RawRecord struct {
	ID     int64
	Fields map[string]string
}

// NewRawRecord creates an empty record for the given listing id.
func NewRawRecord(id int64) *RawRecord {
	return &RawRecord{ID: id, Fields: make(map[string]string)}
}

// Set stores a field value. Empty values are kept: an empty string is a
// present-but-blank value, absence is expressed by never calling Set.
func (r *RawRecord) Set(name, value string) {
	r.Fields[name] = value
}

// Get returns the value and whether the field was extracted at all.
func (r *RawRecord) Get(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// ListingRecord is the typed, schema-coerced record for one listing.
// Every field except ID is optional; nil means the listing page did not
// expose it. listed_date is normalized ISO-8601 text.
type ListingRecord struct {
	ID             int64   `parquet:"id"`
	Address        *string `parquet:"address,optional"`
	Outcode        *string `parquet:"outcode,optional"`
	Postcode       *string `parquet:"postcode,optional"`
	Price          *int64  `parquet:"price,optional"`
	PriceQualifier *string `parquet:"price_qualifier,optional"`
	ListingType    *string `parquet:"listing_type,optional"`
	ListedDate     *string `parquet:"listed_date,optional"`
	PropertyType   *string `parquet:"property_type,optional"`
	Bedrooms       *int64  `parquet:"bedrooms,optional"`
	Bathrooms      *int64  `parquet:"bathrooms,optional"`
	SizeSqft       *int64  `parquet:"size_sqft,optional"`
	Tenure         *string `parquet:"tenure,optional"`
	AgentName      *string `parquet:"agent_name,optional"`
	AgentNameFull  *string `parquet:"agent_name_full,optional"`
	AgentAddress   *string `parquet:"agent_address,optional"`
	Description    *string `parquet:"description,optional"`
}

// Batch is the immutable result of one run: every record coerced to the
// declared schema, in result order.
type Batch struct {
	Date    time.Time
	Records []ListingRecord
}

// Name returns the dated artifact name for the batch, e.g. "2023-11-03".
func (b *Batch) Name() string {
	return b.Date.Format("2006-01-02")
}
