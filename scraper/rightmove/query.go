package rightmove

import (
	"net/url"
	"strconv"
)

const searchPath = "/property-for-sale/find.html"

// SearchQuery is one immutable set of search filters. Paginated requests
// differ only in Index.
type SearchQuery struct {
	LocationIdentifier string
	SortType           int
	Index              int
	PropertyTypes      string
	MaxDaysSinceAdded  int
	MustHave           string
	DontShow           string
	FurnishTypes       string
	Keywords           string
}

// DefaultQuery returns the first page of listings added within the last
// day in London, newest first.
func DefaultQuery() SearchQuery {
	return SearchQuery{
		LocationIdentifier: "REGION^87490", // London
		SortType:           6,              // newest first
		Index:              0,
		PropertyTypes:      "bungalow,detached,flat,park-home,semi-detached,terraced",
		MaxDaysSinceAdded:  1,
	}
}

// WithIndex derives the query for another result offset.
func (q SearchQuery) WithIndex(index int) SearchQuery {
	q.Index = index
	return q
}

// URL encodes the query under the given base URL. Every parameter is
// included, empty values too — the site distinguishes an empty filter
// from a missing one.
func (q SearchQuery) URL(baseURL string) string {
	params := url.Values{}
	params.Set("locationIdentifier", q.LocationIdentifier)
	params.Set("sortType", strconv.Itoa(q.SortType))
	params.Set("index", strconv.Itoa(q.Index))
	params.Set("propertyTypes", q.PropertyTypes)
	params.Set("maxDaysSinceAdded", strconv.Itoa(q.MaxDaysSinceAdded))
	params.Set("mustHave", q.MustHave)
	params.Set("dontShow", q.DontShow)
	params.Set("furnishTypes", q.FurnishTypes)
	params.Set("keywords", q.Keywords)

	return baseURL + searchPath + "?" + params.Encode()
}
