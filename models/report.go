package models

// RunReport holds the computed summary over a validated batch.
type RunReport struct {
	TotalRecords  int
	PricedRecords int
	AveragePrice  float64
	MinPrice      int64
	MaxPrice      int64
	MostExpensive *ListingRecord

	RecordsByOutcode map[string]int
	MissingByField   map[string]int
}
