package services

import (
	"testing"
	"time"

	"rightmove-scraper/models"
	"rightmove-scraper/utils"
)

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func TestReportGenerate(t *testing.T) {
	batch := &models.Batch{
		Date: time.Now(),
		Records: []models.ListingRecord{
			{ID: 1, Price: intPtr(500000), Outcode: strPtr("E2"), Address: strPtr("a")},
			{ID: 2, Price: intPtr(900000), Outcode: strPtr("E2"), Address: strPtr("b")},
			{ID: 3, Outcode: strPtr("N1")},
		},
	}

	r := NewReportService(utils.NewLogger()).Generate(batch)

	if r.TotalRecords != 3 || r.PricedRecords != 2 {
		t.Fatalf("totals = (%d, %d); want (3, 2)", r.TotalRecords, r.PricedRecords)
	}
	if r.MinPrice != 500000 || r.MaxPrice != 900000 {
		t.Errorf("price spread = (%d, %d)", r.MinPrice, r.MaxPrice)
	}
	if r.AveragePrice != 700000 {
		t.Errorf("average = %.0f; want 700000", r.AveragePrice)
	}
	if r.MostExpensive == nil || r.MostExpensive.ID != 2 {
		t.Errorf("most expensive = %+v", r.MostExpensive)
	}
	if r.RecordsByOutcode["E2"] != 2 || r.RecordsByOutcode["N1"] != 1 {
		t.Errorf("outcode counts = %v", r.RecordsByOutcode)
	}
	if r.MissingByField["price"] != 1 {
		t.Errorf("missing price count = %d; want 1", r.MissingByField["price"])
	}
}

func TestReportGenerateEmptyBatch(t *testing.T) {
	r := NewReportService(utils.NewLogger()).Generate(&models.Batch{Date: time.Now()})
	if r.TotalRecords != 0 || r.MostExpensive != nil {
		t.Errorf("empty batch report = %+v", r)
	}
}
