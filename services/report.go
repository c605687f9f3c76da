package services

import (
	"fmt"
	"sort"
	"strings"

	"rightmove-scraper/models"
	"rightmove-scraper/utils"
)

// ReportService summarizes a validated batch at the end of a run.
type ReportService struct {
	logger utils.Logger
}

// NewReportService creates a ReportService with the given logger.
func NewReportService(logger utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate computes batch-level stats: price spread over priced records,
// per-outcode counts and how often each optional field came back absent.
func (s *ReportService) Generate(batch *models.Batch) *models.RunReport {
	report := &models.RunReport{
		RecordsByOutcode: make(map[string]int),
		MissingByField:   make(map[string]int),
	}

	if len(batch.Records) == 0 {
		return report
	}

	report.TotalRecords = len(batch.Records)

	var total int64
	for i := range batch.Records {
		r := &batch.Records[i]

		if r.Price != nil {
			report.PricedRecords++
			total += *r.Price
			if report.MinPrice == 0 || *r.Price < report.MinPrice {
				report.MinPrice = *r.Price
			}
			if *r.Price > report.MaxPrice {
				report.MaxPrice = *r.Price
				report.MostExpensive = r
			}
		}

		if r.Outcode != nil {
			report.RecordsByOutcode[*r.Outcode]++
		}

		for name, absent := range map[string]bool{
			"address":       r.Address == nil,
			"outcode":       r.Outcode == nil,
			"postcode":      r.Postcode == nil,
			"price":         r.Price == nil,
			"listed_date":   r.ListedDate == nil,
			"property_type": r.PropertyType == nil,
			"bedrooms":      r.Bedrooms == nil,
			"bathrooms":     r.Bathrooms == nil,
			"size_sqft":     r.SizeSqft == nil,
			"tenure":        r.Tenure == nil,
			"agent_name":    r.AgentName == nil,
			"description":   r.Description == nil,
		} {
			if absent {
				report.MissingByField[name]++
			}
		}
	}

	if report.PricedRecords > 0 {
		report.AveragePrice = float64(total) / float64(report.PricedRecords)
	}

	return report
}

// Print writes the report through the run logger.
func (s *ReportService) Print(r *models.RunReport) {
	s.logger.Infof("[report] %d records in batch, %d with a price", r.TotalRecords, r.PricedRecords)

	if r.PricedRecords > 0 {
		s.logger.Infof("[report] price spread: min £%d, avg £%.0f, max £%d", r.MinPrice, r.AveragePrice, r.MaxPrice)
	}
	if r.MostExpensive != nil && r.MostExpensive.Address != nil {
		s.logger.Infof("[report] most expensive: %s (£%d)", *r.MostExpensive.Address, *r.MostExpensive.Price)
	}

	if len(r.RecordsByOutcode) > 0 {
		type outcodeCount struct {
			outcode string
			count   int
		}
		var counts []outcodeCount
		for oc, n := range r.RecordsByOutcode {
			counts = append(counts, outcodeCount{oc, n})
		}
		sort.Slice(counts, func(i, j int) bool { return counts[i].count > counts[j].count })

		parts := make([]string, 0, len(counts))
		for _, c := range counts {
			parts = append(parts, fmt.Sprintf("%s:%d", c.outcode, c.count))
		}
		s.logger.Infof("[report] records by outcode: %s", strings.Join(parts, " "))
	}

	for _, name := range models.FieldNames {
		if n, ok := r.MissingByField[name]; ok && n > 0 {
			s.logger.Debugf("[report] field %s absent in %d/%d records", name, n, r.TotalRecords)
		}
	}
}
