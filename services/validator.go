package services

import (
	"fmt"
	"strconv"
	"time"

	"rightmove-scraper/models"
	"rightmove-scraper/storage"
	"rightmove-scraper/utils"
)

// Validator coerces a run's raw records into the declared schema. The
// pass is atomic: either every field of every record conforms, or the
// whole raw batch is diverted to quarantine and the error surfaces.
type Validator struct {
	schema     Schema
	quarantine storage.QuarantineSink
	logger     utils.Logger
}

// NewValidator creates a Validator. The schema must cover every record
// field.
func NewValidator(schema Schema, quarantine storage.QuarantineSink, logger utils.Logger) (*Validator, error) {
	if err := schema.validate(); err != nil {
		return nil, err
	}
	return &Validator{schema: schema, quarantine: quarantine, logger: logger}, nil
}

// Validate coerces the raw records into a typed Batch. On any coercion
// failure the uncoerced batch is written to quarantine under a dated
// name and the failure is returned — there is no partial-success batch.
func (v *Validator) Validate(raw []*models.RawRecord) (*models.Batch, error) {
	now := time.Now()
	records := make([]models.ListingRecord, 0, len(raw))

	for _, r := range raw {
		rec, err := v.coerce(r)
		if err != nil {
			name := now.Format("2006-01-02") + "_failed"
			v.logger.Errorf("[validate] batch rejected, quarantining %d raw records as %s: %v", len(raw), name, err)

			if qErr := v.quarantine.WriteRaw(raw, name); qErr != nil {
				v.logger.Errorf("[validate] quarantine write failed: %v", qErr)
			}
			return nil, fmt.Errorf("validate: record %d: %w", r.ID, err)
		}
		records = append(records, rec)
	}

	v.logger.Infof("[validate] %d records conform to schema", len(records))
	return &models.Batch{Date: now, Records: records}, nil
}

func (v *Validator) coerce(raw *models.RawRecord) (models.ListingRecord, error) {
	rec := models.ListingRecord{ID: raw.ID}

	for _, name := range models.FieldNames {
		if name == "id" {
			continue
		}

		value, ok := raw.Get(name)
		if !ok {
			continue // absent stays absent
		}

		switch v.schema[name] {
		case FieldInteger:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return rec, fmt.Errorf("field %q: %q is not an integer", name, value)
			}
			if err := setIntField(&rec, name, n); err != nil {
				return rec, err
			}

		case FieldDate:
			if _, err := time.Parse("2006-01-02", value); err != nil {
				return rec, fmt.Errorf("field %q: %q is not an ISO date", name, value)
			}
			if err := setTextField(&rec, name, value); err != nil {
				return rec, err
			}

		case FieldText:
			if err := setTextField(&rec, name, value); err != nil {
				return rec, err
			}
		}
	}

	return rec, nil
}

func setIntField(rec *models.ListingRecord, name string, n int64) error {
	switch name {
	case "price":
		rec.Price = &n
	case "bedrooms":
		rec.Bedrooms = &n
	case "bathrooms":
		rec.Bathrooms = &n
	case "size_sqft":
		rec.SizeSqft = &n
	default:
		return fmt.Errorf("field %q is not an integer field", name)
	}
	return nil
}

func setTextField(rec *models.ListingRecord, name, value string) error {
	v := value
	switch name {
	case "address":
		rec.Address = &v
	case "outcode":
		rec.Outcode = &v
	case "postcode":
		rec.Postcode = &v
	case "price_qualifier":
		rec.PriceQualifier = &v
	case "listing_type":
		rec.ListingType = &v
	case "listed_date":
		rec.ListedDate = &v
	case "property_type":
		rec.PropertyType = &v
	case "tenure":
		rec.Tenure = &v
	case "agent_name":
		rec.AgentName = &v
	case "agent_name_full":
		rec.AgentNameFull = &v
	case "agent_address":
		rec.AgentAddress = &v
	case "description":
		rec.Description = &v
	default:
		return fmt.Errorf("field %q is not a text field", name)
	}
	return nil
}
