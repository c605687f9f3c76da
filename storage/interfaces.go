package storage

import "rightmove-scraper/models"

// BatchWriter is the interface any batch storage backend must satisfy.
type BatchWriter interface {
	Write(batch *models.Batch) error
	Close() error
}

// QuarantineSink receives the raw, uncoerced batch when schema
// validation rejects a run.
type QuarantineSink interface {
	WriteRaw(records []*models.RawRecord, name string) error
}
