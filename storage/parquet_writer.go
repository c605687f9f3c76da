package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"rightmove-scraper/models"
)

// ParquetWriter persists one columnar file per batch, named after the
// batch date.
type ParquetWriter struct {
	dir string
}

// NewParquetWriter ensures the output directory exists.
func NewParquetWriter(dir string) (*ParquetWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("parquet: create output dir: %w", err)
	}
	return &ParquetWriter{dir: dir}, nil
}

// Write serializes the batch to <dir>/<date>.parquet. Optional record
// fields become optional parquet columns.
func (p *ParquetWriter) Write(batch *models.Batch) error {
	path := filepath.Join(p.dir, batch.Name()+".parquet")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("parquet: create %q: %w", path, err)
	}

	w := parquet.NewGenericWriter[models.ListingRecord](f)
	if _, err := w.Write(batch.Records); err != nil {
		_ = f.Close()
		return fmt.Errorf("parquet: write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("parquet: close writer: %w", err)
	}

	return f.Close()
}

// Close is a no-op; each batch owns its own file handle.
func (p *ParquetWriter) Close() error { return nil }
