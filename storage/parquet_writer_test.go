package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"rightmove-scraper/models"
)

func TestParquetWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewParquetWriter(dir)
	if err != nil {
		t.Fatalf("NewParquetWriter: %v", err)
	}

	price := int64(1250000)
	address := "Fine Street, London, E2 8DY"

	batch := &models.Batch{
		Date: time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC),
		Records: []models.ListingRecord{
			{ID: 140915714, Price: &price, Address: &address},
			{ID: 140915715}, // all optional fields absent
		},
	}

	if err := w.Write(batch); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, "2023-11-03.parquet")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()

	rows, err := parquet.Read[models.ListingRecord](f, fileSize(t, path))
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows; want 2", len(rows))
	}
	if rows[0].ID != 140915714 || rows[0].Price == nil || *rows[0].Price != 1250000 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Price != nil {
		t.Errorf("absent price must read back as nil, got %v", *rows[1].Price)
	}
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.Size()
}
