package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"rightmove-scraper/models"
)

// QuarantineWriter dumps a rejected raw batch to a CSV file for manual
// inspection. Absent fields are written as empty cells.
type QuarantineWriter struct {
	dir string
}

// NewQuarantineWriter ensures the quarantine directory exists.
func NewQuarantineWriter(dir string) (*QuarantineWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("quarantine: create dir: %w", err)
	}
	return &QuarantineWriter{dir: dir}, nil
}

// WriteRaw writes the raw records to <dir>/<name>.csv with the canonical
// field order as header.
func (q *QuarantineWriter) WriteRaw(records []*models.RawRecord, name string) error {
	path := filepath.Join(q.dir, name+".csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("quarantine: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(models.FieldNames); err != nil {
		return fmt.Errorf("quarantine: write header: %w", err)
	}

	for _, r := range records {
		row := make([]string, 0, len(models.FieldNames))
		for _, field := range models.FieldNames {
			if field == "id" {
				row = append(row, strconv.FormatInt(r.ID, 10))
				continue
			}
			value, _ := r.Get(field)
			row = append(row, value)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("quarantine: write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
