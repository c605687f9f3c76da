package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rightmove-scraper/models"
)

// PostgresWriter persists validated batches to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id              BIGINT PRIMARY KEY,
			batch_date      DATE        NOT NULL,
			address         TEXT,
			outcode         VARCHAR(8),
			postcode        VARCHAR(16),
			price           BIGINT,
			price_qualifier TEXT,
			listing_type    TEXT,
			listed_date     DATE,
			property_type   TEXT,
			bedrooms        INT,
			bathrooms       INT,
			size_sqft       INT,
			tenure          TEXT,
			agent_name      TEXT,
			agent_name_full TEXT,
			agent_address   TEXT,
			description     TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_listings_batch_date ON listings(batch_date);
		CREATE INDEX IF NOT EXISTS idx_listings_outcode    ON listings(outcode);
		CREATE INDEX IF NOT EXISTS idx_listings_price      ON listings(price);
	`)
	return err
}

// Write batch-inserts the typed records. A listing id seen in an earlier
// run keeps its original row.
func (pw *PostgresWriter) Write(batch *models.Batch) error {
	if len(batch.Records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(batch.Records); i += batchSize {
		end := i + batchSize
		if end > len(batch.Records) {
			end = len(batch.Records)
		}
		if err := pw.insertBatch(batch.Date, batch.Records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(date time.Time, records []models.ListingRecord) error {
	const cols = 18
	valueStrings := make([]string, 0, len(records))
	valueArgs := make([]interface{}, 0, len(records)*cols)

	for idx, r := range records {
		base := idx * cols
		placeholders := make([]string, 0, cols)
		for j := 1; j <= cols; j++ {
			placeholders = append(placeholders, fmt.Sprintf("$%d", base+j))
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs,
			r.ID, date.Format("2006-01-02"),
			r.Address, r.Outcode, r.Postcode,
			r.Price, r.PriceQualifier, r.ListingType, r.ListedDate,
			r.PropertyType, r.Bedrooms, r.Bathrooms, r.SizeSqft, r.Tenure,
			r.AgentName, r.AgentNameFull, r.AgentAddress, r.Description,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (
			id, batch_date, address, outcode, postcode,
			price, price_qualifier, listing_type, listed_date,
			property_type, bedrooms, bathrooms, size_sqft, tenure,
			agent_name, agent_name_full, agent_address, description
		)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
