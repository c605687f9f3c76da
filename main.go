package main

import (
	"os"
	"time"

	"rightmove-scraper/config"
	"rightmove-scraper/models"
	"rightmove-scraper/scraper/rightmove"
	"rightmove-scraper/services"
	"rightmove-scraper/storage"
	"rightmove-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Rightmove daily listings scrape starting ===")
	logger.Infof("Config — base wait: %ds | cooldown: every %d ×%d | retries: %d | test run: %v",
		cfg.BaseWaitSeconds, cfg.CooldownEvery, cfg.CooldownFactor, cfg.MaxRetries, cfg.TestRun)

	pacer := services.NewPacer(
		time.Duration(cfg.BaseWaitSeconds)*time.Second,
		cfg.CooldownEvery,
		cfg.CooldownFactor,
	)
	pacer.StartupDelayMax = time.Duration(cfg.StartupDelayMaxSecs) * time.Second

	// Full runs start at a random offset so scheduled executions do not
	// all hit the site at the same minute.
	if !cfg.TestRun {
		delay := pacer.StartupDelay()
		logger.Infof("Sleeping %.2f minutes before starting", delay.Minutes())
		time.Sleep(delay)
	}

	schema, err := services.LoadSchema(cfg.SchemaPath)
	if err != nil {
		logger.Errorf("Failed to load schema: %v", err)
		os.Exit(1)
	}

	quarantine, err := storage.NewQuarantineWriter(cfg.QuarantineDir)
	if err != nil {
		logger.Errorf("Failed to create quarantine writer: %v", err)
		os.Exit(1)
	}

	validator, err := services.NewValidator(schema, quarantine, logger)
	if err != nil {
		logger.Errorf("Failed to create validator: %v", err)
		os.Exit(1)
	}

	parquetWriter, err := storage.NewParquetWriter(cfg.OutputDir)
	if err != nil {
		logger.Errorf("Failed to create parquet writer: %v", err)
		os.Exit(1)
	}

	scraper, err := rightmove.New(cfg, logger, pacer)
	if err != nil {
		logger.Errorf("Failed to create scraper: %v", err)
		os.Exit(1)
	}

	query := rightmove.DefaultQuery()
	query.LocationIdentifier = cfg.LocationIdentifier

	refs, err := scraper.FetchListingRefs(query)
	if err != nil {
		logger.Errorf("Pagination failed: %v", err)
		os.Exit(1)
	}
	logger.Infof("%d results found", len(refs))

	// Listings are fetched one at a time in result order; the pacing
	// sleep after each fetch is the run's rate limit.
	rawRecords := make([]*models.RawRecord, 0, len(refs))
	for i, ref := range refs {
		record, err := scraper.ScrapeListing(ref)
		if err != nil {
			logger.Warnf("Listing %d unextractable — excluded from batch: %v", ref.ID, err)
		} else {
			rawRecords = append(rawRecords, record)
		}

		delay := pacer.ListingDelay(i)
		logger.Infof("Sleeping %.2f seconds", delay.Seconds())
		time.Sleep(delay)
	}

	if len(rawRecords) == 0 {
		logger.Error("No records were extracted. Exiting.")
		os.Exit(1)
	}

	batch, err := validator.Validate(rawRecords)
	if err != nil {
		// The raw batch is already quarantined; the nonzero exit lets
		// the scheduler observe the failed run.
		logger.Errorf("Batch validation failed: %v", err)
		os.Exit(1)
	}

	if err := parquetWriter.Write(batch); err != nil {
		logger.Errorf("Parquet write failed: %v", err)
		os.Exit(1)
	}
	logger.Infof("Batch saved to %s/%s.parquet", cfg.OutputDir, batch.Name())

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Errorf("Failed to connect to PostgreSQL: %v", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.Write(batch); err != nil {
				logger.Errorf("PostgreSQL write failed: %v", err)
			} else {
				logger.Info("Batch stored in PostgreSQL (table: listings)")
			}
		}
	}

	reporter := services.NewReportService(logger)
	reporter.Print(reporter.Generate(batch))

	logger.Info("=== Run complete ===")
}
