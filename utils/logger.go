package utils

import (
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger is the run-scoped logger handed to every component.
type Logger = *logrus.Entry

// NewLogger builds the application logger. Runs in production log JSON;
// everything else gets colored text. Each run is tagged with a unique
// run_id so interleaved scheduler output stays attributable.
func NewLogger() Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.DebugLevel)

	if os.Getenv("ENVIRONMENT") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:      true,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		})
	}

	return logger.WithField("run_id", uuid.New().String())
}
