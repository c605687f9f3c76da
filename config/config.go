package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL            string
	LocationIdentifier string

	BaseWaitSeconds      int
	CooldownEvery        int
	CooldownFactor       int
	MaxRetries           int
	StartupDelayMaxSecs  int
	RequestTimeoutSecs   int
	TestRun              bool

	SchemaPath    string
	OutputDir     string
	QuarantineDir string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		BaseURL:            getEnv("RIGHTMOVE_BASE_URL", "https://www.rightmove.co.uk"),
		LocationIdentifier: getEnv("LOCATION_IDENTIFIER", "REGION^87490"), // London

		BaseWaitSeconds:     getEnvInt("BASE_WAIT_SECONDS", 5),
		CooldownEvery:       getEnvInt("COOLDOWN_EVERY", 100),
		CooldownFactor:      getEnvInt("COOLDOWN_FACTOR", 10),
		MaxRetries:          getEnvInt("MAX_RETRIES", 3),
		StartupDelayMaxSecs: getEnvInt("STARTUP_DELAY_MAX_SECONDS", 1800),
		RequestTimeoutSecs:  getEnvInt("REQUEST_TIMEOUT_SECONDS", 10),
		TestRun:             getEnvBool("TEST_RUN", true),

		SchemaPath:    getEnv("SCHEMA_PATH", "./dtypes.yaml"),
		OutputDir:     getEnv("OUTPUT_DIR", "./output"),
		QuarantineDir: getEnv("QUARANTINE_DIR", "./output/failed"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
