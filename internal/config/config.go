package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Storage driver names accepted in STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Durable store
	StorageDriver string
	StoragePath   string

	// Postgres (used when StorageDriver is "postgres")
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ledger
	DefaultCurrency string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Durable store
		StorageDriver: getEnv("STORAGE_DRIVER", DriverSQLite),
		StoragePath:   getEnv("STORAGE_PATH", "pocketledger.db"),

		// Postgres
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "pocketledger"),
		DBPassword: getEnv("DB_PASSWORD", "pocketledger"),
		DBName:     getEnv("DB_NAME", "pocketledger"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Ledger
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),
	}

	if config.StorageDriver != DriverSQLite && config.StorageDriver != DriverPostgres {
		log.Printf("Warning: unknown STORAGE_DRIVER '%s', falling back to sqlite\n", config.StorageDriver)
		config.StorageDriver = DriverSQLite
	}

	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
