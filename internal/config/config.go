package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	AppEnv    string
	Port      string
	JWTSecret string
	PublicURL string // base of links printed in QR codes
	Database  DatabaseConfig
	Alerts    AlertsConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool

	// EmbeddedDataPath is where the embedded postgres keeps its cluster
	EmbeddedDataPath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret, err := LoadJWTSecret()
	if err != nil {
		return nil, err
	}

	alerts, err := LoadAlertsConfig()
	if err != nil {
		return nil, err
	}

	port := getEnv("PORT", "3001")
	return &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		Port:      port,
		JWTSecret: jwtSecret,
		PublicURL: getEnv("PUBLIC_URL", "http://localhost:"+port),
		Database:  LoadDatabaseConfig(),
		Alerts:    alerts,
	}, nil
}

// LoadJWTSecret reads the token signing secret
func LoadJWTSecret() (string, error) {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is required")
	}
	return secret, nil
}

// LoadDatabaseConfig reads only the database settings, for tools that need no JWT secret
func LoadDatabaseConfig() DatabaseConfig {
	_ = godotenv.Load()

	return DatabaseConfig{
		Host:     getEnv("PG_HOST", "localhost"),
		Port:     getEnv("PG_PORT", "5432"),
		Username: getEnv("PG_USERNAME", "postgres"),
		Password: os.Getenv("PG_PASSWORD"),
		Database: getEnv("PG_DATABASE", "soletrack"),
		Alter:    getEnv("DB_ALTER", "false") == "true",

		EmbeddedDataPath: getEnv("PG_EMBEDDED_DATA", "./db_data"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
