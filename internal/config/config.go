package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Server
	ServerPort string
	ServerEnv  string
	ServerHost string

	// Database
	DatabaseURL string

	// JWT
	JWTSecretKey            string
	JWTAccessTokenExpireMin int

	// Property cache
	CacheMaxEntries     int
	CacheDefaultTTLSec  int
	PropertyCacheTTLSec int

	// OTLP collector
	OTLPEndpoint string
}

func Load() *Config {
	return &Config{
		// Server
		ServerPort: getEnv("SERVER_PORT", "3000"),
		ServerEnv:  getEnv("SERVER_ENV", "development"),
		ServerHost: getEnv("SERVER_HOST", "localhost:3000"),

		// Database - DATABASE_URL wins, otherwise assembled from discrete vars
		DatabaseURL: getDatabaseURL(),

		// JWT
		JWTSecretKey:            getEnv("JWT_SECRET_KEY", ""),
		JWTAccessTokenExpireMin: getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 15),

		// Property cache
		CacheMaxEntries:     getEnvAsInt("CACHE_MAX_ENTRIES", 1000),
		CacheDefaultTTLSec:  getEnvAsInt("CACHE_DEFAULT_TTL_SECONDS", 300),
		PropertyCacheTTLSec: getEnvAsInt("PROPERTY_CACHE_TTL_SECONDS", 300),

		// OTLP collector
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDatabaseURL returns DATABASE_URL or builds it from individual env vars
func getDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "")
	dbname := getEnv("POSTGRES_DB", "realestate")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode)
}
