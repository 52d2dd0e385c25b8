// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the matching service settings.
type Config struct {
	Port         string
	GinMode      string
	LogLevel     string
	ServiceName  string
	CORSOrigin   string
	JWTSecret    string
	ActionSecret string

	Database DatabaseConfig
	AWS      AWSConfig
	Geocoder GeocoderConfig

	SessionIdleTTL time.Duration
}

// DatabaseConfig holds database configuration. DSN wins over the discrete fields.
type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AWSConfig holds the region and the bucket used for charity logos.
type AWSConfig struct {
	Region       string
	LogoBucket   string
	PublicURLFmt string
}

// GeocoderConfig points at the ZIP code lookup provider.
type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load reads .env (if present) and then the process environment.
// It reports whether a .env file was loaded.
func Load() (*Config, bool) {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		GinMode:      os.Getenv("GIN_MODE"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ServiceName:  getEnv("SERVICE_NAME", "matching-service"),
		CORSOrigin:   getEnv("CORS_ORIGIN", "*"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		ActionSecret: os.Getenv("ACTION_SHARED_SECRET"),
		Database: DatabaseConfig{
			DSN:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "reusefull"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		AWS: AWSConfig{
			Region:       firstEnv("us-east-2", "AWS_REGION", "AWS_DEFAULT_REGION"),
			LogoBucket:   os.Getenv("S3_BUCKET"),
			PublicURLFmt: getEnv("S3_PUBLIC_URL_FORMAT", "https://%s.s3.%s.amazonaws.com/%s"),
		},
		Geocoder: GeocoderConfig{
			BaseURL: strings.TrimRight(getEnv("GEOCODER_BASE_URL", "https://api.zippopotam.us/us"), "/"),
			Timeout: getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
		},
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
	}
	return cfg, loaded
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
