package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort              = "3333"
	DefaultORSBaseURL        = "https://api.openrouteservice.org"
	DefaultNominatimBaseURL  = "https://nominatim.openstreetmap.org"
	DefaultOpenMeteoBaseURL  = "https://api.open-meteo.com"
	DefaultFCMServiceAccount = "./serviceAccountKey.json"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	Pool        PoolConfig

	ClerkSecretKey     string
	ClerkWebhookSecret string

	ORSAPIKey        string
	ORSBaseURL       string
	NominatimBaseURL string
	OpenMeteoBaseURL string

	FCMServiceAccountFile string

	MetricsUser string
	MetricsPass string
	PprofSecret string
}

type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		Port:     getEnv("PORT", DefaultPort),
		LogLevel: os.Getenv("LOG_LEVEL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		Pool: PoolConfig{
			MaxConns:          25,
			MinConns:          5,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
		},

		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),

		ORSAPIKey:        os.Getenv("ORS_API_KEY"),
		ORSBaseURL:       getEnv("ORS_BASE_URL", DefaultORSBaseURL),
		NominatimBaseURL: getEnv("NOMINATIM_BASE_URL", DefaultNominatimBaseURL),
		OpenMeteoBaseURL: getEnv("OPEN_METEO_BASE_URL", DefaultOpenMeteoBaseURL),

		FCMServiceAccountFile: getEnv("FCM_SERVICE_ACCOUNT_FILE", DefaultFCMServiceAccount),

		MetricsUser: os.Getenv("METRICS_USER"),
		MetricsPass: os.Getenv("METRICS_PASS"),
		PprofSecret: os.Getenv("PPROF_SECRET"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return cfg, dotenv, nil
}

// Validate checks the settings the server cannot start without. A missing
// ORS key is not fatal: route estimation reports it per request.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	if c.ClerkSecretKey == "" {
		return errors.New("CLERK_SECRET_KEY environment variable is not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
