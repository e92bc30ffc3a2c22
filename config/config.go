package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Momo         MomoConfig
	Airtel       AirtelConfig
	Disbursement DisbursementConfig
	Sweep        SweepConfig
	RateLimit    RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// MomoConfig for MTN MoMo collections (request-to-pay).
type MomoConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	WebhookSecret   string
	CallbackBaseURL string // callback will be CallbackBaseURL + /api/v1/webhooks/momo
	Timeout         time.Duration
}

// AirtelConfig for Airtel Money collections.
type AirtelConfig struct {
	BaseURL         string
	ClientID        string
	ClientSecret    string
	Country         string
	Currency        string
	WebhookSecret   string
	CallbackBaseURL string
	Timeout         time.Duration
}

// DisbursementConfig for restaurant payouts over the MoMo disbursement product.
type DisbursementConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	WebhookSecret   string
	CallbackBaseURL string
	Timeout         time.Duration
}

// SweepConfig controls the pending-transaction reconciliation sweep.
type SweepConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
}

// RateLimitConfig sets per-IP request budgets over a rolling window. Webhooks
// get their own budget so a provider retry burst and the authenticated API
// cannot starve each other.
type RateLimitConfig struct {
	APIRequests     int
	WebhookRequests int
	Window          time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8088"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "godelivery:godelivery@tcp(localhost:3306)/godelivery?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			AccessExpiry: 12 * time.Hour,
			Issuer:       "go-delivery",
		},
		Momo: MomoConfig{
			BaseURL:         getEnv("MOMO_BASE_URL", "https://sandbox.momodeveloper.mtn.com"),
			SubscriptionKey: getEnv("MOMO_SUBSCRIPTION_KEY", ""),
			APIUser:         getEnv("MOMO_API_USER", ""),
			APIKey:          getEnv("MOMO_API_KEY", ""),
			TargetEnv:       getEnv("MOMO_TARGET_ENV", "mtnrwanda"),
			WebhookSecret:   getEnv("MOMO_WEBHOOK_SECRET", ""),
			CallbackBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
			Timeout:         30 * time.Second,
		},
		Airtel: AirtelConfig{
			BaseURL:         getEnv("AIRTEL_BASE_URL", "https://openapi.airtel.africa"),
			ClientID:        getEnv("AIRTEL_CLIENT_ID", ""),
			ClientSecret:    getEnv("AIRTEL_CLIENT_SECRET", ""),
			Country:         getEnv("AIRTEL_COUNTRY", "RW"),
			Currency:        getEnv("AIRTEL_CURRENCY", "RWF"),
			WebhookSecret:   getEnv("AIRTEL_WEBHOOK_SECRET", ""),
			CallbackBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
			Timeout:         30 * time.Second,
		},
		Disbursement: DisbursementConfig{
			BaseURL:         getEnv("MOMO_DISBURSEMENT_BASE_URL", "https://sandbox.momodeveloper.mtn.com"),
			SubscriptionKey: getEnv("MOMO_DISBURSEMENT_SUBSCRIPTION_KEY", ""),
			APIUser:         getEnv("MOMO_DISBURSEMENT_API_USER", ""),
			APIKey:          getEnv("MOMO_DISBURSEMENT_API_KEY", ""),
			TargetEnv:       getEnv("MOMO_TARGET_ENV", "mtnrwanda"),
			WebhookSecret:   getEnv("DISBURSEMENT_WEBHOOK_SECRET", ""),
			CallbackBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
			Timeout:         30 * time.Second,
		},
		Sweep: SweepConfig{
			Interval:    getEnvSeconds("SWEEP_INTERVAL_SEC", 5*time.Minute),
			GracePeriod: getEnvSeconds("SWEEP_GRACE_PERIOD_SEC", 2*time.Minute),
		},
		RateLimit: RateLimitConfig{
			APIRequests:     getEnvInt("RATE_LIMIT_API", 100),
			WebhookRequests: getEnvInt("RATE_LIMIT_WEBHOOK", 300),
			Window:          getEnvSeconds("RATE_LIMIT_WINDOW_SEC", time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
