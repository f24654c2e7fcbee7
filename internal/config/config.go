package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
// Driver selects the entity store: "postgres" or the in-process "memory".
type DatabaseConfig struct {
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// TipsConfig holds retention and receipt settings of the tip lifecycle.
type TipsConfig struct {
	// DefaultTTL applies to tips whose context has no lifetime of its own.
	DefaultTTL time.Duration
	// WhistleblowerTTL is how long a whistleblower tip survives without access.
	WhistleblowerTTL time.Duration
	ReceiptSalt      string
	ReceiptDigits    int
	// ReceiverTiers are the receiver levels served at finalization, in order.
	ReceiverTiers []int
}

// JobsConfig holds the intervals of background jobs.
type JobsConfig struct {
	SweepInterval time.Duration
	DrainInterval time.Duration
	DrainBatch    int
}

// AuthConfig holds the verification settings for identity tokens issued by
// the session service.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// RateLimitConfig bounds receipt-authenticated requests per client.
type RateLimitConfig struct {
	ReceiptRPS   float64
	ReceiptBurst int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Location  *time.Location
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Tips      TipsConfig
	Jobs      JobsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Location: getEnvLocation("APP_TIMEZONE", time.UTC),
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", "postgres"),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Tips: TipsConfig{
			DefaultTTL:       time.Duration(getEnvInt("TIP_TTL_DAYS", 20)) * 24 * time.Hour,
			WhistleblowerTTL: time.Duration(getEnvInt("WBTIP_TTL_DAYS", 90)) * 24 * time.Hour,
			ReceiptSalt:      getEnv("RECEIPT_SALT", ""),
			ReceiptDigits:    getEnvInt("RECEIPT_DIGITS", 16),
			ReceiverTiers:    getEnvIntList("RECEIVER_TIERS", []int{1}),
		},
		Jobs: JobsConfig{
			SweepInterval: getEnvDuration("JOB_SWEEP_INTERVAL", 5*time.Minute),
			DrainInterval: getEnvDuration("JOB_DRAIN_INTERVAL", time.Minute),
			DrainBatch:    getEnvInt("JOB_DRAIN_BATCH", 50),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", "whistlebox-session"),
		},
		RateLimit: RateLimitConfig{
			ReceiptRPS:   getEnvFloat("RECEIPT_RATE_RPS", 1),
			ReceiptBurst: getEnvInt("RECEIPT_RATE_BURST", 5),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}

// getEnvIntList parses a comma separated list such as "1,2". Any malformed
// element discards the whole value.
func getEnvIntList(key string, def []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return def
		}
		out = append(out, i)
	}
	return out
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	if v := os.Getenv(key); v != "" {
		loc, err := time.LoadLocation(v)
		if err == nil {
			return loc
		}
	}
	return def
}
