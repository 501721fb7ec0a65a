package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Transfer  TransferConfig
	Audit     AuditConfig
	OTP       OTPConfig
	Metrics   MetricsConfig
	Log       LogConfig
	JWTSecret string
}

// devJWTSecret is the signing key used outside production when JWT_SECRET
// is unset.
const devJWTSecret = "bankcore-dev-secret"

// ErrMissingJWTSecret is returned by Validate when no signing key is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

type HTTPConfig struct {
	Port           string
	AllowedOrigins string
	// TransferRateLimit is the number of transfer requests a client IP may
	// send per minute.
	TransferRateLimit int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// BalanceTTL bounds how long a cached balance may be served.
	BalanceTTL time.Duration
}

type TransferConfig struct {
	LockTimeout    time.Duration
	UnitTimeout    time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequireOTP     bool
}

type AuditConfig struct {
	// Writer is "db" (audit_logs table) or "log" (structured log only).
	Writer       string
	BufferSize   int
	WriteTimeout time.Duration
}

type OTPConfig struct {
	TTL time.Duration
}

type MetricsConfig struct {
	// Endpoint is the OTLP/gRPC collector address; empty disables export.
	Endpoint       string
	ServiceName    string
	ExportInterval time.Duration
}

type LogConfig struct {
	Level       string
	Development bool
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load builds a Config from the environment, falling back to defaults.
func Load() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:              GetEnv("PORT", "3000"),
			AllowedOrigins:    GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			TransferRateLimit: GetIntEnv("TRANSFER_RATE_LIMIT", 30),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "bankcore"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:       GetEnv("REDIS_HOST", "localhost"),
			Port:       GetEnv("REDIS_PORT", "6379"),
			Password:   GetEnv("REDIS_PASSWORD", ""),
			DB:         GetIntEnv("REDIS_DB", 0),
			BalanceTTL: GetDurationEnv("BALANCE_CACHE_TTL", 30*time.Second),
		},
		Transfer: TransferConfig{
			LockTimeout:    GetDurationEnv("TRANSFER_LOCK_TIMEOUT", 5*time.Second),
			UnitTimeout:    GetDurationEnv("TRANSFER_UNIT_TIMEOUT", 10*time.Second),
			MaxRetries:     GetIntEnv("TRANSFER_MAX_RETRIES", 3),
			RetryBaseDelay: GetDurationEnv("TRANSFER_RETRY_BASE_DELAY", 20*time.Millisecond),
			RequireOTP:     GetBoolEnv("TRANSFER_REQUIRE_OTP", false),
		},
		Audit: AuditConfig{
			Writer:       GetEnv("AUDIT_WRITER", "db"),
			BufferSize:   GetIntEnv("AUDIT_BUFFER_SIZE", 1024),
			WriteTimeout: GetDurationEnv("AUDIT_WRITE_TIMEOUT", 2*time.Second),
		},
		OTP: OTPConfig{
			TTL: GetDurationEnv("OTP_TTL", 5*time.Minute),
		},
		Metrics: MetricsConfig{
			Endpoint:       GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:    GetEnv("OTEL_SERVICE_NAME", "bankcore"),
			ExportInterval: GetDurationEnv("METRICS_EXPORT_INTERVAL", 15*time.Second),
		},
		Log: LogConfig{
			Level:       GetEnv("LOG_LEVEL", "info"),
			Development: !IsProduction(),
		},
		JWTSecret: GetEnv("JWT_SECRET", defaultJWTSecret()),
	}
}

// Validate rejects settings the service must not start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func defaultJWTSecret() string {
	if IsProduction() {
		return ""
	}
	return devJWTSecret
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable (e.g. "250ms") or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetBoolEnv returns a bool environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
