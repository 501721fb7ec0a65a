package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("BANKCORE_STR", "value")
	t.Setenv("BANKCORE_EMPTY", "")
	t.Setenv("BANKCORE_INT", "42")
	t.Setenv("BANKCORE_BAD_INT", "forty-two")
	t.Setenv("BANKCORE_DUR", "250ms")
	t.Setenv("BANKCORE_BOOL", " true ")

	assert.Equal(t, "value", GetEnv("BANKCORE_STR", "x"))
	assert.Equal(t, "x", GetEnv("BANKCORE_EMPTY", "x"))
	assert.Equal(t, 42, GetIntEnv("BANKCORE_INT", 1))
	assert.Equal(t, 1, GetIntEnv("BANKCORE_BAD_INT", 1))
	assert.Equal(t, 250*time.Millisecond, GetDurationEnv("BANKCORE_DUR", time.Second))
	assert.Equal(t, time.Second, GetDurationEnv("BANKCORE_MISSING", time.Second))
	assert.True(t, GetBoolEnv("BANKCORE_BOOL", false))
}

func TestLoad(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("TRANSFER_LOCK_TIMEOUT", "2s")
	t.Setenv("TRANSFER_REQUIRE_OTP", "true")
	t.Setenv("AUDIT_WRITER", "log")
	t.Setenv("DB_NAME", "ledger_test")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.Transfer.LockTimeout)
	assert.True(t, cfg.Transfer.RequireOTP)
	assert.Equal(t, 3, cfg.Transfer.MaxRetries)
	assert.Equal(t, "log", cfg.Audit.Writer)
	assert.Equal(t, "ledger_test", cfg.Database.Name)
	assert.False(t, cfg.Log.Development)
	assert.Equal(t, "otel-collector:4317", cfg.Metrics.Endpoint)
	assert.Equal(t, "bankcore", cfg.Metrics.ServiceName)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	assert.Empty(t, cfg.JWTSecret)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
}

func TestLoad_DevelopmentHasSigningKey(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NoError(t, cfg.Validate())
}
