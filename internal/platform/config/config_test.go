package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/vacations")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 24*time.Hour, cfg.AccrualInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("addr: \":9090\"\ndatabaseUrl: postgres://file/db\nrateLimitPerMinute: 10\naccrualInterval: 1h\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://file/db", cfg.DatabaseURL)
	assert.Equal(t, 25, cfg.RateLimitPerMinute)
	assert.Equal(t, time.Hour, cfg.AccrualInterval)
}

func TestValidateRejectsMissingDatabase(t *testing.T) {
	cfg := Defaults()
	assert.Error(t, cfg.Validate())
}

func TestValidateProductionSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.DatabaseURL = "postgres://localhost/vacations"
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	cfg.DataEncryptionKey = "0123456789abcdef0123456789abcdef"
	cfg.SeedAdminPassword = "ChangeMe123!"
	assert.NoError(t, cfg.Validate())
}

func TestValidateEmailRequiresHost(t *testing.T) {
	cfg := Defaults()
	cfg.DatabaseURL = "postgres://localhost/vacations"
	cfg.EmailEnabled = true
	assert.Error(t, cfg.Validate())

	cfg.SMTPHost = "smtp.example.com"
	assert.NoError(t, cfg.Validate())
}
