package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr               string        `yaml:"addr" validate:"required"`
	PublicURL          string        `yaml:"publicUrl" validate:"omitempty,url"`
	DatabaseURL        string        `yaml:"databaseUrl" validate:"required"`
	DBMaxConns         int           `yaml:"dbMaxConns" validate:"min=1,max=200"`
	JWTSecret          string        `yaml:"jwtSecret"`
	DataEncryptionKey  string        `yaml:"dataEncryptionKey"`
	Environment        string        `yaml:"environment" validate:"oneof=development test staging production"`
	LogLevel           string        `yaml:"logLevel" validate:"oneof=debug info warn error"`
	SeedAdminEmail     string        `yaml:"seedAdminEmail" validate:"omitempty,email"`
	SeedAdminPassword  string        `yaml:"seedAdminPassword"`
	EmailFrom          string        `yaml:"emailFrom" validate:"omitempty,email"`
	EmailEnabled       bool          `yaml:"emailEnabled"`
	SMTPHost           string        `yaml:"smtpHost" validate:"required_if=EmailEnabled true"`
	SMTPPort           int           `yaml:"smtpPort" validate:"min=1,max=65535"`
	SMTPUser           string        `yaml:"smtpUser"`
	SMTPPassword       string        `yaml:"smtpPassword"`
	SMTPUseTLS         bool          `yaml:"smtpUseTls"`
	RunMigrations      bool          `yaml:"runMigrations"`
	RunSeed            bool          `yaml:"runSeed"`
	MaxBodyBytes       int64         `yaml:"maxBodyBytes" validate:"min=1024"`
	RateLimitPerMinute int           `yaml:"rateLimitPerMinute" validate:"gt=0"`
	AccrualInterval    time.Duration `yaml:"accrualInterval"`
	MetricsEnabled     bool          `yaml:"metricsEnabled"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		Addr:               ":8080",
		DBMaxConns:         10,
		Environment:        "development",
		LogLevel:           "info",
		EmailFrom:          "no-reply@example.com",
		SMTPPort:           587,
		SMTPUseTLS:         true,
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		AccrualInterval:    24 * time.Hour,
		MetricsEnabled:     true,
		ShutdownTimeout:    15 * time.Second,
	}
}

// Load reads the YAML file named by CONFIG_FILE, if any, and applies
// environment overrides on top of it.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = getEnv("APP_ADDR", cfg.Addr)
	cfg.PublicURL = getEnv("APP_PUBLIC_URL", cfg.PublicURL)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.DataEncryptionKey = getEnv("DATA_ENCRYPTION_KEY", cfg.DataEncryptionKey)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.SeedAdminEmail = getEnv("SEED_ADMIN_EMAIL", cfg.SeedAdminEmail)
	cfg.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", cfg.SeedAdminPassword)
	cfg.EmailFrom = getEnv("EMAIL_FROM", cfg.EmailFrom)
	cfg.EmailEnabled = getEnvBool("EMAIL_ENABLED", cfg.EmailEnabled)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getEnv("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPUseTLS = getEnvBool("SMTP_USE_TLS", cfg.SMTPUseTLS)
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.RunSeed = getEnvBool("RUN_SEED", cfg.RunSeed)
	cfg.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.DBMaxConns = getEnvInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.AccrualInterval = getEnvDuration("ACCRUAL_INTERVAL", cfg.AccrualInterval)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	return nil
}
