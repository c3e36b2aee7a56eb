package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported DATABASE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrMissingJWTSecret is returned when no signing key is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Config holds the application settings.
type Config struct {
	AppPort         string        `mapstructure:"APP_PORT"`
	DatabaseDriver  string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN     string        `mapstructure:"DATABASE_DSN"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTTTL          time.Duration `mapstructure:"JWT_TTL"`
	RabbitMQURL     string        `mapstructure:"RABBITMQ_URL"`
	UserCacheTTL    time.Duration `mapstructure:"USER_CACHE_TTL"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	SeedOnStart     bool          `mapstructure:"SEED_ON_START"`
	SeedPrintTokens bool          `mapstructure:"SEED_PRINT_TOKENS"`
}

var keys = []string{
	"APP_PORT", "DATABASE_DRIVER", "DATABASE_DSN", "JWT_SECRET", "JWT_TTL", "RABBITMQ_URL",
	"USER_CACHE_TTL", "LOG_LEVEL", "SEED_ON_START", "SEED_PRINT_TOKENS",
}

// New returns a viper instance with the defaults applied and environment
// variables bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "file::memory:?cache=shared")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("USER_CACHE_TTL", 5*time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_ON_START", true)
	v.SetDefault("SEED_PRINT_TOKENS", false)
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, AutomaticEnv alone is not enough.
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the configuration from the environment and, when CONFIG_FILE
// is set, from that file. Environment variables win over file values.
func Load() (*Config, error) {
	v := New()
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	return &cfg, nil
}
