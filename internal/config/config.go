package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/medrecords/api/internal/platform/db"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	DBMaxIdleTime   time.Duration `mapstructure:"DB_MAX_IDLE_TIME"`
	DBSchema        string        `mapstructure:"DB_SCHEMA"`
	DefaultLimit    int           `mapstructure:"DEFAULT_LIMIT"`
	MaxPageSize     int           `mapstructure:"MAX_PAGE_SIZE"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	MetricsEnabled  bool          `mapstructure:"METRICS_ENABLED"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"PORT",
	"ENV",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"DB_MAX_IDLE_TIME",
	"DB_SCHEMA",
	"DEFAULT_LIMIT",
	"MAX_PAGE_SIZE",
	"JWT_SECRET",
	"CORS_ORIGINS",
	"METRICS_ENABLED",
	"LOG_LEVEL",
	"REQUEST_TIMEOUT",
	"SHUTDOWN_TIMEOUT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_IDLE_TIME", "5m")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DEFAULT_LIMIT", 10)
	v.SetDefault("MAX_PAGE_SIZE", 100)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Env values arrive as one comma-separated string.
	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PoolConfig returns the connection pool settings.
func (c *Config) PoolConfig() db.PoolConfig {
	return db.PoolConfig{
		DatabaseURL:     c.DatabaseURL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnIdleTime: c.DBMaxIdleTime,
	}
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT_SECRET must be set so session tokens can be verified.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("DEFAULT_LIMIT must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxPageSize < c.DefaultLimit {
		return fmt.Errorf("MAX_PAGE_SIZE (%d) must not be below DEFAULT_LIMIT (%d)", c.MaxPageSize, c.DefaultLimit)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
