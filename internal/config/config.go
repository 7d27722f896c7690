package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	RateLimit     RateLimitConfig      `koanf:"ratelimit" validate:"required"`
	Quota         QuotaConfig          `koanf:"quota" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"required"`
	WriteTimeout int    `koanf:"write_timeout" validate:"required"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"required"`
	// StoreTimeout bounds each store round trip (credential lookup,
	// limiter increment, quota count, insert), in seconds.
	StoreTimeout int `koanf:"store_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxConns        int    `koanf:"max_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
}

// URL renders the pgx connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RateLimitConfig struct {
	// Backend selects the limiter implementation: "postgres" (atomic
	// across instances, the default) or "memory" (single-process burst
	// protection only).
	Backend       string `koanf:"backend" validate:"required,oneof=postgres memory"`
	Limit         int    `koanf:"limit" validate:"required,gt=0"`
	WindowSeconds int    `koanf:"window_seconds" validate:"required,gt=0"`
}

func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type QuotaConfig struct {
	// MonthlyLogLimit caps persisted events per project per calendar month.
	MonthlyLogLimit int `koanf:"monthly_log_limit" validate:"required,gt=0"`
}

type ObservabilityConfig struct {
	Enabled    bool   `koanf:"enabled"`
	AppName    string `koanf:"app_name"`
	LicenseKey string `koanf:"license_key"`
}

func (o *ObservabilityConfig) Validate() error {
	if o.Enabled && o.LicenseKey == "" {
		return fmt.Errorf("observability enabled but license_key is empty")
	}
	return nil
}

// Load reads configuration from LOGIFY_-prefixed environment variables.
// Nested keys use a double underscore, e.g. LOGIFY_DATABASE__HOST.
func Load() (mainConfig *Config, err error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")
	err = k.Load(env.Provider("LOGIFY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "LOGIFY_")), "__", ".")
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load initial env variables")
	}

	mainConfig = &Config{}
	applyDefaults(mainConfig)
	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal mainconfig")
	}

	validate := validator.New()
	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not validate the struct")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = &ObservabilityConfig{}
	}
	if mainConfig.Observability.AppName == "" {
		mainConfig.Observability.AppName = "logify-" + mainConfig.Primary.Env
	}
	err = mainConfig.Observability.Validate()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return
}

// applyDefaults fills free-tier defaults so a minimal environment still
// boots; anything set in the env wins during Unmarshal.
func applyDefaults(c *Config) {
	c.Primary.Env = "development"
	c.Server = ServerConfig{
		Port:         "8080",
		ReadTimeout:  10,
		WriteTimeout: 10,
		IdleTimeout:  60,
		StoreTimeout: 5,
	}
	c.Database.SSLMode = "disable"
	c.Database.MaxConns = 10
	c.Database.ConnMaxLifetime = 1800
	c.RateLimit = RateLimitConfig{
		Backend:       "postgres",
		Limit:         100,
		WindowSeconds: 60,
	}
	c.Quota.MonthlyLogLimit = 10_000
}
