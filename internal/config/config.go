// Package config loads the service configuration from the environment.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the service settings.
type Config struct {
	AppPort string

	DatabaseDriver string // sqlite, postgres or memory
	DatabaseDSN    string

	RabbitMQURL      string
	RabbitMQExchange string

	RedisAddr   string
	RedisPrefix string
	RedisTTL    time.Duration

	CatalogPageSize        int
	CatalogRefreshSchedule string
	SeedFile               string

	LogMode string
	LogFile string
}

// SetDefaults registers the default of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "pharmacy.db")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "pharmacy.events")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PREFIX", "pharmacy:")
	v.SetDefault("REDIS_TTL", "24h")
	v.SetDefault("CATALOG_PAGE_SIZE", 12)
	v.SetDefault("CATALOG_REFRESH_SCHEDULE", "@every 1m")
	v.SetDefault("SEED_FILE", "")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_FILE", "")
}

// Load reads the configuration from v, which falls back to the environment
// for every key. Pass viper.New() in tests to keep settings isolated.
func Load(v *viper.Viper) Config {
	SetDefaults(v)
	v.AutomaticEnv()

	return Config{
		AppPort:                v.GetString("APP_PORT"),
		DatabaseDriver:         v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:            v.GetString("DATABASE_DSN"),
		RabbitMQURL:            v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:       v.GetString("RABBITMQ_EXCHANGE"),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPrefix:            v.GetString("REDIS_PREFIX"),
		RedisTTL:               v.GetDuration("REDIS_TTL"),
		CatalogPageSize:        v.GetInt("CATALOG_PAGE_SIZE"),
		CatalogRefreshSchedule: v.GetString("CATALOG_REFRESH_SCHEDULE"),
		SeedFile:               v.GetString("SEED_FILE"),
		LogMode:                v.GetString("LOG_MODE"),
		LogFile:                v.GetString("LOG_FILE"),
	}
}
