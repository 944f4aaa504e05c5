package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hoppz/geocache/internal/db"
	"github.com/hoppz/geocache/internal/geostore"
	"github.com/hoppz/geocache/internal/notify"
)

// Config holds the full application configuration.
type Config struct {
	Redis  geostore.RedisConfig `yaml:"redis" mapstructure:"redis"`
	Master MasterConfig         `yaml:"master" mapstructure:"master"`
	Notify notify.Config        `yaml:"notify" mapstructure:"notify"`
	Cache  CacheConfig          `yaml:"cache" mapstructure:"cache"`
	Server ServerConfig         `yaml:"server" mapstructure:"server"`
	Log    LogConfig            `yaml:"log" mapstructure:"log"`
}

// MasterConfig configures the source-of-truth venue database.
type MasterConfig struct {
	DatabaseURL string    `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.Config `yaml:"pool" mapstructure:"pool"`
}

// CacheConfig tunes the cache's radii and windows.
type CacheConfig struct {
	CheckInRadiusM     float64       `yaml:"check_in_radius_m" mapstructure:"check_in_radius_m"`
	UserSearchRadiusKM float64       `yaml:"user_search_radius_km" mapstructure:"user_search_radius_km"`
	NotifRadiusKM      float64       `yaml:"notif_radius_km" mapstructure:"notif_radius_km"`
	DefaultFootprintM  float64       `yaml:"default_footprint_m" mapstructure:"default_footprint_m"`
	FreshnessWindow    time.Duration `yaml:"freshness_window" mapstructure:"freshness_window"`
	ConflictWindow     time.Duration `yaml:"conflict_window" mapstructure:"conflict_window"`
	VenueDirectoryTTL  time.Duration `yaml:"venue_directory_ttl" mapstructure:"venue_directory_ttl"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("cache.check_in_radius_m", 50)
	v.SetDefault("cache.user_search_radius_km", 50)
	v.SetDefault("cache.notif_radius_km", 25)
	v.SetDefault("cache.default_footprint_m", 50)
	v.SetDefault("cache.freshness_window", "3h")
	v.SetDefault("cache.conflict_window", "3h")
	v.SetDefault("cache.venue_directory_ttl", "1h")
	v.SetDefault("notify.rate_per_second", 25)
	v.SetDefault("notify.burst", 50)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
