// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	DBDriver    string
	DatabaseURL string
	SeedPath    string
	HubAddress  string
	ORSAPIKey   string
	RedisAddr   string

	// StaticPathFile is a GeoJSON path served to every vehicle when no ORS key is set.
	StaticPathFile string

	LogLevel  string
	LogPretty bool

	TickInterval      time.Duration
	FastForward       float64
	MaxOffsetMeters   float64
	DeliveryTolerance float64
	DefaultSpeedMph   float64
	TickWorkers       int
	LaunchWorkers     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "data/app.db")
	v.SetDefault("SEED_PATH", "data/seeds/packages.json")
	v.SetDefault("HUB_ADDRESS", "1901 W Madison St, Phoenix, AZ 85009")
	v.SetDefault("ORS_API_KEY", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("STATIC_PATH_FILE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	v.SetDefault("TICK_INTERVAL", "100ms")
	v.SetDefault("FAST_FORWARD", 1.0)
	v.SetDefault("MAX_OFFSET_METERS", 500.0)
	v.SetDefault("DELIVERY_TOLERANCE", 0.01)
	v.SetDefault("DEFAULT_SPEED_MPH", 25.0)
	v.SetDefault("TICK_WORKERS", 8)
	v.SetDefault("LAUNCH_WORKERS", 4)
}

// Load reads .env (a missing file is fine) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found (using environment variables)")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Port:        v.GetString("PORT"),
		DBDriver:    v.GetString("DB_DRIVER"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		SeedPath:    v.GetString("SEED_PATH"),
		HubAddress:  v.GetString("HUB_ADDRESS"),
		ORSAPIKey:   strings.TrimSpace(v.GetString("ORS_API_KEY")),
		RedisAddr:   strings.TrimSpace(v.GetString("REDIS_ADDR")),

		StaticPathFile: strings.TrimSpace(v.GetString("STATIC_PATH_FILE")),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogPretty: v.GetBool("LOG_PRETTY"),

		TickInterval:      v.GetDuration("TICK_INTERVAL"),
		FastForward:       v.GetFloat64("FAST_FORWARD"),
		MaxOffsetMeters:   v.GetFloat64("MAX_OFFSET_METERS"),
		DeliveryTolerance: v.GetFloat64("DELIVERY_TOLERANCE"),
		DefaultSpeedMph:   v.GetFloat64("DEFAULT_SPEED_MPH"),
		TickWorkers:       v.GetInt("TICK_WORKERS"),
		LaunchWorkers:     v.GetInt("LAUNCH_WORKERS"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval))
	}
	if c.FastForward <= 0 {
		errs = append(errs, fmt.Errorf("FAST_FORWARD must be positive, got %v", c.FastForward))
	}
	if c.MaxOffsetMeters <= 0 {
		errs = append(errs, fmt.Errorf("MAX_OFFSET_METERS must be positive, got %v", c.MaxOffsetMeters))
	}
	if c.DeliveryTolerance <= 0 || c.DeliveryTolerance >= 1 {
		errs = append(errs, fmt.Errorf("DELIVERY_TOLERANCE must be in (0,1), got %v", c.DeliveryTolerance))
	}
	if c.DefaultSpeedMph <= 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_SPEED_MPH must be positive, got %v", c.DefaultSpeedMph))
	}
	return errors.Join(errs...)
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
