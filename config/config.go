package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableRangeConstraint  bool   `yaml:"enable_range_constraint"`
}

// BookingConfig holds the booking engine tunables.
type BookingConfig struct {
	PaymentWindowMinutes int           `yaml:"payment_window_minutes"`
	PaymentWindow        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// SweeperConfig holds the background sweep configuration.
type SweeperConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	BatchSize       int           `yaml:"batch_size"`
}

// NotifyConfig holds the guest notification worker pool configuration.
type NotifyConfig struct {
	WorkerPoolSize int `yaml:"worker_pool_size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Booking.PaymentWindowMinutes <= 0 {
		cfg.Booking.PaymentWindowMinutes = 30
	}
	cfg.Booking.PaymentWindow = time.Duration(cfg.Booking.PaymentWindowMinutes) * time.Minute

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 60
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second
	if cfg.Sweeper.BatchSize <= 0 {
		cfg.Sweeper.BatchSize = 200
	}

	if cfg.Notify.WorkerPoolSize <= 0 {
		cfg.Notify.WorkerPoolSize = 1
	}

	return &cfg, nil
}
