package config

import (
	"fmt"
	"time"

	"github.com/rpattn/schemaflow/internal/db"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Database db.Config
	Sweep    SweepConfig
	NATS     NATSConfig
	HTTP     HTTPConfig
	Cache    CacheConfig
}

// SweepConfig controls the background unprocessed-event sweep.
type SweepConfig struct {
	Interval time.Duration
}

// NATSConfig controls the optional NATS notification sink. When URL is empty
// notifications fall back to the log sink.
type NATSConfig struct {
	URL              string
	NotifySubject    string
	DashboardSubject string
}

// HTTPConfig controls the admin HTTP listener.
type HTTPConfig struct {
	ListenAddr string
}

// CacheConfig controls the field resolution cache.
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		Database: db.DefaultConfig(),
		Sweep: SweepConfig{
			Interval: 30 * time.Second,
		},
		NATS: NATSConfig{
			URL:              "",
			NotifySubject:    "schemaflow.notifications",
			DashboardSubject: "schemaflow.dashboard",
		},
		HTTP: HTTPConfig{
			ListenAddr: ":8080",
		},
		Cache: CacheConfig{
			MaxEntries: 4096,
			TTL:        5 * time.Minute,
		},
	}
}

// Load reads config.yaml from configPath and overlays environment variables.
func Load(configPath string) (Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()             // allow environment overrides
	v.SetEnvPrefix("SCHEMAFLOW") // map env vars like SCHEMAFLOW_DATABASE_HOST

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("sweep.interval")
	v.BindEnv("nats.url")
	v.BindEnv("nats.notify_subject")
	v.BindEnv("nats.dashboard_subject")
	v.BindEnv("http.listen_addr")
	v.BindEnv("cache.max_entries")
	v.BindEnv("cache.ttl")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("sweep.interval") {
		cfg.Sweep.Interval = v.GetDuration("sweep.interval")
	}
	if v.IsSet("nats.url") {
		cfg.NATS.URL = v.GetString("nats.url")
	}
	if v.IsSet("nats.notify_subject") {
		cfg.NATS.NotifySubject = v.GetString("nats.notify_subject")
	}
	if v.IsSet("nats.dashboard_subject") {
		cfg.NATS.DashboardSubject = v.GetString("nats.dashboard_subject")
	}
	if v.IsSet("http.listen_addr") {
		cfg.HTTP.ListenAddr = v.GetString("http.listen_addr")
	}
	if v.IsSet("cache.max_entries") {
		cfg.Cache.MaxEntries = v.GetInt("cache.max_entries")
	}
	if v.IsSet("cache.ttl") {
		cfg.Cache.TTL = v.GetDuration("cache.ttl")
	}

	return cfg, nil
}
