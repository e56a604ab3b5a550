package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Failure policies for a single unreadable track file.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// Policies for a cache blob that exists but cannot be decoded.
const (
	OnCorruptRecollect = "recollect"
	OnCorruptFail      = "fail"
)

// Config holds all application configuration.
type Config struct {
	Tracks    TracksConfig    `mapstructure:"tracks"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Heatmap   HeatmapConfig   `mapstructure:"heatmap"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

// TracksConfig describes where track files live.
type TracksConfig struct {
	RootFolder string `mapstructure:"root_folder"`
	Extension  string `mapstructure:"extension"`
	OnError    string `mapstructure:"on_error"` // abort|skip
}

// CacheConfig selects and configures the dataset cache.
type CacheConfig struct {
	Backend   string `mapstructure:"backend"` // file|valkey
	Path      string `mapstructure:"path"`
	Key       string `mapstructure:"key"`
	Codec     string `mapstructure:"codec"`      // gob|proto
	OnCorrupt string `mapstructure:"on_corrupt"` // recollect|fail
}

// HeatmapConfig holds the fixed rendering parameters.
type HeatmapConfig struct {
	Radius int    `mapstructure:"radius"`
	Blur   int    `mapstructure:"blur"`
	Zoom   int    `mapstructure:"zoom"`
	Tiles  string `mapstructure:"tiles"`
	Output string `mapstructure:"output"`
}

// FilterConfig controls how timestamps are windowed.
type FilterConfig struct {
	IncludeUndated bool   `mapstructure:"include_undated"`
	Timezone       string `mapstructure:"timezone"`
}

// Location resolves Timezone.
func (f FilterConfig) Location() (*time.Location, error) {
	if f.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(f.Timezone)
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// DatabaseConfig points at the optional Postgres point archive.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	MaxConns int32  `mapstructure:"max_conns"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("tracks.root_folder", "workout-routes")
	v.SetDefault("tracks.extension", ".gpx")
	v.SetDefault("tracks.on_error", OnErrorAbort)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.path", "gpx_cache.bin")
	v.SetDefault("cache.key", "trackheat:dataset")
	v.SetDefault("cache.codec", "gob")
	v.SetDefault("cache.on_corrupt", OnCorruptRecollect)
	v.SetDefault("heatmap.radius", 8)
	v.SetDefault("heatmap.blur", 15)
	v.SetDefault("heatmap.zoom", 13)
	v.SetDefault("heatmap.tiles", "CartoDB positron")
	v.SetDefault("heatmap.output", "cycling_heatmap.html")
	v.SetDefault("filter.include_undated", false)
	v.SetDefault("filter.timezone", "UTC")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "trackheat")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "trackheat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "trackheat-refresh")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TRACKHEAT_TRACKS_ROOT_FOLDER → tracks.root_folder
	v.SetEnvPrefix("TRACKHEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Tracks.RootFolder == "" {
		errs = append(errs, "tracks.root_folder is required")
	}
	if c.Tracks.Extension == "" {
		errs = append(errs, "tracks.extension is required")
	}
	if c.Tracks.OnError != OnErrorAbort && c.Tracks.OnError != OnErrorSkip {
		errs = append(errs, fmt.Sprintf("tracks.on_error must be abort or skip, got %q", c.Tracks.OnError))
	}
	switch c.Cache.Backend {
	case "file":
		if c.Cache.Path == "" {
			errs = append(errs, "cache.path is required for the file backend")
		}
	case "valkey":
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for the valkey backend")
		}
		if c.Cache.Key == "" {
			errs = append(errs, "cache.key is required for the valkey backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be file or valkey, got %q", c.Cache.Backend))
	}
	if c.Cache.Codec != "gob" && c.Cache.Codec != "proto" {
		errs = append(errs, fmt.Sprintf("cache.codec must be gob or proto, got %q", c.Cache.Codec))
	}
	if c.Cache.OnCorrupt != OnCorruptRecollect && c.Cache.OnCorrupt != OnCorruptFail {
		errs = append(errs, fmt.Sprintf("cache.on_corrupt must be recollect or fail, got %q", c.Cache.OnCorrupt))
	}
	if c.Heatmap.Radius <= 0 {
		errs = append(errs, "heatmap.radius must be positive")
	}
	if c.Heatmap.Blur <= 0 {
		errs = append(errs, "heatmap.blur must be positive")
	}
	if c.Heatmap.Zoom < 1 || c.Heatmap.Zoom > 20 {
		errs = append(errs, fmt.Sprintf("heatmap.zoom must be 1-20, got %d", c.Heatmap.Zoom))
	}
	if c.Heatmap.Output == "" {
		errs = append(errs, "heatmap.output is required")
	}
	if _, err := c.Filter.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("filter.timezone: %v", err))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled && c.Database.MaxConns <= 0 {
		errs = append(errs, "database.max_conns must be positive")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
