// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Supplier  SupplierConfig  `mapstructure:"supplier"`
	DB        DBConfig        `mapstructure:"db"`
	Importer  ImporterConfig  `mapstructure:"importer"`
	Admission AdmissionConfig `mapstructure:"admission"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SupplierConfig points at the remote catalog API.
type SupplierConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	ClientID       string  `mapstructure:"client_id"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRPS         float64 `mapstructure:"max_rps"`
	MaxRetries     int     `mapstructure:"max_retries"`
}

// DBConfig controls the Postgres connection pool.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime_minutes"`
}

// ImporterConfig governs batch pipeline behavior.
type ImporterConfig struct {
	GroupSize        int    `mapstructure:"group_size"`
	ReferencePauseMs int    `mapstructure:"reference_pause_ms"`
	GroupPauseMs     int    `mapstructure:"group_pause_ms"`
	WarehouseFilter  string `mapstructure:"warehouse_filter"`
}

// AdmissionConfig bounds concurrent store reads.
type AdmissionConfig struct {
	MaxConcurrentReads int `mapstructure:"max_concurrent_reads"`
}

// PubSubConfig holds metadata for import completion events.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("supplier.timeout_seconds", 20)
	v.SetDefault("supplier.max_rps", 0)
	v.SetDefault("supplier.max_retries", 0)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("importer.group_size", 10)
	v.SetDefault("importer.reference_pause_ms", 500)
	v.SetDefault("importer.group_pause_ms", 3000)
	v.SetDefault("admission.max_concurrent_reads", 8)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Supplier.BaseURL == "" {
		return fmt.Errorf("supplier.base_url is required")
	}
	if c.Supplier.TimeoutSeconds <= 0 {
		return fmt.Errorf("supplier.timeout_seconds must be > 0")
	}
	if c.Importer.GroupSize < 0 {
		return fmt.Errorf("importer.group_size must be >= 0")
	}
	if c.Admission.MaxConcurrentReads <= 0 {
		return fmt.Errorf("admission.max_concurrent_reads must be > 0")
	}
	return nil
}

// SupplierTimeout converts the configured timeout into a duration.
func (c Config) SupplierTimeout() time.Duration {
	return time.Duration(c.Supplier.TimeoutSeconds) * time.Second
}

// ReferencePause is the fixed delay between references in the fast path.
func (c Config) ReferencePause() time.Duration {
	return time.Duration(c.Importer.ReferencePauseMs) * time.Millisecond
}

// GroupPause is the fixed delay between reference groups in the fast path.
func (c Config) GroupPause() time.Duration {
	return time.Duration(c.Importer.GroupPauseMs) * time.Millisecond
}
