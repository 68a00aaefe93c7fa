// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env string `mapstructure:"APP_ENV"`

	// Local cache store (sqlite)
	CachePath string `mapstructure:"CACHE_PATH"`

	// Remote document store (mongodb)
	RemoteURI     string `mapstructure:"REMOTE_URI"`
	RemoteDBName  string `mapstructure:"REMOTE_DB_NAME"`
	RemoteTimeout int    `mapstructure:"REMOTE_TIMEOUT_SECONDS"`

	// Key-value preference area (sync cursor + session user id)
	PrefsPath string `mapstructure:"PREFS_PATH"`

	// Blob storage for post/profile images
	BlobDir string `mapstructure:"BLOB_DIR"`

	// Delay inserted before reporting create-post success, masking upload
	// latency from the user (milliseconds).
	CreateSettleDelayMS int `mapstructure:"CREATE_SETTLE_DELAY_MS"`

	// Background sync loop
	SyncIntervalSeconds int    `mapstructure:"SYNC_INTERVAL_SECONDS"`
	NetProbeAddr        string `mapstructure:"NET_PROBE_ADDR"`

	// Health/metrics endpoint of the sync daemon
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			log.Printf("No profile-specific config 'config.%s.yml' found, using defaults", env)
		}
	}

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("CACHE_PATH", "studygram.db")
	viper.SetDefault("REMOTE_URI", "mongodb://127.0.0.1:27017")
	viper.SetDefault("REMOTE_DB_NAME", "studygram")
	viper.SetDefault("REMOTE_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PREFS_PATH", "studygram_prefs.json")
	viper.SetDefault("BLOB_DIR", "/tmp/studygram/blobs")
	viper.SetDefault("CREATE_SETTLE_DELAY_MS", 1500)
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 300)
	viper.SetDefault("NET_PROBE_ADDR", "")
	viper.SetDefault("METRICS_ADDR", ":8390")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return errors.New("CACHE_PATH is required")
	}
	if c.RemoteURI == "" {
		return errors.New("REMOTE_URI is required")
	}
	if c.RemoteDBName == "" {
		return errors.New("REMOTE_DB_NAME is required")
	}
	if c.PrefsPath == "" {
		return errors.New("PREFS_PATH is required")
	}
	if c.RemoteTimeout <= 0 {
		return errors.New("REMOTE_TIMEOUT_SECONDS must be positive")
	}
	if c.CreateSettleDelayMS < 0 {
		return errors.New("CREATE_SETTLE_DELAY_MS must not be negative")
	}
	if c.SyncIntervalSeconds <= 0 {
		return errors.New("SYNC_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// RemoteTimeoutDuration returns the remote call timeout as a Duration.
func (c *Config) RemoteTimeoutDuration() time.Duration {
	return time.Duration(c.RemoteTimeout) * time.Second
}

// CreateSettleDelay returns the create-post settle delay as a Duration.
func (c *Config) CreateSettleDelay() time.Duration {
	return time.Duration(c.CreateSettleDelayMS) * time.Millisecond
}

// SyncInterval returns the background sync interval as a Duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}
