/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	// configFileUsed is the path to the config file that was loaded (empty if none)
	configFileUsed string

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `mapstructure:"log-level"`

	// Scheduler configuration
	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// HistoryRetention configuration
	HistoryRetention HistoryRetentionConfig `mapstructure:"history-retention"`

	// Rainfall configuration
	Rainfall RainfallConfig `mapstructure:"rainfall"`

	// Events configuration
	Events EventsConfig `mapstructure:"events"`

	// API server configuration
	API APIConfig `mapstructure:"api"`
}

// SchedulerConfig configures the cron schedules of the calculation tiers
type SchedulerConfig struct {
	// Enabled turns on scheduled calculation runs
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// DailyCron is the cron expression of the daily tier
	DailyCron string `mapstructure:"daily-cron" json:"dailyCron"`

	// WeeklyCron is the cron expression of the weekly tier
	WeeklyCron string `mapstructure:"weekly-cron" json:"weeklyCron"`

	// MonthlyCron is the cron expression of the monthly tier
	MonthlyCron string `mapstructure:"monthly-cron" json:"monthlyCron"`

	// RainfallCron is the cron expression of the rainfall rule sweep
	RainfallCron string `mapstructure:"rainfall-cron" json:"rainfallCron"`
}

// StorageConfig configures the storage backend
type StorageConfig struct {
	// Type is the storage backend type (sqlite, postgres, mysql)
	Type string `mapstructure:"type" json:"type"`

	// SQLite configuration
	SQLite SQLiteConfig `mapstructure:"sqlite" json:"sqlite,omitempty"`

	// PostgreSQL configuration
	PostgreSQL PostgreSQLConfig `mapstructure:"postgres" json:"postgres,omitempty"`

	// MySQL configuration
	MySQL MySQLConfig `mapstructure:"mysql" json:"mysql,omitempty"`
}

// SQLiteConfig configures SQLite storage
type SQLiteConfig struct {
	// Path to database file
	Path string `mapstructure:"path" json:"path"`
}

// PostgreSQLConfig configures PostgreSQL storage
type PostgreSQLConfig struct {
	// Host is the database host
	Host string `mapstructure:"host" json:"host,omitempty"`

	// Port is the database port
	Port int `mapstructure:"port" json:"port,omitempty"`

	// Database name
	Database string `mapstructure:"database" json:"database,omitempty"`

	// Username for authentication
	Username string `mapstructure:"username" json:"username,omitempty"`

	// Password for authentication (omitted from JSON for security)
	Password string `mapstructure:"password" json:"-"`

	// SSLMode for connection
	SSLMode string `mapstructure:"ssl-mode" json:"sslMode,omitempty"`
}

// MySQLConfig configures MySQL/MariaDB storage
type MySQLConfig struct {
	// Host is the database host
	Host string `mapstructure:"host" json:"host,omitempty"`

	// Port is the database port
	Port int `mapstructure:"port" json:"port,omitempty"`

	// Database name
	Database string `mapstructure:"database" json:"database,omitempty"`

	// Username for authentication
	Username string `mapstructure:"username" json:"username,omitempty"`

	// Password for authentication (omitted from JSON for security)
	Password string `mapstructure:"password" json:"-"`
}

// HistoryRetentionConfig configures KPI history retention
type HistoryRetentionConfig struct {
	// DefaultDays is the default retention period
	DefaultDays int `mapstructure:"default-days" json:"defaultDays"`

	// MaxDays is the maximum allowed retention
	MaxDays int `mapstructure:"max-days" json:"maxDays"`
}

// RainfallConfig configures rainfall record handling
type RainfallConfig struct {
	// EditWindowHours is how long after creation a rainfall record may
	// still be deleted
	EditWindowHours int `mapstructure:"edit-window-hours" json:"editWindowHours"`
}

// EventsConfig configures the async audit/recommendation emitter
type EventsConfig struct {
	// QueueSize is the emitter's bounded queue capacity
	QueueSize int `mapstructure:"queue-size" json:"queueSize"`
}

// APIConfig configures the REST API server
type APIConfig struct {
	// Enabled turns on the API server
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Port for the API server
	Port int `mapstructure:"port" json:"port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Scheduler: SchedulerConfig{
			Enabled:      true,
			DailyCron:    "0 5 * * *",
			WeeklyCron:   "30 5 * * 1",
			MonthlyCron:  "0 6 1 * *",
			RainfallCron: "0 9 * * *",
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "/data/agroguardian.db",
			},
			PostgreSQL: PostgreSQLConfig{
				Port:    5432,
				SSLMode: "require",
			},
			MySQL: MySQLConfig{
				Port: 3306,
			},
		},
		HistoryRetention: HistoryRetentionConfig{
			DefaultDays: 730,
			MaxDays:     3650,
		},
		Rainfall: RainfallConfig{
			EditWindowHours: 48,
		},
		Events: EventsConfig{
			QueueSize: 256,
		},
		API: APIConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// BindFlags binds configuration flags to pflags
func BindFlags(flags *pflag.FlagSet) {
	// Top-level
	flags.String("config", "", "Path to config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	// Scheduler
	flags.Bool("scheduler.enabled", true, "Enable scheduled calculation runs")
	flags.String("scheduler.daily-cron", "0 5 * * *", "Cron expression of the daily calculation tier")
	flags.String("scheduler.weekly-cron", "30 5 * * 1", "Cron expression of the weekly calculation tier")
	flags.String("scheduler.monthly-cron", "0 6 1 * *", "Cron expression of the monthly calculation tier")
	flags.String("scheduler.rainfall-cron", "0 9 * * *", "Cron expression of the rainfall rule sweep")

	// Storage
	flags.String("storage.type", "sqlite", "Storage backend type (sqlite, postgres, mysql)")
	flags.String("storage.sqlite.path", "/data/agroguardian.db", "Path to SQLite database file")
	flags.String("storage.postgres.host", "", "PostgreSQL host")
	flags.Int("storage.postgres.port", 5432, "PostgreSQL port")
	flags.String("storage.postgres.database", "", "PostgreSQL database name")
	flags.String("storage.postgres.username", "", "PostgreSQL username")
	flags.String("storage.postgres.password", "", "PostgreSQL password")
	flags.String("storage.postgres.ssl-mode", "require", "PostgreSQL SSL mode")
	flags.String("storage.mysql.host", "", "MySQL host")
	flags.Int("storage.mysql.port", 3306, "MySQL port")
	flags.String("storage.mysql.database", "", "MySQL database name")
	flags.String("storage.mysql.username", "", "MySQL username")
	flags.String("storage.mysql.password", "", "MySQL password")

	// History retention
	flags.Int("history-retention.default-days", 730, "Default retention period in days")
	flags.Int("history-retention.max-days", 3650, "Maximum retention period in days")

	// Rainfall
	flags.Int("rainfall.edit-window-hours", 48, "Hours after creation a rainfall record may still be deleted")

	// Events
	flags.Int("events.queue-size", 256, "Async event queue capacity")

	// API server
	flags.Bool("api.enabled", true, "Enable the REST API server")
	flags.Int("api.port", 8080, "API server port")
}

// Load loads configuration from flags, environment, and config file
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults from DefaultConfig
	defaults := DefaultConfig()
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("scheduler.enabled", defaults.Scheduler.Enabled)
	v.SetDefault("scheduler.daily-cron", defaults.Scheduler.DailyCron)
	v.SetDefault("scheduler.weekly-cron", defaults.Scheduler.WeeklyCron)
	v.SetDefault("scheduler.monthly-cron", defaults.Scheduler.MonthlyCron)
	v.SetDefault("scheduler.rainfall-cron", defaults.Scheduler.RainfallCron)
	v.SetDefault("storage.type", defaults.Storage.Type)
	v.SetDefault("storage.sqlite.path", defaults.Storage.SQLite.Path)
	v.SetDefault("storage.postgres.port", defaults.Storage.PostgreSQL.Port)
	v.SetDefault("storage.postgres.ssl-mode", defaults.Storage.PostgreSQL.SSLMode)
	v.SetDefault("storage.mysql.port", defaults.Storage.MySQL.Port)
	v.SetDefault("history-retention.default-days", defaults.HistoryRetention.DefaultDays)
	v.SetDefault("history-retention.max-days", defaults.HistoryRetention.MaxDays)
	v.SetDefault("rainfall.edit-window-hours", defaults.Rainfall.EditWindowHours)
	v.SetDefault("events.queue-size", defaults.Events.QueueSize)
	v.SetDefault("api.enabled", defaults.API.Enabled)
	v.SetDefault("api.port", defaults.API.Port)

	// Bind flags
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	// Environment variables
	v.SetEnvPrefix("AGROGUARDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Config file
	var configFileUsed string
	if configFile, _ := flags.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		configFileUsed = v.ConfigFileUsed()
	} else {
		// Try default locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/agroguardian")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err == nil {
			configFileUsed = v.ConfigFileUsed()
		}
		// Ignore error if no config file found - will use defaults
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Store which config file was used (empty string if none)
	cfg.configFileUsed = configFileUsed

	return cfg, nil
}

// ConfigFileUsed returns the path to the config file that was loaded (empty if none)
func (c *Config) ConfigFileUsed() string {
	return c.configFileUsed
}
