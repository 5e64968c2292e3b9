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
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "0 5 * * *", cfg.Scheduler.DailyCron)
	assert.Equal(t, "30 5 * * 1", cfg.Scheduler.WeeklyCron)
	assert.Equal(t, "0 6 1 * *", cfg.Scheduler.MonthlyCron)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "/data/agroguardian.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, 730, cfg.HistoryRetention.DefaultDays)
	assert.Equal(t, 3650, cfg.HistoryRetention.MaxDays)
	assert.Equal(t, 48, cfg.Rainfall.EditWindowHours)
	assert.Equal(t, 256, cfg.Events.QueueSize)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Empty(t, cfg.ConfigFileUsed())
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t,
		"--log-level=debug",
		"--storage.type=postgres",
		"--storage.postgres.host=db.local",
		"--api.port=9090",
		"--scheduler.enabled=false",
	))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "db.local", cfg.Storage.PostgreSQL.Host)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("AGROGUARDIAN_LOG_LEVEL", "warn")
	t.Setenv("AGROGUARDIAN_RAINFALL_EDIT_WINDOW_HOURS", "24")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 24, cfg.Rainfall.EditWindowHours)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `log-level: error
storage:
  type: sqlite
  sqlite:
    path: /tmp/test.db
history-retention:
  default-days: 365
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(newFlags(t, "--config="+path))
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, 365, cfg.HistoryRetention.DefaultDays)
	assert.Equal(t, path, cfg.ConfigFileUsed())
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(newFlags(t, "--config=/does/not/exist.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5432, cfg.Storage.PostgreSQL.Port)
	assert.Equal(t, "require", cfg.Storage.PostgreSQL.SSLMode)
	assert.Equal(t, 3306, cfg.Storage.MySQL.Port)
}
