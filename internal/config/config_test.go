package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"github.com/vfa-khuongdv/drivesweep/internal/notification"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, float64(DefaultRequestsPerSecond), cfg.RequestsPerSecond)
	assert.Equal(t, DefaultRedirectURL, cfg.OAuth.RedirectURL)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dataDir, "drivesweep", "drivesweep.db"), cfg.Database.Path)
	assert.Empty(t, cfg.Sweeps)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
workers = 4
requests_per_second = 5.5
burst = 3

[oauth]
client_id = "id"
client_secret = "secret"

[database]
driver = "mysql"
host = "db"
port = "3306"
user = "sweeper"
database = "drivesweep"

[server]
addr = ":9000"

[[sweeps]]
name = "team"
folder_id = "abc"
recursive = true
schedule = "0 0 2 * * *"

[[sweeps]]
name = "archive"
folder_id = "def"
schedule = "@weekly"
disabled = true

[[notifications]]
name = "ops"
channel = "slack"
enabled = true
notify_on_error = true
[notifications.config]
webhook_url = "https://hooks.slack.com/x"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5.5, cfg.RequestsPerSecond)
	assert.Equal(t, 3, cfg.Burst)
	assert.Equal(t, "id", cfg.OAuth.ClientID)
	assert.Equal(t, DefaultRedirectURL, cfg.OAuth.RedirectURL)
	assert.Equal(t, database.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, ":9000", cfg.Server.Addr)

	require.Len(t, cfg.Sweeps, 2)
	team := cfg.Sweeps[0].ToModel()
	assert.Equal(t, "team", team.Name)
	assert.True(t, team.Recursive)
	assert.True(t, team.Enabled)
	assert.Equal(t, "0 0 2 * * *", team.CronSchedule)
	assert.False(t, cfg.Sweeps[1].ToModel().Enabled)

	require.Len(t, cfg.Notifications, 1)
	assert.Equal(t, "https://hooks.slack.com/x", cfg.Notifications[0].Config["webhook_url"])
	assert.True(t, cfg.Notifications[0].NotifyOnError)
}

func TestLoad_UnknownKeys(t *testing.T) {
	path := writeConfig(t, `
wokers = 2

[oauth]
client_idd = "x"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config keys")
	assert.Contains(t, err.Error(), "oauth.client_idd")
	assert.Contains(t, err.Error(), "wokers")
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "workers = = 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[oauth]
client_id = "from-file"
`)
	dbPath := filepath.Join(t.TempDir(), "state.db")
	t.Setenv(EnvClientID, "from-env")
	t.Setenv(EnvClientSecret, "env-secret")
	t.Setenv(EnvRedirectURL, "http://127.0.0.1:4444/cb")
	t.Setenv(EnvDBDriver, database.DriverSQLite)
	t.Setenv(EnvDBPath, dbPath)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OAuth.ClientID)
	assert.Equal(t, "env-secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, "http://127.0.0.1:4444/cb", cfg.OAuth.RedirectURL)
	assert.Equal(t, dbPath, cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Database.Path = "state.db"
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, expectError: "workers must be at least 1"},
		{name: "negative rate", mutate: func(c *Config) { c.RequestsPerSecond = -1 }, expectError: "requests_per_second must not be negative"},
		{name: "rate without burst", mutate: func(c *Config) { c.Burst = 0 }, expectError: "burst must be at least 1"},
		{name: "unlimited rate without burst", mutate: func(c *Config) { c.RequestsPerSecond = 0; c.Burst = 0 }},
		{name: "bad database", mutate: func(c *Config) { c.Database.Driver = "oracle" }, expectError: "database: unsupported driver: oracle"},
		{
			name: "sweep without folder",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{{Name: "a", Schedule: "@daily"}}
			},
			expectError: "sweeps[0]: folder_id is required",
		},
		{
			name: "duplicate sweep",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{
					{Name: "a", FolderID: "x", Schedule: "@daily"},
					{Name: "a", FolderID: "y", Schedule: "@daily"},
				}
			},
			expectError: `sweeps[1]: duplicate name "a"`,
		},
		{
			name: "five field schedule",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{{Name: "a", FolderID: "x", Schedule: "0 2 * * *"}}
			},
			expectError: `sweeps[0]: invalid schedule "0 2 * * *"`,
		},
		{
			name: "unknown notification channel",
			mutate: func(c *Config) {
				c.Notifications = []notification.NotificationConfig{{Name: "teams", Channel: "teams"}}
			},
			expectError: `notifications[0]: unsupported channel "teams"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
			}
		})
	}
}
