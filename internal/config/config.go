package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"github.com/vfa-khuongdv/drivesweep/internal/notification"
	"github.com/vfa-khuongdv/drivesweep/internal/scheduler"
)

const appName = "drivesweep"

// Environment variables that override file settings
const (
	EnvConfig       = "DRIVESWEEP_CONFIG"
	EnvClientID     = "DRIVESWEEP_CLIENT_ID"
	EnvClientSecret = "DRIVESWEEP_CLIENT_SECRET"
	EnvRedirectURL  = "DRIVESWEEP_REDIRECT_URL"
	EnvDBDriver     = "DRIVESWEEP_DB_DRIVER"
	EnvDBPath       = "DRIVESWEEP_DB_PATH"
)

// Defaults
const (
	DefaultRedirectURL       = "http://127.0.0.1:3333/callback"
	DefaultServerAddr        = "127.0.0.1:8080"
	DefaultWorkers           = 1
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 10
)

// Config is the on-disk configuration of drivesweep
type Config struct {
	Workers           int     `toml:"workers"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`

	OAuth         OAuthConfig                       `toml:"oauth"`
	Database      database.Config                   `toml:"database"`
	Server        ServerConfig                      `toml:"server"`
	Sweeps        []SweepConfig                     `toml:"sweeps"`
	Notifications []notification.NotificationConfig `toml:"notifications"`
}

// OAuthConfig holds the installed-app client credentials
type OAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// ServerConfig configures the status API started by `serve`
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// SweepConfig describes a scheduled sweep
type SweepConfig struct {
	Name      string `toml:"name"`
	FolderID  string `toml:"folder_id"`
	Recursive bool   `toml:"recursive"`
	Schedule  string `toml:"schedule"`
	Disabled  bool   `toml:"disabled"`
}

// ToModel converts the sweep to its database model
func (c SweepConfig) ToModel() *database.SweepConfig {
	return &database.SweepConfig{
		Name:         c.Name,
		FolderID:     c.FolderID,
		Recursive:    c.Recursive,
		CronSchedule: c.Schedule,
		Enabled:      !c.Disabled,
	}
}

// DefaultConfig returns a Config populated with default values
func DefaultConfig() *Config {
	return &Config{
		Workers:           DefaultWorkers,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
		OAuth: OAuthConfig{
			RedirectURL: DefaultRedirectURL,
		},
		Database: database.Config{
			Driver: database.DriverSQLite,
			Path:   filepath.Join(DefaultDataDir(), appName+".db"),
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// DefaultConfigDir returns the per-user configuration directory
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appName)
}

// DefaultDataDir returns the directory holding the local state database
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath returns the config file path, honoring DRIVESWEEP_CONFIG
func DefaultConfigPath() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// Load reads an optional .env file and the TOML file at path, applies
// environment overrides and validates the result. A missing file at the
// default location yields the defaults; an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); err == nil || explicit {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := checkUnknownKeys(md); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func checkUnknownKeys(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)

	return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
}

func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvClientID, &cfg.OAuth.ClientID},
		{EnvClientSecret, &cfg.OAuth.ClientSecret},
		{EnvRedirectURL, &cfg.OAuth.RedirectURL},
		{EnvDBDriver, &cfg.Database.Driver},
		{EnvDBPath, &cfg.Database.Path},
	}

	for _, o := range overrides {
		if value := os.Getenv(o.env); value != "" {
			*o.target = value
		}
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative"))
	}
	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		errs = append(errs, fmt.Errorf("burst must be at least 1 when rate limiting is enabled"))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	seen := make(map[string]bool)
	for i, sweep := range c.Sweeps {
		switch {
		case sweep.Name == "":
			errs = append(errs, fmt.Errorf("sweeps[%d]: name is required", i))
		case seen[sweep.Name]:
			errs = append(errs, fmt.Errorf("sweeps[%d]: duplicate name %q", i, sweep.Name))
		}
		seen[sweep.Name] = true

		if sweep.FolderID == "" {
			errs = append(errs, fmt.Errorf("sweeps[%d]: folder_id is required", i))
		}
		if err := scheduler.ValidateCronExpression(sweep.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("sweeps[%d]: invalid schedule %q: %w", i, sweep.Schedule, err))
		}
	}

	for i, n := range c.Notifications {
		if n.Name == "" {
			errs = append(errs, fmt.Errorf("notifications[%d]: name is required", i))
		}
		switch notification.NotificationChannel(n.Channel) {
		case notification.ChannelSlack, notification.ChannelDiscord, notification.ChannelChatwork:
		default:
			errs = append(errs, fmt.Errorf("notifications[%d]: unsupported channel %q", i, n.Channel))
		}
	}

	return errors.Join(errs...)
}
