package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Sweep run statuses
const (
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// TokenConfig stores Google OAuth2 tokens for Drive API access
type TokenConfig struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	ClientID     string    `json:"client_id" gorm:"not null"`
	ClientSecret string    `json:"client_secret" gorm:"not null"`
	AccessToken  string    `json:"access_token" gorm:"not null"`
	RefreshToken string    `json:"refresh_token" gorm:"not null"`
	TokenType    string    `json:"token_type" gorm:"default:Bearer"`
	Expiry       time.Time `json:"expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SweepConfig stores a scheduled folder sweep
type SweepConfig struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	Name         string    `json:"name" gorm:"not null;unique"`
	FolderID     string    `json:"folder_id" gorm:"not null"`
	Recursive    bool      `json:"recursive"`
	CronSchedule string    `json:"cron_schedule" gorm:"not null"` // e.g., "0 0 2 * * *" (daily at 2 AM)
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SweepHistory keeps track of sweep runs
type SweepHistory struct {
	ID           uint       `json:"id" gorm:"primarykey"`
	RunID        string     `json:"run_id" gorm:"not null;uniqueIndex;size:36"`
	ConfigName   string     `json:"config_name" gorm:"index"`
	FolderID     string     `json:"folder_id" gorm:"not null"`
	Recursive    bool       `json:"recursive"`
	Status       string     `json:"status"` // success, failed, in_progress
	FileCount    int        `json:"file_count"`
	SharedCount  int        `json:"shared_count"`
	RevokedCount int        `json:"revoked_count"`
	ErrorMsg     string     `json:"error_msg"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RevokedPermission is the audit record of a stale grant removed by a sweep
type RevokedPermission struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	RunID        string    `json:"run_id" gorm:"index;size:36"`
	FileID       string    `json:"file_id" gorm:"not null"`
	FileName     string    `json:"file_name"`
	PermissionID string    `json:"permission_id" gorm:"not null"`
	RevokedAt    time.Time `json:"revoked_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationConfig stores notification channel configurations
type NotificationConfig struct {
	ID              uint                   `json:"id" gorm:"primarykey"`
	Name            string                 `json:"name" gorm:"not null;unique"`
	Channel         string                 `json:"channel" gorm:"not null"`
	Enabled         bool                   `json:"enabled" gorm:"default:false"`
	Config          map[string]interface{} `json:"config" gorm:"serializer:json"`
	NotifyOnSuccess bool                   `json:"notify_on_success" gorm:"default:false"`
	NotifyOnError   bool                   `json:"notify_on_error" gorm:"default:false"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Add table names
func (TokenConfig) TableName() string {
	return "dsw_token_configs"
}

func (SweepConfig) TableName() string {
	return "dsw_sweep_configs"
}

func (SweepHistory) TableName() string {
	return "dsw_sweep_histories"
}

func (RevokedPermission) TableName() string {
	return "dsw_revoked_permissions"
}

func (NotificationConfig) TableName() string {
	return "dsw_notification_configs"
}

// Supported database drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config describes where the service keeps its state
type Config struct {
	Driver string `json:"driver" toml:"driver"`

	// SQLite
	Path string `json:"path,omitempty" toml:"path"`

	// MySQL
	Host     string `json:"host,omitempty" toml:"host"`
	Port     string `json:"port,omitempty" toml:"port"`
	User     string `json:"user,omitempty" toml:"user"`
	Password string `json:"password,omitempty" toml:"password"`
	Database string `json:"database,omitempty" toml:"database"`
}

// Validate validates the database configuration
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, "":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
	case DriverMySQL:
		if c.Host == "" {
			return fmt.Errorf("host is required")
		}
		if c.Port == "" {
			return fmt.Errorf("port is required")
		}
		if c.User == "" {
			return fmt.Errorf("user is required")
		}
		if c.Database == "" {
			return fmt.Errorf("database is required")
		}
	default:
		return fmt.Errorf("unsupported driver: %s", c.Driver)
	}
	return nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&TokenConfig{},
		&SweepConfig{},
		&SweepHistory{},
		&RevokedPermission{},
		&NotificationConfig{},
	)
}
