package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"github.com/vfa-khuongdv/drivesweep/internal/notification"
	"github.com/vfa-khuongdv/drivesweep/pkg/gdrive"
)

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name      string       `json:"name"`
	EntryID   cron.EntryID `json:"entry_id"`
	FolderID  string       `json:"folder_id"`
	Recursive bool         `json:"recursive"`
	Schedule  string       `json:"schedule"`
	Next      time.Time    `json:"next"`
	Previous  time.Time    `json:"previous"`
}

// Store persists sweep configurations and their run history
type Store interface {
	GetSweepConfigs() ([]database.SweepConfig, error)
	GetSweepConfigByName(name string) (*database.SweepConfig, error)
	SaveSweepHistory(history *database.SweepHistory) error
	UpdateSweepHistory(history *database.SweepHistory) error
	SaveRevokedPermissions(records []database.RevokedPermission) error
}

// Sweeper traverses a Drive folder and revokes stale grants
type Sweeper interface {
	Sweep(ctx context.Context, folderID string, recursive bool) (*gdrive.SweepReport, error)
}

// Notifier reports finished sweeps to the configured channels
type Notifier interface {
	SendSweepSuccessNotification(data *notification.SweepNotificationData) []notification.NotificationResult
	SendSweepErrorNotification(data *notification.SweepNotificationData) []notification.NotificationResult
}
