package drivesweep

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/oauth2"

	"github.com/vfa-khuongdv/drivesweep/internal/auth"
	"github.com/vfa-khuongdv/drivesweep/internal/config"
	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"github.com/vfa-khuongdv/drivesweep/internal/notification"
	"github.com/vfa-khuongdv/drivesweep/internal/scheduler"
	"github.com/vfa-khuongdv/drivesweep/pkg/gdrive"
)

type Manager struct {
	dbService        *database.Service
	authService      *auth.Service
	driveService     *gdrive.Service
	notifyManager    *notification.Manager
	schedulerService *scheduler.Service
	config           *Config
}

type Config struct {
	// Google OAuth2 installed-app credentials
	OAuthConfig *oauth2.Config
	// Database holding tokens, sweep configurations and history
	DatabaseConfig *database.Config
	// Notification channels for sweep reports
	NotificationConfig []notification.NotificationConfig
	// Sweeps run on a cron schedule
	SweepConfig []SweepConfig
	// Drive request pacing, disabled when RequestsPerSecond is zero
	RequestsPerSecond float64
	Burst             int
	// Concurrent subfolder traversals during recursive sweeps
	Workers int
	// DriveEndpoint overrides the Drive API base URL (optional)
	DriveEndpoint string
}

// SweepConfig describes a scheduled sweep of one folder
type SweepConfig struct {
	Name           string
	FolderID       string
	Recursive      bool
	CronExpression string
}

// NewSweepConfig creates a new sweep configuration
func NewSweepConfig(name, folderID string, recursive bool, cronExpression string) *SweepConfig {
	return &SweepConfig{
		Name:           name,
		FolderID:       folderID,
		Recursive:      recursive,
		CronExpression: cronExpression,
	}
}

// ConfigFromFile converts a loaded configuration file into a manager Config
func ConfigFromFile(cfg *config.Config) *Config {
	result := &Config{
		OAuthConfig: &oauth2.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
		},
		DatabaseConfig:     &cfg.Database,
		NotificationConfig: cfg.Notifications,
		RequestsPerSecond:  cfg.RequestsPerSecond,
		Burst:              cfg.Burst,
		Workers:            cfg.Workers,
	}

	for _, sweep := range cfg.Sweeps {
		if sweep.Disabled {
			continue
		}
		result.SweepConfig = append(result.SweepConfig, SweepConfig{
			Name:           sweep.Name,
			FolderID:       sweep.FolderID,
			Recursive:      sweep.Recursive,
			CronExpression: sweep.Schedule,
		})
	}

	return result
}

// NewManager creates a new sweep manager instance
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	if config.DatabaseConfig == nil || config.OAuthConfig == nil {
		return nil, fmt.Errorf("database configuration and OAuth configuration are required")
	}

	if config.OAuthConfig.ClientID == "" || config.OAuthConfig.ClientSecret == "" || config.OAuthConfig.RedirectURL == "" {
		return nil, fmt.Errorf("OAuth configuration must include ClientID, ClientSecret, and RedirectURL")
	}

	dbService, err := database.NewService(config.DatabaseConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	authService := auth.NewService(config.OAuthConfig.ClientID, config.OAuthConfig.ClientSecret, config.OAuthConfig.RedirectURL, dbService)

	gatewayOpts := []gdrive.GatewayOption{gdrive.WithRateLimit(config.RequestsPerSecond, config.Burst)}
	if config.DriveEndpoint != "" {
		gatewayOpts = append(gatewayOpts, gdrive.WithEndpoint(config.DriveEndpoint))
	}
	driveService := gdrive.NewService(
		gdrive.NewDriveGateway(authService, gatewayOpts...),
		gdrive.WithWorkers(config.Workers),
	)

	notifyManager := notification.NewManager(dbService)

	return &Manager{
		dbService:        dbService,
		authService:      authService,
		driveService:     driveService,
		notifyManager:    notifyManager,
		schedulerService: scheduler.NewService(dbService, driveService, notifyManager),
		config:           config,
	}, nil
}

// Initialize syncs configured sweeps and notifications and starts the scheduler
func (m *Manager) Initialize() error {
	log.Println("Initializing sweep manager...")

	if err := m.SyncNotifications(); err != nil {
		return fmt.Errorf("failed to sync notification configs: %w", err)
	}
	if err := m.SyncSweepConfig(); err != nil {
		return fmt.Errorf("failed to sync sweep configs: %w", err)
	}

	m.schedulerService.Start()

	log.Println("Sweep manager initialized successfully")
	return nil
}

// Close gracefully shuts down the sweep manager
func (m *Manager) Close() error {
	log.Println("Shutting down sweep manager...")

	m.schedulerService.Stop()

	if err := m.dbService.Close(); err != nil {
		return fmt.Errorf("failed to close database service: %w", err)
	}

	log.Println("Sweep manager shut down successfully")
	return nil
}

// Auth Methods

// GetAuthURL returns the OAuth2 authorization URL
func (m *Manager) GetAuthURL() string {
	return m.authService.GetAuthURL()
}

// SetAuthCode exchanges the authorization code for tokens
func (m *Manager) SetAuthCode(ctx context.Context, authCode string) error {
	return m.authService.ExchangeToken(ctx, authCode)
}

// Authorize runs the loopback consent flow, calling prompt with the URL to open
func (m *Manager) Authorize(ctx context.Context, prompt func(authURL string)) error {
	return m.authService.Authorize(ctx, prompt)
}

// GetTokenInfo returns information about the current token
func (m *Manager) GetTokenInfo() (*auth.TokenInfo, error) {
	return m.authService.GetTokenInfo()
}

// TriggerAuth verifies the stored credentials with a cheap Drive call
func (m *Manager) TriggerAuth(ctx context.Context) (*gdrive.Identity, error) {
	return m.driveService.TriggerAuth(ctx)
}

// Drive Methods

// ListFiles returns the non-folder entries directly inside folderID
func (m *Manager) ListFiles(ctx context.Context, folderID string) ([]gdrive.Entry, error) {
	if folderID == "" {
		return m.driveService.ListMyDriveFiles(ctx)
	}
	return m.driveService.ListFiles(ctx, folderID)
}

// ListFolders returns the folders directly inside folderID
func (m *Manager) ListFolders(ctx context.Context, folderID string) ([]gdrive.Entry, error) {
	if folderID == "" {
		return m.driveService.ListMyDriveFolders(ctx)
	}
	return m.driveService.ListFolders(ctx, folderID)
}

// Collect summarizes every sized file under folderID, revoking stale grants
func (m *Manager) Collect(ctx context.Context, folderID string, recursive bool) ([]gdrive.FileSummary, error) {
	if folderID == "" {
		return m.driveService.CollectMyDrive(ctx, recursive)
	}
	return m.driveService.Collect(ctx, folderID, recursive)
}

// Sweep runs an ad-hoc traversal and reports the grants it revoked.
// The run is not recorded in sweep history.
func (m *Manager) Sweep(ctx context.Context, folderID string, recursive bool) (*gdrive.SweepReport, error) {
	if folderID == "" {
		folderID = gdrive.RootFolderID
	}
	return m.driveService.Sweep(ctx, folderID, recursive)
}

// Share grants anyone-with-link read access to fileID
func (m *Manager) Share(ctx context.Context, fileID string) (*gdrive.Permission, error) {
	return m.driveService.Share(ctx, fileID)
}

// Sweep Configuration Methods

// AddSweepConfig stores and schedules a sweep configuration
func (m *Manager) AddSweepConfig(sweep *SweepConfig) error {
	if sweep.Name == "" || sweep.FolderID == "" {
		return fmt.Errorf("sweep configuration must include Name and FolderID")
	}

	if err := scheduler.ValidateCronExpression(sweep.CronExpression); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	config := &database.SweepConfig{
		Name:         sweep.Name,
		FolderID:     sweep.FolderID,
		Recursive:    sweep.Recursive,
		CronSchedule: sweep.CronExpression,
		Enabled:      true,
	}

	if err := m.dbService.SaveSweepConfig(config); err != nil {
		return fmt.Errorf("failed to save sweep config: %w", err)
	}

	if err := m.schedulerService.AddSweepJob(config); err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}

	log.Printf("Added sweep configuration '%s' for folder %s", sweep.Name, sweep.FolderID)
	return nil
}

// UpdateSweepConfig changes the schedule or enabled state of a sweep
func (m *Manager) UpdateSweepConfig(name, cronSchedule string, enabled bool) error {
	config, err := m.dbService.GetSweepConfigByName(name)
	if err != nil {
		return fmt.Errorf("sweep config not found: %w", err)
	}

	if cronSchedule != "" && cronSchedule != config.CronSchedule {
		if err := scheduler.ValidateCronExpression(cronSchedule); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		config.CronSchedule = cronSchedule
	}

	config.Enabled = enabled

	if err := m.dbService.UpdateSweepConfig(config); err != nil {
		return fmt.Errorf("failed to update sweep config: %w", err)
	}

	if enabled {
		if err := m.schedulerService.AddSweepJob(config); err != nil {
			return fmt.Errorf("failed to reschedule sweep job: %w", err)
		}
	} else {
		m.schedulerService.RemoveSweepJob(name)
	}

	log.Printf("Updated sweep configuration '%s'", name)
	return nil
}

// DeleteSweepConfig removes a sweep configuration
func (m *Manager) DeleteSweepConfig(name string) error {
	m.schedulerService.RemoveSweepJob(name)

	if err := m.dbService.DeleteSweepConfig(name); err != nil {
		return fmt.Errorf("failed to delete sweep config: %w", err)
	}

	log.Printf("Deleted sweep configuration '%s'", name)
	return nil
}

// SyncSweepConfig replaces the stored sweep configurations with the configured ones
func (m *Manager) SyncSweepConfig() error {
	for _, job := range m.schedulerService.GetScheduledJobs() {
		m.schedulerService.RemoveSweepJob(job.Name)
	}

	if err := m.dbService.DeleteAllSweepConfig(); err != nil {
		return fmt.Errorf("failed to clear sweep configs: %w", err)
	}

	for i := range m.config.SweepConfig {
		if err := m.AddSweepConfig(&m.config.SweepConfig[i]); err != nil {
			return fmt.Errorf("failed to add sweep config '%s': %w", m.config.SweepConfig[i].Name, err)
		}
	}
	return nil
}

// SyncNotifications replaces the stored notification channels with the configured ones
func (m *Manager) SyncNotifications() error {
	if err := m.dbService.DeleteAllNotificationConfig(); err != nil {
		return fmt.Errorf("failed to clear notification configs: %w", err)
	}

	for _, config := range m.config.NotificationConfig {
		if err := m.dbService.SaveNotificationConfig(config.ToModel()); err != nil {
			return fmt.Errorf("failed to save notification config: %w", err)
		}
	}
	return nil
}

// GetScheduledJobs returns the currently scheduled sweeps
func (m *Manager) GetScheduledJobs() []scheduler.JobInfo {
	return m.schedulerService.GetScheduledJobs()
}

// RunSweep executes a stored sweep configuration now and records the run
func (m *Manager) RunSweep(ctx context.Context, name string) (*database.SweepHistory, error) {
	config, err := m.dbService.GetSweepConfigByName(name)
	if err != nil {
		return nil, fmt.Errorf("sweep config not found: %w", err)
	}
	return m.schedulerService.RunSweep(ctx, config)
}

// ExecuteSweepNow starts a stored sweep configuration in the background
func (m *Manager) ExecuteSweepNow(name string) error {
	return m.schedulerService.ExecuteSweepNow(name)
}

// GetSweepHistory returns recorded sweep runs, newest first
func (m *Manager) GetSweepHistory(limit, offset int) ([]database.SweepHistory, error) {
	return m.dbService.GetSweepHistory(limit, offset)
}

// GetSweepRun returns a recorded sweep run and the grants it revoked
func (m *Manager) GetSweepRun(runID string) (*database.SweepHistory, []database.RevokedPermission, error) {
	history, err := m.dbService.GetSweepHistoryByRunID(runID)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := m.dbService.GetRevokedPermissions(runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get revoked permissions: %w", err)
	}
	return history, revoked, nil
}

// TestNotification sends a test message through a stored notification channel
func (m *Manager) TestNotification(name string) error {
	return m.notifyManager.TestNotification(name)
}
