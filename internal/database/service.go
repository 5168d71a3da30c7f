package database

import (
	"errors"
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = gorm.ErrRecordNotFound

type Service struct {
	db *gorm.DB
}

// NewService opens the configured database and migrates the schema
func NewService(config *Config) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Driver {
	case DriverMySQL:
		dialector = mysql.Open(MySQLDSN(config))
	default:
		dialector = sqlite.Open(config.Path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driverName(config), err)
	}

	service := &Service{db: db}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return service, nil
}

// MySQLDSN builds the MySQL data source name for config
func MySQLDSN(config *Config) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = config.User
	dsn.Passwd = config.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(config.Host, config.Port)
	dsn.DBName = config.Database
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func driverName(config *Config) string {
	if config.Driver == "" {
		return DriverSQLite
	}
	return config.Driver
}

// GetDB returns the database instance
func (s *Service) GetDB() *gorm.DB {
	return s.db
}

// SaveTokenConfig saves or updates token configuration
func (s *Service) SaveTokenConfig(config *TokenConfig) error {
	var existing TokenConfig
	if err := s.db.First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.Create(config).Error
		}
		return err
	}

	config.ID = existing.ID
	config.CreatedAt = existing.CreatedAt
	return s.db.Save(config).Error
}

// GetTokenConfig retrieves the token configuration
func (s *Service) GetTokenConfig() (*TokenConfig, error) {
	var config TokenConfig
	if err := s.db.First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveSweepConfig creates or updates a sweep configuration by name
func (s *Service) SaveSweepConfig(config *SweepConfig) error {
	var existing SweepConfig
	if err := s.db.Where("name = ?", config.Name).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.Create(config).Error
		}
		return err
	}

	config.ID = existing.ID
	config.CreatedAt = existing.CreatedAt // preserve original CreatedAt
	return s.db.Save(config).Error
}

// GetSweepConfigs retrieves all enabled sweep configurations
func (s *Service) GetSweepConfigs() ([]SweepConfig, error) {
	var configs []SweepConfig
	err := s.db.Where("enabled = ?", true).Order("name").Find(&configs).Error
	return configs, err
}

// GetSweepConfigByName retrieves a sweep configuration by name
func (s *Service) GetSweepConfigByName(name string) (*SweepConfig, error) {
	var config SweepConfig
	if err := s.db.Where("name = ?", name).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// UpdateSweepConfig updates a sweep configuration
func (s *Service) UpdateSweepConfig(config *SweepConfig) error {
	return s.db.Save(config).Error
}

// DeleteSweepConfig deletes a sweep configuration by name
func (s *Service) DeleteSweepConfig(name string) error {
	return s.db.Where("name = ?", name).Delete(&SweepConfig{}).Error
}

// DeleteAllSweepConfig deletes every sweep configuration
func (s *Service) DeleteAllSweepConfig() error {
	return s.db.Where("1 = 1").Delete(&SweepConfig{}).Error
}

// SaveSweepHistory saves a sweep history record
func (s *Service) SaveSweepHistory(history *SweepHistory) error {
	return s.db.Create(history).Error
}

// UpdateSweepHistory updates a sweep history record
func (s *Service) UpdateSweepHistory(history *SweepHistory) error {
	return s.db.Save(history).Error
}

// GetSweepHistory retrieves sweep history with pagination, newest first
func (s *Service) GetSweepHistory(limit, offset int) ([]SweepHistory, error) {
	var history []SweepHistory
	err := s.db.Order("started_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&history).Error
	return history, err
}

// GetSweepHistoryByRunID retrieves a single sweep run
func (s *Service) GetSweepHistoryByRunID(runID string) (*SweepHistory, error) {
	var history SweepHistory
	if err := s.db.Where("run_id = ?", runID).First(&history).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

// SaveRevokedPermissions records the grants revoked by a sweep run
func (s *Service) SaveRevokedPermissions(records []RevokedPermission) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.Create(&records).Error
}

// GetRevokedPermissions retrieves the grants revoked by a sweep run
func (s *Service) GetRevokedPermissions(runID string) ([]RevokedPermission, error) {
	var records []RevokedPermission
	err := s.db.Where("run_id = ?", runID).Order("id").Find(&records).Error
	return records, err
}

// Close closes the database connection
func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveNotificationConfig saves notification configuration
func (s *Service) SaveNotificationConfig(config *NotificationConfig) error {
	var existing NotificationConfig
	if err := s.db.Where("name = ?", config.Name).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.Create(config).Error
		}
		return err
	}

	config.ID = existing.ID
	config.CreatedAt = existing.CreatedAt // preserve original CreatedAt
	return s.db.Save(config).Error
}

// GetNotificationConfigs retrieves all notification configurations
func (s *Service) GetNotificationConfigs() ([]NotificationConfig, error) {
	var configs []NotificationConfig
	err := s.db.Find(&configs).Error
	return configs, err
}

// GetEnabledNotificationConfigs retrieves enabled notification configurations
func (s *Service) GetEnabledNotificationConfigs() ([]NotificationConfig, error) {
	var configs []NotificationConfig
	err := s.db.Where("enabled = ?", true).Find(&configs).Error
	return configs, err
}

// GetNotificationConfigByName retrieves notification configuration by name
func (s *Service) GetNotificationConfigByName(name string) (*NotificationConfig, error) {
	var config NotificationConfig
	err := s.db.Where("name = ?", name).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// DeleteNotificationConfig deletes notification configuration by name
func (s *Service) DeleteNotificationConfig(name string) error {
	return s.db.Where("name = ?", name).Delete(&NotificationConfig{}).Error
}

// DeleteAllNotificationConfig deletes every notification configuration
func (s *Service) DeleteAllNotificationConfig() error {
	return s.db.Where("1 = 1").Delete(&NotificationConfig{}).Error
}
