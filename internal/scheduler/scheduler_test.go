package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"github.com/vfa-khuongdv/drivesweep/internal/notification"
	"github.com/vfa-khuongdv/drivesweep/pkg/gdrive"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetSweepConfigs() ([]database.SweepConfig, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.SweepConfig), args.Error(1)
}

func (m *MockStore) GetSweepConfigByName(name string) (*database.SweepConfig, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.SweepConfig), args.Error(1)
}

func (m *MockStore) SaveSweepHistory(history *database.SweepHistory) error {
	return m.Called(history).Error(0)
}

func (m *MockStore) UpdateSweepHistory(history *database.SweepHistory) error {
	return m.Called(history).Error(0)
}

func (m *MockStore) SaveRevokedPermissions(records []database.RevokedPermission) error {
	return m.Called(records).Error(0)
}

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) Sweep(ctx context.Context, folderID string, recursive bool) (*gdrive.SweepReport, error) {
	args := m.Called(ctx, folderID, recursive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gdrive.SweepReport), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendSweepSuccessNotification(data *notification.SweepNotificationData) []notification.NotificationResult {
	m.Called(data)
	return nil
}

func (m *MockNotifier) SendSweepErrorNotification(data *notification.SweepNotificationData) []notification.NotificationResult {
	m.Called(data)
	return nil
}

type SchedulerTestSuite struct {
	suite.Suite
	store    *MockStore
	sweeper  *MockSweeper
	notifier *MockNotifier
	service  *Service
}

func (suite *SchedulerTestSuite) SetupTest() {
	suite.store = &MockStore{}
	suite.sweeper = &MockSweeper{}
	suite.notifier = &MockNotifier{}
	suite.service = NewService(suite.store, suite.sweeper, suite.notifier)
}

func (suite *SchedulerTestSuite) TearDownTest() {
	suite.service.Stop()
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func sweepConfig(name string) *database.SweepConfig {
	return &database.SweepConfig{
		Name:         name,
		FolderID:     "folder-" + name,
		Recursive:    true,
		CronSchedule: "0 0 2 * * *",
		Enabled:      true,
	}
}

func (suite *SchedulerTestSuite) TestAddSweepJob() {
	suite.NoError(suite.service.AddSweepJob(sweepConfig("b")))
	suite.NoError(suite.service.AddSweepJob(sweepConfig("a")))

	jobs := suite.service.GetScheduledJobs()
	suite.Len(jobs, 2)
	suite.Equal("a", jobs[0].Name)
	suite.Equal("folder-a", jobs[0].FolderID)
	suite.Equal("0 0 2 * * *", jobs[0].Schedule)
	suite.True(jobs[0].Recursive)
}

func (suite *SchedulerTestSuite) TestAddSweepJob_ReplacesExisting() {
	suite.NoError(suite.service.AddSweepJob(sweepConfig("a")))

	updated := sweepConfig("a")
	updated.CronSchedule = "@hourly"
	suite.NoError(suite.service.AddSweepJob(updated))

	jobs := suite.service.GetScheduledJobs()
	suite.Len(jobs, 1)
	suite.Equal("@hourly", jobs[0].Schedule)
}

func (suite *SchedulerTestSuite) TestAddSweepJob_Disabled() {
	config := sweepConfig("a")
	config.Enabled = false

	err := suite.service.AddSweepJob(config)
	suite.EqualError(err, "sweep config 'a' is disabled")
	suite.Empty(suite.service.GetScheduledJobs())
}

func (suite *SchedulerTestSuite) TestAddSweepJob_InvalidSchedule() {
	config := sweepConfig("a")
	config.CronSchedule = "not a schedule"

	err := suite.service.AddSweepJob(config)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to add cron job")
}

func (suite *SchedulerTestSuite) TestRemoveSweepJob() {
	suite.NoError(suite.service.AddSweepJob(sweepConfig("a")))

	suite.service.RemoveSweepJob("a")
	suite.service.RemoveSweepJob("missing")
	suite.Empty(suite.service.GetScheduledJobs())
}

func (suite *SchedulerTestSuite) TestStart_LoadsConfigs() {
	invalid := *sweepConfig("broken")
	invalid.CronSchedule = "bogus"
	suite.store.On("GetSweepConfigs").Return([]database.SweepConfig{*sweepConfig("a"), invalid}, nil).Once()

	suite.service.Start()

	jobs := suite.service.GetScheduledJobs()
	suite.Len(jobs, 1)
	suite.False(jobs[0].Next.IsZero())
}

func (suite *SchedulerTestSuite) TestRunSweep_Success() {
	config := sweepConfig("a")
	report := &gdrive.SweepReport{
		FolderID:  config.FolderID,
		Recursive: true,
		Files: []gdrive.FileSummary{
			{ID: "f1", Size: "100", Name: "a.txt", Shared: true},
			{ID: "f2", Size: "50", Name: "b.txt"},
		},
		Revoked: []gdrive.RevokedGrant{{FileID: "f1", FileName: "a.txt", PermissionID: "12k"}},
	}

	suite.store.On("SaveSweepHistory", mock.MatchedBy(func(h *database.SweepHistory) bool {
		return h.Status == database.StatusInProgress && h.RunID != "" && h.ConfigName == "a"
	})).Return(nil).Once()
	suite.sweeper.On("Sweep", mock.Anything, config.FolderID, true).Return(report, nil).Once()
	suite.store.On("SaveRevokedPermissions", mock.MatchedBy(func(records []database.RevokedPermission) bool {
		return len(records) == 1 && records[0].PermissionID == "12k" && records[0].RunID != ""
	})).Return(nil).Once()
	suite.store.On("UpdateSweepHistory", mock.Anything).Return(nil).Once()
	suite.notifier.On("SendSweepSuccessNotification", mock.MatchedBy(func(d *notification.SweepNotificationData) bool {
		return d.FileCount == 2 && d.SharedCount == 1 && d.RevokedCount == 1 && d.TotalBytes == 150
	})).Once()

	history, err := suite.service.RunSweep(context.Background(), config)

	suite.NoError(err)
	suite.Equal(database.StatusSuccess, history.Status)
	suite.Equal(2, history.FileCount)
	suite.Equal(1, history.SharedCount)
	suite.Equal(1, history.RevokedCount)
	suite.NotNil(history.CompletedAt)
	suite.store.AssertExpectations(suite.T())
	suite.sweeper.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *SchedulerTestSuite) TestRunSweep_Failure() {
	config := sweepConfig("a")

	suite.store.On("SaveSweepHistory", mock.Anything).Return(nil).Once()
	suite.sweeper.On("Sweep", mock.Anything, config.FolderID, true).Return(nil, errors.New("quota exceeded")).Once()
	suite.store.On("UpdateSweepHistory", mock.MatchedBy(func(h *database.SweepHistory) bool {
		return h.Status == database.StatusFailed && h.ErrorMsg == "quota exceeded"
	})).Return(nil).Once()
	suite.notifier.On("SendSweepErrorNotification", mock.MatchedBy(func(d *notification.SweepNotificationData) bool {
		return d.ErrorMessage == "quota exceeded" && d.ConfigName == "a"
	})).Once()

	history, err := suite.service.RunSweep(context.Background(), config)

	suite.EqualError(err, "quota exceeded")
	suite.Equal(database.StatusFailed, history.Status)
	suite.store.AssertNotCalled(suite.T(), "SaveRevokedPermissions", mock.Anything)
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *SchedulerTestSuite) TestRunSweep_HistoryError() {
	suite.store.On("SaveSweepHistory", mock.Anything).Return(errors.New("db down")).Once()

	history, err := suite.service.RunSweep(context.Background(), sweepConfig("a"))

	suite.Nil(history)
	suite.Contains(err.Error(), "failed to save sweep history")
	suite.sweeper.AssertNotCalled(suite.T(), "Sweep", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SchedulerTestSuite) TestRunSweep_WithoutNotifier() {
	service := NewService(suite.store, suite.sweeper, nil)
	defer service.Stop()

	suite.store.On("SaveSweepHistory", mock.Anything).Return(nil).Once()
	suite.sweeper.On("Sweep", mock.Anything, "folder-a", true).Return(&gdrive.SweepReport{}, nil).Once()
	suite.store.On("SaveRevokedPermissions", mock.Anything).Return(nil).Once()
	suite.store.On("UpdateSweepHistory", mock.Anything).Return(nil).Once()

	history, err := service.RunSweep(context.Background(), sweepConfig("a"))
	suite.NoError(err)
	suite.Equal(0, history.FileCount)
}

func (suite *SchedulerTestSuite) TestExecuteSweepNow() {
	config := sweepConfig("a")
	done := make(chan struct{})

	suite.store.On("GetSweepConfigByName", "a").Return(config, nil).Once()
	suite.store.On("SaveSweepHistory", mock.Anything).Return(nil).Once()
	suite.sweeper.On("Sweep", mock.Anything, config.FolderID, true).Return(&gdrive.SweepReport{}, nil).Once()
	suite.store.On("SaveRevokedPermissions", mock.Anything).Return(nil).Once()
	suite.store.On("UpdateSweepHistory", mock.Anything).Return(nil).Once()
	suite.notifier.On("SendSweepSuccessNotification", mock.Anything).Run(func(mock.Arguments) {
		close(done)
	}).Once()

	suite.NoError(suite.service.ExecuteSweepNow("a"))

	select {
	case <-done:
	case <-time.After(time.Second):
		suite.Fail("sweep did not run")
	}
}

func (suite *SchedulerTestSuite) TestExecuteSweepNow_NotFound() {
	suite.store.On("GetSweepConfigByName", "missing").Return(nil, database.ErrNotFound).Once()

	err := suite.service.ExecuteSweepNow("missing")
	suite.ErrorIs(err, database.ErrNotFound)
}

func TestValidateCronExpression(t *testing.T) {
	tests := []struct {
		expr    string
		isValid bool
	}{
		{"0 0 2 * * *", true},
		{"*/30 * * * * *", true},
		{"@daily", true},
		{"@every 1h", true},
		{"0 2 * * *", false},
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpression(tt.expr)
			if tt.isValid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetNextRunTimes(t *testing.T) {
	times, err := GetNextRunTimes("0 0 * * * *", 3)
	assert.NoError(t, err)
	assert.Len(t, times, 3)
	assert.Equal(t, time.Hour, times[1].Sub(times[0]))
	assert.Equal(t, time.Hour, times[2].Sub(times[1]))
	assert.True(t, times[0].After(time.Now()))

	_, err = GetNextRunTimes("bogus", 3)
	assert.Error(t, err)
}
