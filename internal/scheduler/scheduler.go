package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"github.com/vfa-khuongdv/drivesweep/internal/notification"
	"github.com/vfa-khuongdv/drivesweep/pkg/gdrive"
)

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Service runs sweeps on their cron schedules and records every run
type Service struct {
	cron     *cron.Cron
	store    Store
	sweeper  Sweeper
	notifier Notifier

	// ctx is cancelled by Stop so in-flight sweeps abort
	ctx    context.Context
	cancel context.CancelFunc

	mutex   sync.RWMutex
	jobs    map[string]cron.EntryID
	configs map[string]database.SweepConfig
	wg      sync.WaitGroup
}

// NewService creates a new scheduler service. notifier may be nil.
func NewService(store Store, sweeper Sweeper, notifier Notifier) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.VerbosePrintfLogger(log.Default())

	return &Service{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		store:    store,
		sweeper:  sweeper,
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[string]cron.EntryID),
		configs:  make(map[string]database.SweepConfig),
	}
}

// Start starts the scheduler and schedules every enabled sweep configuration
func (s *Service) Start() {
	s.cron.Start()
	log.Println("Scheduler started")

	s.loadAndScheduleConfigs()
}

// Stop stops the scheduler, cancels running sweeps and waits for them to finish
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	s.cancel()
	<-ctx.Done()
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// AddSweepJob schedules config, replacing any job with the same name
func (s *Service) AddSweepJob(config *database.SweepConfig) error {
	if !config.Enabled {
		return fmt.Errorf("sweep config '%s' is disabled", config.Name)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.jobs[config.Name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, config.Name)
		delete(s.configs, config.Name)
	}

	job := *config
	entryID, err := s.cron.AddFunc(job.CronSchedule, func() {
		if _, err := s.RunSweep(s.ctx, &job); err != nil {
			log.Printf("Scheduled sweep '%s' failed: %v", job.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[job.Name] = entryID
	s.configs[job.Name] = job
	log.Printf("Added scheduled sweep job '%s' with schedule '%s'", job.Name, job.CronSchedule)

	return nil
}

// RemoveSweepJob removes a scheduled sweep job
func (s *Service) RemoveSweepJob(configName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.jobs[configName]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, configName)
		delete(s.configs, configName)
		log.Printf("Removed scheduled sweep job '%s'", configName)
	}
}

// GetScheduledJobs returns the scheduled jobs ordered by name
func (s *Service) GetScheduledJobs() []JobInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		entry := s.cron.Entry(entryID)
		config := s.configs[name]
		jobs = append(jobs, JobInfo{
			Name:      name,
			EntryID:   entryID,
			FolderID:  config.FolderID,
			Recursive: config.Recursive,
			Schedule:  config.CronSchedule,
			Next:      entry.Next,
			Previous:  entry.Prev,
		})
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// ExecuteSweepNow starts the named sweep in the background
func (s *Service) ExecuteSweepNow(configName string) error {
	config, err := s.store.GetSweepConfigByName(configName)
	if err != nil {
		return fmt.Errorf("failed to get sweep config: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.RunSweep(s.ctx, config); err != nil {
			log.Printf("Sweep '%s' failed: %v", config.Name, err)
		}
	}()
	return nil
}

func (s *Service) loadAndScheduleConfigs() {
	configs, err := s.store.GetSweepConfigs()
	if err != nil {
		log.Printf("Failed to load sweep configurations: %v", err)
		return
	}

	scheduled := 0
	for i := range configs {
		if err := s.AddSweepJob(&configs[i]); err != nil {
			log.Printf("Failed to schedule sweep job '%s': %v", configs[i].Name, err)
			continue
		}
		scheduled++
	}

	log.Printf("Loaded and scheduled %d sweep jobs", scheduled)
}

// RunSweep executes config synchronously, recording history, revoked grants
// and notifications. The returned history reflects the final state of the run.
func (s *Service) RunSweep(ctx context.Context, config *database.SweepConfig) (*database.SweepHistory, error) {
	log.Printf("Starting sweep job '%s' on folder %s", config.Name, config.FolderID)

	history := &database.SweepHistory{
		RunID:      uuid.NewString(),
		ConfigName: config.Name,
		FolderID:   config.FolderID,
		Recursive:  config.Recursive,
		Status:     database.StatusInProgress,
		StartedAt:  time.Now(),
	}

	if err := s.store.SaveSweepHistory(history); err != nil {
		return nil, fmt.Errorf("failed to save sweep history: %w", err)
	}

	report, err := s.sweeper.Sweep(ctx, config.FolderID, config.Recursive)
	if err != nil {
		s.finish(history, database.StatusFailed, err.Error())
		s.notifyError(history)
		return history, err
	}

	if err := s.store.SaveRevokedPermissions(revokedRecords(history, report.Revoked)); err != nil {
		log.Printf("Failed to record revoked permissions for run %s: %v", history.RunID, err)
	}

	history.FileCount = len(report.Files)
	history.SharedCount = report.SharedCount()
	history.RevokedCount = len(report.Revoked)
	s.finish(history, database.StatusSuccess, "")

	if s.notifier != nil {
		s.notifier.SendSweepSuccessNotification(notificationData(history, report.TotalBytes()))
	}

	log.Printf("Sweep job '%s' completed: %d files, %d shared, %d revoked",
		config.Name, history.FileCount, history.SharedCount, history.RevokedCount)
	return history, nil
}

func (s *Service) finish(history *database.SweepHistory, status, errorMsg string) {
	now := time.Now()
	history.Status = status
	history.ErrorMsg = errorMsg
	history.CompletedAt = &now

	if err := s.store.UpdateSweepHistory(history); err != nil {
		log.Printf("Failed to update sweep history: %v", err)
	}
}

func (s *Service) notifyError(history *database.SweepHistory) {
	if s.notifier == nil {
		return
	}
	data := notificationData(history, 0)
	data.ErrorMessage = history.ErrorMsg
	s.notifier.SendSweepErrorNotification(data)
}

func notificationData(history *database.SweepHistory, totalBytes uint64) *notification.SweepNotificationData {
	data := &notification.SweepNotificationData{
		RunID:        history.RunID,
		ConfigName:   history.ConfigName,
		FolderID:     history.FolderID,
		Recursive:    history.Recursive,
		FileCount:    history.FileCount,
		SharedCount:  history.SharedCount,
		RevokedCount: history.RevokedCount,
		TotalBytes:   totalBytes,
		StartedAt:    history.StartedAt,
	}
	if history.CompletedAt != nil {
		data.CompletedAt = *history.CompletedAt
	}
	return data
}

// ValidateCronExpression validates a cron expression
func ValidateCronExpression(expr string) error {
	_, err := cronParser.Parse(expr)
	return err
}

// GetNextRunTimes returns the next N run times for a cron expression
func GetNextRunTimes(cronExpr string, count int) ([]time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	var times []time.Time
	now := time.Now()

	for i := 0; i < count; i++ {
		now = schedule.Next(now)
		times = append(times, now)
	}

	return times, nil
}

func revokedRecords(history *database.SweepHistory, revoked []gdrive.RevokedGrant) []database.RevokedPermission {
	records := make([]database.RevokedPermission, 0, len(revoked))
	for _, grant := range revoked {
		records = append(records, database.RevokedPermission{
			RunID:        history.RunID,
			FileID:       grant.FileID,
			FileName:     grant.FileName,
			PermissionID: grant.PermissionID,
			RevokedAt:    time.Now(),
		})
	}
	return records
}
