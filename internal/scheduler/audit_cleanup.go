// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	defaultRetentionDays = 90
	cleanupTimeout       = 2 * time.Minute
)

// AuditEventCleaner deletes audit events older than a retention period.
type AuditEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditCleanupScheduler periodically removes expired audit events.
type AuditCleanupScheduler struct {
	cleaner       AuditEventCleaner
	schedule      string
	retentionDays int
	logger        *zap.SugaredLogger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewAuditCleanupScheduler creates a scheduler instance. An empty schedule
// disables it.
func NewAuditCleanupScheduler(cleaner AuditEventCleaner, schedule string, retentionDays int, logger *zap.SugaredLogger) *AuditCleanupScheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &AuditCleanupScheduler{
		cleaner:       cleaner,
		schedule:      schedule,
		retentionDays: retentionDays,
		logger:        logger,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	return err
}

// Start begins the scheduler if a schedule is configured.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		s.logger.Infow("Audit cleanup scheduler disabled")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(context.Background()); err != nil {
			s.logger.Errorw("Audit cleanup failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	s.logger.Infow("Audit cleanup scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
		"next_run", s.cron.Entry(entryID).Next,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops accepting new runs and waits for a running one to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	s.logger.Infow("Audit cleanup scheduler stopped")
}

// RunNow deletes expired audit events immediately and returns how many were removed.
func (s *AuditCleanupScheduler) RunNow(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	retention := time.Duration(s.retentionDays) * 24 * time.Hour
	deleted, err := s.cleaner.DeleteOldEvents(ctx, retention)
	if err != nil {
		return 0, fmt.Errorf("cleanup audit events: %w", err)
	}

	s.logger.Infow("Cleaned up audit events", "deleted", deleted, "retention_days", s.retentionDays)
	return deleted, nil
}

// IsRunning returns whether the scheduler is active.
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next cleanup will occur.
func (s *AuditCleanupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	next := s.cron.Entry(s.entryID).Next
	return &next
}
