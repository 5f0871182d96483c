package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditRepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type fakeCleaner struct {
	mu         sync.Mutex
	calls      int
	retentions []time.Duration
	err        error
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.retentions = append(f.retentions, retention)
	return 3, f.err
}

func TestAuditCleanupScheduler_DisabledWithoutSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler(&fakeCleaner{}, "", 30, nil)

	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestAuditCleanupScheduler_InvalidSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler(&fakeCleaner{}, "every day", 30, nil)

	err := s.Start(context.Background())

	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestAuditCleanupScheduler_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewAuditCleanupScheduler(&fakeCleaner{}, "0 3 * * *", 30, nil)
	require.NoError(t, s.Start(ctx))

	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())

	// Starting twice is a no-op.
	require.NoError(t, s.Start(ctx))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestAuditCleanupScheduler_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := NewAuditCleanupScheduler(&fakeCleaner{}, "*/5 * * * *", 30, nil)
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestAuditCleanupScheduler_RunNow(t *testing.T) {
	t.Run("uses the retention period", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		s := NewAuditCleanupScheduler(cleaner, "", 7, nil)

		deleted, err := s.RunNow(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
		assert.Equal(t, []time.Duration{7 * 24 * time.Hour}, cleaner.retentions)
	})

	t.Run("defaults a non-positive retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		s := NewAuditCleanupScheduler(cleaner, "", 0, nil)

		_, err := s.RunNow(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []time.Duration{defaultRetentionDays * 24 * time.Hour}, cleaner.retentions)
	})

	t.Run("wraps cleaner errors", func(t *testing.T) {
		boom := errors.New("boom")
		s := NewAuditCleanupScheduler(&fakeCleaner{err: boom}, "", 7, nil)

		_, err := s.RunNow(context.Background())

		assert.ErrorIs(t, err, boom)
	})
}

func TestAuditCleanupScheduler_RunNowAgainstDatabase(t *testing.T) {
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "scheduler.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := audit.NewService(auditRepo.NewRepository(db.DB), nil)

	old := &entities.AuditEvent{EventType: entities.AuditEventAuth, Action: audit.ActionLogin, Status: entities.AuditStatusSuccess}
	fresh := &entities.AuditEvent{EventType: entities.AuditEventAuth, Action: audit.ActionLogout, Status: entities.AuditStatusSuccess}
	require.NoError(t, service.Log(context.Background(), old))
	require.NoError(t, service.Log(context.Background(), fresh))
	require.NoError(t, db.DB.Model(old).Update("created_at", time.Now().AddDate(0, 0, -40)).Error)

	s := NewAuditCleanupScheduler(service, "", 30, nil)
	deleted, err := s.RunNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	require.NoError(t, db.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, audit.ActionLogout, remaining[0].Action)
}
