package audit

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditRepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "audit.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewService(auditRepo.NewRepository(db.DB), nil), db.DB
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventAuth,
		Action:    ActionLogin,
		Status:    entities.AuditStatusSuccess,
	}

	require.NoError(t, svc.Log(context.Background(), event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, ActionLogin, saved.Action)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAuth(1, ActionLogin, "127.0.0.1", "Mozilla/5.0", true)
	svc.LogAuth(0, ActionLogin, "127.0.0.1", strings.Repeat("a", 600), false)
	svc.Wait()

	var events []entities.AuditEvent
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)

	statuses := map[entities.AuditStatus]int{}
	for _, e := range events {
		assert.Equal(t, entities.AuditEventAuth, e.EventType)
		assert.LessOrEqual(t, len(e.UserAgent), maxTextLen)
		statuses[e.Status]++
	}
	assert.Equal(t, 1, statuses[entities.AuditStatusSuccess])
	assert.Equal(t, 1, statuses[entities.AuditStatusFailed])
}

func TestService_LogBookEvents(t *testing.T) {
	svc, db := setupTestService(t)

	book := &entities.Book{ID: 7, Title: "Dune", Rating: 4}
	svc.LogBookCreate(1, book)
	svc.LogRatingUpdate(1, book, 2)
	svc.LogBookDelete(1, book)
	svc.Wait()

	var events []entities.AuditEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuditEventBook).Find(&events).Error)
	require.Len(t, events, 3)

	actions := map[string]entities.AuditEvent{}
	for _, e := range events {
		actions[e.Action] = e
		require.NotNil(t, e.EntityID)
		assert.Equal(t, uint(7), *e.EntityID)
	}
	assert.Contains(t, actions, ActionBookCreate)
	assert.Contains(t, actions, ActionBookDelete)
	assert.Equal(t, "Rated Dune: 2 -> 4", actions[ActionRatingUpdate].Description)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		UserID: 1, EventType: entities.AuditEventAuth, Action: ActionLogin, CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
	}))
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		UserID: 1, EventType: entities.AuditEventAuth, Action: ActionLogout,
	}))

	deleted, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	require.NoError(t, db.Model(&entities.AuditEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestService_GetEventsByType(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	svc.LogAuth(1, ActionLogin, "127.0.0.1", "test", true)
	svc.LogBookCreate(1, &entities.Book{ID: 1, Title: "Dune"})
	svc.LogBookCreate(2, &entities.Book{ID: 2, Title: "Emma"})
	svc.Wait()

	events, total, err := svc.GetEventsByType(ctx, entities.AuditEventBook, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "Added book: Dune", events[0].Description)

	all, total, err := svc.GetEvents(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))

	t.Run("keeps multibyte runes whole", func(t *testing.T) {
		// Each Cyrillic letter is two bytes, so byte 5 falls inside a rune.
		got := truncate("абвгдеёжзи", 8)

		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "аб...", got)
		assert.LessOrEqual(t, len(got), 8)
	})

	t.Run("long user agent stays valid UTF-8", func(t *testing.T) {
		got := truncate("a"+strings.Repeat("ж", 400), maxTextLen)

		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), maxTextLen)
	})
}
