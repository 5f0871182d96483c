// Package audit records authentication and bookshelf events.
//
// Events are written in the background after the triggering operation has
// finished; a failed write is logged and never surfaces to the caller.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	ActionRegister     = "register"
	ActionLogin        = "login"
	ActionLogout       = "logout"
	ActionBookCreate   = "book_create"
	ActionBookDelete   = "book_delete"
	ActionRatingUpdate = "book_rating_update"
)

const (
	maxTextLen = 500
	ellipsis   = "..."
)

// writeTimeout bounds a single background write.
const writeTimeout = 5 * time.Second

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger *zap.SugaredLogger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: repo, logger: logger}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := s.Log(ctx, event); err != nil {
			s.logger.Warnw("Failed to log audit event", "action", event.Action, "user_id", event.UserID, "error", err)
		}
	}()
}

// Wait blocks until all pending background writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogAuth records a registration, login or logout.
func (s *Service) LogAuth(userID uint, action, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: "user",
		IPAddress:  ipAddr,
		UserAgent:  truncate(userAgent, maxTextLen),
		Status:     entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogBookCreate records a book added to a bookshelf.
func (s *Service) LogBookCreate(userID uint, book *entities.Book) {
	s.logBook(userID, ActionBookCreate, book.ID, "Added book: "+book.Title)
}

// LogBookDelete records a book removed from a bookshelf.
func (s *Service) LogBookDelete(userID uint, book *entities.Book) {
	s.logBook(userID, ActionBookDelete, book.ID, "Deleted book: "+book.Title)
}

// LogRatingUpdate records a rating change.
func (s *Service) LogRatingUpdate(userID uint, book *entities.Book, previous int) {
	description := fmt.Sprintf("Rated %s: %d -> %d", book.Title, previous, book.Rating)
	s.logBook(userID, ActionRatingUpdate, book.ID, description)
}

func (s *Service) logBook(userID uint, action string, bookID uint, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBook,
		Action:      action,
		Description: truncate(description, maxTextLen),
		EntityType:  "book",
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	})
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, userID, limit, offset)
}

// GetEventsByType retrieves paginated audit events of one type.
func (s *Service) GetEventsByType(ctx context.Context, eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(ctx, eventType, userID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
