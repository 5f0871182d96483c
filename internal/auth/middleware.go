package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys for user data
const (
	ContextKeyUserID       = "auth_user_id"
	ContextKeyUsername     = "auth_username"
	ContextKeySessionToken = "auth_session_token"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// Middleware resolves the session cookie into the current user.
type Middleware struct {
	service  *Service
	sessions *SessionManager
	logger   *zap.SugaredLogger
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessions *SessionManager, logger *zap.SugaredLogger) *Middleware {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Middleware{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// Handler loads the current user, if any, into the Gin context.
// It never rejects a request; use RequireAuth on protected routes.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.sessions.TokenFromRequest(c.Request)
		if token == "" {
			c.Next()
			return
		}

		userID, ok, err := m.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			m.logger.Warnw("Failed to resolve session", "error", err)
			c.Next()
			return
		}
		if !ok {
			c.Next()
			return
		}

		user, err := m.service.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			// Session outlived its user row.
			m.logger.Infow("Session references missing user", "user_id", userID, "error", err)
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeySessionToken, token)
		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the login page.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetSessionToken returns the token of the session that authenticated the request.
func GetSessionToken(c *gin.Context) string {
	return c.GetString(ContextKeySessionToken)
}

// IsAuthenticated returns true if the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}
