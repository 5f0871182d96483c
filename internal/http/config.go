package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/services"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Logger   *zap.SugaredLogger
	Database *database.Database

	// Authentication
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	CSRFKey        []byte // Empty disables CSRF protection
	SecureCookies  bool

	BookService  *services.BookService
	AuditService *audit.Service

	// Empty means the templates embedded in the binary
	TemplatesPath string

	Version string
}
