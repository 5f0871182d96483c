package http

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/logging"
	"github.com/mrlokans/bookshelf/web"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	tmpl, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(logging.RequestID())
	router.Use(logging.Middleware(logger))
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	if len(cfg.CSRFKey) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFKey, cfg.SecureCookies))
	}

	// Resolves the current user; never rejects on its own
	router.Use(cfg.AuthMiddleware.Handler())

	router.SetHTMLTemplate(tmpl)

	healthController := NewHealthController(cfg.Database, cfg.Version, logger)
	router.GET("/health", healthController.Status)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, auth.LoginPath)
	})

	ac := cfg.AuthController
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)

	booksController := NewBooksController(cfg.BookService, logger)
	activityController := NewActivityController(cfg.AuditService, logger)

	protected := router.Group("/", cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/logout", ac.Logout)
		protected.POST("/logout", ac.Logout)

		protected.GET("/home", booksController.Home)
		protected.POST("/home", booksController.AddBook)

		protected.GET("/delete/:id", booksController.DeleteRedirect)
		protected.POST("/delete/:id", booksController.DeleteBook)

		protected.GET("/add-notes/:id", booksController.RatingPage)
		protected.POST("/add-notes/:id", booksController.UpdateRating)

		protected.GET("/activity", activityController.ActivityPage)
	}

	return router, nil
}

// loadTemplates parses the page templates from dir, or from the copy
// embedded in the binary when dir is empty.
func loadTemplates(dir string) (*template.Template, error) {
	if dir == "" {
		tmpl, err := template.ParseFS(web.Templates, web.TemplatesGlob)
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
		}
		return tmpl, nil
	}

	tmpl, err := template.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates in %s: %w", dir, err)
	}
	return tmpl, nil
}
