package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditRepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/logging"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.SugaredLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Infow("Shutting down server", "signal", sig.String(), "timeout", timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Runs after in-flight requests finished so their audit events are flushed.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	logger.Infow("Server exiting")
	return nil
}

// Run builds the application from cfg and serves it until shutdown.
func Run(cfg *config.Config, version string) error {
	logger, err := logging.NewLogger("bookshelf", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Infow("Starting Bookshelf", "version", version)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warnw("Error closing database", "error", err)
		}
	}()
	logger.Infow("Database ready", "driver", db.Driver)

	sqlDB, err := db.SQLDB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	usesSQLSessions := cfg.Sessions.Store == config.SessionStoreDatabase || cfg.Sessions.Store == ""
	if usesSQLSessions && db.Driver != config.DriverSQLite {
		return fmt.Errorf("SESSION_STORE=%s requires the sqlite driver, use redis or memory with %s",
			config.SessionStoreDatabase, db.Driver)
	}
	sessionStore, closeSessionStore, err := auth.NewSessionStore(cfg.Sessions, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer func() {
		if err := closeSessionStore(); err != nil {
			logger.Warnw("Error closing session store", "error", err)
		}
	}()
	logger.Infow("Session store ready", "store", cfg.Sessions.Store)

	if cfg.Auth.SessionSecret == "" {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.Auth.SessionSecret = secret
		logger.Warnw("Generated a random session secret; set AUTH_SESSION_SECRET to keep forms valid across restarts")
	}

	auditService := audit.NewService(auditRepo.NewRepository(db.DB), logger)

	userRepo := users.NewRepository(db.DB)
	authService := auth.NewService(userRepo, cfg.Auth)
	sessionManager := auth.NewSessionManager(sessionStore, cfg.Auth)

	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		WindowDuration:  cfg.Auth.RateLimitWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})
	defer rateLimiter.Stop()

	if count, err := userRepo.CountUsers(context.Background()); err == nil && count == 0 {
		logger.Infow("No users found. Visit /register to create an account.")
	}

	bookService := services.NewBookService(books.NewRepository(db.DB), auditService, logger)

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	cleanup := scheduler.NewAuditCleanupScheduler(auditService, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, logger)
	if err := cleanup.Start(schedCtx); err != nil {
		return fmt.Errorf("failed to start audit cleanup: %w", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Logger:         logger,
		Database:       db,
		AuthMiddleware: auth.NewMiddleware(authService, sessionManager, logger),
		AuthController: auth.NewAuthController(authService, sessionManager, rateLimiter, auditService, logger),
		CSRFKey:        auth.CSRFKey(cfg.Auth.SessionSecret),
		SecureCookies:  cfg.Auth.SecureCookies,
		BookService:    bookService,
		AuditService:   auditService,
		TemplatesPath:  cfg.UI.TemplatesPath,
		Version:        version,
	}

	router, err := http_controllers.NewRouter(routerCfg)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	onShutdown := func(ctx context.Context) {
		cleanup.Stop()
		auditService.Wait()
	}

	return Serve(router, cfg, logger, onShutdown)
}
