package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/database"
)

const healthPingTimeout = 2 * time.Second

// Check results reported per dependency.
const (
	checkOK            = "ok"
	checkFailed        = "error"
	checkNotConfigured = "not configured"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// dependencyCheck probes one dependency. A nil ping means the dependency
// is not configured, which does not make the service unhealthy.
type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error
}

// HealthController answers liveness requests. Failure causes are logged and
// never written to the response, which is served without authentication.
type HealthController struct {
	checks  []dependencyCheck
	version string
	logger  *zap.SugaredLogger
}

func NewHealthController(db *database.Database, version string, logger *zap.SugaredLogger) *HealthController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	dbCheck := dependencyCheck{name: "database"}
	if db != nil {
		dbCheck.ping = db.Ping
	}

	return &HealthController{
		checks:  []dependencyCheck{dbCheck},
		version: version,
		logger:  logger,
	}
}

// Status reports every dependency check; any failure answers 503.
// GET /health
func (h *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for _, check := range h.checks {
		results[check.name] = h.run(ctx, check)
		if results[check.name] == checkFailed {
			healthy = false
		}
	}

	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks:  results,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, resp)
}

func (h *HealthController) run(ctx context.Context, check dependencyCheck) string {
	if check.ping == nil {
		return checkNotConfigured
	}
	if err := check.ping(ctx); err != nil {
		h.logger.Errorw("Health check failed", "check", check.name, "error", err)
		return checkFailed
	}
	return checkOK
}
