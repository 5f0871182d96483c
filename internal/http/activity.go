package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const activityPageSize = 25

// ActivityController shows the signed-in user's own audit trail.
type ActivityController struct {
	audit  *audit.Service
	logger *zap.SugaredLogger
}

func NewActivityController(auditService *audit.Service, logger *zap.SugaredLogger) *ActivityController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ActivityController{audit: auditService, logger: logger}
}

type eventTypeOption struct {
	Value string
	Label string
}

var activityFilters = []eventTypeOption{
	{Value: "", Label: "All"},
	{Value: string(entities.AuditEventAuth), Label: "Sign-ins"},
	{Value: string(entities.AuditEventBook), Label: "Books"},
}

// ActivityPage lists recent events, newest first.
// GET /activity?type=book&page=2
func (ac *ActivityController) ActivityPage(c *gin.Context) {
	userID := auth.GetUserID(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	offset := (page - 1) * activityPageSize

	eventType := knownEventType(c.Query("type"))

	var events []entities.AuditEvent
	var total int64
	if eventType != "" {
		events, total, err = ac.audit.GetEventsByType(c.Request.Context(), eventType, userID, activityPageSize, offset)
	} else {
		events, total, err = ac.audit.GetEvents(c.Request.Context(), userID, activityPageSize, offset)
	}
	if err != nil {
		respondServiceError(c, ac.logger, err, "list activity")
		return
	}

	totalPages := int((total + activityPageSize - 1) / activityPageSize)
	if totalPages == 0 {
		totalPages = 1
	}

	c.HTML(http.StatusOK, "activity.html", auth.TemplateData(c, gin.H{
		"Title":       "Activity",
		"Events":      events,
		"EventType":   string(eventType),
		"Filters":     activityFilters,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"TotalEvents": total,
		"PrevPage":    page - 1,
		"NextPage":    nextPage(page, totalPages),
	}))
}

// knownEventType drops filter values that match no event type.
func knownEventType(raw string) entities.AuditEventType {
	for _, f := range activityFilters {
		if f.Value != "" && f.Value == raw {
			return entities.AuditEventType(raw)
		}
	}
	return ""
}

func nextPage(page, totalPages int) int {
	if page >= totalPages {
		return 0
	}
	return page + 1
}
