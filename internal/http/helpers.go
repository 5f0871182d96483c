package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/services"
)

const (
	msgBadID          = "The requested book id is not valid."
	msgNotFound       = "That book does not exist."
	msgForbidden      = "That book belongs to another reader."
	msgRejected       = "The book could not be saved because the data was rejected."
	msgInternalError  = "Something went wrong. Please try again."
	errorTemplateName = "error.html"
)

// respondErrorPage renders the shared error page with the given status.
func respondErrorPage(c *gin.Context, status int, message string) {
	c.HTML(status, errorTemplateName, auth.TemplateData(c, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	}))
}

// respondServiceError maps a book service error to its error page.
// Storage faults are logged; the client only sees a generic message.
func respondServiceError(c *gin.Context, logger *zap.SugaredLogger, err error, op string) {
	var persistErr *services.PersistenceError
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondErrorPage(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, services.ErrForbidden):
		respondErrorPage(c, http.StatusForbidden, msgForbidden)
	case errors.As(err, &persistErr) && persistErr.ConstraintViolation():
		logger.Warnw("Book rejected by store", "op", op, "user_id", auth.GetUserID(c), "error", err)
		respondErrorPage(c, http.StatusUnprocessableEntity, msgRejected)
	default:
		logger.Errorw("Internal error", "op", op, "user_id", auth.GetUserID(c), "error", err)
		respondErrorPage(c, http.StatusInternalServerError, msgInternalError)
	}
}

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or renders a 400 page and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondErrorPage(c, http.StatusBadRequest, msgBadID)
		return 0, false
	}
	return uint(id), true
}
