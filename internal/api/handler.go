package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bussywales/rentnow-sub000/internal/booking"
	"github.com/bussywales/rentnow-sub000/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store store.Store
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store) *Handler {
	return &Handler{store: s}
}

// Actor is the caller's identity as resolved by the upstream gateway.
// Authentication itself happens outside this service.
type Actor struct {
	ID   string
	Role string // guest | host | admin
}

func (a Actor) IsAdmin() bool { return a.Role == "admin" }

// currentActor reads the gateway identity headers. Aborts with 401 when no
// actor is present.
func currentActor(c *gin.Context) (Actor, bool) {
	a := Actor{
		ID:   c.GetHeader("X-Actor-ID"),
		Role: c.GetHeader("X-Actor-Role"),
	}
	if a.ID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return Actor{}, false
	}
	if a.Role == "" {
		a.Role = "guest"
	}
	return a, true
}

const dateLayout = "2006-01-02"

// parseDate parses a YYYY-MM-DD value as UTC midnight.
func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}

// respondError maps engine errors onto HTTP responses. Validation and
// conflict conditions are reported verbatim; storage failures collapse to
// a generic try-again message with no internal detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidDateRange),
		errors.Is(err, booking.ErrBelowMinimumNights),
		errors.Is(err, booking.ErrAboveMaximumNights),
		errors.Is(err, booking.ErrAdvanceNoticeNotMet):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrDateRangeUnavailable),
		errors.Is(err, booking.ErrInvalidStatus),
		errors.Is(err, booking.ErrInvalidPayoutStatus):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, booking.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable, please try again"})
	}
}
