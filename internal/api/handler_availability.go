package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bussywales/rentnow-sub000/internal/store"
)

// GetAvailability handles GET /api/properties/:property_id/availability.
// Public read projection: active bookings and host blocks overlapping the
// optional ?from=&to= window.
func (h *Handler) GetAvailability(c *gin.Context) {
	propertyID := c.Param("property_id")

	var window store.Window
	if v := c.Query("from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' date, use YYYY-MM-DD"})
			return
		}
		window.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' date, use YYYY-MM-DD"})
			return
		}
		window.To = &to
	}

	ranges, err := h.store.BlockedRanges(c.Request.Context(), propertyID, window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranges)
}
