package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bussywales/rentnow-sub000/internal/store"
)

type createBlockRequest struct {
	DateFrom string `json:"date_from" binding:"required"`
	DateTo   string `json:"date_to" binding:"required"`
	Reason   string `json:"reason"`
}

// CreateBlock handles POST /api/properties/:property_id/blocks — a host
// marking dates unavailable without a booking attached.
func (h *Handler) CreateBlock(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	from, err := parseDate(req.DateFrom)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date_from, use YYYY-MM-DD"})
		return
	}
	to, err := parseDate(req.DateTo)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date_to, use YYYY-MM-DD"})
		return
	}

	block, err := h.store.CreateBlock(c.Request.Context(), store.CreateBlockRequest{
		PropertyID: c.Param("property_id"),
		HostID:     actor.ID,
		DateFrom:   from,
		DateTo:     to,
		Reason:     req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

// DeleteBlock handles DELETE /api/blocks/:block_id.
func (h *Handler) DeleteBlock(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.store.DeleteBlock(c.Request.Context(), c.Param("block_id"), actor.ID, actor.IsAdmin()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
