package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bussywales/rentnow-sub000/internal/booking"
	"github.com/bussywales/rentnow-sub000/internal/monitoring"
	"github.com/bussywales/rentnow-sub000/internal/store"
)

// ListPayouts handles GET /api/payouts?eligible=1. Hosts see their own
// payouts; admins see every host's.
func (h *Handler) ListPayouts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	hostID := actor.ID
	if actor.IsAdmin() {
		hostID = c.Query("host_id") // empty = all hosts
	}
	eligibleOnly := c.Query("eligible") == "1" || c.Query("eligible") == "true"

	payouts, err := h.store.ListPayouts(c.Request.Context(), hostID, eligibleOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": payouts})
}

type markPaidRequest struct {
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference" binding:"required"`
	Note      string `json:"note"`
}

// MarkPayoutPaid handles POST /api/payouts/:payout_id/mark-paid. Retry-safe:
// a payout that is already paid comes back with already_paid true instead
// of an error.
func (h *Handler) MarkPayoutPaid(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		respondError(c, booking.ErrForbidden)
		return
	}

	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payout, alreadyPaid, err := h.store.MarkPayoutPaid(c.Request.Context(), c.Param("payout_id"), store.MarkPaidRequest{
		Method:    req.Method,
		Reference: req.Reference,
		Note:      req.Note,
		ActorID:   actor.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !alreadyPaid {
		monitoring.PayoutPaid()
	}
	c.JSON(http.StatusOK, gin.H{"payout": payout, "already_paid": alreadyPaid})
}
