package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bussywales/rentnow-sub000/internal/booking"
	"github.com/bussywales/rentnow-sub000/internal/model"
	"github.com/bussywales/rentnow-sub000/internal/monitoring"
	"github.com/bussywales/rentnow-sub000/internal/store"
)

type createBookingRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
}

// CreateBooking handles POST /api/properties/:property_id/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid check_in date, use YYYY-MM-DD"})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid check_out date, use YYYY-MM-DD"})
		return
	}

	bk, err := h.store.CreateBooking(c.Request.Context(), store.CreateBookingRequest{
		PropertyID: c.Param("property_id"),
		GuestID:    actor.ID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrDateRangeUnavailable):
			monitoring.BookingConflict()
		case errors.Is(err, booking.ErrBelowMinimumNights):
			monitoring.BookingValidationRejected("below_minimum_nights")
		case errors.Is(err, booking.ErrAboveMaximumNights):
			monitoring.BookingValidationRejected("above_maximum_nights")
		case errors.Is(err, booking.ErrAdvanceNoticeNotMet):
			monitoring.BookingValidationRejected("advance_notice_not_met")
		case errors.Is(err, booking.ErrInvalidDateRange):
			monitoring.BookingValidationRejected("invalid_date_range")
		}
		respondError(c, err)
		return
	}

	mode := "instant"
	if bk.Status == model.StatusPending {
		mode = "request"
	}
	monitoring.BookingCreated(mode)

	c.JSON(http.StatusCreated, bk)
}

// ListBookings handles GET /api/bookings. Hosts see their lead inbox,
// everyone else sees their own booking history.
func (h *Handler) ListBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var (
		bookings []model.ShortletBooking
		err      error
	)
	if actor.Role == "host" {
		bookings, err = h.store.ListBookingsForHost(c.Request.Context(), actor.ID)
	} else {
		bookings, err = h.store.ListBookingsForGuest(c.Request.Context(), actor.ID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": bookings})
}

// GetBooking handles GET /api/bookings/:booking_id. Only the guest, the
// host, or an admin may see the booking; everyone else gets the same
// not-found response as a missing id.
func (h *Handler) GetBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	bk, err := h.store.GetBooking(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !actor.IsAdmin() && actor.ID != bk.GuestID && actor.ID != bk.HostID {
		respondError(c, booking.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, bk)
}

type confirmPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// ConfirmPayment handles POST /api/bookings/:booking_id/payment — the
// payment-succeeded signal from the payment flow.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	if _, ok := currentActor(c); !ok {
		return
	}

	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bk, err := h.store.ConfirmPayment(c.Request.Context(), c.Param("booking_id"), req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bk)
}

type respondRequest struct {
	Action string `json:"action" binding:"required,oneof=accept decline"`
}

// RespondToBooking handles POST /api/bookings/:booking_id/respond — the
// host's accept or decline of a request-mode booking.
func (h *Handler) RespondToBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bk, err := h.store.RespondToBooking(c.Request.Context(), c.Param("booking_id"), actor.ID, req.Action == "accept")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bk)
}

// CancelBooking handles POST /api/bookings/:booking_id/cancel.
func (h *Handler) CancelBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	bk, err := h.store.CancelBooking(c.Request.Context(), c.Param("booking_id"), actor.ID, actor.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bk)
}
