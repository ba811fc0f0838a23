package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/bussywales/rentnow-sub000/config"
	"github.com/bussywales/rentnow-sub000/internal/mw"
	"github.com/bussywales/rentnow-sub000/internal/store"
)

// NewRouter creates and configures the Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/properties/:property_id/availability", caching, handler.GetAvailability)
		api.POST("/properties/:property_id/bookings", handler.CreateBooking)
		api.POST("/properties/:property_id/blocks", handler.CreateBlock)
		api.DELETE("/blocks/:block_id", handler.DeleteBlock)

		api.GET("/bookings", handler.ListBookings)
		api.GET("/bookings/:booking_id", handler.GetBooking)
		api.POST("/bookings/:booking_id/payment", handler.ConfirmPayment)
		api.POST("/bookings/:booking_id/respond", handler.RespondToBooking)
		api.POST("/bookings/:booking_id/cancel", handler.CancelBooking)

		api.GET("/payouts", handler.ListPayouts)
		api.POST("/payouts/:payout_id/mark-paid", handler.MarkPayoutPaid)
	}

	return r
}
