package handlers

import (
	"net/http"

	bookingRepo "tourbot/database/repository/booking"
	"tourbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Operator endpoints
	ListBookingsHandler        gin.HandlerFunc
	UpdateBookingStatusHandler gin.HandlerFunc
	DeleteBookingHandler       gin.HandlerFunc
	DeleteAllBookingsHandler   gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handlers over the booking store. A nil health monitor reports healthy.
func NewHandlerBundle(repo bookingRepo.BookingRepository, health *utils.HealthMonitor, logger *zap.Logger) *HandlerBundle {
	admin := NewAdminHandler(repo, logger)
	return &HandlerBundle{
		ListBookingsHandler:        admin.ListBookingsHandler,
		UpdateBookingStatusHandler: admin.UpdateBookingStatusHandler,
		DeleteBookingHandler:       admin.DeleteBookingHandler,
		DeleteAllBookingsHandler:   admin.DeleteAllBookingsHandler,
		HealthHandler:              healthHandler(health),
	}
}

func healthHandler(health *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status := health.Status()
		code := http.StatusOK
		label := "ok"
		if !status.Healthy {
			code = http.StatusServiceUnavailable
			label = "degraded"
		}
		c.JSON(code, gin.H{"status": label, "checks": status.Checks, "checkedAt": status.CheckedAt})
	}
}
