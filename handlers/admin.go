package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	bookingRepo "tourbot/database/repository/booking"
	"tourbot/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler exposes the booking store to operators.
type AdminHandler struct {
	Repo   bookingRepo.BookingRepository
	Logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(repo bookingRepo.BookingRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		Repo:   repo,
		Logger: logger,
	}
}

// ListBookingsHandler returns all bookings, or those of one day when ?date=DD.MM.YYYY is given.
func (ah *AdminHandler) ListBookingsHandler(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))

	var (
		bookings []models.Booking
		err      error
	)
	if date != "" {
		if _, perr := time.Parse(models.DateLayout, date); perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be DD.MM.YYYY"})
			return
		}
		bookings, err = ah.Repo.ListByDate(c.Request.Context(), date)
	} else {
		bookings, err = ah.Repo.ListAll(c.Request.Context())
	}
	if err != nil {
		ah.Logger.Error("Failed to fetch bookings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

type updateStatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

// UpdateBookingStatusHandler sets the status of one booking.
func (ah *AdminHandler) UpdateBookingStatusHandler(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(string(req.Status)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	found, err := ah.Repo.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		ah.Logger.Error("Failed to update booking status", zap.Int("booking_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	ah.Logger.Info("Booking status updated",
		zap.Int("booking_id", id),
		zap.String("status", string(req.Status)),
		zap.Int64("operator_id", c.GetInt64("operatorID")))
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// DeleteBookingHandler removes one booking.
func (ah *AdminHandler) DeleteBookingHandler(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	found, err := ah.Repo.DeleteByID(c.Request.Context(), id)
	if err != nil {
		ah.Logger.Error("Failed to delete booking", zap.Int("booking_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete booking"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	ah.Logger.Info("Booking deleted", zap.Int("booking_id", id), zap.Int64("operator_id", c.GetInt64("operatorID")))
	c.Status(http.StatusNoContent)
}

// DeleteAllBookingsHandler empties the store.
func (ah *AdminHandler) DeleteAllBookingsHandler(c *gin.Context) {
	if err := ah.Repo.DeleteAll(c.Request.Context()); err != nil {
		ah.Logger.Error("Failed to delete all bookings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete bookings"})
		return
	}
	ah.Logger.Warn("All bookings deleted", zap.Int64("operator_id", c.GetInt64("operatorID")))
	c.Status(http.StatusNoContent)
}

func bookingID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return 0, false
	}
	return id, true
}
