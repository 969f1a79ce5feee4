package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/railline/train-booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// TripHandler exposes trip listing and admin trip management endpoints
type TripHandler struct {
	tripService    *services.TripService
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(tripService *services.TripService, bookingService *services.BookingService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{tripService: tripService, bookingService: bookingService, logger: logger}
}

// ListAvailable handles GET /trips
func (h *TripHandler) ListAvailable(c *gin.Context) {
	trips, err := h.tripService.GetAvailableTrips()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// Get handles GET /trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	trip, err := h.tripService.GetTrip(tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// GetAvailableSeats handles GET /trips/:id/seats?fare_class=Economy
func (h *TripHandler) GetAvailableSeats(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	fareClass := c.Query("fare_class")
	if fareClass == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fare_class query parameter is required"})
		return
	}

	seats, err := h.bookingService.GetAvailableSeats(tripID, fareClass)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trip_id":         tripID,
		"fare_class":      fareClass,
		"available_seats": seats,
		"count":           len(seats),
	})
}

// ListAll handles GET /admin/trips, expired trips included
func (h *TripHandler) ListAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// ListBookings handles GET /admin/trips/:id/bookings
func (h *TripHandler) ListBookings(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	bookings, err := h.bookingService.GetTripBookings(tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// Create handles POST /admin/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.tripService.CreateTrip(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// Update handles PUT /admin/trips/:id
func (h *TripHandler) Update(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.tripService.UpdateTrip(tripID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// Delete handles DELETE /admin/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	if err := h.tripService.DeleteTrip(tripID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trip deleted"})
}
