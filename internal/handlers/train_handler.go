package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/railline/train-booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// TrainHandler exposes admin fleet management endpoints
type TrainHandler struct {
	trainService *services.TrainService
	logger       *logrus.Logger
}

// NewTrainHandler creates a new TrainHandler
func NewTrainHandler(trainService *services.TrainService, logger *logrus.Logger) *TrainHandler {
	return &TrainHandler{trainService: trainService, logger: logger}
}

// Create handles POST /admin/trains
func (h *TrainHandler) Create(c *gin.Context) {
	var req models.CreateTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	train, err := h.trainService.CreateTrain(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, train)
}

// List handles GET /admin/trains
func (h *TrainHandler) List(c *gin.Context) {
	trains, err := h.trainService.GetAllTrains()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trains": trains, "count": len(trains)})
}

// Get handles GET /admin/trains/:id
func (h *TrainHandler) Get(c *gin.Context) {
	trainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid train id"})
		return
	}

	train, err := h.trainService.GetTrain(trainID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, train)
}

// Update handles PUT /admin/trains/:id
func (h *TrainHandler) Update(c *gin.Context) {
	trainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid train id"})
		return
	}

	var req models.UpdateTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	train, err := h.trainService.UpdateTrain(trainID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, train)
}

// Delete handles DELETE /admin/trains/:id
func (h *TrainHandler) Delete(c *gin.Context) {
	trainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid train id"})
		return
	}

	if err := h.trainService.DeleteTrain(trainID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "train deleted"})
}
