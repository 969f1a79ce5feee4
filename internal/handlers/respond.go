package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/railline/train-booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// respondError maps domain errors onto HTTP status codes. Not-found errors
// become 404, validation 400, state conflicts 409, payment failures 402,
// transient store conflicts 503 with a retry hint. Anything unmapped is a
// 500 with the detail kept out of the response body.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrTripNotFound),
		errors.Is(err, models.ErrTrainNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrEmptySeatSelection),
		errors.Is(err, models.ErrSameTerminals),
		errors.Is(err, models.ErrDepartureInPast):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrTripExpired),
		errors.Is(err, models.ErrFareClassUnavailable),
		errors.Is(err, models.ErrAlreadyCancelled),
		errors.Is(err, models.ErrPastDeparture),
		errors.Is(err, models.ErrSeatAlreadyTaken),
		errors.Is(err, models.ErrInsufficientInventory),
		errors.Is(err, models.ErrSchedulingConflict),
		errors.Is(err, models.ErrTripHasBookings):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrInsufficientPayment),
		errors.Is(err, models.ErrPaymentGateway):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrTransientStore):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "temporary conflict, please retry",
			"retry": true,
		})

	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	default:
		logger.WithError(err).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// clientMeta extracts audit metadata from the request
func clientMeta(c *gin.Context) services.ClientMeta {
	return services.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}
