package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCreateTripRequestValidate(t *testing.T) {
	base := func() CreateTripRequest {
		return CreateTripRequest{
			TrainID:       uuid.New(),
			Source:        "Lagos",
			Destination:   "Abuja",
			DepartureTime: time.Now().Add(24 * time.Hour),
			Pricings:      []TripPricingRequest{{FareClass: "Economy", Price: 5000}},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		req := base()
		assert.NoError(t, req.Validate())
	})

	t.Run("Same Terminals", func(t *testing.T) {
		req := base()
		req.Destination = "Lagos"
		assert.ErrorIs(t, req.Validate(), ErrSameTerminals)
	})

	t.Run("Unknown Terminal", func(t *testing.T) {
		req := base()
		req.Destination = "Gotham"
		assert.ErrorIs(t, req.Validate(), ErrValidation)
	})

	t.Run("No Pricings", func(t *testing.T) {
		req := base()
		req.Pricings = nil
		assert.ErrorIs(t, req.Validate(), ErrValidation)
	})

	t.Run("Duplicate Fare Class", func(t *testing.T) {
		req := base()
		req.Pricings = append(req.Pricings, TripPricingRequest{FareClass: "Economy", Price: 6000})
		assert.ErrorIs(t, req.Validate(), ErrValidation)
	})

	t.Run("Non-Positive Price", func(t *testing.T) {
		req := base()
		req.Pricings[0].Price = 0
		assert.ErrorIs(t, req.Validate(), ErrValidation)
	})
}

func TestTripIsBookable(t *testing.T) {
	now := time.Now().UTC()

	trip := Trip{DepartureTime: now.Add(time.Hour)}
	assert.True(t, trip.IsBookable(now))

	trip.IsExpired = true
	assert.False(t, trip.IsBookable(now))

	trip = Trip{DepartureTime: now.Add(-time.Second)}
	assert.False(t, trip.IsBookable(now))
}

func TestBookingCanBeCancelled(t *testing.T) {
	now := time.Now().UTC()

	b := Booking{DepartureTime: now.Add(time.Hour)}
	assert.True(t, b.CanBeCancelled(now))

	b.IsCancelled = true
	assert.False(t, b.CanBeCancelled(now))

	b = Booking{DepartureTime: now.Add(-time.Minute)}
	assert.False(t, b.CanBeCancelled(now))
}

func TestFareClassInitial(t *testing.T) {
	assert.Equal(t, byte('E'), FareClassEconomy.Initial())
	assert.Equal(t, byte('B'), FareClassBusiness.Initial())
	assert.Equal(t, byte('F'), FareClassFirstClass.Initial())
}
