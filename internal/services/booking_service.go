package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/railline/train-booking-backend/internal/database"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/railline/train-booking-backend/pkg/payment"
	"github.com/sirupsen/logrus"
)

// PaymentGateway opens gateway transactions and settles them by reference.
// Nil when the service runs with payment disabled (development mode).
type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amountNGN float64) (*payment.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*payment.VerifyResult, error)
}

// BookingService orchestrates the booking lifecycle. Preconditions run in a
// fixed order so a request failing several checks always reports the same
// one: user, trip, expiry, fare class, pricing, seat format, availability,
// seat conflicts, payment. The final reserve-and-record step is delegated to
// the repository's transaction, which re-validates everything under lock.
type BookingService struct {
	userRepo    *database.UserRepository
	tripRepo    *database.TripRepository
	bookingRepo *database.BookingRepository
	allocator   *SeatAllocator
	gateway     PaymentGateway
	audit       *AuditService
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService. gateway may be nil; the
// service then trusts the declared payment amount without gateway settlement.
func NewBookingService(
	userRepo *database.UserRepository,
	tripRepo *database.TripRepository,
	bookingRepo *database.BookingRepository,
	allocator *SeatAllocator,
	gateway PaymentGateway,
	audit *AuditService,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		userRepo:    userRepo,
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		allocator:   allocator,
		gateway:     gateway,
		audit:       audit,
		logger:      logger,
	}
}

// CreateBooking books seats on a trip for a user
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *models.CreateBookingRequest, meta ClientMeta) (*models.BookingResult, error) {
	// 1. User must exist
	exists, err := s.userRepo.UserExists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrUserNotFound
	}

	// 2. Trip must exist
	trip, err := s.tripRepo.GetTripByID(req.TripID)
	if err != nil {
		return nil, err
	}

	// 3. Trip must not be expired or departed
	if !trip.IsBookable(nowUTC()) {
		return nil, models.ErrTripExpired
	}

	// 4. Fare class must be a known tier
	fareClass, err := models.ParseFareClass(req.FareClass)
	if err != nil {
		return nil, err
	}

	// 5. The trip must price that class
	inv := trip.InventoryFor(fareClass)
	if inv == nil {
		return nil, models.ErrFareClassUnavailable
	}

	// 6. Seat selection must be well formed
	seatLabels, err := s.allocator.ValidateRequestedSeats(fareClass, inv.TotalSeats, req.SeatLabels)
	if err != nil {
		return nil, err
	}

	// 7. The counter must cover the request
	if inv.AvailableSeats < len(seatLabels) {
		return nil, &models.InsufficientInventoryError{
			FareClass: fareClass,
			Requested: len(seatLabels),
			Available: inv.AvailableSeats,
		}
	}

	// 8. No requested seat may be held by a live booking
	bookedLabels, err := s.bookingRepo.GetBookedSeatLabels(trip.ID, fareClass)
	if err != nil {
		return nil, err
	}
	if taken := s.allocator.TakenSeats(seatLabels, bookedLabels); len(taken) > 0 {
		return nil, &models.SeatTakenError{Labels: taken}
	}

	// 9. Payment must cover the total price
	totalPrice := inv.Price * float64(len(seatLabels))
	paymentAmount, txRef, err := s.settlePayment(ctx, userID, req, totalPrice, meta)
	if err != nil {
		return nil, err
	}
	if paymentAmount < totalPrice {
		return nil, &models.InsufficientPaymentError{Required: totalPrice, Provided: paymentAmount}
	}

	booking, err := s.bookingRepo.CreateBooking(database.CreateBookingParams{
		TripID:               trip.ID,
		UserID:               userID,
		FareClass:            fareClass,
		SeatLabels:           seatLabels,
		PaymentAmount:        paymentAmount,
		TransactionReference: txRef,
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"trip_id":           trip.ID,
		"user_id":           userID,
		"fare_class":        fareClass,
		"seat_count":        booking.SeatCount,
		"total_price":       booking.TotalPrice,
	}).Info("Booking confirmed")

	s.audit.RecordBookingCreated(booking, meta)

	return &models.BookingResult{
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		Message:          fmt.Sprintf("Booking confirmed. Your reference is %s", booking.BookingReference),
		TotalPrice:       booking.TotalPrice,
		Change:           paymentAmount - booking.TotalPrice,
	}, nil
}

// InitializePayment opens a gateway transaction for a prospective booking
// and returns the checkout handle. The amount is the current class price
// times the seat count; nothing is reserved until CreateBooking settles it.
func (s *BookingService) InitializePayment(ctx context.Context, userID uuid.UUID, req *models.InitializePaymentRequest, meta ClientMeta) (*models.PaymentInitResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: payment gateway not configured", models.ErrPaymentGateway)
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetTripByID(req.TripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsBookable(nowUTC()) {
		return nil, models.ErrTripExpired
	}

	fareClass, err := models.ParseFareClass(req.FareClass)
	if err != nil {
		return nil, err
	}
	inv := trip.InventoryFor(fareClass)
	if inv == nil {
		return nil, models.ErrFareClassUnavailable
	}
	if inv.AvailableSeats < req.SeatCount {
		return nil, &models.InsufficientInventoryError{
			FareClass: fareClass,
			Requested: req.SeatCount,
			Available: inv.AvailableSeats,
		}
	}

	amount := inv.Price * float64(req.SeatCount)
	result, err := s.gateway.Initialize(ctx, user.Email, amount)
	if err != nil {
		return nil, err
	}

	s.audit.Record(models.AuditPaymentInit, &userID, &trip.ID, map[string]interface{}{
		"transaction_reference": result.Reference,
		"fare_class":            fareClass,
		"seat_count":            req.SeatCount,
		"amount":                amount,
	}, meta)

	return &models.PaymentInitResult{
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		Reference:        result.Reference,
		Amount:           amount,
	}, nil
}

// settlePayment resolves the effective payment amount. With a gateway
// reference and a configured gateway the settled amount is authoritative;
// otherwise the declared amount is used as-is.
func (s *BookingService) settlePayment(ctx context.Context, userID uuid.UUID, req *models.CreateBookingRequest, totalPrice float64, meta ClientMeta) (float64, *string, error) {
	if req.TransactionReference == "" || s.gateway == nil {
		return req.PaymentAmount, nil, nil
	}

	result, err := s.gateway.Verify(ctx, req.TransactionReference)
	if err != nil {
		s.audit.RecordPaymentResult(userID, req.TransactionReference, 0, false, meta)
		return 0, nil, err
	}
	if !result.Succeeded() {
		s.audit.RecordPaymentResult(userID, req.TransactionReference, result.Amount, false, meta)
		return 0, nil, fmt.Errorf("%w: transaction %s not successful (status %s)",
			models.ErrPaymentGateway, req.TransactionReference, result.Status)
	}

	s.audit.RecordPaymentResult(userID, req.TransactionReference, result.Amount, true, meta)
	ref := req.TransactionReference
	return result.Amount, &ref, nil
}

// CancelBooking cancels a booking owned by the user and reports the refund,
// which is always the full price originally paid for the seats.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID, meta ClientMeta) (*models.CancelResult, error) {
	booking, err := s.bookingRepo.CancelBooking(bookingID, userID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"user_id":           userID,
		"refund_amount":     booking.TotalPrice,
	}).Info("Booking cancelled")

	s.audit.RecordBookingCancelled(booking, booking.TotalPrice, meta)

	return &models.CancelResult{
		BookingID:    booking.ID,
		Message:      fmt.Sprintf("Booking %s cancelled", booking.BookingReference),
		RefundAmount: booking.TotalPrice,
	}, nil
}

// GetUserBookings lists a user's bookings, newest first
func (s *BookingService) GetUserBookings(userID uuid.UUID) ([]models.BookingSummary, error) {
	bookings, err := s.bookingRepo.GetBookingsByUserID(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summaries = append(summaries, models.BookingSummary{
			ID:               b.ID,
			BookingReference: b.BookingReference,
			TrainName:        b.TrainName,
			Source:           b.TripSource,
			Destination:      b.TripDestination,
			DepartureTime:    b.DepartureTime,
			FareClass:        b.FareClass,
			SeatLabels:       []string(b.SeatLabels),
			TotalPrice:       b.TotalPrice,
			BookingDate:      b.BookingDate,
			IsCancelled:      b.IsCancelled,
		})
	}
	return summaries, nil
}

// GetTripBookings lists the non-cancelled bookings of a trip, for
// administration
func (s *BookingService) GetTripBookings(tripID uuid.UUID) ([]models.Booking, error) {
	if _, err := s.tripRepo.GetTripByID(tripID); err != nil {
		return nil, err
	}
	return s.bookingRepo.GetBookingsByTripID(tripID)
}

// GetBooking retrieves one booking owned by the user
func (s *BookingService) GetBooking(userID, bookingID uuid.UUID) (*models.Booking, error) {
	return s.bookingRepo.GetBookingByIDAndUserID(bookingID, userID)
}

// GetAvailableSeats returns the free seat labels for a trip's fare class
func (s *BookingService) GetAvailableSeats(tripID uuid.UUID, fareClassRaw string) ([]string, error) {
	fareClass, err := models.ParseFareClass(fareClassRaw)
	if err != nil {
		return nil, err
	}

	inv, err := s.tripRepo.GetInventory(tripID, fareClass)
	if err != nil {
		return nil, err
	}

	bookedLabels, err := s.bookingRepo.GetBookedSeatLabels(tripID, fareClass)
	if err != nil {
		return nil, err
	}

	return s.allocator.ComputeAvailableSeats(fareClass, inv.TotalSeats, bookedLabels), nil
}
