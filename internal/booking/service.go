package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"venue-booking/internal/fees"
	"venue-booking/internal/gateway"
	"venue-booking/internal/logger"
	"venue-booking/internal/models"
)

type DBLayer interface {
	CreateVenue(venue models.Venue) error
	GetVenueByID(id string) (*models.Venue, error)
	CreateBooking(booking models.Booking) error
	GetBookingByID(id string) (*models.Booking, error)
	SetSessionRef(bookingID, sessionID string) error
	TransitionStatus(bookingID, fromBooking, fromPayment, toBooking, toPayment string) error
}

// AvailabilityStore is the atomic claim/release boundary. Claim must let at
// most one caller succeed per (venue, date) pair until a release.
type AvailabilityStore interface {
	Register(ctx context.Context, venueID string, dates []string) error
	Claim(ctx context.Context, venueID, date string) error
	Release(ctx context.Context, venueID, date string) error
	Dates(ctx context.Context, venueID string) ([]string, error)
}

type TransactionStore interface {
	SaveTransaction(tx *models.PaymentTransaction) error
}

type EventPublisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingConfirmed(booking models.Booking) error
	PublishBookingCancelled(booking models.Booking) error
}

// BookingService owns Booking rows and venue-availability mutation. Nothing
// else writes those.
type BookingService struct {
	DB           DBLayer
	Availability AvailabilityStore
	Gateway      gateway.Gateway
	Transactions TransactionStore
	Events       EventPublisher

	Currency       string
	GatewayTimeout time.Duration

	log *logger.Logger
}

func NewBookingService(db DBLayer, avail AvailabilityStore, gw gateway.Gateway, txs TransactionStore, events EventPublisher, currency string, gatewayTimeout time.Duration, log *logger.Logger) *BookingService {
	return &BookingService{
		DB:             db,
		Availability:   avail,
		Gateway:        gw,
		Transactions:   txs,
		Events:         events,
		Currency:       currency,
		GatewayTimeout: gatewayTimeout,
		log:            log,
	}
}

const dateLayout = "2006-01-02"

// ---------------- VENUES ----------------

func (s *BookingService) CreateVenue(ctx context.Context, req models.VenueRequest) (*models.Venue, error) {
	if req.Name == "" || req.OwnerID == "" {
		return nil, fmt.Errorf("%w: venue name and owner are required", models.ErrValidation)
	}
	if _, _, err := fees.Split(req.PricePerDay); err != nil {
		return nil, err
	}
	for _, date := range req.Availability {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: bad date %q, want YYYY-MM-DD", models.ErrValidation, date)
		}
	}

	venue := models.Venue{
		VenueID:     uuid.NewString(),
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Location:    req.Location,
		Capacity:    req.Capacity,
		PricePerDay: req.PricePerDay,
		EventTypes:  req.EventTypes,
		CreatedAt:   time.Now(),
	}
	if err := s.DB.CreateVenue(venue); err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	if err := s.Availability.Register(ctx, venue.VenueID, req.Availability); err != nil {
		return nil, fmt.Errorf("failed to register availability: %w", err)
	}

	s.log.Info("VENUE", fmt.Sprintf("Created venue %s with %d bookable dates", venue.VenueID, len(req.Availability)))
	return &venue, nil
}

func (s *BookingService) GetVenue(ctx context.Context, venueID string) (*models.Venue, []string, error) {
	venue, err := s.DB.GetVenueByID(venueID)
	if err != nil {
		return nil, nil, err
	}
	dates, err := s.Availability.Dates(ctx, venueID)
	if err != nil {
		return nil, nil, err
	}
	return venue, dates, nil
}

// ---------------- BOOKINGS ----------------

// CreateBooking claims the date first and only then persists the booking, so a
// racing renter can never observe a bookable date that is already sold. If the
// insert fails the claim is released again.
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if req.RenterName == "" || req.RenterEmail == "" {
		return nil, fmt.Errorf("%w: renter name and email are required", models.ErrValidation)
	}
	if _, err := time.Parse(dateLayout, req.EventDate); err != nil {
		return nil, fmt.Errorf("%w: bad event date %q, want YYYY-MM-DD", models.ErrValidation, req.EventDate)
	}

	venue, err := s.DB.GetVenueByID(req.VenueID)
	if err != nil {
		return nil, err
	}

	if err := s.Availability.Claim(ctx, req.VenueID, req.EventDate); err != nil {
		return nil, err
	}

	serviceFee, ownerPayout, err := fees.Split(venue.PricePerDay)
	if err != nil {
		// The venue price was validated at creation; release the claim anyway.
		_ = s.Availability.Release(ctx, req.VenueID, req.EventDate)
		return nil, err
	}

	booking := models.Booking{
		BookingID:     uuid.NewString(),
		VenueID:       req.VenueID,
		RenterName:    req.RenterName,
		RenterEmail:   req.RenterEmail,
		EventDate:     req.EventDate,
		EventType:     req.EventType,
		Note:          req.Note,
		TotalAmount:   fees.Round2(venue.PricePerDay),
		ServiceFee:    serviceFee,
		OwnerPayout:   ownerPayout,
		PaymentStatus: models.PaymentPending,
		BookingStatus: models.BookingPending,
		CreatedAt:     time.Now(),
	}

	if err := s.DB.CreateBooking(booking); err != nil {
		s.log.Error("BOOKING", fmt.Sprintf("Failed to create booking, releasing claim on %s/%s: %v", req.VenueID, req.EventDate, err))
		if relErr := s.Availability.Release(ctx, req.VenueID, req.EventDate); relErr != nil {
			s.log.Error("BOOKING", fmt.Sprintf("Failed to release claim on %s/%s: %v", req.VenueID, req.EventDate, relErr))
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.log.LogBooking("CREATED", booking.BookingID, fmt.Sprintf("venue %s on %s, total %.2f", booking.VenueID, booking.EventDate, booking.TotalAmount))

	if s.Events != nil {
		if err := s.Events.PublishBookingCreated(booking); err != nil {
			s.log.Warn("KAFKA", fmt.Sprintf("Failed to publish booking created event: %v", err))
		}
	}
	return &booking, nil
}

func (s *BookingService) GetBooking(bookingID string) (*models.Booking, error) {
	return s.DB.GetBookingByID(bookingID)
}

// CancelBooking cancels a not-yet-paid booking and returns the claimed date to
// the venue's availability set. A paid and confirmed booking needs the refund
// path, which is not part of this service.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}

	err = s.DB.TransitionStatus(bookingID,
		models.BookingPending, models.PaymentPending,
		models.BookingCancelled, models.PaymentCancelled)
	if err != nil {
		return nil, err
	}

	if err := s.Availability.Release(ctx, booking.VenueID, booking.EventDate); err != nil {
		s.log.Error("BOOKING", fmt.Sprintf("Cancelled booking %s but failed to release %s/%s: %v", bookingID, booking.VenueID, booking.EventDate, err))
	}

	booking.BookingStatus = models.BookingCancelled
	booking.PaymentStatus = models.PaymentCancelled

	s.log.LogBooking("CANCELLED", bookingID, fmt.Sprintf("released %s on venue %s", booking.EventDate, booking.VenueID))

	if s.Events != nil {
		if err := s.Events.PublishBookingCancelled(*booking); err != nil {
			s.log.Warn("KAFKA", fmt.Sprintf("Failed to publish booking cancelled event: %v", err))
		}
	}
	return booking, nil
}

// ConfirmPaid applies the (pending, pending) -> (confirmed, paid) transition.
// Called by the payment reconciler only. Re-confirming an already confirmed
// booking is a no-op so reconciliation stays idempotent.
func (s *BookingService) ConfirmPaid(ctx context.Context, bookingID string) (*models.Booking, error) {
	err := s.DB.TransitionStatus(bookingID,
		models.BookingPending, models.PaymentPending,
		models.BookingConfirmed, models.PaymentPaid)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			booking, getErr := s.DB.GetBookingByID(bookingID)
			if getErr != nil {
				return nil, getErr
			}
			if booking.BookingStatus == models.BookingConfirmed && booking.PaymentStatus == models.PaymentPaid {
				return booking, nil
			}
		}
		return nil, err
	}

	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}

	s.log.LogBooking("CONFIRMED", bookingID, "payment observed as paid")

	if s.Events != nil {
		if err := s.Events.PublishBookingConfirmed(*booking); err != nil {
			s.log.Warn("KAFKA", fmt.Sprintf("Failed to publish booking confirmed event: %v", err))
		}
	}
	return booking, nil
}

// ---------------- PAYMENT SESSIONS ----------------

// CreatePaymentSession opens a hosted checkout session for a pending booking
// and records the matching transaction. Opening a second session for a booking
// that is already paid is rejected before the gateway is called.
func (s *BookingService) CreatePaymentSession(ctx context.Context, bookingID, successURL, cancelURL string) (*models.PaymentSessionResponse, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PaymentStatus == models.PaymentPaid {
		return nil, models.ErrAlreadyPaid
	}
	if booking.BookingStatus == models.BookingCancelled {
		return nil, fmt.Errorf("%w: booking %s is cancelled", models.ErrInvalidTransition, bookingID)
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.GatewayTimeout)
	defer cancel()

	session, err := s.Gateway.OpenSession(gwCtx, gateway.SessionRequest{
		BookingID:   booking.BookingID,
		VenueID:     booking.VenueID,
		RenterEmail: booking.RenterEmail,
		AmountCents: int64(math.Round(booking.TotalAmount * 100)),
		Currency:    s.Currency,
		Description: fmt.Sprintf("Booking for venue %s", booking.VenueID),
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
	})
	if err != nil {
		return nil, err
	}

	tx := &models.PaymentTransaction{
		TransactionID: uuid.NewString(),
		SessionID:     session.SessionID,
		BookingID:     booking.BookingID,
		Amount:        booking.TotalAmount,
		Currency:      s.Currency,
		ServiceFee:    booking.ServiceFee,
		OwnerPayout:   booking.OwnerPayout,
		PaymentStatus: models.PaymentPending,
		Metadata: map[string]string{
			"booking_id":   booking.BookingID,
			"venue_id":     booking.VenueID,
			"renter_email": booking.RenterEmail,
		},
		CreatedAt: time.Now(),
	}
	if err := s.Transactions.SaveTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction for session %s: %w", session.SessionID, err)
	}
	if err := s.DB.SetSessionRef(booking.BookingID, session.SessionID); err != nil {
		return nil, fmt.Errorf("failed to stamp booking with session %s: %w", session.SessionID, err)
	}

	s.log.LogPayment("SESSION_RECORDED", session.SessionID, fmt.Sprintf("booking %s, amount %.2f", booking.BookingID, booking.TotalAmount))
	return session, nil
}
