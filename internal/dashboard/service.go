package dashboard

import (
	"fmt"

	"venue-booking/internal/fees"
	"venue-booking/internal/logger"
	"venue-booking/internal/models"
)

// Ledger is the slice of the booking database the dashboards read.
type Ledger interface {
	GetVenuesByOwner(ownerID string) ([]models.Venue, error)
	GetBookingsByVenueIDs(venueIDs []string) ([]models.Booking, error)
	GetBookingsByRenterEmail(email string) ([]models.Booking, error)
}

type OwnerDashboard struct {
	OwnerID       string           `json:"owner_id"`
	Venues        []models.Venue   `json:"venues"`
	Bookings      []models.Booking `json:"bookings"`
	TotalEarnings float64          `json:"total_earnings"`
	TotalFees     float64          `json:"total_fees"`
	PendingCount  int              `json:"pending_count"`
	PaidCount     int              `json:"paid_count"`
}

type RenterDashboard struct {
	RenterEmail string           `json:"renter_email"`
	Bookings    []models.Booking `json:"bookings"`
	TotalSpent  float64          `json:"total_spent"`
}

// Service aggregates booking rows into per-owner and per-renter views. It only
// reads: all mutation goes through the booking service.
type Service struct {
	ledger Ledger
	log    *logger.Logger
}

func NewService(ledger Ledger, log *logger.Logger) *Service {
	return &Service{ledger: ledger, log: log}
}

// ForOwner sums earnings over paid bookings only. Pending bookings are counted
// but contribute nothing until the reconciler confirms them.
func (s *Service) ForOwner(ownerID string) (*OwnerDashboard, error) {
	venues, err := s.ledger.GetVenuesByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load venues for owner %s: %w", ownerID, err)
	}

	venueIDs := make([]string, 0, len(venues))
	for _, v := range venues {
		venueIDs = append(venueIDs, v.VenueID)
	}

	bookings, err := s.ledger.GetBookingsByVenueIDs(venueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for owner %s: %w", ownerID, err)
	}

	dash := &OwnerDashboard{
		OwnerID:  ownerID,
		Venues:   venues,
		Bookings: bookings,
	}
	for _, b := range bookings {
		switch b.PaymentStatus {
		case models.PaymentPaid:
			dash.TotalEarnings += b.OwnerPayout
			dash.TotalFees += b.ServiceFee
			dash.PaidCount++
		case models.PaymentPending:
			dash.PendingCount++
		}
	}
	dash.TotalEarnings = fees.Round2(dash.TotalEarnings)
	dash.TotalFees = fees.Round2(dash.TotalFees)

	s.log.Info("DASHBOARD", fmt.Sprintf("Owner %s: %d venues, %d bookings, %.2f earned",
		ownerID, len(venues), len(bookings), dash.TotalEarnings))
	return dash, nil
}

func (s *Service) ForRenter(email string) (*RenterDashboard, error) {
	bookings, err := s.ledger.GetBookingsByRenterEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for renter %s: %w", email, err)
	}

	dash := &RenterDashboard{
		RenterEmail: email,
		Bookings:    bookings,
	}
	for _, b := range bookings {
		if b.PaymentStatus == models.PaymentPaid {
			dash.TotalSpent += b.TotalAmount
		}
	}
	dash.TotalSpent = fees.Round2(dash.TotalSpent)

	return dash, nil
}
