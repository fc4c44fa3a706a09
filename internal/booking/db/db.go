package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"venue-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- VENUES ----------------

func (d *DB) CreateVenue(venue models.Venue) error {
	_, err := d.Bun.NewInsert().Model(&venue).Exec(context.Background())
	return err
}

func (d *DB) GetVenueByID(id string) (*models.Venue, error) {
	var venue models.Venue
	err := d.Bun.NewSelect().
		Model(&venue).
		Where("venue_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

func (d *DB) GetVenuesByOwner(ownerID string) ([]models.Venue, error) {
	var venues []models.Venue
	err := d.Bun.NewSelect().
		Model(&venues).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return venues, nil
}

// ---------------- BOOKINGS ----------------

func (d *DB) CreateBooking(booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(context.Background())
	return err
}

func (d *DB) GetBookingByID(id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// SetSessionRef stamps the booking with the checkout session it is being paid
// through.
func (d *DB) SetSessionRef(bookingID, sessionID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("stripe_session_id = ?", sessionID).
		Where("booking_id = ?", bookingID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

// TransitionStatus moves a booking from one (booking_status, payment_status)
// pair to another with a compare-and-set UPDATE. The WHERE clause pins the
// current pair, so a cancel racing a payment confirmation can never produce an
// impossible combination: whoever loses the race gets ErrInvalidTransition.
func (d *DB) TransitionStatus(bookingID, fromBooking, fromPayment, toBooking, toPayment string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("booking_status = ?", toBooking).
		Set("payment_status = ?", toPayment).
		Where("booking_id = ?", bookingID).
		Where("booking_status = ?", fromBooking).
		Where("payment_status = ?", fromPayment).
		Exec(context.Background())
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing booking from a lost race.
		if _, err := d.GetBookingByID(bookingID); err != nil {
			return err
		}
		return fmt.Errorf("%w: booking %s is not (%s, %s)",
			models.ErrInvalidTransition, bookingID, fromBooking, fromPayment)
	}
	return nil
}

// ---------------- DASHBOARD QUERIES ----------------

func (d *DB) GetBookingsByVenueIDs(venueIDs []string) ([]models.Booking, error) {
	if len(venueIDs) == 0 {
		return []models.Booking{}, nil
	}
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("venue_id IN (?)", bun.In(venueIDs)).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (d *DB) GetBookingsByRenterEmail(email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("renter_email = ?", email).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
