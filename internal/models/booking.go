package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Booking status values for the two status axes. A booking starts as
// (pending, pending), becomes (confirmed, paid) when the reconciler observes a
// successful payment, or (cancelled, cancelled) on explicit cancellation.
const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentCancelled = "cancelled"

	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID       string    `bun:"booking_id,pk" json:"booking_id"`
	VenueID         string    `bun:"venue_id" json:"venue_id"`
	RenterName      string    `bun:"renter_name" json:"renter_name"`
	RenterEmail     string    `bun:"renter_email" json:"renter_email"`
	EventDate       string    `bun:"event_date" json:"event_date"`
	EventType       string    `bun:"event_type" json:"event_type"`
	Note            string    `bun:"note" json:"note,omitempty"`
	TotalAmount     float64   `bun:"total_amount" json:"total_amount"`
	ServiceFee      float64   `bun:"service_fee" json:"service_fee"`
	OwnerPayout     float64   `bun:"owner_payout" json:"owner_payout"`
	PaymentStatus   string    `bun:"payment_status" json:"payment_status"`
	BookingStatus   string    `bun:"booking_status" json:"booking_status"`
	StripeSessionID string    `bun:"stripe_session_id" json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time `bun:"created_at" json:"created_at"`
}

type BookingRequest struct {
	VenueID     string `json:"venue_id"`
	RenterName  string `json:"renter_name"`
	RenterEmail string `json:"renter_email"`
	EventDate   string `json:"event_date"`
	EventType   string `json:"event_type"`
	Note        string `json:"note,omitempty"`
}

type PaymentSessionResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}
