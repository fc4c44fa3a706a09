package models

import "errors"

// Sentinel errors shared across the booking and payment services. Handlers map
// these onto HTTP status codes; everything else is a 500.
var (
	ErrVenueNotFound       = errors.New("venue not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrDateUnavailable    = errors.New("venue not available on selected date")
	ErrAlreadyPaid        = errors.New("booking already paid")
	ErrDuplicatePayment   = errors.New("booking already paid through another session")
	ErrInvalidTransition  = errors.New("invalid booking state transition")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	ErrValidation = errors.New("validation failed")
)
