package storage

import (
	"venue-booking/internal/models"
)

type Store interface {
	// Transaction operations
	SaveTransaction(tx *models.PaymentTransaction) error
	GetTransactionBySessionID(sessionID string) (*models.PaymentTransaction, error)
	GetTransactionsByBookingID(bookingID string) ([]*models.PaymentTransaction, error)
	// MarkStatus sets the transaction's payment status unless the transaction
	// has already reached paid. Reports whether the row actually changed.
	MarkStatus(sessionID, status string) (bool, error)

	// Health and maintenance
	Close() error
	HealthCheck() error
}
