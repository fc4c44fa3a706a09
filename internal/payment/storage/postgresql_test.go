package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"

	"venue-booking/internal/logger"
	"venue-booking/internal/models"
)

func setupStore(t *testing.T) *PostgreSQLStore {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	store, err := NewPostgreSQLStoreWithDB(sqldb, logger.NewLogger("storage-test"))
	require.NoError(t, err)
	return store
}

func sampleTransaction(sessionID string) *models.PaymentTransaction {
	return &models.PaymentTransaction{
		TransactionID: uuid.NewString(),
		SessionID:     sessionID,
		BookingID:     uuid.NewString(),
		Amount:        1000.00,
		Currency:      "usd",
		ServiceFee:    25.00,
		OwnerPayout:   975.00,
		PaymentStatus: models.PaymentPending,
		Metadata: map[string]string{
			"venue_id":     "venue-1",
			"renter_email": "renter@example.com",
		},
		CreatedAt: time.Now(),
	}
}

func TestSaveAndGetTransaction(t *testing.T) {
	store := setupStore(t)

	tx := sampleTransaction("cs_test_123")
	require.NoError(t, store.SaveTransaction(tx))

	got, err := store.GetTransactionBySessionID("cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, tx.TransactionID, got.TransactionID)
	assert.Equal(t, tx.BookingID, got.BookingID)
	assert.Equal(t, 1000.00, got.Amount)
	assert.Equal(t, 25.00, got.ServiceFee)
	assert.Equal(t, 975.00, got.OwnerPayout)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
	assert.Equal(t, "venue-1", got.Metadata["venue_id"])
}

func TestGetTransactionUnknownSession(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetTransactionBySessionID("cs_missing")
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestMarkStatusIsIdempotent(t *testing.T) {
	store := setupStore(t)

	tx := sampleTransaction("cs_test_mark")
	require.NoError(t, store.SaveTransaction(tx))

	changed, err := store.MarkStatus("cs_test_mark", models.PaymentPaid)
	require.NoError(t, err)
	assert.True(t, changed)

	// A replay of the same gateway result must not touch the row again.
	changed, err = store.MarkStatus("cs_test_mark", models.PaymentPaid)
	require.NoError(t, err)
	assert.False(t, changed)

	// Paid is terminal: a late pending observation cannot undo it.
	changed, err = store.MarkStatus("cs_test_mark", models.PaymentPending)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := store.GetTransactionBySessionID("cs_test_mark")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
}

func TestMarkStatusOnePaidSessionPerBooking(t *testing.T) {
	store := setupStore(t)

	first := sampleTransaction("cs_test_first")
	second := sampleTransaction("cs_test_second")
	second.BookingID = first.BookingID

	require.NoError(t, store.SaveTransaction(first))
	require.NoError(t, store.SaveTransaction(second))

	changed, err := store.MarkStatus("cs_test_first", models.PaymentPaid)
	require.NoError(t, err)
	assert.True(t, changed)

	// The booking already settled through the first session, so the second
	// session cannot reach paid no matter what the gateway says about it.
	changed, err = store.MarkStatus("cs_test_second", models.PaymentPaid)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := store.GetTransactionBySessionID("cs_test_second")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)

	paid := 0
	all, err := store.GetTransactionsByBookingID(first.BookingID)
	require.NoError(t, err)
	for _, tx := range all {
		if tx.PaymentStatus == models.PaymentPaid {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
}

func TestMarkStatusUnknownSession(t *testing.T) {
	store := setupStore(t)

	_, err := store.MarkStatus("cs_missing", models.PaymentPaid)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestGetTransactionsByBookingID(t *testing.T) {
	store := setupStore(t)

	first := sampleTransaction("cs_test_a")
	second := sampleTransaction("cs_test_b")
	second.BookingID = first.BookingID
	other := sampleTransaction("cs_test_c")

	require.NoError(t, store.SaveTransaction(first))
	require.NoError(t, store.SaveTransaction(second))
	require.NoError(t, store.SaveTransaction(other))

	got, err := store.GetTransactionsByBookingID(first.BookingID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
