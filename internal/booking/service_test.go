package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"venue-booking/internal/gateway"
	"venue-booking/internal/logger"
	"venue-booking/internal/models"
)

type mockDB struct {
	mock.Mock
}

func (m *mockDB) CreateVenue(venue models.Venue) error {
	return m.Called(venue).Error(0)
}

func (m *mockDB) GetVenueByID(id string) (*models.Venue, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}

func (m *mockDB) CreateBooking(booking models.Booking) error {
	return m.Called(booking).Error(0)
}

func (m *mockDB) GetBookingByID(id string) (*models.Booking, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockDB) SetSessionRef(bookingID, sessionID string) error {
	return m.Called(bookingID, sessionID).Error(0)
}

func (m *mockDB) TransitionStatus(bookingID, fromBooking, fromPayment, toBooking, toPayment string) error {
	return m.Called(bookingID, fromBooking, fromPayment, toBooking, toPayment).Error(0)
}

type mockAvailability struct {
	mock.Mock
}

func (m *mockAvailability) Register(ctx context.Context, venueID string, dates []string) error {
	return m.Called(ctx, venueID, dates).Error(0)
}

func (m *mockAvailability) Claim(ctx context.Context, venueID, date string) error {
	return m.Called(ctx, venueID, date).Error(0)
}

func (m *mockAvailability) Release(ctx context.Context, venueID, date string) error {
	return m.Called(ctx, venueID, date).Error(0)
}

func (m *mockAvailability) Dates(ctx context.Context, venueID string) ([]string, error) {
	args := m.Called(ctx, venueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) OpenSession(ctx context.Context, req gateway.SessionRequest) (*models.PaymentSessionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSessionResponse), args.Error(1)
}

func (m *mockGateway) FetchStatus(ctx context.Context, sessionID string) (*models.GatewayStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayStatus), args.Error(1)
}

type mockTransactions struct {
	mock.Mock
}

func (m *mockTransactions) SaveTransaction(tx *models.PaymentTransaction) error {
	return m.Called(tx).Error(0)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishBookingCreated(b models.Booking) error   { return m.Called(b).Error(0) }
func (m *mockEvents) PublishBookingConfirmed(b models.Booking) error { return m.Called(b).Error(0) }
func (m *mockEvents) PublishBookingCancelled(b models.Booking) error { return m.Called(b).Error(0) }

type serviceMocks struct {
	db           *mockDB
	availability *mockAvailability
	gateway      *mockGateway
	transactions *mockTransactions
	events       *mockEvents
}

func newTestService() (*BookingService, *serviceMocks) {
	m := &serviceMocks{
		db:           new(mockDB),
		availability: new(mockAvailability),
		gateway:      new(mockGateway),
		transactions: new(mockTransactions),
		events:       new(mockEvents),
	}
	svc := NewBookingService(m.db, m.availability, m.gateway, m.transactions, m.events,
		"usd", 5*time.Second, logger.NewLogger("booking-test"))
	return svc, m
}

func testVenue() *models.Venue {
	return &models.Venue{
		VenueID:     "venue-1",
		OwnerID:     "owner-1",
		Name:        "Grand Hall",
		Location:    "Colombo",
		Capacity:    200,
		PricePerDay: 1000.00,
	}
}

func testBookingRequest() models.BookingRequest {
	return models.BookingRequest{
		VenueID:     "venue-1",
		RenterName:  "Amal Perera",
		RenterEmail: "amal@example.com",
		EventDate:   "2026-10-20",
		EventType:   "wedding",
	}
}

// ---------------- CreateBooking ----------------

func TestCreateBookingClaimsDateAndSplitsFee(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetVenueByID", "venue-1").Return(testVenue(), nil)
	m.availability.On("Claim", mock.Anything, "venue-1", "2026-10-20").Return(nil)
	m.db.On("CreateBooking", mock.AnythingOfType("models.Booking")).Return(nil)
	m.events.On("PublishBookingCreated", mock.AnythingOfType("models.Booking")).Return(nil)

	booking, err := svc.CreateBooking(context.Background(), testBookingRequest())

	require.NoError(t, err)
	assert.Equal(t, 1000.00, booking.TotalAmount)
	assert.Equal(t, 25.00, booking.ServiceFee)
	assert.Equal(t, 975.00, booking.OwnerPayout)
	assert.Equal(t, models.BookingPending, booking.BookingStatus)
	assert.Equal(t, models.PaymentPending, booking.PaymentStatus)
	m.db.AssertExpectations(t)
	m.availability.AssertExpectations(t)
}

func TestCreateBookingDateAlreadyTaken(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetVenueByID", "venue-1").Return(testVenue(), nil)
	m.availability.On("Claim", mock.Anything, "venue-1", "2026-10-20").Return(models.ErrDateUnavailable)

	_, err := svc.CreateBooking(context.Background(), testBookingRequest())

	assert.ErrorIs(t, err, models.ErrDateUnavailable)
	m.db.AssertNotCalled(t, "CreateBooking", mock.Anything)
}

func TestCreateBookingUnknownVenue(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetVenueByID", "venue-1").Return(nil, models.ErrVenueNotFound)

	_, err := svc.CreateBooking(context.Background(), testBookingRequest())

	assert.ErrorIs(t, err, models.ErrVenueNotFound)
	m.availability.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBookingBadDate(t *testing.T) {
	svc, m := newTestService()

	req := testBookingRequest()
	req.EventDate = "20-10-2026"

	_, err := svc.CreateBooking(context.Background(), req)

	assert.ErrorIs(t, err, models.ErrValidation)
	m.db.AssertNotCalled(t, "GetVenueByID", mock.Anything)
}

func TestCreateBookingReleasesClaimWhenInsertFails(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetVenueByID", "venue-1").Return(testVenue(), nil)
	m.availability.On("Claim", mock.Anything, "venue-1", "2026-10-20").Return(nil)
	m.db.On("CreateBooking", mock.AnythingOfType("models.Booking")).Return(errors.New("insert failed"))
	m.availability.On("Release", mock.Anything, "venue-1", "2026-10-20").Return(nil)

	_, err := svc.CreateBooking(context.Background(), testBookingRequest())

	require.Error(t, err)
	m.availability.AssertCalled(t, "Release", mock.Anything, "venue-1", "2026-10-20")
	m.events.AssertNotCalled(t, "PublishBookingCreated", mock.Anything)
}

// ---------------- CancelBooking ----------------

func TestCancelBookingReleasesDate(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		VenueID:       "venue-1",
		EventDate:     "2026-10-20",
		BookingStatus: models.BookingPending,
		PaymentStatus: models.PaymentPending,
	}, nil)
	m.db.On("TransitionStatus", "booking-1",
		models.BookingPending, models.PaymentPending,
		models.BookingCancelled, models.PaymentCancelled).Return(nil)
	m.availability.On("Release", mock.Anything, "venue-1", "2026-10-20").Return(nil)
	m.events.On("PublishBookingCancelled", mock.AnythingOfType("models.Booking")).Return(nil)

	booking, err := svc.CancelBooking(context.Background(), "booking-1")

	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.BookingStatus)
	assert.Equal(t, models.PaymentCancelled, booking.PaymentStatus)
	m.availability.AssertExpectations(t)
}

func TestCancelPaidBookingRejected(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		VenueID:       "venue-1",
		EventDate:     "2026-10-20",
		BookingStatus: models.BookingConfirmed,
		PaymentStatus: models.PaymentPaid,
	}, nil)
	m.db.On("TransitionStatus", "booking-1",
		models.BookingPending, models.PaymentPending,
		models.BookingCancelled, models.PaymentCancelled).Return(models.ErrInvalidTransition)

	_, err := svc.CancelBooking(context.Background(), "booking-1")

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	m.availability.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

// ---------------- ConfirmPaid ----------------

func TestConfirmPaidTransitionsAndPublishes(t *testing.T) {
	svc, m := newTestService()

	m.db.On("TransitionStatus", "booking-1",
		models.BookingPending, models.PaymentPending,
		models.BookingConfirmed, models.PaymentPaid).Return(nil)
	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		BookingStatus: models.BookingConfirmed,
		PaymentStatus: models.PaymentPaid,
	}, nil)
	m.events.On("PublishBookingConfirmed", mock.AnythingOfType("models.Booking")).Return(nil)

	booking, err := svc.ConfirmPaid(context.Background(), "booking-1")

	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.BookingStatus)
	m.events.AssertExpectations(t)
}

func TestConfirmPaidAlreadyConfirmedIsNoOp(t *testing.T) {
	svc, m := newTestService()

	m.db.On("TransitionStatus", "booking-1",
		models.BookingPending, models.PaymentPending,
		models.BookingConfirmed, models.PaymentPaid).Return(models.ErrInvalidTransition)
	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		BookingStatus: models.BookingConfirmed,
		PaymentStatus: models.PaymentPaid,
	}, nil)

	booking, err := svc.ConfirmPaid(context.Background(), "booking-1")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, booking.PaymentStatus)
	m.events.AssertNotCalled(t, "PublishBookingConfirmed", mock.Anything)
}

func TestConfirmPaidCancelledBookingFails(t *testing.T) {
	svc, m := newTestService()

	m.db.On("TransitionStatus", "booking-1",
		models.BookingPending, models.PaymentPending,
		models.BookingConfirmed, models.PaymentPaid).Return(models.ErrInvalidTransition)
	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		BookingStatus: models.BookingCancelled,
		PaymentStatus: models.PaymentCancelled,
	}, nil)

	_, err := svc.ConfirmPaid(context.Background(), "booking-1")

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

// ---------------- CreatePaymentSession ----------------

func TestCreatePaymentSessionRecordsTransaction(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		VenueID:       "venue-1",
		RenterEmail:   "amal@example.com",
		TotalAmount:   1000.00,
		ServiceFee:    25.00,
		OwnerPayout:   975.00,
		BookingStatus: models.BookingPending,
		PaymentStatus: models.PaymentPending,
	}, nil)
	m.gateway.On("OpenSession", mock.Anything, mock.MatchedBy(func(req gateway.SessionRequest) bool {
		return req.BookingID == "booking-1" && req.AmountCents == 100000 && req.Currency == "usd"
	})).Return(&models.PaymentSessionResponse{
		CheckoutURL: "https://checkout.stripe.com/pay/cs_test_1",
		SessionID:   "cs_test_1",
	}, nil)
	m.transactions.On("SaveTransaction", mock.MatchedBy(func(tx *models.PaymentTransaction) bool {
		return tx.SessionID == "cs_test_1" && tx.ServiceFee == 25.00 && tx.OwnerPayout == 975.00
	})).Return(nil)
	m.db.On("SetSessionRef", "booking-1", "cs_test_1").Return(nil)

	resp, err := svc.CreatePaymentSession(context.Background(), "booking-1", "https://app/success", "https://app/cancel")

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.SessionID)
	m.transactions.AssertExpectations(t)
	m.db.AssertExpectations(t)
}

func TestCreatePaymentSessionAlreadyPaid(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		BookingStatus: models.BookingConfirmed,
		PaymentStatus: models.PaymentPaid,
	}, nil)

	_, err := svc.CreatePaymentSession(context.Background(), "booking-1", "https://app/success", "https://app/cancel")

	assert.ErrorIs(t, err, models.ErrAlreadyPaid)
	m.gateway.AssertNotCalled(t, "OpenSession", mock.Anything, mock.Anything)
}

func TestCreatePaymentSessionGatewayDown(t *testing.T) {
	svc, m := newTestService()

	m.db.On("GetBookingByID", "booking-1").Return(&models.Booking{
		BookingID:     "booking-1",
		TotalAmount:   1000.00,
		BookingStatus: models.BookingPending,
		PaymentStatus: models.PaymentPending,
	}, nil)
	m.gateway.On("OpenSession", mock.Anything, mock.Anything).Return(nil, models.ErrGatewayUnavailable)

	_, err := svc.CreatePaymentSession(context.Background(), "booking-1", "https://app/success", "https://app/cancel")

	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
	m.transactions.AssertNotCalled(t, "SaveTransaction", mock.Anything)
}

// ---------------- CreateVenue ----------------

func TestCreateVenueRegistersAvailability(t *testing.T) {
	svc, m := newTestService()

	req := models.VenueRequest{
		OwnerID:      "owner-1",
		Name:         "Grand Hall",
		Location:     "Colombo",
		Capacity:     200,
		PricePerDay:  1000.00,
		Availability: []string{"2026-10-20", "2026-10-21"},
	}

	m.db.On("CreateVenue", mock.AnythingOfType("models.Venue")).Return(nil)
	m.availability.On("Register", mock.Anything, mock.AnythingOfType("string"), req.Availability).Return(nil)

	venue, err := svc.CreateVenue(context.Background(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, venue.VenueID)
	m.availability.AssertExpectations(t)
}

func TestCreateVenueBadDateRejected(t *testing.T) {
	svc, m := newTestService()

	req := models.VenueRequest{
		OwnerID:      "owner-1",
		Name:         "Grand Hall",
		PricePerDay:  1000.00,
		Availability: []string{"next tuesday"},
	}

	_, err := svc.CreateVenue(context.Background(), req)

	assert.ErrorIs(t, err, models.ErrValidation)
	m.db.AssertNotCalled(t, "CreateVenue", mock.Anything)
}
