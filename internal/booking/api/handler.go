package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"venue-booking/internal/auth"
	"venue-booking/internal/logger"
	"venue-booking/internal/models"
	"venue-booking/internal/utils"
)

// BookingService is the core the HTTP layer fronts.
type BookingService interface {
	CreateVenue(ctx context.Context, req models.VenueRequest) (*models.Venue, error)
	GetVenue(ctx context.Context, venueID string) (*models.Venue, []string, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	GetBooking(bookingID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	CreatePaymentSession(ctx context.Context, bookingID, successURL, cancelURL string) (*models.PaymentSessionResponse, error)
}

// Reconciler resolves a checkout session against the gateway.
type Reconciler interface {
	Reconcile(ctx context.Context, sessionID string) (*models.PaymentStatusResponse, error)
}

type Handler struct {
	Service    BookingService
	Reconciler Reconciler
	BaseURL    string
	Log        *logger.Logger
}

func NewHandler(service BookingService, reconciler Reconciler, baseURL string, log *logger.Logger) *Handler {
	return &Handler{
		Service:    service,
		Reconciler: reconciler,
		BaseURL:    baseURL,
		Log:        log,
	}
}

// Router wires the public API. Cancellation requires a caller identity; the
// rest of the surface is open because the upstream gateway handles authn for
// the deployment as a whole.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", h.Health)

	r.Post("/api/venues", h.CreateVenue)
	r.Get("/api/venues/{venueId}", h.GetVenue)

	r.Post("/api/bookings", h.CreateBooking)
	r.Get("/api/bookings/{bookingId}", h.GetBooking)
	r.Post("/api/bookings/{bookingId}/payment", h.CreatePaymentSession)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		r.Post("/api/bookings/{bookingId}/cancel", h.CancelBooking)
	})

	r.Get("/api/payments/status/{sessionId}", h.PaymentStatus)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, utils.SuccessResponse("booking service is healthy", nil))
}

func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req models.VenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	venue, err := h.Service.CreateVenue(r.Context(), req)
	if err != nil {
		h.writeError(w, "Could not create venue", err)
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Venue created", venue))
}

func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueId")

	venue, dates, err := h.Service.GetVenue(r.Context(), venueID)
	if err != nil {
		h.writeError(w, "Could not fetch venue", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Venue fetched", map[string]interface{}{
		"venue":        venue,
		"availability": dates,
	}))
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	booking, err := h.Service.CreateBooking(r.Context(), req)
	if err != nil {
		h.writeError(w, "Could not create booking", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking created", booking))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	booking, err := h.Service.GetBooking(bookingID)
	if err != nil {
		h.writeError(w, "Could not fetch booking", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking fetched", booking))
}

// CancelBooking allows the renter who made the booking to cancel it. The
// identity comes from the auth middleware.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Authentication required", "no identity in request"))
		return
	}

	booking, err := h.Service.GetBooking(bookingID)
	if err != nil {
		h.writeError(w, "Could not fetch booking", err)
		return
	}
	if booking.RenterEmail != identity.Email {
		writeJSON(w, http.StatusForbidden, utils.ErrorResponse("Not allowed", "only the renter may cancel this booking"))
		return
	}

	cancelled, err := h.Service.CancelBooking(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, "Could not cancel booking", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking cancelled", cancelled))
}

type paymentSessionRequest struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (h *Handler) CreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req paymentSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
			return
		}
	}
	if req.SuccessURL == "" {
		req.SuccessURL = fmt.Sprintf("%s/payment/success?booking_id=%s", h.BaseURL, bookingID)
	}
	if req.CancelURL == "" {
		req.CancelURL = fmt.Sprintf("%s/payment/cancel?booking_id=%s", h.BaseURL, bookingID)
	}

	session, err := h.Service.CreatePaymentSession(r.Context(), bookingID, req.SuccessURL, req.CancelURL)
	if err != nil {
		h.writeError(w, "Could not create payment session", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment session created", session))
}

func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	status, err := h.Reconciler.Reconcile(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, "Could not resolve payment status", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment status resolved", status))
}

// writeError maps the service's error taxonomy onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrVenueNotFound),
		errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrTransactionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrDateUnavailable),
		errors.Is(err, models.ErrAlreadyPaid):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrDuplicatePayment):
		status = http.StatusConflict
	case errors.Is(err, models.ErrGatewayUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.Log.Error("API", fmt.Sprintf("%s: %v", message, err))
	}
	writeJSON(w, status, utils.ErrorResponse(message, err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
