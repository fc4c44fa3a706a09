package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"venue-booking/internal/logger"
	"venue-booking/internal/models"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// SessionRequest carries everything needed to open one hosted checkout session.
type SessionRequest struct {
	BookingID   string
	VenueID     string
	RenterEmail string
	AmountCents int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// Gateway is the payment session boundary the booking core talks to. The real
// payment service behind it is out of scope; only these two calls are consumed.
type Gateway interface {
	OpenSession(ctx context.Context, req SessionRequest) (*models.PaymentSessionResponse, error)
	FetchStatus(ctx context.Context, sessionID string) (*models.GatewayStatus, error)
}

// StripeGateway implements Gateway over Stripe Checkout Sessions.
type StripeGateway struct {
	client *client.API
	log    *logger.Logger
}

func NewStripeGateway(secretKey string, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{client: sc, log: log}, nil
}

// OpenSession creates a hosted checkout session. The caller's context bounds
// the call; a timeout is a failure, never an implied success.
func (g *StripeGateway) OpenSession(ctx context.Context, req SessionRequest) (*models.PaymentSessionResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: []*string{
			stripe.String("card"),
		},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Venue Booking"),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("venue_id", req.VenueID)
	params.AddMetadata("renter_email", req.RenterEmail)

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for booking %s: %v", req.BookingID, err))
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}

	g.log.LogPayment("SESSION_OPENED", session.ID, fmt.Sprintf("booking %s, %d %s", req.BookingID, req.AmountCents, req.Currency))
	return &models.PaymentSessionResponse{
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

// FetchStatus retrieves the gateway's authoritative view of a session.
func (g *StripeGateway) FetchStatus(ctx context.Context, sessionID string) (*models.GatewayStatus, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	}

	session, err := g.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve checkout session %s: %v", sessionID, err))
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}

	return &models.GatewayStatus{
		SessionID:     session.ID,
		PaymentStatus: string(session.PaymentStatus),
		SessionStatus: string(session.Status),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
	}, nil
}
