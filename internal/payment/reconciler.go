package payment

import (
	"context"
	"fmt"
	"time"

	"venue-booking/internal/gateway"
	"venue-booking/internal/logger"
	"venue-booking/internal/models"
	"venue-booking/internal/payment/storage"
)

// Ledger is the slice of the booking service the reconciler drives: moving a
// booking to confirmed once its payment is observed as paid.
type Ledger interface {
	ConfirmPaid(ctx context.Context, bookingID string) (*models.Booking, error)
}

// Reconciler pulls the gateway's view of a checkout session and folds it into
// the local transaction and booking records. Driven by polling, so it must
// tolerate being run any number of times for the same session.
type Reconciler struct {
	Store          storage.Store
	Gateway        gateway.Gateway
	Ledger         Ledger
	GatewayTimeout time.Duration

	log *logger.Logger
}

func NewReconciler(store storage.Store, gw gateway.Gateway, ledger Ledger, gatewayTimeout time.Duration, log *logger.Logger) *Reconciler {
	return &Reconciler{
		Store:          store,
		Gateway:        gw,
		Ledger:         ledger,
		GatewayTimeout: gatewayTimeout,
		log:            log,
	}
}

// Reconcile fetches the gateway status for a session and applies it locally.
// The local transaction record is consulted first: an unknown session is an
// error before the gateway is ever called. When the gateway reports paid, the
// transaction is marked paid and the booking is confirmed; any status other
// than paid leaves the local records pending.
func (r *Reconciler) Reconcile(ctx context.Context, sessionID string) (*models.PaymentStatusResponse, error) {
	tx, err := r.Store.GetTransactionBySessionID(sessionID)
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, r.GatewayTimeout)
	defer cancel()

	status, err := r.Gateway.FetchStatus(gwCtx, sessionID)
	if err != nil {
		return nil, err
	}

	if status.PaymentStatus == "paid" {
		changed, err := r.Store.MarkStatus(sessionID, models.PaymentPaid)
		if err != nil {
			return nil, fmt.Errorf("failed to mark session %s as paid: %w", sessionID, err)
		}
		if changed {
			r.log.LogPayment("RECONCILED", sessionID, fmt.Sprintf("booking %s observed as paid", tx.BookingID))
		} else {
			// The row did not change: either this session was already folded in
			// (a replay) or a sibling session for the same booking won first.
			// A booking must never record two paid transactions, so the loser
			// is reported instead of silently absorbed.
			fresh, err := r.Store.GetTransactionBySessionID(sessionID)
			if err != nil {
				return nil, err
			}
			if fresh.PaymentStatus != models.PaymentPaid {
				r.log.Error("PAYMENT", fmt.Sprintf("Session %s reported paid but booking %s already settled through another session", sessionID, tx.BookingID))
				return nil, fmt.Errorf("%w: booking %s settled through a different session than %s",
					models.ErrDuplicatePayment, tx.BookingID, sessionID)
			}
		}

		// ConfirmPaid is itself idempotent, so the cascade is safe to repeat
		// even when the transaction row was already paid.
		if _, err := r.Ledger.ConfirmPaid(ctx, tx.BookingID); err != nil {
			return nil, fmt.Errorf("failed to confirm booking %s: %w", tx.BookingID, err)
		}
		tx.PaymentStatus = models.PaymentPaid
	}

	return &models.PaymentStatusResponse{
		Gateway:     *status,
		Transaction: *tx,
	}, nil
}
