package models

import "time"

// PaymentTransaction records one checkout attempt against the gateway. A booking
// may accumulate several transactions if earlier sessions expired unpaid, but at
// most one ever reaches "paid".
type PaymentTransaction struct {
	TransactionID string            `json:"transaction_id"`
	SessionID     string            `json:"session_id"`
	BookingID     string            `json:"booking_id,omitempty"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	ServiceFee    float64           `json:"service_fee"`
	OwnerPayout   float64           `json:"owner_payout"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// GatewayStatus is the gateway's authoritative view of a checkout session.
type GatewayStatus struct {
	SessionID     string `json:"session_id"`
	PaymentStatus string `json:"payment_status"`
	SessionStatus string `json:"status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

// PaymentStatusResponse is returned by GET /payments/status/{sessionId}: the raw
// gateway answer plus the locally reconciled transaction.
type PaymentStatusResponse struct {
	Gateway     GatewayStatus      `json:"gateway"`
	Transaction PaymentTransaction `json:"transaction"`
}
