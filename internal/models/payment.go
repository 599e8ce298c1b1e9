package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the processor-side status of a charge attempt
type PaymentStatus string

const (
	PaymentStatusRequiresAction PaymentStatus = "requires_action"
	PaymentStatusSucceeded      PaymentStatus = "succeeded"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusRefunded       PaymentStatus = "refunded"
)

// Payment represents one charge attempt against a booking
type Payment struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	BookingID      uuid.UUID     `json:"booking_id" db:"booking_id"`
	IntentID       string        `json:"intent_id" db:"intent_id"`   // processor payment intent id
	ChargeID       *string       `json:"charge_id,omitempty" db:"charge_id"`
	Amount         int64         `json:"amount" db:"amount"` // minor currency units
	Currency       string        `json:"currency" db:"currency"`
	Status         PaymentStatus `json:"status" db:"status"`
	CardBrand      *string       `json:"card_brand,omitempty" db:"card_brand"`
	CardLast4      *string       `json:"card_last4,omitempty" db:"card_last4"`
	FailureCode    *string       `json:"failure_code,omitempty" db:"failure_code"`
	FailureMessage *string       `json:"failure_message,omitempty" db:"failure_message"`
	RefundID       *string       `json:"refund_id,omitempty" db:"refund_id"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the payment can still change state. A
// succeeded payment may still move to refunded.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusFailed || p.Status == PaymentStatusRefunded
}

// CreateIntentRequest is the payload for POST /payments/intent
type CreateIntentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required,min=1"`
	Currency  string `json:"currency" binding:"required"`
}

// CreateIntentResponse carries the client-usable secret back to the caller
type CreateIntentResponse struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	IntentID     string    `json:"intent_id"`
	ClientSecret string    `json:"client_secret"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
}

// ConfirmIntentRequest is the payload for POST /payments/confirm
type ConfirmIntentRequest struct {
	IntentID         string `json:"intent_id" binding:"required"`
	PaymentMethodRef string `json:"payment_method" binding:"required"`
}

// RefundRequest is the payload for POST /payments/refund. A nil amount
// refunds the full charge. Refunding does not cancel the booking.
type RefundRequest struct {
	ChargeID string  `json:"charge_id" binding:"required"`
	Amount   *int64  `json:"amount,omitempty"`
	Reason   *string `json:"reason,omitempty"`
}

// ProcessedWebhookEvent records a processor event id that has already been
// handled, so at-least-once delivery cannot double-apply an event.
type ProcessedWebhookEvent struct {
	EventID    string    `json:"event_id" db:"event_id"`
	EventType  string    `json:"event_type" db:"event_type"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

// WebhookOutcome summarizes what a webhook delivery did, for logging and
// the acknowledgement body.
type WebhookOutcome struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Duplicate bool   `json:"duplicate"`
	Applied   bool   `json:"applied"`
}
