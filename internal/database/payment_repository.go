package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PaymentRepository handles payment and webhook bookkeeping
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, intent_id, charge_id, amount, currency, status,
	card_brand, card_last4, failure_code, failure_message, refund_id, created_at, updated_at`

// Create inserts a new payment row in requires_action status
func (r *PaymentRepository) Create(payment *models.Payment) error {
	payment.ID = uuid.New()
	payment.Status = models.PaymentStatusRequiresAction
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	query := `
		INSERT INTO payments (id, booking_id, intent_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(query,
		payment.ID, payment.BookingID, payment.IntentID, payment.Amount,
		payment.Currency, payment.Status, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByIntentID retrieves a payment by its processor intent id
func (r *PaymentRepository) GetByIntentID(intentID string) (*models.Payment, error) {
	var payment models.Payment
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE intent_id = $1`, paymentColumns)
	err := r.db.Get(&payment, query, intentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by intent: %w", err)
	}
	return &payment, nil
}

// GetByChargeID retrieves a payment by its processor charge id
func (r *PaymentRepository) GetByChargeID(chargeID string) (*models.Payment, error) {
	var payment models.Payment
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE charge_id = $1`, paymentColumns)
	err := r.db.Get(&payment, query, chargeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by charge: %w", err)
	}
	return &payment, nil
}

// GetLatestByBookingID retrieves the most recent payment for a booking
func (r *PaymentRepository) GetLatestByBookingID(bookingID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE booking_id = $1 ORDER BY created_at DESC LIMIT 1`, paymentColumns)
	err := r.db.Get(&payment, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment for booking: %w", err)
	}
	return &payment, nil
}

// MarkSucceeded records a successful charge with its card summary. The
// status guard keeps a replayed success from overwriting a refund.
func (r *PaymentRepository) MarkSucceeded(intentID, chargeID string, cardBrand, cardLast4 *string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'succeeded', charge_id = $2, card_brand = $3, card_last4 = $4, updated_at = NOW()
		WHERE intent_id = $1 AND status = 'requires_action'`
	result, err := r.db.Exec(query, intentID, chargeID, cardBrand, cardLast4)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment succeeded: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// MarkFailed records a declined or errored charge attempt
func (r *PaymentRepository) MarkFailed(intentID string, failureCode, failureMessage *string) error {
	query := `
		UPDATE payments
		SET status = 'failed', failure_code = $2, failure_message = $3, updated_at = NOW()
		WHERE intent_id = $1 AND status = 'requires_action'`
	if _, err := r.db.Exec(query, intentID, failureCode, failureMessage); err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return nil
}

// MarkRefunded records a refund against a previously succeeded payment
func (r *PaymentRepository) MarkRefunded(chargeID, refundID string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'refunded', refund_id = $2, updated_at = NOW()
		WHERE charge_id = $1 AND status = 'succeeded'`
	result, err := r.db.Exec(query, chargeID, refundID)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment refunded: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteWebhookEvent removes a recorded event id so the processor's retry of
// the same event is applied instead of skipped as a duplicate.
func (r *PaymentRepository) DeleteWebhookEvent(eventID string) error {
	query := `DELETE FROM processed_webhook_events WHERE event_id = $1`
	if _, err := r.db.Exec(query, eventID); err != nil {
		return fmt.Errorf("failed to delete webhook event: %w", err)
	}
	return nil
}

// RecordWebhookEvent stores a processor event id, returning false when the
// id was already present. Insert-or-skip is the dedup primitive for
// at-least-once webhook delivery.
func (r *PaymentRepository) RecordWebhookEvent(eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO processed_webhook_events (event_id, event_type, received_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id) DO NOTHING`
	result, err := r.db.Exec(query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
