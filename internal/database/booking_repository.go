package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BookingRepository handles booking database operations. Status changes
// use conditional updates guarded by the current status, so an illegal or
// repeated transition shows up as zero rows affected rather than a lost
// update.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, confirmation_code, hotel_id, room_type_id, guest_id, check_in, check_out,
	adults, children, rooms, total_amount, currency, status, payment_status, payment_reference,
	cancellation_reason, cancelled_at, special_requests, created_at, updated_at`

// Create inserts a new pending booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	booking.ID = uuid.New()
	booking.ConfirmationCode = models.GenerateConfirmationCode()
	booking.Status = models.BookingStatusPending
	booking.PaymentStatus = models.BookingPaymentPending
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	query := `
		INSERT INTO bookings (
			id, confirmation_code, hotel_id, room_type_id, guest_id, check_in, check_out,
			adults, children, rooms, total_amount, currency, status, payment_status,
			special_requests, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)`

	_, err := r.db.Exec(query,
		booking.ID, booking.ConfirmationCode, booking.HotelID, booking.RoomTypeID, booking.GuestID,
		booking.CheckIn, booking.CheckOut, booking.Adults, booking.Children, booking.Rooms,
		booking.TotalAmount, booking.Currency, booking.Status, booking.PaymentStatus,
		booking.SpecialRequests, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by ID, nil when missing
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	err := r.db.Get(&booking, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// GetByConfirmationCode retrieves a booking by its guest-facing code
func (r *BookingRepository) GetByConfirmationCode(code string) (*models.Booking, error) {
	var booking models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE confirmation_code = $1`, bookingColumns)
	err := r.db.Get(&booking, query, strings.ToUpper(strings.TrimSpace(code)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by confirmation code: %w", err)
	}
	return &booking, nil
}

// List returns bookings matching the filter plus the unpaginated total
func (r *BookingRepository) List(filter models.BookingFilter) ([]models.Booking, int64, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	appendArg := func(clause string, value interface{}) {
		where = append(where, fmt.Sprintf(clause, idx))
		args = append(args, value)
		idx++
	}

	if filter.HotelID != nil {
		appendArg("hotel_id = $%d", *filter.HotelID)
	}
	if filter.Status != nil {
		appendArg("status = $%d", *filter.Status)
	}
	if filter.GuestEmail != nil {
		appendArg("guest_id IN (SELECT id FROM guests WHERE email = $%d)", *filter.GuestEmail)
	}
	if filter.From != nil {
		appendArg("check_in >= $%d", *filter.From)
	}
	if filter.To != nil {
		appendArg("check_in < $%d", *filter.To)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM bookings WHERE %s`, whereClause)
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, whereClause, idx, idx+1)
	args = append(args, limit, filter.Offset)

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

// MarkConfirmed transitions pending → confirmed with payment reference and
// paid status. Zero rows affected means the booking was not pending.
func (r *BookingRepository) MarkConfirmed(id uuid.UUID, paymentRef string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed',
		    payment_status = 'paid',
		    payment_reference = $2,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	result, err := r.db.Exec(query, id, paymentRef)
	if err != nil {
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// MarkCancelled transitions pending/confirmed → cancelled, recording the
// reason and timestamp. Zero rows affected means the booking was already
// terminal.
func (r *BookingRepository) MarkCancelled(id uuid.UUID, reason *string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
		    cancellation_reason = $2,
		    cancelled_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')`
	result, err := r.db.Exec(query, id, reason)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CancelPending transitions pending → cancelled only. The sweep uses this
// instead of MarkCancelled so an expiry can never cancel a booking that a
// concurrent payment already confirmed.
func (r *BookingRepository) CancelPending(id uuid.UUID, reason *string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
		    cancellation_reason = $2,
		    cancelled_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	result, err := r.db.Exec(query, id, reason)
	if err != nil {
		return false, fmt.Errorf("failed to cancel pending booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// MarkPaymentStatus updates only the payment status column
func (r *BookingRepository) MarkPaymentStatus(id uuid.UUID, status models.BookingPaymentStatus) error {
	query := `UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(query, id, status); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}

// UpdateStatus applies an administrative status override. Terminal states
// stay closed: the guard rejects any transition out of cancelled or
// completed at the database level as well.
func (r *BookingRepository) UpdateStatus(id uuid.UUID, status models.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('cancelled', 'completed')`
	result, err := r.db.Exec(query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CompleteDueStays transitions confirmed bookings whose check-out date has
// passed to completed, returning how many were closed.
func (r *BookingRepository) CompleteDueStays(now time.Time) (int, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'confirmed' AND check_out <= $1`
	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to complete due stays: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
