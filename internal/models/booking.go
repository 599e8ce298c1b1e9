package models

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// BookingPaymentStatus represents the payment status of a booking
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

// CancellationWindow is the minimum lead time before check-in for a
// guest-initiated cancellation. Admins may override it.
const CancellationWindow = 24 * time.Hour

// Booking represents one reservation. Bookings are never physically
// deleted; cancelled rows are retained for audit.
type Booking struct {
	ID                 uuid.UUID            `json:"id" db:"id"`
	ConfirmationCode   string               `json:"confirmation_code" db:"confirmation_code"`
	HotelID            uuid.UUID            `json:"hotel_id" db:"hotel_id"`
	RoomTypeID         uuid.UUID            `json:"room_type_id" db:"room_type_id"`
	GuestID            uuid.UUID            `json:"guest_id" db:"guest_id"`
	CheckIn            time.Time            `json:"check_in" db:"check_in"`
	CheckOut           time.Time            `json:"check_out" db:"check_out"`
	Adults             int                  `json:"adults" db:"adults"`
	Children           int                  `json:"children" db:"children"`
	Rooms              int                  `json:"rooms" db:"rooms"`
	TotalAmount        int64                `json:"total_amount" db:"total_amount"` // minor currency units
	Currency           string               `json:"currency" db:"currency"`
	Status             BookingStatus        `json:"status" db:"status"`
	PaymentStatus      BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentReference   *string              `json:"payment_reference,omitempty" db:"payment_reference"`
	CancellationReason *string              `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty" db:"cancelled_at"`
	SpecialRequests    *string              `json:"special_requests,omitempty" db:"special_requests"`
	CreatedAt          time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" db:"updated_at"`
}

// Nights returns the number of stay nights [CheckIn, CheckOut)
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// IsTerminal reports whether no further lifecycle transitions are legal
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusCompleted
}

// CancellableAt reports whether a guest-initiated cancellation is allowed
// at the given time: status pending/confirmed and more than 24 hours
// before check-in.
func (b *Booking) CancellableAt(now time.Time) error {
	switch b.Status {
	case BookingStatusCancelled:
		return NewAlreadyCancelledError()
	case BookingStatusCompleted:
		return NewNotCancellableError(b.Status)
	}
	if b.CheckIn.Sub(now) < CancellationWindow {
		return NewCancellationWindowError()
	}
	return nil
}

// CreateBookingRequest is the payload for POST /bookings
type CreateBookingRequest struct {
	HotelID         string       `json:"hotel_id" binding:"required"`
	RoomTypeID      string       `json:"room_type_id" binding:"required"`
	Guest           GuestDetails `json:"guest" binding:"required"`
	CheckIn         string       `json:"check_in" binding:"required"`  // YYYY-MM-DD
	CheckOut        string       `json:"check_out" binding:"required"` // YYYY-MM-DD
	Adults          int          `json:"adults" binding:"required,min=1"`
	Children        int          `json:"children"`
	Rooms           int          `json:"rooms"`
	SpecialRequests *string      `json:"special_requests,omitempty"`
}

// Validate checks the request and parses the stay dates
func (r *CreateBookingRequest) Validate() (checkIn, checkOut time.Time, err error) {
	checkIn, err = ParseStayDate(r.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, NewInvalidDateRangeError("check_in must be a valid YYYY-MM-DD date")
	}
	checkOut, err = ParseStayDate(r.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, NewInvalidDateRangeError("check_out must be a valid YYYY-MM-DD date")
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, NewInvalidDateRangeError("check_out must be after check_in")
	}
	if r.Rooms < 0 {
		return time.Time{}, time.Time{}, NewValidationError("rooms must be at least 1")
	}
	if err := r.Guest.Validate(); err != nil {
		return time.Time{}, time.Time{}, NewValidationError("%s", err.Error())
	}
	return checkIn, checkOut, nil
}

// CancelBookingRequest is the payload for POST /bookings/:id/cancel
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// UpdateBookingStatusRequest is the admin payload for PATCH /bookings/:id
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
	Notes  *string       `json:"notes,omitempty"`
}

// Validate rejects unknown target statuses before any lookup
func (r *UpdateBookingStatusRequest) Validate() error {
	switch r.Status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return nil
	}
	return errors.New("status must be one of pending, confirmed, cancelled, completed")
}

// BookingFilter narrows admin booking listings
type BookingFilter struct {
	HotelID    *uuid.UUID
	Status     *BookingStatus
	GuestEmail *string
	From       *time.Time // check-in on or after
	To         *time.Time // check-in before
	Limit      int
	Offset     int
}

// StayDateLayout is the wire format for check-in/check-out dates
const StayDateLayout = "2006-01-02"

// ParseStayDate parses a YYYY-MM-DD date at UTC midnight
func ParseStayDate(s string) (time.Time, error) {
	return time.Parse(StayDateLayout, s)
}

const confirmationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateConfirmationCode returns a human-readable confirmation code such
// as AH-7KQ2M9XF. Ambiguous characters are excluded from the alphabet.
func GenerateConfirmationCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand is documented never to fail on supported platforms;
		// fall back to a uuid-derived code rather than panic
		id := uuid.New().String()
		return "AH-" + id[:8]
	}
	for i, b := range buf {
		buf[i] = confirmationAlphabet[int(b)%len(confirmationAlphabet)]
	}
	return "AH-" + string(buf)
}
