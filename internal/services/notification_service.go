package services

import (
	"fmt"
	"strings"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/aureliahotels/booking-backend/pkg/mailer"
	"github.com/sirupsen/logrus"
)

// NotificationService sends guest-facing booking email. Every send is
// best-effort: a delivery failure is logged and swallowed so it can never
// fail or roll back the lifecycle transition that triggered it.
type NotificationService struct {
	mailer mailer.Mailer // nil disables sending
	logger *logrus.Logger
}

// NewNotificationService creates a new NotificationService. A nil mailer
// turns the service into a no-op, which local development uses.
func NewNotificationService(m mailer.Mailer, logger *logrus.Logger) *NotificationService {
	return &NotificationService{mailer: m, logger: logger}
}

// SendBookingCreated tells the guest their booking is pending payment
func (s *NotificationService) SendBookingCreated(booking *models.Booking, guest *models.Guest, hotel *models.Hotel, roomType *models.RoomType) {
	subject := fmt.Sprintf("Booking %s received - %s", booking.ConfirmationCode, hotel.Name)
	body := s.stayDetails(booking, guest, hotel, roomType) +
		"\nYour booking is reserved and awaiting payment. Complete payment soon to secure your stay; unpaid reservations are released automatically.\n"
	s.send(booking, guest.Email, subject, body)
}

// SendBookingConfirmed tells the guest their stay is secured
func (s *NotificationService) SendBookingConfirmed(booking *models.Booking, guest *models.Guest, hotel *models.Hotel, roomType *models.RoomType) {
	subject := fmt.Sprintf("Booking %s confirmed - %s", booking.ConfirmationCode, hotel.Name)
	body := s.stayDetails(booking, guest, hotel, roomType) +
		"\nYour payment was received and your stay is confirmed. We look forward to welcoming you.\n"
	s.send(booking, guest.Email, subject, body)
}

// SendBookingCancelled acknowledges a cancellation
func (s *NotificationService) SendBookingCancelled(booking *models.Booking, guest *models.Guest, hotel *models.Hotel) {
	subject := fmt.Sprintf("Booking %s cancelled - %s", booking.ConfirmationCode, hotel.Name)
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", guest.FullName())
	fmt.Fprintf(&b, "Your booking %s at %s has been cancelled.\n", booking.ConfirmationCode, hotel.Name)
	if booking.CancellationReason != nil {
		fmt.Fprintf(&b, "Reason: %s\n", *booking.CancellationReason)
	}
	b.WriteString("\nIf a payment was taken, any refund is handled separately and will be confirmed by email.\n")
	s.send(booking, guest.Email, subject, b.String())
}

func (s *NotificationService) stayDetails(booking *models.Booking, guest *models.Guest, hotel *models.Hotel, roomType *models.RoomType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", guest.FullName())
	fmt.Fprintf(&b, "Confirmation code: %s\n", booking.ConfirmationCode)
	fmt.Fprintf(&b, "Hotel: %s\n", hotel.Name)
	fmt.Fprintf(&b, "Room: %s x%d\n", roomType.Name, booking.Rooms)
	fmt.Fprintf(&b, "Check-in: %s\n", booking.CheckIn.Format(models.StayDateLayout))
	fmt.Fprintf(&b, "Check-out: %s\n", booking.CheckOut.Format(models.StayDateLayout))
	fmt.Fprintf(&b, "Guests: %d adult(s), %d child(ren)\n", booking.Adults, booking.Children)
	fmt.Fprintf(&b, "Total: %s\n", formatAmount(booking.TotalAmount, booking.Currency))
	return b.String()
}

func (s *NotificationService) send(booking *models.Booking, to, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(to, subject, body); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"recipient":  to,
		}).Warn("Failed to send booking email")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"recipient":  to,
		"subject":    subject,
	}).Debug("Booking email sent")
}

// formatAmount renders minor currency units for email bodies
func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(amount)/100, strings.ToUpper(currency))
}
