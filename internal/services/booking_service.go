package services

import (
	"time"

	"github.com/aureliahotels/booking-backend/internal/config"
	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingService owns the authoritative status of a booking and enforces
// transition legality: pending → confirmed → completed, with
// pending/confirmed → cancelled terminal. Inventory moves through the
// availability ledger on every transition; notifications are best-effort
// and never roll back a transition.
type BookingService struct {
	bookingRepo      *database.BookingRepository
	availabilityRepo *database.AvailabilityRepository
	availabilitySvc  *AvailabilityService
	hotelRepo        *database.HotelRepository
	guestRepo        *database.GuestRepository
	notifications    *NotificationService
	bookingCfg       config.BookingConfig
	logger           *logrus.Logger
	now              func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	availabilityRepo *database.AvailabilityRepository,
	availabilitySvc *AvailabilityService,
	hotelRepo *database.HotelRepository,
	guestRepo *database.GuestRepository,
	notifications *NotificationService,
	bookingCfg config.BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:      bookingRepo,
		availabilityRepo: availabilityRepo,
		availabilitySvc:  availabilitySvc,
		hotelRepo:        hotelRepo,
		guestRepo:        guestRepo,
		notifications:    notifications,
		bookingCfg:       bookingCfg,
		logger:           logger,
		now:              time.Now,
	}
}

// Create validates the request, reserves every night of the stay
// all-or-nothing, and records a pending booking with a TTL-bounded
// inventory hold. No partial increments survive a capacity failure.
func (s *BookingService) Create(req *models.CreateBookingRequest) (*models.Booking, error) {
	checkIn, checkOut, err := req.Validate()
	if err != nil {
		return nil, err
	}

	hotelID, err := uuid.Parse(req.HotelID)
	if err != nil {
		return nil, models.NewValidationError("hotel_id must be a valid uuid")
	}
	roomTypeID, err := uuid.Parse(req.RoomTypeID)
	if err != nil {
		return nil, models.NewValidationError("room_type_id must be a valid uuid")
	}

	hotel, err := s.hotelRepo.GetHotelByID(hotelID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if hotel == nil || !hotel.IsActive {
		return nil, models.NewNotFoundError("hotel")
	}

	roomType, err := s.hotelRepo.GetRoomTypeByID(roomTypeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if roomType == nil || roomType.HotelID != hotelID {
		return nil, models.NewNotFoundError("room type")
	}

	rooms := req.Rooms
	if rooms == 0 {
		rooms = 1
	}
	if req.Adults+req.Children > roomType.MaxOccupancy*rooms {
		return nil, models.NewValidationError(
			"occupancy of %d exceeds capacity of %d for %d room(s)",
			req.Adults+req.Children, roomType.MaxOccupancy*rooms, rooms)
	}

	guest, err := s.guestRepo.UpsertByEmail(&req.Guest)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	total, err := s.priceStay(roomTypeID, checkIn, checkOut, rooms)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	booking := &models.Booking{
		HotelID:         hotelID,
		RoomTypeID:      roomTypeID,
		GuestID:         guest.ID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          req.Adults,
		Children:        req.Children,
		Rooms:           rooms,
		TotalAmount:     total,
		Currency:        roomType.Currency,
		SpecialRequests: req.SpecialRequests,
	}
	if err := s.bookingRepo.Create(booking); err != nil {
		return nil, models.NewInternalError(err)
	}

	hold := &models.InventoryHold{
		BookingID:  booking.ID,
		HotelID:    hotelID,
		RoomTypeID: roomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Units:      rooms,
		ExpiresAt:  s.now().Add(s.bookingCfg.HoldTTL),
	}
	if err := s.availabilityRepo.ReserveWithHold(hold); err != nil {
		// the reservation transaction rolled back; close out the booking
		// row so it cannot be paid for later
		reason := "inventory unavailable at creation"
		if _, cancelErr := s.bookingRepo.MarkCancelled(booking.ID, &reason); cancelErr != nil {
			s.logger.WithError(cancelErr).WithField("booking_id", booking.ID).Error("Failed to void booking after reservation failure")
		}
		return nil, err
	}
	s.availabilitySvc.Invalidate(hotelID, roomTypeID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"confirmation_code": booking.ConfirmationCode,
		"hotel_id":          hotelID,
		"room_type_id":      roomTypeID,
		"check_in":          req.CheckIn,
		"check_out":         req.CheckOut,
		"rooms":             rooms,
		"total_amount":      total,
	}).Info("Booking created")

	s.notifications.SendBookingCreated(booking, guest, hotel, roomType)
	return booking, nil
}

// Confirm transitions pending → confirmed and moves the held inventory to
// booked. Idempotent: confirming an already-confirmed booking with the
// same payment reference succeeds without touching inventory twice.
func (s *BookingService) Confirm(bookingID uuid.UUID, paymentRef string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking")
	}

	switch booking.Status {
	case models.BookingStatusCancelled, models.BookingStatusCompleted:
		return nil, models.NewInvalidStateError(booking.Status, "confirm")
	case models.BookingStatusConfirmed:
		if booking.PaymentReference != nil && *booking.PaymentReference != paymentRef {
			return nil, models.NewInvalidStateError(booking.Status, "confirm with a different payment reference")
		}
		// retried confirmation: make sure the hold conversion landed, then
		// report success
		if _, err := s.confirmInventory(booking); err != nil {
			return nil, err
		}
		return booking, nil
	}

	confirmed, err := s.bookingRepo.MarkConfirmed(bookingID, paymentRef)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !confirmed {
		// lost a race with another confirmation or a cancellation; re-read
		// and take the appropriate branch
		return s.Confirm(bookingID, paymentRef)
	}

	if _, err := s.confirmInventory(booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        bookingID,
		"confirmation_code": booking.ConfirmationCode,
		"payment_reference": paymentRef,
	}).Info("Booking confirmed")

	booking, err = s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	s.sendConfirmationNotification(booking)
	return booking, nil
}

// confirmInventory converts the booking's hold from held to booked
// exactly once. A failure here must not masquerade as success: the
// booking row is already confirmed, so the caller retries until the
// conversion lands.
func (s *BookingService) confirmInventory(booking *models.Booking) (bool, error) {
	converted, err := s.availabilityRepo.ConfirmHold(booking.ID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"operation":  "confirm_hold",
		}).Error("Inventory conversion failed after booking confirmation; retry required")
		return false, models.NewInternalError(err)
	}
	if converted {
		s.availabilitySvc.Invalidate(booking.HotelID, booking.RoomTypeID)
	}
	return converted, nil
}

// Cancel applies a guest-initiated cancellation, enforcing the 24-hour
// window, and releases every held or booked night of the stay.
func (s *BookingService) Cancel(bookingID uuid.UUID, reason *string, actor string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking")
	}

	if err := booking.CancellableAt(s.now()); err != nil {
		return nil, err
	}

	return s.cancel(booking, reason, actor)
}

func (s *BookingService) cancel(booking *models.Booking, reason *string, actor string) (*models.Booking, error) {
	cancelled, err := s.bookingRepo.MarkCancelled(booking.ID, reason)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !cancelled {
		return nil, models.NewAlreadyCancelledError()
	}

	released, err := s.availabilityRepo.ReleaseHold(booking.ID)
	if err != nil {
		// the booking is cancelled but inventory was not restored; the
		// stale-hold sweep picks this up, so log loudly and surface the
		// failure instead of claiming clean success
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"operation":  "release_hold",
		}).Error("Inventory release failed after cancellation")
		return nil, models.NewInternalError(err)
	}
	if released {
		s.availabilitySvc.Invalidate(booking.HotelID, booking.RoomTypeID)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"confirmation_code": booking.ConfirmationCode,
		"actor":             actor,
		"reason":            reason,
	}).Info("Booking cancelled")

	updated, err := s.bookingRepo.GetByID(booking.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	s.sendCancellationNotification(updated)
	return updated, nil
}

// AdminUpdateStatus applies an administrative override. It bypasses the
// 24-hour cancellation window but terminal states stay closed.
func (s *BookingService) AdminUpdateStatus(bookingID uuid.UUID, req *models.UpdateBookingStatusRequest, actor string) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking")
	}

	if booking.Status == req.Status {
		return booking, nil
	}

	if booking.IsTerminal() {
		if booking.Status == models.BookingStatusCancelled {
			return nil, models.NewAlreadyCancelledError()
		}
		if req.Status == models.BookingStatusCancelled {
			return nil, models.NewNotCancellableError(booking.Status)
		}
		return nil, models.NewInvalidStateError(booking.Status, "update")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"actor":      actor,
		"from":       booking.Status,
		"to":         req.Status,
		"notes":      req.Notes,
	}).Warn("Administrative booking status override")

	if req.Status == models.BookingStatusCancelled {
		reason := "cancelled by administrator"
		if req.Notes != nil {
			reason = *req.Notes
		}
		return s.cancel(booking, &reason, actor)
	}

	updated, err := s.bookingRepo.UpdateStatus(bookingID, req.Status)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !updated {
		return nil, models.NewInvalidStateError(booking.Status, "update")
	}

	if req.Status == models.BookingStatusConfirmed {
		if _, err := s.confirmInventory(booking); err != nil {
			return nil, err
		}
	}

	return s.bookingRepo.GetByID(bookingID)
}

// ExpirePendingBooking is invoked by the hold expiration sweep. The cancel
// is conditional on the booking still being pending, so a payment that
// confirms concurrently always wins: when the cancel does not land the hold
// is left for the confirmation path (or the stale-hold cleanup) and no
// inventory is touched. Safe to call repeatedly.
func (s *BookingService) ExpirePendingBooking(bookingID uuid.UUID) error {
	reason := "payment window expired"
	cancelled, err := s.bookingRepo.CancelPending(bookingID, &reason)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !cancelled {
		return nil
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return models.NewInternalError(err)
	}

	released, err := s.availabilityRepo.ReleaseHold(bookingID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if released && booking != nil {
		s.availabilitySvc.Invalidate(booking.HotelID, booking.RoomTypeID)
		s.logger.WithFields(logrus.Fields{
			"booking_id":        bookingID,
			"confirmation_code": booking.ConfirmationCode,
		}).Info("Expired hold reclaimed")
	}
	return nil
}

// CompleteDueStays moves confirmed bookings past their check-out to
// completed. Driven by the nightly cron job.
func (s *BookingService) CompleteDueStays() (int, error) {
	completed, err := s.bookingRepo.CompleteDueStays(s.now())
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if completed > 0 {
		s.logger.WithField("count", completed).Info("Completed due stays")
	}
	return completed, nil
}

// GetByID returns a booking or NOT_FOUND
func (s *BookingService) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking")
	}
	return booking, nil
}

// GetByConfirmationCode returns a booking or NOT_FOUND
func (s *BookingService) GetByConfirmationCode(code string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByConfirmationCode(code)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking")
	}
	return booking, nil
}

// List returns bookings matching the filter plus the unpaginated total
func (s *BookingService) List(filter models.BookingFilter) ([]models.Booking, int64, error) {
	bookings, total, err := s.bookingRepo.List(filter)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return bookings, total, nil
}

// priceStay sums the nightly rate for every night of the stay times the
// room count, in minor currency units.
func (s *BookingService) priceStay(roomTypeID uuid.UUID, checkIn, checkOut time.Time, rooms int) (int64, error) {
	var total int64
	for _, night := range models.StayNights(checkIn, checkOut) {
		rate, err := s.hotelRepo.GetNightlyRate(roomTypeID, night.Format(models.StayDateLayout))
		if err != nil {
			return 0, err
		}
		total += rate * int64(rooms)
	}
	return total, nil
}

func (s *BookingService) sendConfirmationNotification(booking *models.Booking) {
	if booking == nil {
		return
	}
	guest, err := s.guestRepo.GetByID(booking.GuestID)
	if err != nil || guest == nil {
		s.logger.WithField("booking_id", booking.ID).Warn("Skipping confirmation email, guest lookup failed")
		return
	}
	hotel, err := s.hotelRepo.GetHotelByID(booking.HotelID)
	if err != nil || hotel == nil {
		return
	}
	roomType, err := s.hotelRepo.GetRoomTypeByID(booking.RoomTypeID)
	if err != nil || roomType == nil {
		return
	}
	s.notifications.SendBookingConfirmed(booking, guest, hotel, roomType)
}

func (s *BookingService) sendCancellationNotification(booking *models.Booking) {
	if booking == nil {
		return
	}
	guest, err := s.guestRepo.GetByID(booking.GuestID)
	if err != nil || guest == nil {
		return
	}
	hotel, err := s.hotelRepo.GetHotelByID(booking.HotelID)
	if err != nil || hotel == nil {
		return
	}
	s.notifications.SendBookingCancelled(booking, guest, hotel)
}
