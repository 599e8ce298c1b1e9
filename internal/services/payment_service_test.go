package services

import (
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureliahotels/booking-backend/internal/config"
	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/models"
)

// fakeGateway stands in for the card processor. Unset hooks fail the call
// so a test notices an unexpected gateway round trip.
type fakeGateway struct {
	createIntent  func(amount int64, currency string, metadata map[string]string) (*GatewayIntent, error)
	confirmIntent func(intentID, paymentMethodRef string) (*GatewayIntent, error)
	createRefund  func(chargeID string, amount *int64, reason *string) (*GatewayRefund, error)
	verifyWebhook func(payload []byte, signature string) (*GatewayEvent, error)
}

func (f *fakeGateway) CreateIntent(amount int64, currency string, metadata map[string]string) (*GatewayIntent, error) {
	if f.createIntent == nil {
		return nil, errors.New("unexpected CreateIntent call")
	}
	return f.createIntent(amount, currency, metadata)
}

func (f *fakeGateway) ConfirmIntent(intentID, paymentMethodRef string) (*GatewayIntent, error) {
	if f.confirmIntent == nil {
		return nil, errors.New("unexpected ConfirmIntent call")
	}
	return f.confirmIntent(intentID, paymentMethodRef)
}

func (f *fakeGateway) CreateRefund(chargeID string, amount *int64, reason *string) (*GatewayRefund, error) {
	if f.createRefund == nil {
		return nil, errors.New("unexpected CreateRefund call")
	}
	return f.createRefund(chargeID, amount, reason)
}

func (f *fakeGateway) VerifyWebhook(payload []byte, signature string) (*GatewayEvent, error) {
	if f.verifyWebhook == nil {
		return nil, errors.New("unexpected VerifyWebhook call")
	}
	return f.verifyWebhook(payload, signature)
}

func setupPaymentTest(t *testing.T, gw PaymentGateway, cfg config.BookingConfig) (*PaymentService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	paymentRepo := database.NewPaymentRepository(sqlxDB)
	bookingRepo := database.NewBookingRepository(sqlxDB)
	service := NewPaymentService(paymentRepo, bookingRepo, nil, gw, cfg, logger)

	cleanup := func() {
		db.Close()
	}
	return service, mock, cleanup
}

func bookingRows(b *models.Booking) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "confirmation_code", "hotel_id", "room_type_id", "guest_id", "check_in", "check_out",
		"adults", "children", "rooms", "total_amount", "currency", "status", "payment_status",
		"payment_reference", "cancellation_reason", "cancelled_at", "special_requests", "created_at", "updated_at",
	}).AddRow(
		b.ID, b.ConfirmationCode, b.HotelID, b.RoomTypeID, b.GuestID, b.CheckIn, b.CheckOut,
		b.Adults, b.Children, b.Rooms, b.TotalAmount, b.Currency, b.Status, b.PaymentStatus,
		b.PaymentReference, b.CancellationReason, b.CancelledAt, b.SpecialRequests, b.CreatedAt, b.UpdatedAt,
	)
}

func paymentRows(p *models.Payment) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "intent_id", "charge_id", "amount", "currency", "status",
		"card_brand", "card_last4", "failure_code", "failure_message", "refund_id", "created_at", "updated_at",
	}).AddRow(
		p.ID, p.BookingID, p.IntentID, p.ChargeID, p.Amount, p.Currency, p.Status,
		p.CardBrand, p.CardLast4, p.FailureCode, p.FailureMessage, p.RefundID, p.CreatedAt, p.UpdatedAt,
	)
}

func pendingBooking(total int64) *models.Booking {
	now := time.Now()
	return &models.Booking{
		ID:               uuid.New(),
		ConfirmationCode: "AH-7KQ2M9XF",
		HotelID:          uuid.New(),
		RoomTypeID:       uuid.New(),
		GuestID:          uuid.New(),
		CheckIn:          now.AddDate(0, 0, 10),
		CheckOut:         now.AddDate(0, 0, 12),
		Adults:           2,
		Rooms:            1,
		TotalAmount:      total,
		Currency:         "USD",
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.BookingPaymentPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestCreateIntent_FullAmount(t *testing.T) {
	booking := pendingBooking(45000)
	gw := &fakeGateway{
		createIntent: func(amount int64, currency string, metadata map[string]string) (*GatewayIntent, error) {
			assert.Equal(t, int64(45000), amount)
			assert.Equal(t, "USD", currency)
			assert.Equal(t, booking.ID.String(), metadata["booking_id"])
			assert.Equal(t, booking.ConfirmationCode, metadata["confirmation_code"])
			return &GatewayIntent{ID: "pi_1", ClientSecret: "pi_1_secret", Status: "requires_action"}, nil
		},
	}
	service, mock, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), booking.ID, "pi_1", int64(45000), "USD",
			models.PaymentStatusRequiresAction, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := service.CreateIntent(&models.CreateIntentRequest{
		BookingID: booking.ID.String(),
		Amount:    45000,
		Currency:  "usd",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_1", resp.IntentID)
	assert.Equal(t, "pi_1_secret", resp.ClientSecret)
	assert.Equal(t, int64(45000), resp.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntent_AmountMismatch(t *testing.T) {
	booking := pendingBooking(45000)
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(booking))

	_, err := service.CreateIntent(&models.CreateIntentRequest{
		BookingID: booking.ID.String(),
		Amount:    44999,
		Currency:  "USD",
	})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeAmountMismatch, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntent_CurrencyMismatch(t *testing.T) {
	booking := pendingBooking(45000)
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(booking))

	_, err := service.CreateIntent(&models.CreateIntentRequest{
		BookingID: booking.ID.String(),
		Amount:    45000,
		Currency:  "EUR",
	})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeAmountMismatch, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntent_DepositAccepted(t *testing.T) {
	booking := pendingBooking(100000)
	gw := &fakeGateway{
		createIntent: func(amount int64, currency string, metadata map[string]string) (*GatewayIntent, error) {
			assert.Equal(t, int64(20000), amount)
			return &GatewayIntent{ID: "pi_dep", ClientSecret: "pi_dep_secret"}, nil
		},
	}
	cfg := config.BookingConfig{AllowDepositConfirm: true, DepositPercent: 20}
	service, mock, cleanup := setupPaymentTest(t, gw, cfg)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := service.CreateIntent(&models.CreateIntentRequest{
		BookingID: booking.ID.String(),
		Amount:    20000,
		Currency:  "USD",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(20000), resp.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntent_DepositRejectedWhenDisabled(t *testing.T) {
	booking := pendingBooking(100000)
	cfg := config.BookingConfig{AllowDepositConfirm: false, DepositPercent: 20}
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, cfg)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(booking))

	_, err := service.CreateIntent(&models.CreateIntentRequest{
		BookingID: booking.ID.String(),
		Amount:    20000,
		Currency:  "USD",
	})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeAmountMismatch, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntent_NonPendingBooking(t *testing.T) {
	booking := pendingBooking(45000)
	booking.Status = models.BookingStatusConfirmed
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(booking))

	_, err := service.CreateIntent(&models.CreateIntentRequest{
		BookingID: booking.ID.String(),
		Amount:    45000,
		Currency:  "USD",
	})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidState, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmIntent_SucceededIsIdempotent(t *testing.T) {
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	payment := &models.Payment{
		ID:        uuid.New(),
		BookingID: uuid.New(),
		IntentID:  "pi_done",
		Amount:    45000,
		Currency:  "USD",
		Status:    models.PaymentStatusSucceeded,
	}
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE intent_id").
		WithArgs("pi_done").
		WillReturnRows(paymentRows(payment))

	got, err := service.ConfirmIntent(&models.ConfirmIntentRequest{IntentID: "pi_done", PaymentMethodRef: "pm_1"})

	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)
	assert.Equal(t, models.PaymentStatusSucceeded, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmIntent_ClosedIntent(t *testing.T) {
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	payment := &models.Payment{
		ID:       uuid.New(),
		IntentID: "pi_failed",
		Amount:   45000,
		Currency: "USD",
		Status:   models.PaymentStatusFailed,
	}
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE intent_id").
		WithArgs("pi_failed").
		WillReturnRows(paymentRows(payment))

	_, err := service.ConfirmIntent(&models.ConfirmIntentRequest{IntentID: "pi_failed", PaymentMethodRef: "pm_1"})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodePayment, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmIntent_DeclineIsRecorded(t *testing.T) {
	gw := &fakeGateway{
		confirmIntent: func(intentID, paymentMethodRef string) (*GatewayIntent, error) {
			return nil, models.NewPaymentError("card_declined", "your card was declined")
		},
	}
	service, mock, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	payment := &models.Payment{
		ID:       uuid.New(),
		IntentID: "pi_open",
		Amount:   45000,
		Currency: "USD",
		Status:   models.PaymentStatusRequiresAction,
	}
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE intent_id").
		WithArgs("pi_open").
		WillReturnRows(paymentRows(payment))
	mock.ExpectExec("UPDATE payments").
		WithArgs("pi_open", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := service.ConfirmIntent(&models.ConfirmIntentRequest{IntentID: "pi_open", PaymentMethodRef: "pm_1"})

	require.Error(t, err)
	appErr := models.AsAppError(err)
	assert.Equal(t, models.ErrCodePayment, appErr.Code)
	assert.Contains(t, appErr.Message, "card_declined")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	gw := &fakeGateway{
		verifyWebhook: func(payload []byte, signature string) (*GatewayEvent, error) {
			return nil, models.NewSignatureInvalidError()
		},
	}
	service, _, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	_, err := service.HandleWebhook([]byte(`{}`), "bad-signature")

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeSignatureInvalid, models.AsAppError(err).Code)
}

func TestHandleWebhook_DuplicateDeliveryIsAcknowledgedWithoutApplying(t *testing.T) {
	gw := &fakeGateway{
		verifyWebhook: func(payload []byte, signature string) (*GatewayEvent, error) {
			return &GatewayEvent{
				ID:     "evt_1",
				Type:   "payment_intent.succeeded",
				Intent: &GatewayIntent{ID: "pi_1"},
			}, nil
		},
	}
	service, mock, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	// ON CONFLICT DO NOTHING reports zero rows for a replayed event id.
	mock.ExpectExec("INSERT INTO processed_webhook_events").
		WithArgs("evt_1", "payment_intent.succeeded").
		WillReturnResult(sqlmock.NewResult(0, 0))

	outcome, err := service.HandleWebhook([]byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, outcome.Duplicate)
	assert.False(t, outcome.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhook_PaymentFailedEvent(t *testing.T) {
	code := "card_declined"
	msg := "insufficient funds"
	gw := &fakeGateway{
		verifyWebhook: func(payload []byte, signature string) (*GatewayEvent, error) {
			return &GatewayEvent{
				ID:   "evt_2",
				Type: "payment_intent.payment_failed",
				Intent: &GatewayIntent{
					ID:          "pi_2",
					FailureCode: &code,
					FailureMsg:  &msg,
				},
			}, nil
		},
	}
	service, mock, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	mock.ExpectExec("INSERT INTO processed_webhook_events").
		WithArgs("evt_2", "payment_intent.payment_failed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE payments").
		WithArgs("pi_2", &code, &msg).
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome, err := service.HandleWebhook([]byte(`{}`), "sig")

	require.NoError(t, err)
	assert.False(t, outcome.Duplicate)
	assert.True(t, outcome.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// setupPaymentTestWithBooking wires a real booking service behind the
// payment service so webhook-driven confirmation runs end to end over a
// single mocked database.
func setupPaymentTestWithBooking(t *testing.T, gw PaymentGateway, cfg config.BookingConfig) (*PaymentService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	paymentRepo := database.NewPaymentRepository(sqlxDB)
	bookingRepo := database.NewBookingRepository(sqlxDB)
	availabilityRepo := database.NewAvailabilityRepository(sqlxDB)
	availabilitySvc := NewAvailabilityService(availabilityRepo, nil, 0, logger)
	hotelRepo := database.NewHotelRepository(sqlxDB)
	guestRepo := database.NewGuestRepository(sqlxDB)
	notifications := NewNotificationService(nil, logger)
	bookingSvc := NewBookingService(bookingRepo, availabilityRepo, availabilitySvc, hotelRepo, guestRepo, notifications, cfg, logger)
	service := NewPaymentService(paymentRepo, bookingRepo, bookingSvc, gw, cfg, logger)

	cleanup := func() {
		db.Close()
	}
	return service, mock, cleanup
}

func TestHandleWebhook_SucceededEventConfirmsBookingOnce(t *testing.T) {
	charge := "ch_6"
	gw := &fakeGateway{
		verifyWebhook: func(payload []byte, signature string) (*GatewayEvent, error) {
			return &GatewayEvent{
				ID:   "evt_6",
				Type: "payment_intent.succeeded",
				Intent: &GatewayIntent{
					ID:       "pi_6",
					ChargeID: &charge,
					Status:   "succeeded",
				},
			}, nil
		},
	}
	service, mock, cleanup := setupPaymentTestWithBooking(t, gw, config.BookingConfig{})
	defer cleanup()

	booking := pendingBooking(45000)
	confirmed := *booking
	confirmed.Status = models.BookingStatusConfirmed
	payment := &models.Payment{
		ID:        uuid.New(),
		BookingID: booking.ID,
		IntentID:  "pi_6",
		ChargeID:  &charge,
		Amount:    45000,
		Currency:  "USD",
		Status:    models.PaymentStatusSucceeded,
	}
	hold := &models.InventoryHold{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		HotelID:    booking.HotelID,
		RoomTypeID: booking.RoomTypeID,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckIn.AddDate(0, 0, 1),
		Units:      1,
		Status:     models.HoldStatusConfirmed,
		ExpiresAt:  time.Now(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// Ordered expectations: exactly one pending → confirmed transition and
	// one held → booked conversion for the whole delivery.
	mock.ExpectExec("INSERT INTO processed_webhook_events").
		WithArgs("evt_6", "payment_intent.succeeded").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE payments").
		WithArgs("pi_6", "ch_6", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE intent_id").
		WithArgs("pi_6").
		WillReturnRows(paymentRows(payment))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec("UPDATE bookings").
		WithArgs(booking.ID, "pi_6").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE inventory_holds SET status = 'confirmed'").
		WithArgs(booking.ID).
		WillReturnRows(inventoryHoldRows(hold))
	mock.ExpectExec("UPDATE availability_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(bookingRows(&confirmed))
	mock.ExpectQuery("SELECT (.+) FROM guests WHERE id").
		WithArgs(booking.GuestID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("UPDATE bookings SET payment_status").
		WithArgs(booking.ID, models.BookingPaymentPaid).
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome, err := service.HandleWebhook([]byte(`{}`), "sig")

	require.NoError(t, err)
	assert.False(t, outcome.Duplicate)
	assert.True(t, outcome.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhook_ApplyFailureUnrecordsEvent(t *testing.T) {
	charge := "ch_7"
	gw := &fakeGateway{
		verifyWebhook: func(payload []byte, signature string) (*GatewayEvent, error) {
			return &GatewayEvent{
				ID:   "evt_7",
				Type: "payment_intent.succeeded",
				Intent: &GatewayIntent{
					ID:       "pi_7",
					ChargeID: &charge,
					Status:   "succeeded",
				},
			}, nil
		},
	}
	service, mock, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	// The event id is claimed first, then applying fails. The claim must
	// be rolled back so the processor's retry is not dropped as a
	// duplicate.
	mock.ExpectExec("INSERT INTO processed_webhook_events").
		WithArgs("evt_7", "payment_intent.succeeded").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE payments").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec("DELETE FROM processed_webhook_events").
		WithArgs("evt_7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := service.HandleWebhook([]byte(`{}`), "sig")

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhook_UnhandledEventTypeIsIgnored(t *testing.T) {
	gw := &fakeGateway{
		verifyWebhook: func(payload []byte, signature string) (*GatewayEvent, error) {
			return &GatewayEvent{ID: "evt_3", Type: "customer.created"}, nil
		},
	}
	service, mock, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	mock.ExpectExec("INSERT INTO processed_webhook_events").
		WithArgs("evt_3", "customer.created").
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome, err := service.HandleWebhook([]byte(`{}`), "sig")

	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefund_AlreadyRefundedIsIdempotent(t *testing.T) {
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	charge := "ch_1"
	refundID := "re_1"
	payment := &models.Payment{
		ID:        uuid.New(),
		BookingID: uuid.New(),
		IntentID:  "pi_1",
		ChargeID:  &charge,
		Amount:    45000,
		Currency:  "USD",
		Status:    models.PaymentStatusRefunded,
		RefundID:  &refundID,
	}
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE charge_id").
		WithArgs("ch_1").
		WillReturnRows(paymentRows(payment))

	got, err := service.CreateRefund(&models.RefundRequest{ChargeID: "ch_1"})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefund_RejectsUnsettledCharge(t *testing.T) {
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	charge := "ch_2"
	payment := &models.Payment{
		ID:       uuid.New(),
		IntentID: "pi_2",
		ChargeID: &charge,
		Amount:   45000,
		Currency: "USD",
		Status:   models.PaymentStatusRequiresAction,
	}
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE charge_id").
		WithArgs("ch_2").
		WillReturnRows(paymentRows(payment))

	_, err := service.CreateRefund(&models.RefundRequest{ChargeID: "ch_2"})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodePayment, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefund_AmountAboveChargeIsRejected(t *testing.T) {
	service, mock, cleanup := setupPaymentTest(t, &fakeGateway{}, config.BookingConfig{})
	defer cleanup()

	charge := "ch_3"
	payment := &models.Payment{
		ID:       uuid.New(),
		IntentID: "pi_3",
		ChargeID: &charge,
		Amount:   45000,
		Currency: "USD",
		Status:   models.PaymentStatusSucceeded,
	}
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE charge_id").
		WithArgs("ch_3").
		WillReturnRows(paymentRows(payment))

	over := int64(45001)
	_, err := service.CreateRefund(&models.RefundRequest{ChargeID: "ch_3", Amount: &over})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefund_FullFlow(t *testing.T) {
	gw := &fakeGateway{
		createRefund: func(chargeID string, amount *int64, reason *string) (*GatewayRefund, error) {
			assert.Equal(t, "ch_4", chargeID)
			assert.Nil(t, amount)
			return &GatewayRefund{ID: "re_4", ChargeID: "ch_4", Amount: 45000, Status: "succeeded"}, nil
		},
	}
	service, mock, cleanup := setupPaymentTest(t, gw, config.BookingConfig{})
	defer cleanup()

	charge := "ch_4"
	bookingID := uuid.New()
	payment := &models.Payment{
		ID:        uuid.New(),
		BookingID: bookingID,
		IntentID:  "pi_4",
		ChargeID:  &charge,
		Amount:    45000,
		Currency:  "USD",
		Status:    models.PaymentStatusSucceeded,
	}
	refunded := *payment
	refundID := "re_4"
	refunded.Status = models.PaymentStatusRefunded
	refunded.RefundID = &refundID

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE charge_id").
		WithArgs("ch_4").
		WillReturnRows(paymentRows(payment))
	mock.ExpectExec("UPDATE payments").
		WithArgs("ch_4", "re_4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET payment_status").
		WithArgs(bookingID, models.BookingPaymentRefunded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE charge_id").
		WithArgs("ch_4").
		WillReturnRows(paymentRows(&refunded))

	got, err := service.CreateRefund(&models.RefundRequest{ChargeID: "ch_4"})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, got.Status)
	require.NotNil(t, got.RefundID)
	assert.Equal(t, "re_4", *got.RefundID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
