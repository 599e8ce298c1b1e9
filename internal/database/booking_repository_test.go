package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureliahotels/booking-backend/internal/models"
)

func setupBookingTest(t *testing.T) (*BookingRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewBookingRepository(sqlxDB)

	cleanup := func() {
		db.Close()
	}
	return repo, mock, cleanup
}

func TestBookingCreate_AssignsIdentityAndPendingStatus(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	booking := &models.Booking{
		HotelID:     uuid.New(),
		RoomTypeID:  uuid.New(),
		GuestID:     uuid.New(),
		CheckIn:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		Adults:      2,
		Rooms:       1,
		TotalAmount: 45000,
		Currency:    "USD",
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), booking.HotelID, booking.RoomTypeID, booking.GuestID,
			booking.CheckIn, booking.CheckOut, 2, 0, 1, int64(45000), "USD",
			models.BookingStatusPending, models.BookingPaymentPending,
			nil, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(booking)

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, booking.ID)
	assert.Regexp(t, `^AH-[A-Z2-9]{8}$`, booking.ConfirmationCode)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, models.BookingPaymentPending, booking.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkConfirmed_OnlyTransitionsPending(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	id := uuid.New()

	mock.ExpectExec("UPDATE bookings").
		WithArgs(id, "pi_123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkConfirmed(id, "pi_123")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Second confirmation finds no pending row.
	mock.ExpectExec("UPDATE bookings").
		WithArgs(id, "pi_123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.MarkConfirmed(id, "pi_123")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCancelled_TerminalBookingIsUntouched(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	id := uuid.New()
	reason := "guest request"

	mock.ExpectExec("UPDATE bookings").
		WithArgs(id, &reason).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkCancelled(id, &reason)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPending_LeavesConfirmedBookingAlone(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	id := uuid.New()
	reason := "payment window expired"

	mock.ExpectExec("UPDATE bookings").
		WithArgs(id, &reason).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.CancelPending(id, &reason)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPending_CancelsPendingBooking(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	id := uuid.New()
	reason := "payment window expired"

	mock.ExpectExec("UPDATE bookings").
		WithArgs(id, &reason).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.CancelPending(id, &reason)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_RejectsTransitionOutOfTerminalState(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	id := uuid.New()

	mock.ExpectExec("UPDATE bookings").
		WithArgs(id, models.BookingStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(id, models.BookingStatusConfirmed)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_MissingBookingReturnsNil(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	booking, err := repo.GetByID(id)

	assert.NoError(t, err)
	assert.Nil(t, booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByConfirmationCode_NormalizesInput(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE confirmation_code").
		WithArgs("AH-7KQ2M9XF").
		WillReturnError(sql.ErrNoRows)

	booking, err := repo.GetByConfirmationCode("  ah-7kq2m9xf ")

	assert.NoError(t, err)
	assert.Nil(t, booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AppliesFiltersAndDefaultLimit(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	hotelID := uuid.New()
	status := models.BookingStatusConfirmed
	filter := models.BookingFilter{HotelID: &hotelID, Status: &status}

	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs(hotelID, status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(hotelID, status, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	bookings, total, err := repo.List(filter)

	assert.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, int64(0), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteDueStays(t *testing.T) {
	repo, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectExec("UPDATE bookings").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	completed, err := repo.CompleteDueStays(now)

	assert.NoError(t, err)
	assert.Equal(t, 3, completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
