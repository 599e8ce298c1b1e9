package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AvailabilityRepository owns the per-(hotel, room type, date) inventory
// counters and the hold rows that tie pending bookings to them. All counter
// mutation goes through this repository; concurrent reservations serialize
// on single-statement conditional updates, never on read-then-write.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new AvailabilityRepository
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, hotel_id, room_type_id, date, total_rooms, booked_rooms, blocked_rooms, held_rooms, updated_at`

// GetRange returns one record per date in [start, end), ordered by date.
// Dates with no seeded record are absent from the result.
func (r *AvailabilityRepository) GetRange(hotelID, roomTypeID uuid.UUID, start, end time.Time) ([]models.AvailabilityRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM availability_records
		WHERE hotel_id = $1 AND room_type_id = $2 AND date >= $3 AND date < $4
		ORDER BY date`, availabilityColumns)

	var records []models.AvailabilityRecord
	err := r.db.Select(&records, query, hotelID, roomTypeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability range: %w", err)
	}
	return records, nil
}

// SeedRange creates records for every date in [start, end) with the given
// total, leaving existing rows untouched except for the total count.
func (r *AvailabilityRepository) SeedRange(hotelID, roomTypeID uuid.UUID, start, end time.Time, totalRooms int) (int, error) {
	seeded := 0
	for _, night := range models.StayNights(start, end) {
		query := `
			INSERT INTO availability_records
				(id, hotel_id, room_type_id, date, total_rooms, booked_rooms, blocked_rooms, held_rooms, updated_at)
			VALUES ($1, $2, $3, $4, $5, 0, 0, 0, NOW())
			ON CONFLICT (hotel_id, room_type_id, date)
			DO UPDATE SET total_rooms = EXCLUDED.total_rooms, updated_at = NOW()`
		if _, err := r.db.Exec(query, uuid.New(), hotelID, roomTypeID, night, totalRooms); err != nil {
			return seeded, fmt.Errorf("failed to seed availability for %s: %w", night.Format(models.StayDateLayout), err)
		}
		seeded++
	}
	return seeded, nil
}

// reserveNightSQL atomically takes units for one night. The WHERE clause is
// the whole concurrency story: the decrement only lands when enough rooms
// remain, so concurrent reservations can never oversell.
const reserveHeldSQL = `
	UPDATE availability_records
	SET held_rooms = held_rooms + $4, updated_at = NOW()
	WHERE hotel_id = $1 AND room_type_id = $2 AND date = $3
	  AND total_rooms - booked_rooms - blocked_rooms - held_rooms >= $4`

const reserveBookedSQL = `
	UPDATE availability_records
	SET booked_rooms = booked_rooms + $4, updated_at = NOW()
	WHERE hotel_id = $1 AND room_type_id = $2 AND date = $3
	  AND total_rooms - booked_rooms - blocked_rooms - held_rooms >= $4`

// Reserve takes `units` for every night of [checkIn, checkOut) into the
// counter selected by phase, all-or-nothing across the range. Used for
// direct reservations that carry no hold row (e.g. walk-in imports);
// checkout-driven bookings go through ReserveWithHold.
func (r *AvailabilityRepository) Reserve(hotelID, roomTypeID uuid.UUID, checkIn, checkOut time.Time, units int, phase models.InventoryPhase) error {
	reserveSQL := reserveHeldSQL
	if phase == models.InventoryPhaseBooked {
		reserveSQL = reserveBookedSQL
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	for _, night := range models.StayNights(checkIn, checkOut) {
		result, err := tx.Exec(reserveSQL, hotelID, roomTypeID, night, units)
		if err != nil {
			return fmt.Errorf("failed to reserve %s: %w", night.Format(models.StayDateLayout), err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return models.NewCapacityUnavailableError(night.Format(models.StayDateLayout))
		}
	}

	return tx.Commit()
}

// Release returns units to availability for every night in range without a
// hold row, floored at 0 per night.
func (r *AvailabilityRepository) Release(hotelID, roomTypeID uuid.UUID, checkIn, checkOut time.Time, units int, phase models.InventoryPhase) error {
	column := "held_rooms"
	if phase == models.InventoryPhaseBooked {
		column = "booked_rooms"
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin release: %w", err)
	}
	defer tx.Rollback()

	for _, night := range models.StayNights(checkIn, checkOut) {
		query := fmt.Sprintf(`
			UPDATE availability_records
			SET %s = GREATEST(%s - $4, 0), updated_at = NOW()
			WHERE hotel_id = $1 AND room_type_id = $2 AND date = $3`, column, column)
		if _, err := tx.Exec(query, hotelID, roomTypeID, night, units); err != nil {
			return fmt.Errorf("failed to release %s for %s: %w", column, night.Format(models.StayDateLayout), err)
		}
	}

	return tx.Commit()
}

// ReserveWithHold takes `units` for every night of [checkIn, checkOut) into
// held_rooms and records the hold row, all inside one transaction. If any
// single night lacks capacity the transaction rolls back, so earlier nights
// keep their pre-call counts (all-or-nothing across the range). The error
// names the first conflicting date.
func (r *AvailabilityRepository) ReserveWithHold(hold *models.InventoryHold) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	for _, night := range models.StayNights(hold.CheckIn, hold.CheckOut) {
		result, err := tx.Exec(reserveHeldSQL, hold.HotelID, hold.RoomTypeID, night, hold.Units)
		if err != nil {
			return fmt.Errorf("failed to reserve %s: %w", night.Format(models.StayDateLayout), err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return models.NewCapacityUnavailableError(night.Format(models.StayDateLayout))
		}
	}

	hold.ID = uuid.New()
	hold.Status = models.HoldStatusHeld
	_, err = tx.Exec(`
		INSERT INTO inventory_holds
			(id, booking_id, hotel_id, room_type_id, check_in, check_out, units, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		hold.ID, hold.BookingID, hold.HotelID, hold.RoomTypeID,
		hold.CheckIn, hold.CheckOut, hold.Units, hold.Status, hold.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record inventory hold: %w", err)
	}

	return tx.Commit()
}

// ConfirmHold moves a booking's hold from held to booked counters exactly
// once. The conditional status flip on the hold row is the idempotency
// guard: a second confirmation finds no 'held' row and changes nothing.
func (r *AvailabilityRepository) ConfirmHold(bookingID uuid.UUID) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin hold confirmation: %w", err)
	}
	defer tx.Rollback()

	var hold models.InventoryHold
	err = tx.Get(&hold, `
		UPDATE inventory_holds SET status = 'confirmed', updated_at = NOW()
		WHERE booking_id = $1 AND status = 'held'
		RETURNING id, booking_id, hotel_id, room_type_id, check_in, check_out, units, status, expires_at, created_at, updated_at`,
		bookingID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to confirm hold: %w", err)
	}

	for _, night := range models.StayNights(hold.CheckIn, hold.CheckOut) {
		_, err := tx.Exec(`
			UPDATE availability_records
			SET held_rooms = GREATEST(held_rooms - $4, 0),
			    booked_rooms = booked_rooms + $4,
			    updated_at = NOW()
			WHERE hotel_id = $1 AND room_type_id = $2 AND date = $3`,
			hold.HotelID, hold.RoomTypeID, night, hold.Units)
		if err != nil {
			return false, fmt.Errorf("failed to convert hold for %s: %w", night.Format(models.StayDateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseHold returns a booking's held or booked units to availability.
// The hold row is locked before the status flip so two concurrent releases
// (a guest cancel racing the sweep) serialize, and the flip itself is still
// status-guarded. Decrements are floored at 0 so a double release cannot
// drive counters negative or raise available above total. Returns false
// when the hold was already released.
func (r *AvailabilityRepository) ReleaseHold(bookingID uuid.UUID) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin hold release: %w", err)
	}
	defer tx.Rollback()

	var hold models.InventoryHold
	err = tx.Get(&hold, `
		SELECT id, booking_id, hotel_id, room_type_id, check_in, check_out, units, status, expires_at, created_at, updated_at
		FROM inventory_holds
		WHERE booking_id = $1 AND status IN ('held', 'confirmed')
		FOR UPDATE`,
		bookingID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock hold: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE inventory_holds SET status = 'released', updated_at = NOW()
		WHERE id = $1 AND status IN ('held', 'confirmed')`,
		hold.ID)
	if err != nil {
		return false, fmt.Errorf("failed to release hold: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return false, nil
	}

	column := "held_rooms"
	if hold.Status == models.HoldStatusConfirmed {
		column = "booked_rooms"
	}

	for _, night := range models.StayNights(hold.CheckIn, hold.CheckOut) {
		query := fmt.Sprintf(`
			UPDATE availability_records
			SET %s = GREATEST(%s - $4, 0), updated_at = NOW()
			WHERE hotel_id = $1 AND room_type_id = $2 AND date = $3`, column, column)
		if _, err := tx.Exec(query, hold.HotelID, hold.RoomTypeID, night, hold.Units); err != nil {
			return false, fmt.Errorf("failed to release %s for %s: %w", column, night.Format(models.StayDateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// AdjustBlocked blocks or unblocks rooms for maintenance on a single date,
// independent of the booking flow. Floored at 0.
func (r *AvailabilityRepository) AdjustBlocked(hotelID, roomTypeID uuid.UUID, date time.Time, delta int) error {
	result, err := r.db.Exec(`
		UPDATE availability_records
		SET blocked_rooms = GREATEST(blocked_rooms + $4, 0), updated_at = NOW()
		WHERE hotel_id = $1 AND room_type_id = $2 AND date = $3`,
		hotelID, roomTypeID, date, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust blocked rooms: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewNotFoundError("availability record")
	}
	return nil
}

// GetExpiredHolds returns hold rows still in 'held' status past their TTL,
// oldest first, bounded by limit for the sweep job.
func (r *AvailabilityRepository) GetExpiredHolds(limit int) ([]models.InventoryHold, error) {
	query := `
		SELECT id, booking_id, hotel_id, room_type_id, check_in, check_out, units, status, expires_at, created_at, updated_at
		FROM inventory_holds
		WHERE status = 'held' AND expires_at < NOW()
		ORDER BY expires_at
		LIMIT $1`

	var holds []models.InventoryHold
	if err := r.db.Select(&holds, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query expired holds: %w", err)
	}
	return holds, nil
}

// ReleaseStaleHolds releases holds whose booking already reached a
// terminal state, a safety net mirroring the expiration sweep. Returns
// how many bookings were cleaned up.
func (r *AvailabilityRepository) ReleaseStaleHolds() (int, error) {
	query := `
		SELECT h.booking_id
		FROM inventory_holds h
		JOIN bookings b ON b.id = h.booking_id
		WHERE h.status = 'held' AND b.status IN ('cancelled', 'completed')`

	var bookingIDs []uuid.UUID
	if err := r.db.Select(&bookingIDs, query); err != nil {
		return 0, fmt.Errorf("failed to find stale holds: %w", err)
	}

	released := 0
	for _, id := range bookingIDs {
		ok, err := r.ReleaseHold(id)
		if err != nil {
			return released, err
		}
		if ok {
			released++
		}
	}
	return released, nil
}
