package database

import (
	"database/sql"
	"fmt"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// HotelRepository handles hotel and room type database operations
type HotelRepository struct {
	db *sqlx.DB
}

// NewHotelRepository creates a new HotelRepository
func NewHotelRepository(db *sqlx.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

const hotelColumns = `id, slug, name, city, country, address, phone, email, description, is_active, created_at, updated_at`

// GetHotelByID retrieves a hotel by ID, nil when missing
func (r *HotelRepository) GetHotelByID(id uuid.UUID) (*models.Hotel, error) {
	var hotel models.Hotel
	query := fmt.Sprintf(`SELECT %s FROM hotels WHERE id = $1`, hotelColumns)
	err := r.db.Get(&hotel, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return &hotel, nil
}

// GetHotelBySlug retrieves a hotel by its URL slug, nil when missing
func (r *HotelRepository) GetHotelBySlug(slug string) (*models.Hotel, error) {
	var hotel models.Hotel
	query := fmt.Sprintf(`SELECT %s FROM hotels WHERE slug = $1`, hotelColumns)
	err := r.db.Get(&hotel, query, slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel by slug: %w", err)
	}
	return &hotel, nil
}

// ListHotels returns all active hotels ordered by name
func (r *HotelRepository) ListHotels() ([]models.Hotel, error) {
	query := fmt.Sprintf(`SELECT %s FROM hotels WHERE is_active = true ORDER BY name`, hotelColumns)
	var hotels []models.Hotel
	if err := r.db.Select(&hotels, query); err != nil {
		return nil, fmt.Errorf("failed to list hotels: %w", err)
	}
	return hotels, nil
}

const roomTypeColumns = `id, hotel_id, slug, name, description, max_occupancy, base_rate, currency, total_rooms, is_active, created_at, updated_at`

// GetRoomTypeByID retrieves a room type by ID, nil when missing
func (r *HotelRepository) GetRoomTypeByID(id uuid.UUID) (*models.RoomType, error) {
	var roomType models.RoomType
	query := fmt.Sprintf(`SELECT %s FROM room_types WHERE id = $1`, roomTypeColumns)
	err := r.db.Get(&roomType, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room type: %w", err)
	}
	return &roomType, nil
}

// ListRoomTypesByHotel returns the active room types for a hotel
func (r *HotelRepository) ListRoomTypesByHotel(hotelID uuid.UUID) ([]models.RoomType, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_types WHERE hotel_id = $1 AND is_active = true ORDER BY base_rate`, roomTypeColumns)
	var roomTypes []models.RoomType
	if err := r.db.Select(&roomTypes, query, hotelID); err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	return roomTypes, nil
}

// GetNightlyRate returns the rate in minor units for one night, preferring
// a rate plan covering the date over the room type base rate.
func (r *HotelRepository) GetNightlyRate(roomTypeID uuid.UUID, date string) (int64, error) {
	var rate int64
	query := `
		SELECT nightly_rate FROM rate_plans
		WHERE room_type_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY created_at DESC LIMIT 1`
	err := r.db.Get(&rate, query, roomTypeID, date)
	if err == nil {
		return rate, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up rate plan: %w", err)
	}

	err = r.db.Get(&rate, `SELECT base_rate FROM room_types WHERE id = $1`, roomTypeID)
	if err != nil {
		return 0, fmt.Errorf("failed to get base rate: %w", err)
	}
	return rate, nil
}

// UpsertRatePlan inserts or replaces a rate plan row for its span
func (r *HotelRepository) UpsertRatePlan(plan *models.RatePlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	query := `
		INSERT INTO rate_plans (id, room_type_id, name, start_date, end_date, nightly_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (room_type_id, start_date, end_date)
		DO UPDATE SET name = EXCLUDED.name, nightly_rate = EXCLUDED.nightly_rate, updated_at = NOW()`
	_, err := r.db.Exec(query, plan.ID, plan.RoomTypeID, plan.Name, plan.StartDate, plan.EndDate, plan.NightlyRate)
	if err != nil {
		return fmt.Errorf("failed to upsert rate plan: %w", err)
	}
	return nil
}
