package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GuestRepository handles guest database operations
type GuestRepository struct {
	db *sqlx.DB
}

// NewGuestRepository creates a new GuestRepository
func NewGuestRepository(db *sqlx.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

const guestColumns = `id, first_name, last_name, email, phone, created_at, updated_at`

// GetByID retrieves a guest by ID, nil when missing
func (r *GuestRepository) GetByID(id uuid.UUID) (*models.Guest, error) {
	var guest models.Guest
	query := fmt.Sprintf(`SELECT %s FROM guests WHERE id = $1`, guestColumns)
	err := r.db.Get(&guest, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return &guest, nil
}

// UpsertByEmail creates a guest or refreshes name/phone on the existing
// row keyed by email, returning the stored guest either way.
func (r *GuestRepository) UpsertByEmail(details *models.GuestDetails) (*models.Guest, error) {
	var guest models.Guest
	query := fmt.Sprintf(`
		INSERT INTO guests (id, first_name, last_name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email)
		DO UPDATE SET first_name = EXCLUDED.first_name,
		              last_name = EXCLUDED.last_name,
		              phone = COALESCE(EXCLUDED.phone, guests.phone),
		              updated_at = EXCLUDED.updated_at
		RETURNING %s`, guestColumns)

	err := r.db.Get(&guest, query, uuid.New(), details.FirstName, details.LastName, details.Email, details.Phone, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert guest: %w", err)
	}
	return &guest, nil
}
