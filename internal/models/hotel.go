package models

import (
	"time"

	"github.com/google/uuid"
)

// Hotel represents one property in the group
type Hotel struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Name        string    `json:"name" db:"name"`
	City        string    `json:"city" db:"city"`
	Country     string    `json:"country" db:"country"`
	Address     *string   `json:"address,omitempty" db:"address"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	Email       *string   `json:"email,omitempty" db:"email"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// RoomType represents a bookable room category within a hotel
type RoomType struct {
	ID            uuid.UUID `json:"id" db:"id"`
	HotelID       uuid.UUID `json:"hotel_id" db:"hotel_id"`
	Slug          string    `json:"slug" db:"slug"`
	Name          string    `json:"name" db:"name"`
	Description   *string   `json:"description,omitempty" db:"description"`
	MaxOccupancy  int       `json:"max_occupancy" db:"max_occupancy"`
	BaseRate      int64     `json:"base_rate" db:"base_rate"` // minor currency units per night
	Currency      string    `json:"currency" db:"currency"`
	TotalRooms    int       `json:"total_rooms" db:"total_rooms"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// RatePlan adjusts the base rate for a room type over a date span
type RatePlan struct {
	ID         uuid.UUID `json:"id" db:"id"`
	RoomTypeID uuid.UUID `json:"room_type_id" db:"room_type_id"`
	Name       string    `json:"name" db:"name"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
	// Nightly rate in minor units; overrides RoomType.BaseRate inside the span
	NightlyRate int64     `json:"nightly_rate" db:"nightly_rate"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
