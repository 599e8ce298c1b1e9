package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryPhase selects which counter a reservation touches. A hold made
// during checkout increments held_rooms; confirmation moves the units to
// booked_rooms.
type InventoryPhase string

const (
	InventoryPhaseHeld   InventoryPhase = "held"
	InventoryPhaseBooked InventoryPhase = "booked"
)

// AvailabilityRecord is the inventory counter for one (hotel, room type,
// date) triple. All mutation goes through the availability repository;
// no other component writes these counters.
type AvailabilityRecord struct {
	ID           uuid.UUID `json:"id" db:"id"`
	HotelID      uuid.UUID `json:"hotel_id" db:"hotel_id"`
	RoomTypeID   uuid.UUID `json:"room_type_id" db:"room_type_id"`
	Date         time.Time `json:"date" db:"date"`
	TotalRooms   int       `json:"total_rooms" db:"total_rooms"`
	BookedRooms  int       `json:"booked_rooms" db:"booked_rooms"`
	BlockedRooms int       `json:"blocked_rooms" db:"blocked_rooms"`
	HeldRooms    int       `json:"held_rooms" db:"held_rooms"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Available returns total − booked − blocked − held, floored at 0
func (r *AvailabilityRecord) Available() int {
	avail := r.TotalRooms - r.BookedRooms - r.BlockedRooms - r.HeldRooms
	if avail < 0 {
		return 0
	}
	return avail
}

// OccupancyRate returns booked/total as a percentage. A zero total yields
// 0 rather than a division error.
func (r *AvailabilityRecord) OccupancyRate() float64 {
	if r.TotalRooms == 0 {
		return 0
	}
	return float64(r.BookedRooms) / float64(r.TotalRooms) * 100
}

// AvailabilityDay is the read-model row returned by availability queries
type AvailabilityDay struct {
	Date          string  `json:"date"`
	TotalRooms    int     `json:"total_rooms"`
	BookedRooms   int     `json:"booked_rooms"`
	BlockedRooms  int     `json:"blocked_rooms"`
	HeldRooms     int     `json:"held_rooms"`
	Available     int     `json:"available"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// AdjustAvailabilityRequest is the admin payload for POST /availability.
// Seed initializes records for a date span; block adjusts blocked_rooms
// for a single date by delta (negative to unblock).
type AdjustAvailabilityRequest struct {
	HotelID    string `json:"hotel_id" binding:"required"`
	RoomTypeID string `json:"room_type_id" binding:"required"`
	Action     string `json:"action" binding:"required"` // "seed" or "block"
	Date       string `json:"date,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	TotalRooms int    `json:"total_rooms,omitempty"`
	Delta      int    `json:"delta,omitempty"`
}

// HoldStatus tracks the lifecycle of an inventory hold
type HoldStatus string

const (
	HoldStatusHeld      HoldStatus = "held"
	HoldStatusConfirmed HoldStatus = "confirmed"
	HoldStatusReleased  HoldStatus = "released"
)

// InventoryHold links a pending booking to the held units it owns, one row
// per booking covering every night of the stay. Holds expire after a
// bounded window and are reclaimed by the expiration sweep.
type InventoryHold struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BookingID  uuid.UUID  `json:"booking_id" db:"booking_id"`
	HotelID    uuid.UUID  `json:"hotel_id" db:"hotel_id"`
	RoomTypeID uuid.UUID  `json:"room_type_id" db:"room_type_id"`
	CheckIn    time.Time  `json:"check_in" db:"check_in"`
	CheckOut   time.Time  `json:"check_out" db:"check_out"`
	Units      int        `json:"units" db:"units"`
	Status     HoldStatus `json:"status" db:"status"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the hold has passed its TTL
func (h *InventoryHold) IsExpired() bool {
	return h.Status == HoldStatusHeld && time.Now().After(h.ExpiresAt)
}

// StayNights iterates the nights of [checkIn, checkOut) as UTC dates
func StayNights(checkIn, checkOut time.Time) []time.Time {
	nights := make([]time.Time, 0)
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}
