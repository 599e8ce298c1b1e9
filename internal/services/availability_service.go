package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AvailabilityService is the ledger front door: range queries with derived
// occupancy, all-or-nothing reservations, floored releases and admin
// block adjustments. When a Redis client is supplied, range queries go
// through a versioned read-through cache that mutations invalidate.
type AvailabilityService struct {
	availabilityRepo *database.AvailabilityRepository
	cache            *redis.Client
	cacheTTL         time.Duration
	logger           *logrus.Logger
}

// NewAvailabilityService creates a new AvailabilityService. cache may be
// nil to disable caching.
func NewAvailabilityService(
	availabilityRepo *database.AvailabilityRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger *logrus.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		availabilityRepo: availabilityRepo,
		cache:            cache,
		cacheTTL:         cacheTTL,
		logger:           logger,
	}
}

// GetAvailabilityRange returns one row per seeded date in [start, end)
// with counters, derived available and occupancy rate. Read-only.
func (s *AvailabilityService) GetAvailabilityRange(hotelID, roomTypeID uuid.UUID, start, end time.Time) ([]models.AvailabilityDay, error) {
	if !end.After(start) {
		return nil, models.NewInvalidDateRangeError("end_date must be after start_date")
	}

	cacheKey := s.rangeCacheKey(hotelID, roomTypeID, start, end)
	if days, ok := s.cacheGet(cacheKey); ok {
		return days, nil
	}

	records, err := s.availabilityRepo.GetRange(hotelID, roomTypeID, start, end)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	days := make([]models.AvailabilityDay, len(records))
	for i, rec := range records {
		days[i] = models.AvailabilityDay{
			Date:          rec.Date.Format(models.StayDateLayout),
			TotalRooms:    rec.TotalRooms,
			BookedRooms:   rec.BookedRooms,
			BlockedRooms:  rec.BlockedRooms,
			HeldRooms:     rec.HeldRooms,
			Available:     rec.Available(),
			OccupancyRate: rec.OccupancyRate(),
		}
	}

	s.cacheSet(cacheKey, days)
	return days, nil
}

// Reserve takes units for every night in range, all-or-nothing. The
// returned error is CAPACITY_UNAVAILABLE naming the first conflicting
// date when any night lacks capacity.
func (s *AvailabilityService) Reserve(hotelID, roomTypeID uuid.UUID, checkIn, checkOut time.Time, units int, phase models.InventoryPhase) error {
	if units <= 0 {
		return models.NewValidationError("units must be positive")
	}
	if err := s.availabilityRepo.Reserve(hotelID, roomTypeID, checkIn, checkOut, units, phase); err != nil {
		return err
	}
	s.invalidate(hotelID, roomTypeID)
	return nil
}

// Release returns units for every night in range, floored at 0 per night
func (s *AvailabilityService) Release(hotelID, roomTypeID uuid.UUID, checkIn, checkOut time.Time, units int, phase models.InventoryPhase) error {
	if units <= 0 {
		return models.NewValidationError("units must be positive")
	}
	if err := s.availabilityRepo.Release(hotelID, roomTypeID, checkIn, checkOut, units, phase); err != nil {
		return models.NewInternalError(err)
	}
	s.invalidate(hotelID, roomTypeID)
	return nil
}

// AdjustBlocked blocks or unblocks rooms for one date, independent of
// bookings
func (s *AvailabilityService) AdjustBlocked(hotelID, roomTypeID uuid.UUID, date time.Time, delta int) error {
	if delta == 0 {
		return models.NewValidationError("delta must be non-zero")
	}
	if err := s.availabilityRepo.AdjustBlocked(hotelID, roomTypeID, date, delta); err != nil {
		return err
	}
	s.invalidate(hotelID, roomTypeID)

	s.logger.WithFields(logrus.Fields{
		"hotel_id":     hotelID,
		"room_type_id": roomTypeID,
		"date":         date.Format(models.StayDateLayout),
		"delta":        delta,
	}).Info("Blocked rooms adjusted")
	return nil
}

// SeedRange initializes availability records for a date span
func (s *AvailabilityService) SeedRange(hotelID, roomTypeID uuid.UUID, start, end time.Time, totalRooms int) (int, error) {
	if !end.After(start) {
		return 0, models.NewInvalidDateRangeError("end_date must be after start_date")
	}
	if totalRooms < 0 {
		return 0, models.NewValidationError("total_rooms must not be negative")
	}
	seeded, err := s.availabilityRepo.SeedRange(hotelID, roomTypeID, start, end, totalRooms)
	if err != nil {
		return seeded, models.NewInternalError(err)
	}
	s.invalidate(hotelID, roomTypeID)
	return seeded, nil
}

// Invalidate drops cached ranges for a (hotel, room type) pair. Exposed
// so the booking flow can invalidate after hold conversion and release.
func (s *AvailabilityService) Invalidate(hotelID, roomTypeID uuid.UUID) {
	s.invalidate(hotelID, roomTypeID)
}

// Cache keys embed a per-(hotel, room type) version; invalidation bumps
// the version instead of scanning for keys.

func (s *AvailabilityService) rangeCacheKey(hotelID, roomTypeID uuid.UUID, start, end time.Time) string {
	version := int64(0)
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		version, _ = s.cache.Get(ctx, s.versionKey(hotelID, roomTypeID)).Int64()
	}
	return fmt.Sprintf("availability:%s:%s:%d:%s:%s",
		hotelID, roomTypeID, version,
		start.Format(models.StayDateLayout), end.Format(models.StayDateLayout))
}

func (s *AvailabilityService) versionKey(hotelID, roomTypeID uuid.UUID) string {
	return fmt.Sprintf("availability:ver:%s:%s", hotelID, roomTypeID)
}

func (s *AvailabilityService) cacheGet(key string) ([]models.AvailabilityDay, bool) {
	if s.cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var days []models.AvailabilityDay
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, false
	}
	return days, true
}

func (s *AvailabilityService) cacheSet(key string, days []models.AvailabilityDay) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.WithError(err).Debug("Availability cache write failed")
	}
}

func (s *AvailabilityService) invalidate(hotelID, roomTypeID uuid.UUID) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := s.cache.Incr(ctx, s.versionKey(hotelID, roomTypeID)).Err(); err != nil {
		s.logger.WithError(err).Debug("Availability cache invalidation failed")
	}
}
