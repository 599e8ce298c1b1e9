package services

import (
	"time"

	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/sirupsen/logrus"
)

// HoldExpirationService reclaims inventory from pending bookings whose
// payment window lapsed. Without the sweep an abandoned checkout would
// hold rooms forever.
type HoldExpirationService struct {
	availabilityRepo *database.AvailabilityRepository
	bookingSvc       *BookingService
	logger           *logrus.Logger
	stopCh           chan struct{}
	interval         time.Duration
}

// NewHoldExpirationService creates a new hold expiration service
func NewHoldExpirationService(
	availabilityRepo *database.AvailabilityRepository,
	bookingSvc *BookingService,
	interval time.Duration,
	logger *logrus.Logger,
) *HoldExpirationService {
	return &HoldExpirationService{
		availabilityRepo: availabilityRepo,
		bookingSvc:       bookingSvc,
		logger:           logger,
		stopCh:           make(chan struct{}),
		interval:         interval,
	}
}

// Start begins the background expiration sweep
func (s *HoldExpirationService) Start() {
	s.logger.WithField("interval", s.interval).Info("Starting hold expiration sweep")
	go s.run()
}

// Stop stops the background expiration sweep
func (s *HoldExpirationService) Stop() {
	s.logger.Info("Stopping hold expiration sweep")
	close(s.stopCh)
}

func (s *HoldExpirationService) run() {
	// Run immediately on start
	s.processExpiredHolds()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processExpiredHolds()
		case <-s.stopCh:
			s.logger.Info("Hold expiration sweep stopped")
			return
		}
	}
}

// processExpiredHolds finds holds past their TTL and cancels their pending
// bookings, releasing the held nights. Batched per cycle.
func (s *HoldExpirationService) processExpiredHolds() {
	expired, err := s.availabilityRepo.GetExpiredHolds(100)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get expired holds")
		return
	}

	if len(expired) > 0 {
		s.logger.WithField("count", len(expired)).Info("Processing expired holds")
		for _, hold := range expired {
			if err := s.bookingSvc.ExpirePendingBooking(hold.BookingID); err != nil {
				s.logger.WithError(err).WithField("booking_id", hold.BookingID).Error("Failed to expire hold")
			}
		}
	}

	// safety cleanup: holds whose booking already reached a terminal state
	// without releasing inventory
	stale, err := s.availabilityRepo.ReleaseStaleHolds()
	if err != nil {
		s.logger.WithError(err).Error("Failed to release stale holds")
	} else if stale > 0 {
		s.logger.WithField("count", stale).Warn("Released stale holds")
	}
}

// RunOnce runs a single sweep cycle (useful for testing or manual trigger)
func (s *HoldExpirationService) RunOnce() {
	s.processExpiredHolds()
}
