package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	bookingSvc *BookingService
	logger     *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(bookingSvc *BookingService, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:       cron.New(cron.WithSeconds()),
		bookingSvc: bookingSvc,
		logger:     logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// Cron format: second minute hour day month weekday
	// "0 0 3 * * *" = 3:00 AM every day, after the last same-day check-outs
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.completeDueStaysJob); err != nil {
		return fmt.Errorf("failed to schedule stay completion job: %w", err)
	}
	s.logger.Info("Scheduled: Complete due stays (daily at 3:00 AM)")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// completeDueStaysJob moves confirmed bookings past check-out to completed
func (s *CronService) completeDueStaysJob() {
	startTime := time.Now()

	completed, err := s.bookingSvc.CompleteDueStays()
	if err != nil {
		s.logger.WithError(err).Error("Stay completion job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"completed": completed,
		"duration":  time.Since(startTime).String(),
	}).Info("Stay completion job finished")
}

// RunCompleteDueStaysNow runs the stay completion job immediately
func (s *CronService) RunCompleteDueStaysNow() {
	s.logger.Info("Running stay completion job manually")
	s.completeDueStaysJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
