package handlers

import (
	"strconv"
	"time"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/aureliahotels/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles booking lifecycle HTTP requests
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, logger: logger}
}

// Create handles booking creation requests
// @Summary Create a booking
// @Description Reserve rooms for a stay and create a pending booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param bookingRequest body models.CreateBookingRequest true "Booking details"
// @Success 201 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, booking)
}

// Get returns a booking by id
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("booking id must be a valid uuid"))
		return
	}

	booking, err := h.bookingService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, booking)
}

// GetByCode returns a booking by its confirmation code
// @Summary Look up a booking by confirmation code
// @Tags Bookings
// @Produce json
// @Param code path string true "Confirmation code"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /bookings/code/{code} [get]
func (h *BookingHandler) GetByCode(c *gin.Context) {
	booking, err := h.bookingService.GetByConfirmationCode(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, booking)
}

// Cancel handles guest-initiated cancellation
// @Summary Cancel a booking
// @Description Cancel a booking more than 24 hours before check-in
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param cancelRequest body models.CancelBookingRequest false "Cancellation reason"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("booking id must be a valid uuid"))
		return
	}

	var req models.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	booking, err := h.bookingService.Cancel(id, req.Reason, "guest")
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, booking)
}

// List returns bookings matching the filter (admin only)
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse
// @Router /admin/bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter, err := parseBookingFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	bookings, total, err := h.bookingService.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"bookings": bookings,
		"pagination": ListMeta{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	})
}

// UpdateStatus applies an administrative status override
// @Summary Override booking status
// @Description Force a booking into a new status, bypassing the cancellation window
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param statusRequest body models.UpdateBookingStatusRequest true "Target status"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /admin/bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, models.NewValidationError("booking id must be a valid uuid"))
		return
	}

	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor := "admin"
	if email, exists := c.Get("admin_email"); exists {
		if s, ok := email.(string); ok {
			actor = s
		}
	}

	booking, err := h.bookingService.AdminUpdateStatus(id, &req, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, booking)
}

func parseBookingFilter(c *gin.Context) (models.BookingFilter, error) {
	var filter models.BookingFilter

	if v := c.Query("hotel_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, models.NewValidationError("hotel_id must be a valid uuid")
		}
		filter.HotelID = &id
	}
	if v := c.Query("status"); v != "" {
		status := models.BookingStatus(v)
		filter.Status = &status
	}
	if v := c.Query("guest_email"); v != "" {
		filter.GuestEmail = &v
	}
	if v := c.Query("from"); v != "" {
		t, err := models.ParseStayDate(v)
		if err != nil {
			return filter, models.NewInvalidDateRangeError("from must be a valid YYYY-MM-DD date")
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := models.ParseStayDate(v)
		if err != nil {
			return filter, models.NewInvalidDateRangeError("to must be a valid YYYY-MM-DD date")
		}
		to := t.Add(24 * time.Hour)
		filter.To = &to
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, models.NewValidationError("limit must be a positive integer")
		}
		filter.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, models.NewValidationError("offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	return filter, nil
}
