package handlers

import (
	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HotelHandler serves the property catalogue
type HotelHandler struct {
	hotelRepo *database.HotelRepository
	logger    *logrus.Logger
}

// NewHotelHandler creates a new hotel handler
func NewHotelHandler(hotelRepo *database.HotelRepository, logger *logrus.Logger) *HotelHandler {
	return &HotelHandler{hotelRepo: hotelRepo, logger: logger}
}

// List returns all active hotels
// @Summary List hotels
// @Tags Hotels
// @Produce json
// @Success 200 {object} APIResponse
// @Router /hotels [get]
func (h *HotelHandler) List(c *gin.Context) {
	hotels, err := h.hotelRepo.ListHotels()
	if err != nil {
		respondError(c, models.NewInternalError(err))
		return
	}
	respondOK(c, hotels)
}

// Get returns one hotel with its room types
// @Summary Get a hotel
// @Tags Hotels
// @Produce json
// @Param slug path string true "Hotel slug"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /hotels/{slug} [get]
func (h *HotelHandler) Get(c *gin.Context) {
	hotel, err := h.hotelRepo.GetHotelBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, models.NewInternalError(err))
		return
	}
	if hotel == nil || !hotel.IsActive {
		respondError(c, models.NewNotFoundError("hotel"))
		return
	}

	roomTypes, err := h.hotelRepo.ListRoomTypesByHotel(hotel.ID)
	if err != nil {
		respondError(c, models.NewInternalError(err))
		return
	}

	respondOK(c, gin.H{
		"hotel":      hotel,
		"room_types": roomTypes,
	})
}

// UpsertRatePlanRequest is the admin payload for rate plan changes
type UpsertRatePlanRequest struct {
	RoomTypeID  string `json:"room_type_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	NightlyRate int64  `json:"nightly_rate" binding:"required,min=1"`
}

// UpsertRatePlan creates or replaces a rate plan for a date span
// @Summary Upsert a rate plan
// @Tags Hotels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ratePlanRequest body UpsertRatePlanRequest true "Rate plan"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /admin/rate-plans [put]
func (h *HotelHandler) UpsertRatePlan(c *gin.Context) {
	var req UpsertRatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	roomTypeID, err := uuid.Parse(req.RoomTypeID)
	if err != nil {
		respondError(c, models.NewValidationError("room_type_id must be a valid uuid"))
		return
	}
	start, err := models.ParseStayDate(req.StartDate)
	if err != nil {
		respondError(c, models.NewInvalidDateRangeError("start_date must be a valid YYYY-MM-DD date"))
		return
	}
	end, err := models.ParseStayDate(req.EndDate)
	if err != nil {
		respondError(c, models.NewInvalidDateRangeError("end_date must be a valid YYYY-MM-DD date"))
		return
	}
	if end.Before(start) {
		respondError(c, models.NewInvalidDateRangeError("end_date must not be before start_date"))
		return
	}

	roomType, err := h.hotelRepo.GetRoomTypeByID(roomTypeID)
	if err != nil {
		respondError(c, models.NewInternalError(err))
		return
	}
	if roomType == nil {
		respondError(c, models.NewNotFoundError("room type"))
		return
	}

	plan := &models.RatePlan{
		RoomTypeID:  roomTypeID,
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		NightlyRate: req.NightlyRate,
	}
	if err := h.hotelRepo.UpsertRatePlan(plan); err != nil {
		respondError(c, models.NewInternalError(err))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"room_type_id": roomTypeID,
		"start_date":   req.StartDate,
		"end_date":     req.EndDate,
		"nightly_rate": req.NightlyRate,
	}).Info("Rate plan upserted")

	respondOK(c, plan)
}
