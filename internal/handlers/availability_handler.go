package handlers

import (
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/aureliahotels/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AvailabilityHandler handles availability ledger HTTP requests
type AvailabilityHandler struct {
	availabilityService *services.AvailabilityService
	logger              *logrus.Logger
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availabilityService *services.AvailabilityService, logger *logrus.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService, logger: logger}
}

// GetRange returns per-night availability for a room type
// @Summary Query availability
// @Description Per-night availability and occupancy for a date range
// @Tags Availability
// @Produce json
// @Param hotel_id query string true "Hotel ID"
// @Param room_type_id query string true "Room type ID"
// @Param start query string true "Start date (YYYY-MM-DD, inclusive)"
// @Param end query string true "End date (YYYY-MM-DD, exclusive)"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /availability [get]
func (h *AvailabilityHandler) GetRange(c *gin.Context) {
	hotelID, err := uuid.Parse(c.Query("hotel_id"))
	if err != nil {
		respondError(c, models.NewValidationError("hotel_id must be a valid uuid"))
		return
	}
	roomTypeID, err := uuid.Parse(c.Query("room_type_id"))
	if err != nil {
		respondError(c, models.NewValidationError("room_type_id must be a valid uuid"))
		return
	}
	start, err := models.ParseStayDate(c.Query("start"))
	if err != nil {
		respondError(c, models.NewInvalidDateRangeError("start must be a valid YYYY-MM-DD date"))
		return
	}
	end, err := models.ParseStayDate(c.Query("end"))
	if err != nil {
		respondError(c, models.NewInvalidDateRangeError("end must be a valid YYYY-MM-DD date"))
		return
	}

	days, err := h.availabilityService.GetAvailabilityRange(hotelID, roomTypeID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"hotel_id":     hotelID,
		"room_type_id": roomTypeID,
		"days":         days,
	})
}

// Adjust handles administrative inventory changes
// @Summary Adjust inventory
// @Description Seed availability records for a date span or adjust the blocked count for a date
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param adjustRequest body models.AdjustAvailabilityRequest true "Adjustment"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /admin/availability [post]
func (h *AvailabilityHandler) Adjust(c *gin.Context) {
	var req models.AdjustAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	hotelID, err := uuid.Parse(req.HotelID)
	if err != nil {
		respondError(c, models.NewValidationError("hotel_id must be a valid uuid"))
		return
	}
	roomTypeID, err := uuid.Parse(req.RoomTypeID)
	if err != nil {
		respondError(c, models.NewValidationError("room_type_id must be a valid uuid"))
		return
	}

	switch req.Action {
	case "seed":
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
		if req.TotalRooms < 1 {
			respondError(c, models.NewValidationError("total_rooms must be at least 1"))
			return
		}

		seeded, err := h.availabilityService.SeedRange(hotelID, roomTypeID, start, end, req.TotalRooms)
		if err != nil {
			respondError(c, err)
			return
		}

		h.logger.WithFields(logrus.Fields{
			"hotel_id":     hotelID,
			"room_type_id": roomTypeID,
			"start_date":   req.StartDate,
			"end_date":     req.EndDate,
			"total_rooms":  req.TotalRooms,
			"seeded":       seeded,
		}).Info("Availability seeded")

		respondOK(c, gin.H{"seeded": seeded})

	case "block":
		date, err := models.ParseStayDate(req.Date)
		if err != nil {
			respondError(c, models.NewInvalidDateRangeError("date must be a valid YYYY-MM-DD date"))
			return
		}
		if req.Delta == 0 {
			respondError(c, models.NewValidationError("delta must be non-zero"))
			return
		}

		if err := h.availabilityService.AdjustBlocked(hotelID, roomTypeID, date, req.Delta); err != nil {
			respondError(c, err)
			return
		}

		h.logger.WithFields(logrus.Fields{
			"hotel_id":     hotelID,
			"room_type_id": roomTypeID,
			"date":         req.Date,
			"delta":        req.Delta,
		}).Info("Blocked rooms adjusted")

		respondOK(c, gin.H{"adjusted": true})

	default:
		respondError(c, models.NewValidationError("action must be seed or block"))
	}
}
