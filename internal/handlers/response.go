package handlers

import (
	"net/http"
	"time"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every endpoint returns
type APIResponse struct {
	Success  bool         `json:"success"`
	Data     interface{}  `json:"data,omitempty"`
	Error    *APIError    `json:"error,omitempty"`
	Metadata ResponseMeta `json:"metadata"`
}

// APIError carries a machine-readable code plus a human message
type APIError struct {
	Code    models.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// ResponseMeta is attached to every response
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// ListMeta augments paginated list payloads
type ListMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{
		Success:  true,
		Data:     data,
		Metadata: meta(c),
	})
}

func respondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data)
}

func respondCreated(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data)
}

// respondError maps the service error to its HTTP status. Internal errors
// are logged upstream; the envelope never exposes the wrapped cause.
func respondError(c *gin.Context, err error) {
	appErr := models.AsAppError(err)
	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	c.JSON(appErr.Status, APIResponse{
		Success:  false,
		Error:    &APIError{Code: appErr.Code, Message: appErr.Message},
		Metadata: meta(c),
	})
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
}

func meta(c *gin.Context) ResponseMeta {
	m := ResponseMeta{Timestamp: time.Now().UTC()}
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			m.RequestID = s
		}
	}
	return m
}
