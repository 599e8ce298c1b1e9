package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ua "github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// RequestLogger assigns every request an id, echoes it on the response,
// and logs method, path, status, latency and the caller's device class.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		fields := logrus.Fields{
			"request_id": requestID,
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		}

		if userAgent := c.Request.UserAgent(); userAgent != "" {
			parser := ua.New(userAgent)
			browser, _ := parser.Browser()
			fields["device"] = deviceClass(parser)
			fields["browser"] = browser
			fields["os"] = parser.OSInfo().Name
			if parser.Bot() {
				fields["bot"] = true
			}
		}

		if adminID, exists := c.Get("admin_id"); exists {
			fields["admin_id"] = adminID
		}

		entry := logger.WithFields(fields)
		for _, err := range c.Errors {
			entry = entry.WithError(err.Err)
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

func deviceClass(parser *ua.UserAgent) string {
	if parser.Mobile() {
		return "mobile"
	}
	return "desktop"
}
