package handler

import (
	"strconv"
	"time"

	"finndex/pkg/errtrack"
	"finndex/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs one line per request once the handler chain has run.
// An incoming X-Request-ID is kept, otherwise one is generated; either way
// it is echoed on the response.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", fields...)
		case status >= 400:
			log.Warnw("request rejected", fields...)
		default:
			log.Infow("request", fields...)
		}
	}
}

// ErrorReporter sends the last handler error of every 5xx response to the
// tracker. A nil tracker is fine.
func ErrorReporter(tracker *errtrack.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 500 || len(c.Errors) == 0 {
			return
		}
		tracker.Capture(c.Errors.Last().Err, map[string]string{
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"status":     strconv.Itoa(status),
			"request_id": c.Writer.Header().Get(RequestIDHeader),
		})
	}
}
