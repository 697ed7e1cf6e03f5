package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ytget/ytinfo/internal/logger"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
)

// CorrelationID tags every request with a request id and a correlation id
// (taken from the incoming header when present) and logs its outcome.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		requestID := "req_" + uuid.NewString()

		c.Set("correlation_id", correlationID)
		c.Set("request_id", requestID)
		c.Header(HeaderCorrelationID, correlationID)
		c.Header(HeaderRequestID, requestID)

		log := logger.WithComponent(logger.ComponentAPI).With(map[string]interface{}{
			"correlation_id": correlationID,
			"request_id":     requestID,
		})
		log.Debug("incoming request", map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		})

		start := time.Now()
		c.Next()

		log.Info("request completed", map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		})
	}
}
