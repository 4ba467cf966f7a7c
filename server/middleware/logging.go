package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/svcreg/logger"
)

// SlowRequestThreshold marks requests logged with slow=true.
const SlowRequestThreshold = 500 * time.Millisecond

// RequestLogger logs every request with method, path, status and duration.
// Requests to quietPaths (the registry's health poll) are not logged.
func RequestLogger(log *logger.Logger, quietPaths ...string) gin.HandlerFunc {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		if quiet[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := map[string]interface{}{
			"method":              c.Request.Method,
			"path":                c.Request.URL.Path,
			logger.FieldStatus:    status,
			logger.FieldDuration:  latency.Milliseconds(),
			"client":              c.ClientIP(),
			logger.FieldRequestID: c.GetString(RequestIDKey),
		}
		if latency > SlowRequestThreshold {
			fields["slow"] = true
		}

		switch {
		case status >= 500:
			log.Error("Request completed", fields)
		case status >= 400:
			log.Warn("Request completed", fields)
		default:
			log.Debug("Request completed", fields)
		}
	}
}
