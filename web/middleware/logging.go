package middleware

import (
	"net/http"
	"time"

	"github.com/visitlog/visitlog/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request with its status and latency. Server
// errors are logged as warnings, everything else at debug level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			logger.Warningf("%s %s -> %d (%s) from %s", c.Request.Method, c.Request.URL.Path, status, latency, c.ClientIP())
			return
		}
		logger.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, latency)
	}
}
