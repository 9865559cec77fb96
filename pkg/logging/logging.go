package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// InitLogging configures the process-wide logger with the given level.
func InitLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}

// GinLoggingHook logs every handled request with its latency and status.
// Rate-limited submissions show up here with status 429, which makes lock
// storms visible without a metrics backend.
func GinLoggingHook() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		entry := log.WithFields(log.Fields{
			"client_ip": c.ClientIP(),
			"duration":  duration,
			"method":    c.Request.Method,
			"path":      c.Request.RequestURI,
			"status":    c.Writer.Status(),
		})

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error(c.Errors.String())
		case status == 429:
			entry.Warn("submission rate limited")
		default:
			entry.Info("")
		}
	}
}
