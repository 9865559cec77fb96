package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// okPayload wraps a successful response body in the common envelope. A nil
// value yields a bare status envelope, which the heartbeat uses.
func okPayload(v interface{}) gin.H {
	payload := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if v != nil {
		payload["response"] = v
	}
	return payload
}

// errorPayload wraps an error message in the common envelope.
func errorPayload(message string) gin.H {
	return gin.H{
		"status":    "error",
		"message":   message,
		"timestamp": time.Now().UTC(),
	}
}
