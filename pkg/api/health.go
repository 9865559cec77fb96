package api

import (
	"github.com/gin-gonic/gin"
)

// heartbeat returns just an "ok" status object in JSON format. Contest
// infrastructure can probe it to monitor the reachability of the scoring
// service.
func heartbeat(router *gin.Engine) {
	router.GET(getPath("heartbeat"), func(c *gin.Context) {
		c.JSON(200, okPayload(gin.H{"service": "scoring-api"}))
	})
}
