package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// participantIDKey is the context key under which the session middleware
// stores the authenticated participant id.
const participantIDKey = "participantID"

// sessionRequired extracts and verifies the bearer token of a request and
// stores the participant id in the request context. Requests of unknown or
// deactivated participants are rejected.
func sessionRequired(services *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorPayload("a bearer session token is required"))
			return
		}
		participantID, err := services.Sessions.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorPayload("the session token is invalid"))
			return
		}
		participant, err := services.DB.GetParticipantByID(c, participantID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
			return
		}
		if participant == nil || !participant.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorPayload("the session token is invalid"))
			return
		}
		c.Set(participantIDKey, participant.ID)
		c.Next()
	}
}

// adminRequired guards a route with the basic-auth credentials of the
// environment-based Authenticator.
func adminRequired(services *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok || !services.Admin.CheckAuthentication(username, password) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorPayload("you aren't authorized to call this method"))
			return
		}
		c.Next()
	}
}
