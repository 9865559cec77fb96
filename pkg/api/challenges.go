package api

import (
	"net/http"

	"github.com/ctfops-io/scoring-api/pkg/api/dto"
	"github.com/gin-gonic/gin"
)

// getTrackChallenges lists the published challenges of a track. The flag
// digest never leaves the store through this route.
func getTrackChallenges(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.GET(getPath("track/:slug/challenges"), func(c *gin.Context) {
			track, err := services.DB.GetTrackBySlug(c, c.Param("slug"))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			if track == nil {
				c.AbortWithStatusJSON(http.StatusNotFound, errorPayload("track not found"))
				return
			}
			challenges, err := services.DB.ListPublishedChallengesByTrack(c, track.ID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			response := make([]dto.ChallengeSummary, len(challenges))
			for i, challenge := range challenges {
				response[i] = dto.ChallengeSummary{
					Slug:        challenge.Slug,
					Title:       challenge.Title,
					Description: challenge.Description,
					Points:      challenge.Points,
					HasLab:      services.Labs.HasLab(challenge.Slug),
				}
			}
			c.JSON(200, okPayload(response))
		})
	}
}
