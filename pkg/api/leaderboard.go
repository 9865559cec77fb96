package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ctfops-io/scoring-api/pkg/api/dto"
	"github.com/ctfops-io/scoring-api/pkg/leaderboard"
	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 50

// parsePagination reads the limit and offset query parameters. Bound
// checks are left to the aggregator, which validates before querying.
func parsePagination(c *gin.Context) (int, int, bool) {
	limit := defaultLeaderboardLimit
	offset := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		limitVal, err := strconv.Atoi(limitParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				errorPayload("the given limit query parameter couldn't be parsed"))
			return 0, 0, false
		}
		limit = limitVal
	}
	if offsetParam := c.Query("offset"); offsetParam != "" {
		offsetVal, err := strconv.Atoi(offsetParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				errorPayload("the given offset query parameter couldn't be parsed"))
			return 0, 0, false
		}
		offset = offsetVal
	}
	return limit, offset, true
}

func writeLeaderboard(c *gin.Context, entries []leaderboard.Entry, err error) {
	if err != nil {
		switch {
		case errors.Is(err, leaderboard.ValidationError):
			c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
		case errors.Is(err, leaderboard.TrackNotFoundError):
			c.AbortWithStatusJSON(http.StatusNotFound, errorPayload(err.Error()))
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
		}
		return
	}
	response := make([]dto.LeaderboardEntry, len(entries))
	for i, entry := range entries {
		response[i] = dto.LeaderboardEntry{
			ParticipantID: entry.ParticipantID,
			TotalPoints:   entry.TotalPoints,
			FirstSolveAt:  entry.FirstSolveAt,
			Rank:          entry.Rank,
		}
	}
	c.JSON(200, okPayload(response))
}

func getGlobalLeaderboard(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.GET(getPath("leaderboard"), func(c *gin.Context) {
			limit, offset, ok := parsePagination(c)
			if !ok {
				return
			}
			entries, err := services.Leaderboard.Global(c, limit, offset)
			writeLeaderboard(c, entries, err)
		})
	}
}

func getTrackLeaderboard(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.GET(getPath("leaderboard/track/:slug"), func(c *gin.Context) {
			limit, offset, ok := parsePagination(c)
			if !ok {
				return
			}
			entries, err := services.Leaderboard.ForTrack(c, c.Param("slug"), limit, offset)
			writeLeaderboard(c, entries, err)
		})
	}
}
