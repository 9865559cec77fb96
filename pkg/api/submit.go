package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ctfops-io/scoring-api/pkg/api/dto"
	"github.com/ctfops-io/scoring-api/pkg/scoring"
	"github.com/gin-gonic/gin"
)

func postSubmission(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("challenge/:slug/submit"), sessionRequired(services),
			func(c *gin.Context) {
				reader := c.Request.Body
				defer reader.Close()
				request, err := dto.ParseSubmission(reader)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
					return
				}
				participantID := c.GetString(participantIDKey)
				result, err := services.Orchestrator.Submit(c, participantID, c.Param("slug"),
					request.Flag)
				if err != nil {
					abortWithSubmissionError(c, err)
					return
				}
				c.JSON(200, okPayload(dto.SubmissionResponse{
					Correct:       result.Correct,
					PointsAwarded: result.PointsAwarded,
					FirstSolver:   result.FirstSolver,
				}))
			})
	}
}

// abortWithSubmissionError maps the scoring error taxonomy onto HTTP
// statuses. Rate-limited calls additionally carry a Retry-After header.
func abortWithSubmissionError(c *gin.Context, err error) {
	var rateLimited *scoring.RateLimitedError
	if errors.As(err, &rateLimited) {
		c.Header("Retry-After", fmt.Sprintf("%d", rateLimited.RetryAfterSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorPayload(rateLimited.Error()))
		return
	}
	switch {
	case errors.Is(err, scoring.ChallengeNotFoundError):
		c.AbortWithStatusJSON(http.StatusNotFound, errorPayload(err.Error()))
	case errors.Is(err, scoring.ChallengeNotPublishedError):
		c.AbortWithStatusJSON(http.StatusForbidden, errorPayload(err.Error()))
	case errors.Is(err, scoring.FlagNotConfiguredError):
		c.AbortWithStatusJSON(http.StatusConflict, errorPayload(err.Error()))
	case errors.Is(err, scoring.InvalidSubmissionError):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorPayload(err.Error()))
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}
}
