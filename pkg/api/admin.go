package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ctfops-io/scoring-api/pkg/api/dto"
	"github.com/ctfops-io/scoring-api/pkg/scoring"
	"github.com/gin-gonic/gin"
)

// abortWithCatalogError maps the catalog error taxonomy onto HTTP
// statuses.
func abortWithCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scoring.ChallengeNotFoundError), errors.Is(err, scoring.TrackNotFoundError):
		c.AbortWithStatusJSON(http.StatusNotFound, errorPayload(err.Error()))
	case errors.Is(err, scoring.SlugTakenError), errors.Is(err, scoring.FlagAlreadySetError),
		errors.Is(err, scoring.AlreadyPublishedError):
		c.AbortWithStatusJSON(http.StatusConflict, errorPayload(err.Error()))
	case errors.Is(err, scoring.InvalidChallengeError), errors.Is(err, scoring.InvalidSubmissionError),
		errors.Is(err, scoring.FlagNotConfiguredError):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}
}

func postTrack(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("admin/track"), adminRequired(services), func(c *gin.Context) {
			reader := c.Request.Body
			defer reader.Close()
			request, err := dto.ParseTrack(reader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			track, err := services.Catalog.CreateTrack(c, request.Slug, request.Title)
			if err != nil {
				abortWithCatalogError(c, err)
				return
			}
			c.JSON(200, okPayload(gin.H{"id": track.ID, "slug": track.Slug}))
		})
	}
}

func postChallenge(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("admin/challenge"), adminRequired(services), func(c *gin.Context) {
			reader := c.Request.Body
			defer reader.Close()
			request, err := dto.ParseChallenge(reader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			challenge, err := services.Catalog.CreateChallenge(c, request.TrackSlug, request.Slug,
				request.Title, request.Description, request.Points)
			if err != nil {
				abortWithCatalogError(c, err)
				return
			}
			c.JSON(200, okPayload(gin.H{"id": challenge.ID, "slug": challenge.Slug}))
		})
	}
}

func putChallengeFlag(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.PUT(getPath("admin/challenge/:id/flag"), adminRequired(services), func(c *gin.Context) {
			reader := c.Request.Body
			defer reader.Close()
			request, err := dto.ParseFlag(reader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			err = services.Catalog.SetFlag(c, c.Param("id"), request.Flag)
			if err != nil {
				abortWithCatalogError(c, err)
				return
			}
			c.JSON(200, okPayload(nil))
		})
	}
}

func putChallengePublished(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.PUT(getPath("admin/challenge/:id/publish"), adminRequired(services), func(c *gin.Context) {
			challenge, err := services.Catalog.Publish(c, c.Param("id"))
			if err != nil {
				abortWithCatalogError(c, err)
				return
			}
			c.JSON(200, okPayload(gin.H{"id": challenge.ID, "published": challenge.Published}))
		})
		router.PUT(getPath("admin/challenge/:id/unpublish"), adminRequired(services), func(c *gin.Context) {
			err := services.Catalog.Unpublish(c, c.Param("id"))
			if err != nil {
				abortWithCatalogError(c, err)
				return
			}
			c.JSON(200, okPayload(nil))
		})
	}
}

func getRecentAttempts(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.GET(getPath("admin/attempts"), adminRequired(services), func(c *gin.Context) {
			var limit uint = 50
			if limitParam := c.Query("limit"); limitParam != "" {
				limitVal, err := strconv.Atoi(limitParam)
				if err != nil || limitVal <= 0 {
					c.AbortWithStatusJSON(http.StatusBadRequest,
						errorPayload("the given limit query parameter couldn't be parsed"))
					return
				}
				limit = uint(limitVal)
			}
			attempts, err := services.DB.ListRecentAttempts(c, limit)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			response := make([]dto.AttemptEntry, len(attempts))
			for i, attempt := range attempts {
				response[i] = dto.AttemptEntry{
					ParticipantID: attempt.ParticipantID,
					ChallengeID:   attempt.ChallengeID,
					Correct:       attempt.Correct,
					CreatedAt:     attempt.CreatedAt,
				}
			}
			c.JSON(200, okPayload(response))
		})
	}
}
