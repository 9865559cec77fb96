package api

import (
	"errors"
	"net/http"

	"github.com/ctfops-io/scoring-api/pkg/api/dto"
	"github.com/ctfops-io/scoring-api/pkg/lab"
	"github.com/gin-gonic/gin"
)

func postLabCommand(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("challenge/:slug/lab"), sessionRequired(services), func(c *gin.Context) {
			reader := c.Request.Body
			defer reader.Close()
			request, err := dto.ParseLabCommand(reader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			slug := c.Param("slug")
			// The lab only runs for published challenges; the
			// collaborator itself knows nothing about publish state.
			challenge, err := services.DB.GetChallengeBySlug(c, slug)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			if challenge == nil || !challenge.Published || !services.Labs.HasLab(slug) {
				c.AbortWithStatusJSON(http.StatusNotFound,
					errorPayload("no lab is available for this challenge"))
				return
			}
			result, err := services.Labs.Execute(slug, request.Command, request.Cwd)
			if err != nil {
				if errors.Is(err, lab.NoLabError) {
					c.AbortWithStatusJSON(http.StatusNotFound, errorPayload(err.Error()))
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorPayload(err.Error()))
				return
			}
			c.JSON(200, okPayload(dto.LabResponse{
				Output:   result.Output,
				Cwd:      result.Cwd,
				ExitCode: result.ExitCode,
			}))
		})
	}
}
