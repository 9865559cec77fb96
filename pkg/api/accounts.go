package api

import (
	"errors"
	"net/http"

	"github.com/ctfops-io/scoring-api/pkg/api/dto"
	"github.com/ctfops-io/scoring-api/pkg/auth"
	"github.com/gin-gonic/gin"
)

func postRegister(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("auth/register"), func(c *gin.Context) {
			reader := c.Request.Body
			defer reader.Close()
			request, err := dto.ParseCredentials(reader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			participant, err := services.Participants.Register(c, request.Name, request.Password)
			if err != nil {
				switch {
				case errors.Is(err, auth.NameTakenError):
					c.AbortWithStatusJSON(http.StatusConflict, errorPayload(err.Error()))
				case errors.Is(err, auth.InvalidRegistrationError):
					c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				default:
					c.AbortWithStatusJSON(http.StatusInternalServerError,
						errorPayload(err.Error()))
				}
				return
			}
			c.JSON(200, okPayload(gin.H{
				"id":   participant.ID,
				"name": participant.Name,
			}))
		})
	}
}

func postLogin(services *Services) func(router *gin.Engine) {
	return func(router *gin.Engine) {
		router.POST(getPath("auth/login"), func(c *gin.Context) {
			reader := c.Request.Body
			defer reader.Close()
			request, err := dto.ParseCredentials(reader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, errorPayload(err.Error()))
				return
			}
			token, err := services.Participants.Login(c, request.Name, request.Password)
			if err != nil {
				switch {
				case errors.Is(err, auth.InvalidCredentialsError),
					errors.Is(err, auth.InactiveParticipantError):
					c.AbortWithStatusJSON(http.StatusUnauthorized, errorPayload(err.Error()))
				default:
					c.AbortWithStatusJSON(http.StatusInternalServerError,
						errorPayload(err.Error()))
				}
				return
			}
			c.JSON(200, okPayload(dto.TokenResponse{Token: token}))
		})
	}
}
