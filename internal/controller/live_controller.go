package controller

import (
	"errors"

	"devday_quiz_backend/internal/service"
	"devday_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LiveController struct {
	Hub            *service.LiveHub
	SessionService *service.SessionService
}

func NewLiveController(hub *service.LiveHub, sessionService *service.SessionService) *LiveController {
	return &LiveController{Hub: hub, SessionService: sessionService}
}

// Subscribe godoc
// @Summary Subscribe to live session events
// @Description Upgrades to a websocket carrying session, team,
// @Description submission-count and leaderboard events.
// @Tags live
// @Param id path string true "Session id"
// @Success 101 {string} string "Switching Protocols"
// @Failure 404 {object} util.Response
// @Router /ws/sessions/{id} [get]
func (c *LiveController) Subscribe(ctx *gin.Context) {
	sessionID := ctx.Param("id")
	if _, err := c.SessionService.Get(sessionID); err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	service.ServeLive(c.Hub, ctx.Writer, ctx.Request, sessionID)
}
