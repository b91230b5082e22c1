package controller

import (
	"errors"

	"devday_quiz_backend/internal/service"
	"devday_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TeamController struct {
	TeamService *service.TeamService
}

func NewTeamController(teamService *service.TeamService) *TeamController {
	return &TeamController{TeamService: teamService}
}

// swagger:model JoinRequest
type JoinRequest struct {
	Name string `json:"name" binding:"required"`
}

// Join godoc
// @Summary Join a session as a team
// @Description Registers a team in an active session and returns its
// @Description capability token for submissions.
// @Tags teams
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param body body JoinRequest true "Team name"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/sessions/{id}/teams [post]
func (c *TeamController) Join(ctx *gin.Context) {
	var req JoinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	team, token, err := c.TeamService.Join(ctx.Param("id"), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionNotActive):
			util.Conflict(ctx, "Session is not accepting teams")
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Created(ctx, gin.H{
		"team":      team,
		"teamToken": token,
	})
}

// Leaderboard godoc
// @Summary Session leaderboard
// @Description Teams ordered by score, ties broken by join time.
// @Tags teams
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=[]model.Team}
// @Failure 404 {object} util.Response
// @Router /api/sessions/{id}/leaderboard [get]
func (c *TeamController) Leaderboard(ctx *gin.Context) {
	teams, err := c.TeamService.Leaderboard(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, teams)
}
