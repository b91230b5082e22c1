package controller

import (
	"errors"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/service"
	"devday_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{SubmissionService: submissionService}
}

// Submit godoc
// @Summary Submit an answer
// @Description Accepts one answer per team for the currently unlocked
// @Description question. Requires the team capability token.
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param questionId path string true "Question id"
// @Param body body service.SubmissionInput true "Answer"
// @Success 201 {object} util.Response{data=model.Submission}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/sessions/{id}/questions/{questionId}/submissions [post]
func (c *SubmissionController) Submit(ctx *gin.Context) {
	team := util.GetTeamFromContext(ctx)
	if team == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmissionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.SubmissionService.Submit(ctx.Request.Context(), team, ctx.Param("questionId"), &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound), errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionNotActive):
			util.Conflict(ctx, "Session is not active")
		case errors.Is(err, util.ErrQuestionNotUnlocked):
			util.Conflict(ctx, "Question is not open for submissions")
		case errors.Is(err, util.ErrAlreadySubmitted):
			util.Conflict(ctx, "Team already submitted for this question")
		case errors.Is(err, util.ErrMissingRequiredAnswer):
			util.BadRequest(ctx, "Answer payload does not fit the question type")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, sub)
}

// List godoc
// @Summary List a session's submissions
// @Tags submissions
// @Produce json
// @Param id path string true "Session id"
// @Param questionId query string false "Question filter"
// @Param status query string false "Status filter"
// @Success 200 {object} util.Response{data=[]model.Submission}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/sessions/{id}/submissions [get]
func (c *SubmissionController) List(ctx *gin.Context) {
	subs, err := c.SubmissionService.ListBySession(
		ctx.Param("id"),
		ctx.Query("questionId"),
		model.SubmissionStatus(ctx.Query("status")),
	)
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, subs)
}

// Get godoc
// @Summary Get one submission
// @Tags submissions
// @Produce json
// @Param id path string true "Submission id"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) Get(ctx *gin.Context) {
	sub, err := c.SubmissionService.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sub)
}
