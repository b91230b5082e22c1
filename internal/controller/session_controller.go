package controller

import (
	"errors"
	"strconv"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/service"
	"devday_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// swagger:model CreateSessionRequest
type CreateSessionRequest struct {
	Name        string   `json:"name" binding:"required"`
	QuestionIDs []string `json:"questionIds"`
}

func sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionNotActive):
		util.Conflict(ctx, "Session is not active")
	case errors.Is(err, util.ErrSessionCompleted):
		util.Conflict(ctx, "Session already completed")
	case errors.Is(err, util.ErrSessionConflict):
		util.Conflict(ctx, "Session was changed by another request, reload and retry")
	default:
		util.LogInternalError(ctx, err)
	}
}

// Create godoc
// @Summary Create a quiz session
// @Description Snapshots the given question ids in order.
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body CreateSessionRequest true "Session"
// @Success 201 {object} util.Response{data=model.Session}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/sessions [post]
func (c *SessionController) Create(ctx *gin.Context) {
	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.Create(req.Name, req.QuestionIDs)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, session)
}

// List godoc
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/sessions [get]
func (c *SessionController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	status := model.SessionStatus(ctx.Query("status"))

	sessions, total, err := c.SessionService.List(page, limit, status)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: sessions, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 404 {object} util.Response
// @Router /api/sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	session, err := c.SessionService.Get(ctx.Param("id"))
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Questions godoc
// @Summary Session questions in order
// @Description Hosts see full questions; team-token callers get the
// @Description answer keys stripped.
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/sessions/{id}/questions [get]
func (c *SessionController) Questions(ctx *gin.Context) {
	sanitized := util.GetUserFromContext(ctx) == nil
	session, questions, err := c.SessionService.SessionQuestions(ctx.Param("id"), sanitized)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"session":   session,
		"questions": questions,
	})
}

// CurrentQuestion godoc
// @Summary Currently unlocked question
// @Description Answer keys are stripped. question is null while the
// @Description session is locked between advances.
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/sessions/{id}/question [get]
func (c *SessionController) CurrentQuestion(ctx *gin.Context) {
	session, question, err := c.SessionService.CurrentQuestion(ctx.Param("id"))
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"sessionStatus":        session.Status,
		"currentQuestionIndex": session.CurrentQuestionIndex,
		"currentQuestionStart": session.CurrentQuestionStart,
		"question":             question,
	})
}

// Activate godoc
// @Summary Activate a pending session
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /api/sessions/{id}/activate [post]
func (c *SessionController) Activate(ctx *gin.Context) {
	session, err := c.SessionService.Activate(ctx.Param("id"))
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Advance godoc
// @Summary Unlock the next question
// @Description Past the last question the session completes.
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /api/sessions/{id}/advance [post]
func (c *SessionController) Advance(ctx *gin.Context) {
	session, err := c.SessionService.Advance(ctx.Param("id"))
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Complete godoc
// @Summary End a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=model.Session}
// @Security BearerAuth
// @Router /api/sessions/{id}/complete [post]
func (c *SessionController) Complete(ctx *gin.Context) {
	session, err := c.SessionService.Complete(ctx.Param("id"))
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Delete godoc
// @Summary Delete a session
// @Description Removes the session with its teams and submissions.
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/sessions/{id} [delete]
func (c *SessionController) Delete(ctx *gin.Context) {
	if err := c.SessionService.Delete(ctx.Param("id")); err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
