package controller

import (
	"errors"

	"devday_quiz_backend/internal/service"
	"devday_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ScoringController struct {
	ScoringService *service.ScoringService
}

func NewScoringController(scoringService *service.ScoringService) *ScoringController {
	return &ScoringController{ScoringService: scoringService}
}

// swagger:model MarkRequest
type MarkRequest struct {
	Criteria map[string]int `json:"criteria" binding:"required"`
}

// Mark godoc
// @Summary Mark a code submission
// @Description Saves the rubric. Explain-code takes explanationScore;
// @Description the code types take readability, maintainability,
// @Description elegance, languageKnowledge and simplicity, each 0-5.
// @Tags scoring
// @Accept json
// @Produce json
// @Param id path string true "Submission id"
// @Param body body MarkRequest true "Rubric"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/submissions/{id}/mark [post]
func (c *ScoringController) Mark(ctx *gin.Context) {
	var req MarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.ScoringService.Mark(ctx.Param("id"), req.Criteria)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSubmissionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNotManuallyMarkable):
			util.Conflict(ctx, "Submission is scored automatically")
		case errors.Is(err, util.ErrInvalidCriteria):
			util.BadRequest(ctx, "Rubric does not match the question type")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sub)
}

// ConciseBonus godoc
// @Summary Run the concise-code bonus pass
// @Description Awards 5/4/3/2/1 bonus points to the five shortest marked
// @Description concise-code solutions per question. Safe to re-run.
// @Tags scoring
// @Produce json
// @Param id path string true "Session id"
// @Param questionId query string false "Limit the pass to one question"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/sessions/{id}/concise-bonus [post]
func (c *ScoringController) ConciseBonus(ctx *gin.Context) {
	updates, err := c.ScoringService.RunConciseBonus(ctx.Param("id"), ctx.Query("questionId"))
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"updated": len(updates)})
}

// Finalize godoc
// @Summary Finalize session scores
// @Description Runs the bonus pass, recomputes team totals from
// @Description submissions and overwrites the stored scores.
// @Tags scoring
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} util.Response{data=[]model.Team}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/sessions/{id}/finalize [post]
func (c *ScoringController) Finalize(ctx *gin.Context) {
	teams, err := c.ScoringService.FinalizeScores(ctx.Param("id"))
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
