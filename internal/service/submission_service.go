package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"
	"devday_quiz_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// SubmissionStore is the slice of the submission repository the service
// needs.
type SubmissionStore interface {
	Create(s *model.Submission) error
	FindByID(id string) (*model.Submission, error)
	FindByTeamAndQuestion(teamID, questionID string) (*model.Submission, error)
	ListBySession(sessionID string, questionID string, status model.SubmissionStatus) ([]model.Submission, error)
	CountBySessionAndQuestion(sessionID, questionID string) (int64, error)
}

// SubmissionInput is the participant payload. Which field matters depends
// on the question type.
type SubmissionInput struct {
	SelectedOptionIndex *int   `json:"selectedOptionIndex"`
	Code                string `json:"code"`
	Answer              string `json:"answer"`
	Explanation         string `json:"explanation"`
}

type SubmissionService struct {
	Submissions SubmissionStore
	Sessions    SessionLookup
	Questions   *QuestionService
	Events      EventPublisher
}

func NewSubmissionService(subs SubmissionStore, sessions SessionLookup, questions *QuestionService, events EventPublisher) *SubmissionService {
	return &SubmissionService{Submissions: subs, Sessions: sessions, Questions: questions, Events: events}
}

// Submit admits one team's answer for the currently unlocked question.
// Admission requires an active session, the question being the unlocked
// one, and no earlier submission by the same team for it. MCQ and QA
// answers are graded on the spot; the code types wait for manual marking.
func (s *SubmissionService) Submit(ctx context.Context, team *util.TeamClaims, questionID string, in *SubmissionInput) (*model.Submission, error) {
	session, err := s.Sessions.FindByID(team.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != model.SessionActive {
		return nil, util.ErrSessionNotActive
	}
	if session.CurrentQuestionID() != questionID {
		return nil, util.ErrQuestionNotUnlocked
	}

	if _, err := s.Submissions.FindByTeamAndQuestion(team.TeamID, questionID); err == nil {
		return nil, util.ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	question, err := s.Questions.Get(ctx, questionID)
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		SessionID:     session.ID,
		TeamID:        team.TeamID,
		TeamName:      team.TeamName,
		QuestionID:    questionID,
		QuestionIndex: session.CurrentQuestionIndex,
		QuestionType:  question.Type,
		Status:        model.SubmissionPending,
		SubmittedAt:   time.Now(),
	}

	switch question.Type {
	case model.QuestionMCQ:
		if in.SelectedOptionIndex == nil {
			return nil, util.ErrMissingRequiredAnswer
		}
		idx := *in.SelectedOptionIndex
		if idx < 0 || idx >= len(question.OptionList()) {
			return nil, util.ErrMissingRequiredAnswer
		}
		sub.SelectedOptionIndex = in.SelectedOptionIndex
		if question.CorrectOptionIndex != nil && idx == *question.CorrectOptionIndex {
			sub.Status = model.SubmissionCorrect
			sub.Score = question.Points
		} else {
			sub.Status = model.SubmissionIncorrect
		}

	// The timer can force a submit, so everything but mcq accepts an
	// empty payload: qa grades it incorrect, code types pend as-is.
	case model.QuestionQA:
		sub.Answer = in.Answer
		if strings.TrimSpace(in.Answer) != "" && MatchAnswer(question.CorrectAnswer, in.Answer) {
			sub.Status = model.SubmissionCorrect
			sub.Score = question.Points
		} else {
			sub.Status = model.SubmissionIncorrect
		}

	case model.QuestionEditCode, model.QuestionConciseCode:
		sub.Code = in.Code
		sub.Explanation = in.Explanation

	case model.QuestionExplainCode:
		sub.Explanation = in.Explanation

	default:
		return nil, util.ErrMissingRequiredAnswer
	}

	if err := s.Submissions.Create(sub); err != nil {
		// Unique index on (team, question) closes the check-then-create
		// race between two requests from the same team.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadySubmitted
		}
		return nil, err
	}
	monitoring.SubmissionCounter.WithLabelValues(string(sub.QuestionType), string(sub.Status)).Inc()

	s.publishCount(session)
	return sub, nil
}

// ListBySession returns submissions for the host view, optionally
// filtered by question and status.
func (s *SubmissionService) ListBySession(sessionID, questionID string, status model.SubmissionStatus) ([]model.Submission, error) {
	if _, err := s.Sessions.FindByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return s.Submissions.ListBySession(sessionID, questionID, status)
}

func (s *SubmissionService) Get(id string) (*model.Submission, error) {
	sub, err := s.Submissions.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) publishCount(session *model.Session) {
	if s.Events == nil {
		return
	}
	questionID := session.CurrentQuestionID()
	count, err := s.Submissions.CountBySessionAndQuestion(session.ID, questionID)
	if err != nil {
		return
	}
	s.Events.PublishSession(session.ID, Event{
		Type: EventSubmissionCount,
		Data: map[string]interface{}{
			"questionId":    questionID,
			"questionIndex": session.CurrentQuestionIndex,
			"count":         count,
		},
	})
}
