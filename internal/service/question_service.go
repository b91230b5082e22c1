package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"

	"gorm.io/gorm"
)

// QuestionStore is the slice of the question repository the service needs.
type QuestionStore interface {
	Create(q *model.Question) error
	FindByID(id string) (*model.Question, error)
	FindByIDs(ids []string) ([]model.Question, error)
	List(page, limit int, topic string, qType model.QuestionType) ([]model.Question, int64, error)
	Update(q *model.Question) error
	Delete(id string) error
}

// SessionRefCounter answers whether any session snapshot still points at
// a question.
type SessionRefCounter interface {
	CountReferencing(questionID string) (int64, error)
}

// QuestionInput is the payload for creating or updating a question.
type QuestionInput struct {
	Title              string             `json:"title" binding:"required"`
	Description        string             `json:"description"`
	Type               model.QuestionType `json:"type" binding:"required"`
	Points             int                `json:"points"`
	TimeLimit          int                `json:"timeLimit"`
	Topic              string             `json:"topic"`
	ImageURL           string             `json:"imageUrl"`
	Options            []string           `json:"options"`
	CorrectOptionIndex *int               `json:"correctOptionIndex"`
	CorrectAnswer      string             `json:"correctAnswer"`
	InitialCode        string             `json:"initialCode"`
	Instructions       string             `json:"instructions"`
	ScoringCriteria    string             `json:"scoringCriteria"`
}

type QuestionService struct {
	Questions QuestionStore
	Sessions  SessionRefCounter
	Cache     *QuestionCache
}

func NewQuestionService(questions QuestionStore, sessions SessionRefCounter, cache *QuestionCache) *QuestionService {
	return &QuestionService{Questions: questions, Sessions: sessions, Cache: cache}
}

func validateQuestionInput(in *QuestionInput) error {
	if !model.ValidQuestionType(in.Type) {
		return fmt.Errorf("unknown question type %q", in.Type)
	}
	switch in.Type {
	case model.QuestionMCQ:
		if len(in.Options) < 2 {
			return errors.New("mcq questions need at least two options")
		}
		if in.CorrectOptionIndex == nil {
			return errors.New("mcq questions need a correct option index")
		}
		if *in.CorrectOptionIndex < 0 || *in.CorrectOptionIndex >= len(in.Options) {
			return fmt.Errorf("correct option index %d out of range", *in.CorrectOptionIndex)
		}
	case model.QuestionQA:
		if strings.TrimSpace(in.CorrectAnswer) == "" {
			return errors.New("qa questions need a correct answer")
		}
	}
	return nil
}

func applyQuestionInput(q *model.Question, in *QuestionInput) error {
	q.Title = in.Title
	q.Description = in.Description
	q.Type = in.Type
	q.Topic = in.Topic
	q.ImageURL = in.ImageURL
	q.CorrectOptionIndex = in.CorrectOptionIndex
	q.CorrectAnswer = in.CorrectAnswer
	q.InitialCode = in.InitialCode
	q.Instructions = in.Instructions
	q.ScoringCriteria = in.ScoringCriteria

	if in.Points > 0 {
		q.Points = in.Points
	} else if q.Points == 0 {
		q.Points = 5
	}
	if in.TimeLimit > 0 {
		q.TimeLimit = in.TimeLimit
	} else if q.TimeLimit == 0 {
		q.TimeLimit = 300
	}

	if in.Type == model.QuestionMCQ {
		data, err := json.Marshal(in.Options)
		if err != nil {
			return err
		}
		q.Options = data
	} else {
		q.Options = nil
	}
	return nil
}

func (s *QuestionService) Create(in *QuestionInput) (*model.Question, error) {
	if err := validateQuestionInput(in); err != nil {
		return nil, err
	}
	q := &model.Question{}
	if err := applyQuestionInput(q, in); err != nil {
		return nil, err
	}
	if err := s.Questions.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

// Get reads through the cache when one is configured.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	load := func() (*model.Question, error) {
		q, err := s.Questions.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrQuestionNotFound
			}
			return nil, err
		}
		return q, nil
	}
	if s.Cache == nil {
		return load()
	}
	return s.Cache.Get(ctx, id, load)
}

func (s *QuestionService) List(page, limit int, topic string, qType model.QuestionType) ([]model.Question, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Questions.List(page, limit, topic, qType)
}

func (s *QuestionService) Update(ctx context.Context, id string, in *QuestionInput) (*model.Question, error) {
	if err := validateQuestionInput(in); err != nil {
		return nil, err
	}
	q, err := s.Questions.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if err := applyQuestionInput(q, in); err != nil {
		return nil, err
	}
	if err := s.Questions.Update(q); err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, id)
	}
	return q, nil
}

// Delete refuses to remove a question that any session snapshot still
// references; deleting it would tear a hole in a running or replayable
// quiz.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Questions.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuestionNotFound
		}
		return err
	}
	refs, err := s.Sessions.CountReferencing(id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return util.ErrQuestionInUse
	}
	if err := s.Questions.Delete(id); err != nil {
		return err
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, id)
	}
	return nil
}

// Sanitize strips the answer key from a question for participant views.
func Sanitize(q *model.Question) *model.Question {
	out := *q
	out.CorrectOptionIndex = nil
	out.CorrectAnswer = ""
	out.ScoringCriteria = ""
	return &out
}
