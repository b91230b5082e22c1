package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"
	"devday_quiz_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionStore is the slice of the session repository the service needs.
type SessionStore interface {
	Create(s *model.Session) error
	FindByID(id string) (*model.Session, error)
	List(page, limit int, status model.SessionStatus) ([]model.Session, int64, error)
	UpdateTransition(s *model.Session, expectedVersion int64) error
	DeleteCascade(id string) error
}

// QuestionLookup resolves the ids named in a session snapshot.
type QuestionLookup interface {
	FindByIDs(ids []string) ([]model.Question, error)
}

type SessionService struct {
	Sessions  SessionStore
	Questions QuestionLookup
	Events    EventPublisher
}

func NewSessionService(sessions SessionStore, questions QuestionLookup, events EventPublisher) *SessionService {
	return &SessionService{Sessions: sessions, Questions: questions, Events: events}
}

// Create snapshots the question id list into a new pending session. Every
// id must exist at creation time; later catalog edits do not affect the
// snapshot order.
func (s *SessionService) Create(name string, questionIDs []string) (*model.Session, error) {
	if name == "" {
		return nil, errors.New("session name is required")
	}
	if len(questionIDs) > 0 {
		found, err := s.Questions.FindByIDs(questionIDs)
		if err != nil {
			return nil, err
		}
		if len(found) != len(uniqueStrings(questionIDs)) {
			return nil, fmt.Errorf("session references unknown questions")
		}
	}

	data, err := json.Marshal(questionIDs)
	if err != nil {
		return nil, err
	}
	session := &model.Session{
		Name:                 name,
		Status:               model.SessionPending,
		QuestionIDs:          data,
		CurrentQuestionIndex: -1,
	}
	if err := s.Sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *SessionService) Get(id string) (*model.Session, error) {
	session, err := s.Sessions.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) List(page, limit int, status model.SessionStatus) ([]model.Session, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Sessions.List(page, limit, status)
}

// Activate moves a pending session to active. The first question stays
// locked until the host advances.
func (s *SessionService) Activate(id string) (*model.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, util.ErrSessionCompleted
	}
	if session.Status == model.SessionActive {
		return session, nil
	}

	expected := session.Version
	session.Status = model.SessionActive
	session.CurrentQuestionIndex = -1
	session.CurrentQuestionStart = nil
	if err := s.Sessions.UpdateTransition(session, expected); err != nil {
		return nil, err
	}
	s.publishSession(session)
	return session, nil
}

// Advance unlocks the next question in an active session. Advancing past
// the last question completes the session and relocks everything.
func (s *SessionService) Advance(id string) (*model.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionActive {
		return nil, util.ErrSessionNotActive
	}

	expected := session.Version
	ids := session.QuestionIDList()
	next := session.CurrentQuestionIndex + 1
	if next >= len(ids) {
		session.Status = model.SessionCompleted
		session.CurrentQuestionIndex = -1
		session.CurrentQuestionStart = nil
	} else {
		now := time.Now()
		session.CurrentQuestionIndex = next
		session.CurrentQuestionStart = &now
	}

	if err := s.Sessions.UpdateTransition(session, expected); err != nil {
		return nil, err
	}
	s.publishSession(session)
	return session, nil
}

// Complete ends the session regardless of position.
func (s *SessionService) Complete(id string) (*model.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return session, nil
	}

	expected := session.Version
	session.Status = model.SessionCompleted
	session.CurrentQuestionIndex = -1
	session.CurrentQuestionStart = nil
	if err := s.Sessions.UpdateTransition(session, expected); err != nil {
		return nil, err
	}
	s.publishSession(session)
	return session, nil
}

// Delete removes the session with its teams and submissions.
func (s *SessionService) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.Sessions.DeleteCascade(id); err != nil {
		return err
	}
	logger.Log.Info("session deleted", zap.String("sessionId", id))
	return nil
}

// SessionQuestions returns the snapshot questions in session order. When
// sanitized, answer keys are stripped for participant consumption.
func (s *SessionService) SessionQuestions(id string, sanitized bool) (*model.Session, []model.Question, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ids := session.QuestionIDList()
	questions, err := s.Questions.FindByIDs(ids)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			continue
		}
		if sanitized {
			q = *Sanitize(&q)
		}
		ordered = append(ordered, q)
	}
	return session, ordered, nil
}

// CurrentQuestion returns the unlocked question with answer keys
// stripped, or nil while everything is locked.
func (s *SessionService) CurrentQuestion(id string) (*model.Session, *model.Question, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	qid := session.CurrentQuestionID()
	if qid == "" {
		return session, nil, nil
	}
	questions, err := s.Questions.FindByIDs([]string{qid})
	if err != nil {
		return nil, nil, err
	}
	if len(questions) == 0 {
		return session, nil, nil
	}
	return session, Sanitize(&questions[0]), nil
}

func (s *SessionService) publishSession(session *model.Session) {
	if s.Events == nil {
		return
	}
	s.Events.PublishSession(session.ID, Event{Type: EventSession, Data: session})
}
