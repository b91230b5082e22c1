package service

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"

	"gorm.io/gorm"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	nextID   int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionStore) Create(s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		f.nextID++
		s.ID = model.GenerateUUID()
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionStore) FindByID(id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) List(page, limit int, status model.SessionStatus) ([]model.Session, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Session
	for _, s := range f.sessions {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSessionStore) UpdateTransition(s *model.Session, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[s.ID]
	if !ok || stored.Version != expectedVersion {
		return util.ErrSessionConflict
	}
	cp := *s
	cp.Version = expectedVersion + 1
	f.sessions[s.ID] = &cp
	s.Version = cp.Version
	return nil
}

func (f *fakeSessionStore) DeleteCascade(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

type fakeQuestionLookup struct {
	questions map[string]model.Question
}

func (f *fakeQuestionLookup) FindByIDs(ids []string) ([]model.Question, error) {
	var out []model.Question
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []Event
}

func (c *capturedEvents) PublishSession(sessionID string, event Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *capturedEvents) last() *Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil
	}
	e := c.events[len(c.events)-1]
	return &e
}

func newQuestion(id string, qType model.QuestionType) model.Question {
	q := model.Question{Title: "Q " + id, Type: qType, Points: 5}
	q.ID = id
	return q
}

func newSessionService(questionIDs ...string) (*SessionService, *fakeSessionStore, *capturedEvents) {
	store := newFakeSessionStore()
	lookup := &fakeQuestionLookup{questions: map[string]model.Question{}}
	for _, id := range questionIDs {
		lookup.questions[id] = newQuestion(id, model.QuestionMCQ)
	}
	events := &capturedEvents{}
	return NewSessionService(store, lookup, events), store, events
}

func TestSessionLifecycle(t *testing.T) {
	svc, _, events := newSessionService("q1", "q2")

	session, err := svc.Create("DevDay", []string{"q1", "q2"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if session.Status != model.SessionPending || session.CurrentQuestionIndex != -1 {
		t.Fatalf("fresh session in wrong state: %+v", session)
	}

	session, err = svc.Activate(session.ID)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if session.Status != model.SessionActive || session.CurrentQuestionIndex != -1 {
		t.Fatalf("active session must start with no question unlocked: %+v", session)
	}

	session, err = svc.Advance(session.ID)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if session.CurrentQuestionIndex != 0 || session.CurrentQuestionStart == nil {
		t.Fatalf("first advance should unlock index 0 with a start time: %+v", session)
	}
	if session.CurrentQuestionID() != "q1" {
		t.Fatalf("expected q1 unlocked, got %q", session.CurrentQuestionID())
	}

	if _, err = svc.Advance(session.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	session, err = svc.Advance(session.ID)
	if err != nil {
		t.Fatalf("final advance failed: %v", err)
	}
	if session.Status != model.SessionCompleted {
		t.Fatalf("advancing past the last question must complete: %+v", session)
	}
	if session.CurrentQuestionIndex != -1 || session.CurrentQuestionStart != nil {
		t.Fatalf("completed session must lock everything: %+v", session)
	}

	if e := events.last(); e == nil || e.Type != EventSession {
		t.Fatalf("expected a session event, got %+v", e)
	}
}

func TestAdvanceEmptySessionCompletesImmediately(t *testing.T) {
	svc, _, _ := newSessionService()

	session, err := svc.Create("empty", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Activate(session.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	session, err = svc.Advance(session.ID)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if session.Status != model.SessionCompleted {
		t.Fatalf("empty session should complete on first advance: %+v", session)
	}
}

func TestAdvanceRequiresActive(t *testing.T) {
	svc, _, _ := newSessionService("q1")
	session, _ := svc.Create("DevDay", []string{"q1"})

	if _, err := svc.Advance(session.ID); !errors.Is(err, util.ErrSessionNotActive) {
		t.Fatalf("expected not-active error, got %v", err)
	}

	if _, err := svc.Activate(session.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if _, err := svc.Complete(session.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if _, err := svc.Advance(session.ID); !errors.Is(err, util.ErrSessionNotActive) {
		t.Fatalf("expected not-active error after completion, got %v", err)
	}
}

func TestActivateCompletedSessionRejected(t *testing.T) {
	svc, _, _ := newSessionService("q1")
	session, _ := svc.Create("DevDay", []string{"q1"})
	svc.Activate(session.ID)
	svc.Complete(session.ID)

	if _, err := svc.Activate(session.ID); !errors.Is(err, util.ErrSessionCompleted) {
		t.Fatalf("expected completed error, got %v", err)
	}
}

func TestConcurrentTransitionConflict(t *testing.T) {
	svc, store, _ := newSessionService("q1", "q2")
	session, _ := svc.Create("DevDay", []string{"q1", "q2"})
	svc.Activate(session.ID)

	// another request transitions the session between our read and write
	stale, _ := svc.Get(session.ID)
	if _, err := svc.Advance(session.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	stale.CurrentQuestionIndex = 1
	if err := store.UpdateTransition(stale, stale.Version); !errors.Is(err, util.ErrSessionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestCreateRejectsUnknownQuestions(t *testing.T) {
	svc, _, _ := newSessionService("q1")
	if _, err := svc.Create("DevDay", []string{"q1", "missing"}); err == nil {
		t.Fatal("expected error for unknown question id")
	}
}

func TestCurrentQuestionFollowsAdvance(t *testing.T) {
	store := newFakeSessionStore()
	q := newQuestion("q1", model.QuestionQA)
	q.CorrectAnswer = "secret"
	lookup := &fakeQuestionLookup{questions: map[string]model.Question{"q1": q}}
	svc := NewSessionService(store, lookup, nil)

	session, err := svc.Create("DevDay", []string{"q1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	svc.Activate(session.ID)

	_, current, err := svc.CurrentQuestion(session.ID)
	if err != nil {
		t.Fatalf("current question failed: %v", err)
	}
	if current != nil {
		t.Fatalf("nothing unlocked yet, got %+v", current)
	}

	svc.Advance(session.ID)
	_, current, err = svc.CurrentQuestion(session.ID)
	if err != nil {
		t.Fatalf("current question failed: %v", err)
	}
	if current == nil || current.ID != "q1" {
		t.Fatalf("expected q1 unlocked, got %+v", current)
	}
	if current.CorrectAnswer != "" {
		t.Fatalf("answer key leaked: %+v", current)
	}

	svc.Complete(session.ID)
	_, current, err = svc.CurrentQuestion(session.ID)
	if err != nil {
		t.Fatalf("current question failed: %v", err)
	}
	if current != nil {
		t.Fatalf("completed session must lock everything, got %+v", current)
	}
}

func TestSessionQuestionsSanitized(t *testing.T) {
	store := newFakeSessionStore()
	q := newQuestion("q1", model.QuestionMCQ)
	idx := 1
	q.CorrectOptionIndex = &idx
	q.CorrectAnswer = "secret"
	q.Options, _ = json.Marshal([]string{"a", "b"})
	lookup := &fakeQuestionLookup{questions: map[string]model.Question{"q1": q}}
	svc := NewSessionService(store, lookup, nil)

	session, err := svc.Create("DevDay", []string{"q1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, questions, err := svc.SessionQuestions(session.ID, true)
	if err != nil {
		t.Fatalf("questions failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].CorrectOptionIndex != nil || questions[0].CorrectAnswer != "" {
		t.Fatalf("answer key leaked to participants: %+v", questions[0])
	}

	_, full, err := svc.SessionQuestions(session.ID, false)
	if err != nil {
		t.Fatalf("questions failed: %v", err)
	}
	if full[0].CorrectOptionIndex == nil || full[0].CorrectAnswer != "secret" {
		t.Fatalf("host view must keep the answer key: %+v", full[0])
	}
}
