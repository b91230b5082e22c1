package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"
)

type fakeTeamScoreStore struct {
	mu    sync.Mutex
	teams map[string]*model.Team
}

func newFakeTeamScoreStore(teams ...model.Team) *fakeTeamScoreStore {
	f := &fakeTeamScoreStore{teams: make(map[string]*model.Team)}
	for i := range teams {
		t := teams[i]
		f.teams[t.ID] = &t
	}
	return f
}

func (f *fakeTeamScoreStore) ListBySession(sessionID string) ([]model.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Team
	for _, t := range f.teams {
		if t.SessionID == sessionID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTeamScoreStore) UpdateScores(scores map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, score := range scores {
		if t, ok := f.teams[id]; ok {
			t.Score = score
		}
	}
	return nil
}

func team(id, sessionID, name string) model.Team {
	t := model.Team{SessionID: sessionID, Name: name}
	t.ID = id
	return t
}

func markedConcise(id, sessionID, teamID, code string, submitted time.Time) *model.Submission {
	s := conciseSub(id, code, 0, submitted)
	s.SessionID = sessionID
	s.TeamID = teamID
	return &s
}

func newScoringFixture(sessionID string) (*ScoringService, *fakeSubmissionStore, *fakeTeamScoreStore, *fakeSessionStore) {
	sessionStore := newFakeSessionStore()
	session := &model.Session{Status: model.SessionActive}
	session.ID = sessionID
	sessionStore.Create(session)

	subStore := newFakeSubmissionStore()
	teamStore := newFakeTeamScoreStore()
	return NewScoringService(subStore, teamStore, sessionStore, nil), subStore, teamStore, sessionStore
}

func TestMarkStoresRubricAndScore(t *testing.T) {
	svc, subStore, _, _ := newScoringFixture("s1")

	sub := &model.Submission{
		SessionID:    "s1",
		TeamID:       "t1",
		QuestionID:   "q1",
		QuestionType: model.QuestionEditCode,
		Status:       model.SubmissionPending,
		SubmittedAt:  time.Now(),
	}
	subStore.Create(sub)

	criteria := map[string]int{
		"readability":       4,
		"maintainability":   3,
		"elegance":          5,
		"languageKnowledge": 2,
		"simplicity":        1,
	}
	marked, err := svc.Mark(sub.ID, criteria)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if marked.Status != model.SubmissionMarked || marked.Score != 15 {
		t.Fatalf("unexpected marked state: %+v", marked)
	}
	if marked.MarkedAt == nil {
		t.Fatal("expected a marked timestamp")
	}
	if got := marked.CriteriaMap(); got["elegance"] != 5 {
		t.Fatalf("criteria not stored: %v", got)
	}
}

func TestMarkPreservesConciseBonusOnRemark(t *testing.T) {
	svc, subStore, _, _ := newScoringFixture("s1")

	sub := markedConcise("sub1", "s1", "t1", "x", time.Now())
	sub.ConciseBonus = 5
	sub.Score = 20
	subStore.Create(sub)

	marked, err := svc.Mark("sub1", map[string]int{
		"readability":       2,
		"maintainability":   2,
		"elegance":          2,
		"languageKnowledge": 2,
		"simplicity":        2,
	})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if marked.Score != 15 {
		t.Fatalf("expected criteria total 10 plus bonus 5, got %d", marked.Score)
	}
}

func TestMarkRejectsAutoScoredTypes(t *testing.T) {
	svc, subStore, _, _ := newScoringFixture("s1")
	sub := &model.Submission{SessionID: "s1", QuestionType: model.QuestionMCQ}
	subStore.Create(sub)

	if _, err := svc.Mark(sub.ID, map[string]int{"x": 1}); !errors.Is(err, util.ErrNotManuallyMarkable) {
		t.Fatalf("expected not-markable error, got %v", err)
	}
}

func TestMarkRejectsBadRubric(t *testing.T) {
	svc, subStore, _, _ := newScoringFixture("s1")
	sub := &model.Submission{SessionID: "s1", QuestionType: model.QuestionExplainCode}
	subStore.Create(sub)

	if _, err := svc.Mark(sub.ID, map[string]int{"explanationScore": 9}); !errors.Is(err, util.ErrInvalidCriteria) {
		t.Fatalf("expected criteria error, got %v", err)
	}
}

func TestFinalizeScoresOverwritesTotals(t *testing.T) {
	svc, subStore, teamStore, _ := newScoringFixture("s1")

	a := team("ta", "s1", "Alpha")
	b := team("tb", "s1", "Alpha") // duplicate display name
	a.Score = 999                  // stale total that must be overwritten
	teamStore.teams["ta"] = &a
	teamStore.teams["tb"] = &b

	s1 := &model.Submission{SessionID: "s1", TeamID: "ta", QuestionType: model.QuestionMCQ, Status: model.SubmissionCorrect, Score: 5}
	s2 := &model.Submission{SessionID: "s1", TeamID: "tb", QuestionType: model.QuestionMCQ, Status: model.SubmissionCorrect, Score: 5}
	subStore.Create(s1)
	subStore.Create(s2)

	c1 := markedConcise("c1", "s1", "ta", "x:=1", time.Now())
	c1.Score = 10
	c2 := markedConcise("c2", "s1", "tb", "much longer solution text", time.Now())
	c2.Score = 10
	// same concise question, so the two compete for the bonus ladder
	c1.QuestionID = "qc"
	c2.QuestionID = "qc"
	subStore.Create(c1)
	subStore.Create(c2)

	teams, err := svc.FinalizeScores("s1")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	totals := map[string]int{}
	for _, tm := range teams {
		totals[tm.ID] = tm.Score
	}
	// ta: mcq 5 + concise 10 + bonus 5 = 20; tb: 5 + 10 + 4 = 19
	if totals["ta"] != 20 || totals["tb"] != 19 {
		t.Fatalf("unexpected totals: %v", totals)
	}
	if teams[0].ID != "ta" {
		t.Fatalf("expected ta to lead the returned leaderboard, got %s", teams[0].ID)
	}

	// finalize again: totals stay put, bonuses do not stack
	teams, err = svc.FinalizeScores("s1")
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	for _, tm := range teams {
		if tm.Score != totals[tm.ID] {
			t.Fatalf("finalize is not idempotent for %s: %d != %d", tm.ID, tm.Score, totals[tm.ID])
		}
	}
}

func TestFinalizeUnknownSession(t *testing.T) {
	svc, _, _, _ := newScoringFixture("s1")
	if _, err := svc.FinalizeScores("missing"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("expected session-not-found, got %v", err)
	}
}
