package service

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"
	"devday_quiz_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MarkableStore extends the submission read surface with the writes the
// marking and bonus passes need.
type MarkableStore interface {
	SubmissionStore
	Update(s *model.Submission) error
	UpdateScoresAndBonuses(updates map[string]model.ScoreUpdate) error
}

// TeamScoreStore is what finalize needs from the team repository.
type TeamScoreStore interface {
	ListBySession(sessionID string) ([]model.Team, error)
	UpdateScores(scores map[string]int) error
}

type ScoringService struct {
	Submissions MarkableStore
	Teams       TeamScoreStore
	Sessions    SessionLookup
	Events      EventPublisher
}

func NewScoringService(subs MarkableStore, teams TeamScoreStore, sessions SessionLookup, events EventPublisher) *ScoringService {
	return &ScoringService{Submissions: subs, Teams: teams, Sessions: sessions, Events: events}
}

// Mark saves a rubric for one code submission. The score becomes the
// criteria total plus whatever concise bonus the submission already
// holds, so re-marking after a bonus pass keeps the bonus intact.
func (s *ScoringService) Mark(submissionID string, criteria map[string]int) (*model.Submission, error) {
	sub, err := s.Submissions.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}

	total, err := ValidateCriteria(sub.QuestionType, criteria)
	if err != nil {
		if rubricFor(sub.QuestionType) == nil {
			return nil, util.ErrNotManuallyMarkable
		}
		return nil, util.ErrInvalidCriteria
	}

	data, err := json.Marshal(criteria)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sub.Criteria = data
	sub.Score = total + sub.ConciseBonus
	sub.Status = model.SubmissionMarked
	sub.MarkedAt = &now

	if err := s.Submissions.Update(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RunConciseBonus ranks marked concise-code submissions per question and
// awards the shortest-solution bonuses. An empty questionID covers every
// question in the session. The pass is idempotent: previous bonuses are
// replaced, never stacked.
func (s *ScoringService) RunConciseBonus(sessionID, questionID string) (map[string]model.ScoreUpdate, error) {
	if _, err := s.Sessions.FindByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	subs, err := s.Submissions.ListBySession(sessionID, questionID, "")
	if err != nil {
		return nil, err
	}
	updates := ComputeConciseBonuses(subs)
	if len(updates) == 0 {
		return updates, nil
	}
	if err := s.Submissions.UpdateScoresAndBonuses(updates); err != nil {
		return nil, err
	}
	logger.Log.Info("concise bonus pass applied",
		zap.String("sessionId", sessionID),
		zap.Int("submissions", len(updates)))
	return updates, nil
}

// FinalizeScores runs the bonus pass, sums every team's submission scores
// and overwrites the stored team totals, then pushes the fresh
// leaderboard to live subscribers.
func (s *ScoringService) FinalizeScores(sessionID string) ([]model.Team, error) {
	if _, err := s.RunConciseBonus(sessionID, ""); err != nil {
		return nil, err
	}

	teams, err := s.Teams.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}
	subs, err := s.Submissions.ListBySession(sessionID, "", "")
	if err != nil {
		return nil, err
	}

	totals := AggregateScores(teams, subs)
	if err := s.Teams.UpdateScores(totals); err != nil {
		return nil, err
	}

	for i := range teams {
		teams[i].Score = totals[teams[i].ID]
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Score > teams[j].Score
	})

	if s.Events != nil {
		s.Events.PublishSession(sessionID, Event{Type: EventLeaderboard, Data: teams})
	}
	return teams, nil
}
