package model

import (
	"encoding/json"
	"time"
)

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCorrect   SubmissionStatus = "correct"
	SubmissionIncorrect SubmissionStatus = "incorrect"
	SubmissionMarked    SubmissionStatus = "marked"
)

// Submission records one team's answer to one question. A row is created
// once at submit time; only the marking and bonus passes mutate it
// afterwards (status, score, criteria, concise bonus).
// swagger:model Submission
type Submission struct {
	UUIDBase
	SessionID     string       `gorm:"index;type:varchar(36);not null" json:"sessionId"`
	TeamID        string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_team_question" json:"teamId"`
	TeamName      string       `gorm:"size:100" json:"teamName"`
	QuestionID    string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_team_question" json:"questionId"`
	QuestionIndex int          `json:"questionIndex"`
	QuestionType  QuestionType `gorm:"size:20;not null" json:"questionType"`

	SelectedOptionIndex *int   `json:"selectedOptionIndex,omitempty"`
	Code                string `gorm:"type:text" json:"code,omitempty"`
	Answer              string `gorm:"type:text" json:"answer,omitempty"`
	Explanation         string `gorm:"type:text" json:"explanation,omitempty"`

	Status       SubmissionStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Score        int              `gorm:"default:0" json:"score"`
	Criteria     json.RawMessage  `gorm:"type:json" json:"criteria,omitempty"` // map[string]int
	ConciseBonus int              `gorm:"default:0" json:"conciseBonus"`
	SubmittedAt  time.Time        `json:"submittedAt"`
	MarkedAt     *time.Time       `json:"markedAt,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// ScoreUpdate is the per-submission delta applied by the concise-bonus
// pass.
type ScoreUpdate struct {
	Score        int
	ConciseBonus int
}

// CriteriaMap decodes the stored rubric scores.
func (s *Submission) CriteriaMap() map[string]int {
	if len(s.Criteria) == 0 {
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal(s.Criteria, &m); err != nil {
		return nil
	}
	return m
}
