package model

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is one timed quiz run over an ordered snapshot of question ids.
// CurrentQuestionIndex is -1 until the first question is unlocked.
// Version guards admin transitions with compare-and-swap.
// swagger:model Session
type Session struct {
	UUIDBase
	Name                 string          `gorm:"size:255;not null" json:"name"`
	Status               SessionStatus   `gorm:"size:20;not null;default:'pending';index" json:"status"`
	QuestionIDs          json.RawMessage `gorm:"type:json" json:"questionIds"` // []string
	CurrentQuestionIndex int             `gorm:"default:-1" json:"currentQuestionIndex"`
	CurrentQuestionStart *time.Time      `json:"currentQuestionStartTime,omitempty"`
	Version              int64           `gorm:"default:0" json:"version"`
}

func (Session) TableName() string {
	return "sessions"
}

// QuestionIDList decodes the stored question id snapshot.
func (s *Session) QuestionIDList() []string {
	if len(s.QuestionIDs) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(s.QuestionIDs, &ids); err != nil {
		return nil
	}
	return ids
}

// CurrentQuestionID returns the id of the active question, or "" when no
// question is unlocked.
func (s *Session) CurrentQuestionID() string {
	ids := s.QuestionIDList()
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(ids) {
		return ""
	}
	return ids[s.CurrentQuestionIndex]
}
