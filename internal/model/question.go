package model

import "encoding/json"

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionEditCode    QuestionType = "edit_code"
	QuestionConciseCode QuestionType = "concise_code"
	QuestionQA          QuestionType = "qa"
	QuestionExplainCode QuestionType = "explain_code"
)

// ValidQuestionType reports whether t names one of the supported types.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionMCQ, QuestionEditCode, QuestionConciseCode, QuestionQA, QuestionExplainCode:
		return true
	}
	return false
}

// Question is a catalog entry in the question bank. The type-specific
// fields are sparse: mcq uses Options/CorrectOptionIndex, qa uses
// CorrectAnswer, the code types use InitialCode/Instructions/ScoringCriteria.
// swagger:model Question
type Question struct {
	UUIDBase
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Type        QuestionType `gorm:"size:20;not null;index" json:"type"`
	Points      int          `gorm:"default:5" json:"points"`
	TimeLimit   int          `gorm:"default:300" json:"timeLimit"` // seconds
	Topic       string       `gorm:"size:100;index" json:"topic"`
	ImageURL    string       `gorm:"size:255" json:"imageUrl,omitempty"`

	Options            json.RawMessage `gorm:"type:json" json:"options,omitempty"` // []string
	CorrectOptionIndex *int            `json:"correctOptionIndex,omitempty"`
	CorrectAnswer      string          `gorm:"type:text" json:"correctAnswer,omitempty"`
	InitialCode        string          `gorm:"type:text" json:"initialCode,omitempty"`
	Instructions       string          `gorm:"type:text" json:"instructions,omitempty"`
	ScoringCriteria    string          `gorm:"type:text" json:"scoringCriteria,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the stored options JSON. Returns nil on absent or
// malformed payloads.
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}
