package model

// Team is a participant group scoped to one session. Score holds the
// aggregate written by the finalize-scores pass.
// swagger:model Team
type Team struct {
	UUIDBase
	SessionID string `gorm:"index;type:varchar(36);not null" json:"sessionId"`
	Name      string `gorm:"size:100;not null" json:"name"`
	Score     int    `gorm:"default:0" json:"score"`
}

func (Team) TableName() string {
	return "teams"
}
