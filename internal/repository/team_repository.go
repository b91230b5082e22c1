package repository

import (
	"devday_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type TeamRepository struct {
	DB *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{DB: db}
}

func (r *TeamRepository) Create(t *model.Team) error {
	return r.DB.Create(t).Error
}

func (r *TeamRepository) FindByID(id string) (*model.Team, error) {
	var t model.Team
	err := r.DB.Where("id = ?", id).First(&t).Error
	return &t, err
}

func (r *TeamRepository) ListBySession(sessionID string) ([]model.Team, error) {
	var teams []model.Team
	err := r.DB.Where("session_id = ?", sessionID).
		Order("score desc, created_at asc").
		Find(&teams).Error
	return teams, err
}

// UpdateScores overwrites each team's aggregate in one transaction.
func (r *TeamRepository) UpdateScores(scores map[string]int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for teamID, total := range scores {
			if err := tx.Model(&model.Team{}).Where("id = ?", teamID).Update("score", total).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
