package repository

import (
	"devday_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(s *model.Submission) error {
	return r.DB.Create(s).Error
}

func (r *SubmissionRepository) FindByID(id string) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *SubmissionRepository) FindByTeamAndQuestion(teamID, questionID string) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.Where("team_id = ? AND question_id = ?", teamID, questionID).First(&s).Error
	return &s, err
}

func (r *SubmissionRepository) ListBySession(sessionID string, questionID string, status model.SubmissionStatus) ([]model.Submission, error) {
	var subs []model.Submission
	query := r.DB.Where("session_id = ?", sessionID)
	if questionID != "" {
		query = query.Where("question_id = ?", questionID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("submitted_at desc").Find(&subs).Error
	return subs, err
}

func (r *SubmissionRepository) CountBySessionAndQuestion(sessionID, questionID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) Update(s *model.Submission) error {
	return r.DB.Save(s).Error
}

// UpdateScoresAndBonuses applies the concise-bonus pass as one batch.
// Keys are submission ids.
func (r *SubmissionRepository) UpdateScoresAndBonuses(updates map[string]model.ScoreUpdate) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for id, u := range updates {
			if err := tx.Model(&model.Submission{}).Where("id = ?", id).
				Updates(map[string]interface{}{
					"score":         u.Score,
					"concise_bonus": u.ConciseBonus,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
