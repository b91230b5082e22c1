package repository

import (
	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(s *model.Session) error {
	return r.DB.Create(s).Error
}

func (r *SessionRepository) FindByID(id string) (*model.Session, error) {
	var s model.Session
	err := r.DB.Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *SessionRepository) List(page, limit int, status model.SessionStatus) ([]model.Session, int64, error) {
	var ss []model.Session
	var total int64

	query := r.DB.Model(&model.Session{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&ss).Error
	return ss, total, err
}

// UpdateTransition applies a state transition guarded by the version
// column. The write succeeds only if nobody else transitioned the session
// since it was read; otherwise util.ErrSessionConflict is returned.
func (r *SessionRepository) UpdateTransition(s *model.Session, expectedVersion int64) error {
	updates := map[string]interface{}{
		"status":                 s.Status,
		"current_question_index": s.CurrentQuestionIndex,
		"current_question_start": s.CurrentQuestionStart,
		"version":                expectedVersion + 1,
		"updated_at":             time.Now(),
	}

	res := r.DB.Model(&model.Session{}).
		Where("id = ? AND version = ?", s.ID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrSessionConflict
	}
	s.Version = expectedVersion + 1
	return nil
}

// DeleteCascade removes a session together with its teams and
// submissions in one transaction.
func (r *SessionRepository) DeleteCascade(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&model.Team{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Session{}).Error
	})
}

// CountReferencing reports how many sessions still reference a question
// in their snapshot. JSON_CONTAINS works on the stored id list.
func (r *SessionRepository) CountReferencing(questionID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Session{}).
		Where("JSON_CONTAINS(question_ids, JSON_QUOTE(?))", questionID).
		Count(&count).Error
	return count, err
}
