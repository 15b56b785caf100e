package repository

import (
	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

// TeacherDecisionRepository 处理教师评分决定的数据库操作
type TeacherDecisionRepository struct {
	DB *gorm.DB
}

func NewTeacherDecisionRepository(db *gorm.DB) *TeacherDecisionRepository {
	return &TeacherDecisionRepository{DB: db}
}

func (r *TeacherDecisionRepository) WithTx(tx *gorm.DB) *TeacherDecisionRepository {
	return &TeacherDecisionRepository{DB: tx}
}

func (r *TeacherDecisionRepository) Create(d *model.TeacherGradingDecision) error {
	return r.DB.Create(d).Error
}

// LatestVisibleForState returns the newest non-hidden decision, or nil when
// none exists.
func (r *TeacherDecisionRepository) LatestVisibleForState(stateID string) (*model.TeacherGradingDecision, error) {
	var d model.TeacherGradingDecision
	err := r.DB.
		Where("user_exercise_state_id = ? AND hidden = ?", stateID, false).
		Order("created_at DESC").
		First(&d).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
