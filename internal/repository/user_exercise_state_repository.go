package repository

import (
	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

// UserExerciseStateRepository 处理用户练习状态聚合的数据库操作
type UserExerciseStateRepository struct {
	DB *gorm.DB
}

func NewUserExerciseStateRepository(db *gorm.DB) *UserExerciseStateRepository {
	return &UserExerciseStateRepository{DB: db}
}

func (r *UserExerciseStateRepository) WithTx(tx *gorm.DB) *UserExerciseStateRepository {
	return &UserExerciseStateRepository{DB: tx}
}

func (r *UserExerciseStateRepository) Find(userID, exerciseID string, ctx model.SubmissionContext) (*model.UserExerciseState, error) {
	var state model.UserExerciseState
	q := r.DB.Where("user_id = ? AND exercise_id = ?", userID, exerciseID)
	q = scopeContext(q, "user_exercise_states", ctx)
	err := q.First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *UserExerciseStateRepository) FindByID(id string) (*model.UserExerciseState, error) {
	var state model.UserExerciseState
	err := r.DB.First(&state, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *UserExerciseStateRepository) Create(state *model.UserExerciseState) error {
	return r.DB.Create(state).Error
}

func (r *UserExerciseStateRepository) Update(state *model.UserExerciseState) error {
	return r.DB.Save(state).Error
}

// UpsertSlideState writes the derived per-slide roll-up.
func (r *UserExerciseStateRepository) UpsertSlideState(ss *model.UserExerciseSlideState) error {
	var existing model.UserExerciseSlideState
	err := r.DB.
		Where("user_exercise_state_id = ? AND exercise_slide_id = ?", ss.UserExerciseStateID, ss.ExerciseSlideID).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(ss).Error
	}
	if err != nil {
		return err
	}
	existing.ScoreGiven = ss.ScoreGiven
	existing.GradingProgress = ss.GradingProgress
	return r.DB.Save(&existing).Error
}

func (r *UserExerciseStateRepository) SlideStatesForState(stateID string) ([]model.UserExerciseSlideState, error) {
	var states []model.UserExerciseSlideState
	err := r.DB.Where("user_exercise_state_id = ?", stateID).Find(&states).Error
	return states, err
}

// StatesForExercise lists every user state of an exercise, for regrades.
func (r *UserExerciseStateRepository) StatesForExercise(exerciseID string) ([]model.UserExerciseState, error) {
	var states []model.UserExerciseState
	err := r.DB.Where("exercise_id = ?", exerciseID).Find(&states).Error
	return states, err
}

// ModuleMetrics aggregates a user's attempted-exercise count and point total
// over the given exercise set within one course instance.
func (r *UserExerciseStateRepository) ModuleMetrics(userID, courseInstanceID string, exerciseIDs []string) (int64, float64, error) {
	if len(exerciseIDs) == 0 {
		return 0, 0, nil
	}

	var attempted int64
	err := r.DB.Model(&model.UserExerciseState{}).
		Where("user_id = ? AND course_instance_id = ? AND exercise_id IN ?", userID, courseInstanceID, exerciseIDs).
		Where("activity_progress IN ?", []model.ActivityProgress{model.ActivityProgressSubmitted, model.ActivityProgressCompleted}).
		Count(&attempted).Error
	if err != nil {
		return 0, 0, err
	}

	var points float64
	err = r.DB.Model(&model.UserExerciseState{}).
		Where("user_id = ? AND course_instance_id = ? AND exercise_id IN ?", userID, courseInstanceID, exerciseIDs).
		Select("COALESCE(SUM(score_given), 0)").
		Scan(&points).Error
	return attempted, points, err
}
