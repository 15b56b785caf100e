package repository

import (
	"errors"
	"mooc_backend/internal/model"
	"mooc_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// SubmissionRepository 处理提交与评分记录的数据库操作
type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) WithTx(tx *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: tx}
}

func scopeContext(db *gorm.DB, table string, ctx model.SubmissionContext) *gorm.DB {
	if ctx.CourseInstanceID != nil {
		return db.Where(table+".course_instance_id = ?", *ctx.CourseInstanceID)
	}
	return db.Where(table+".exam_id = ?", *ctx.ExamID)
}

func (r *SubmissionRepository) CreateSlideSubmission(sub *model.SlideSubmission) error {
	return r.DB.Create(sub).Error
}

func (r *SubmissionRepository) CreateTaskSubmission(ts *model.TaskSubmission) error {
	return r.DB.Create(ts).Error
}

func (r *SubmissionRepository) FindSlideSubmissionByID(id string) (*model.SlideSubmission, error) {
	var sub model.SlideSubmission
	err := r.DB.Preload("TaskSubmissions").First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) FindTaskSubmissionByID(id string) (*model.TaskSubmission, error) {
	var ts model.TaskSubmission
	err := r.DB.First(&ts, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *SubmissionRepository) SetTaskSubmissionGradingID(taskSubmissionID, gradingID string) error {
	return r.DB.Model(&model.TaskSubmission{}).
		Where("id = ?", taskSubmissionID).
		Update("grading_id", gradingID).Error
}

// CreateGrading inserts a grading row. The unique index on
// task_submission_id races concurrent inserts; the loser gets a Conflict and
// is expected to read the winner's row.
func (r *SubmissionRepository) CreateGrading(g *model.TaskGrading) error {
	err := r.DB.Create(g).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.Conflict("task submission %s already has a grading", g.TaskSubmissionID)
	}
	return err
}

func (r *SubmissionRepository) FindGradingByTaskSubmissionID(taskSubmissionID string) (*model.TaskGrading, error) {
	var g model.TaskGrading
	err := r.DB.First(&g, "task_submission_id = ?", taskSubmissionID).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *SubmissionRepository) UpdateGrading(g *model.TaskGrading) error {
	return r.DB.Save(g).Error
}

func (r *SubmissionRepository) SumTaskScoresForSlideSubmission(slideSubmissionID string) (float32, error) {
	var sum float64
	err := r.DB.Model(&model.TaskGrading{}).
		Joins("JOIN task_submissions ON task_submissions.id = task_gradings.task_submission_id AND task_submissions.deleted_at IS NULL").
		Where("task_submissions.slide_submission_id = ?", slideSubmissionID).
		Select("COALESCE(SUM(task_gradings.score_given), 0)").
		Scan(&sum).Error
	return float32(sum), err
}

// GradingRow is one live task grading attributed to its slide, used for the
// per-slide roll-up during re-aggregation.
type GradingRow struct {
	SlideID     string
	ScoreGiven  *float32
	Progress    model.GradingProgress
	CompletedAt *time.Time
}

func (r *SubmissionRepository) GradingRowsForUser(userID, exerciseID string, ctx model.SubmissionContext) ([]GradingRow, error) {
	var rows []GradingRow
	q := r.DB.Model(&model.TaskGrading{}).
		Select("slide_submissions.exercise_slide_id AS slide_id, task_gradings.score_given, task_gradings.grading_progress AS progress, task_gradings.grading_completed_at AS completed_at").
		Joins("JOIN task_submissions ON task_submissions.id = task_gradings.task_submission_id AND task_submissions.deleted_at IS NULL").
		Joins("JOIN slide_submissions ON slide_submissions.id = task_submissions.slide_submission_id AND slide_submissions.deleted_at IS NULL").
		Where("slide_submissions.user_id = ? AND slide_submissions.exercise_id = ?", userID, exerciseID)
	q = scopeContext(q, "slide_submissions", ctx)
	err := q.Scan(&rows).Error
	return rows, err
}

func (r *SubmissionRepository) LatestSlideSubmission(userID, exerciseID string, ctx model.SubmissionContext) (*model.SlideSubmission, error) {
	var sub model.SlideSubmission
	q := r.DB.Where("user_id = ? AND exercise_id = ?", userID, exerciseID)
	q = scopeContext(q, "slide_submissions", ctx)
	err := q.Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) ListForExercise(exerciseID string, page, limit int) ([]model.SlideSubmission, int64, error) {
	var subs []model.SlideSubmission
	var total int64

	q := r.DB.Model(&model.SlideSubmission{}).Where("exercise_id = ?", exerciseID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("TaskSubmissions").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&subs).Error
	return subs, total, err
}

// RandomSlideSubmissionFromOthers backstops candidate selection when the
// peer-review queue is still empty early in the course.
func (r *SubmissionRepository) RandomSlideSubmissionFromOthers(exerciseID, excludeUserID string, excludeIDs []string, ctx model.SubmissionContext) (*model.SlideSubmission, error) {
	var sub model.SlideSubmission
	q := r.DB.Where("exercise_id = ? AND user_id <> ?", exerciseID, excludeUserID)
	q = scopeContext(q, "slide_submissions", ctx)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	err := q.Order("RAND()").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) LiveTaskSubmissionsForExercise(exerciseID string) ([]model.TaskSubmission, error) {
	var subs []model.TaskSubmission
	err := r.DB.
		Joins("JOIN slide_submissions ON slide_submissions.id = task_submissions.slide_submission_id AND slide_submissions.deleted_at IS NULL").
		Where("slide_submissions.exercise_id = ?", exerciseID).
		Find(&subs).Error
	return subs, err
}

// StaleNotReadyGradings lists gradings whose grader call never completed,
// for the background sweeper to retry.
func (r *SubmissionRepository) StaleNotReadyGradings(olderThan time.Duration) ([]model.TaskGrading, error) {
	var gradings []model.TaskGrading
	cutoff := time.Now().Add(-olderThan)
	err := r.DB.
		Where("grading_progress = ? AND grading_started_at < ?", model.GradingProgressNotReady, cutoff).
		Find(&gradings).Error
	return gradings, err
}
