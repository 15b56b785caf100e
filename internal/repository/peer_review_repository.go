package repository

import (
	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

// PeerReviewRepository 处理互评配置、提交与队列的数据库操作
type PeerReviewRepository struct {
	DB *gorm.DB
}

func NewPeerReviewRepository(db *gorm.DB) *PeerReviewRepository {
	return &PeerReviewRepository{DB: db}
}

func (r *PeerReviewRepository) WithTx(tx *gorm.DB) *PeerReviewRepository {
	return &PeerReviewRepository{DB: tx}
}

// ConfigForExercise resolves the effective peer-review config: the
// exercise-specific one unless the exercise opts into the course default.
func (r *PeerReviewRepository) ConfigForExercise(ex *model.Exercise) (*model.PeerReviewConfig, error) {
	var cfg model.PeerReviewConfig
	q := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_number ASC")
	})

	if ex.UseCourseDefaultPeerReviewConfig {
		if ex.CourseID == nil {
			return nil, gorm.ErrRecordNotFound
		}
		q = q.Where("course_id = ? AND exercise_id IS NULL", *ex.CourseID)
	} else {
		q = q.Where("exercise_id = ?", ex.ID)
	}

	err := q.First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *PeerReviewRepository) CreateConfig(cfg *model.PeerReviewConfig) error {
	return r.DB.Create(cfg).Error
}

// CreateSubmission persists a peer-review submission and its per-question
// answers atomically via the association.
func (r *PeerReviewRepository) CreateSubmission(sub *model.PeerReviewSubmission) error {
	return r.DB.Create(sub).Error
}

func (r *PeerReviewRepository) CountGivenByUser(userID, exerciseID string, ctx model.SubmissionContext) (int64, error) {
	var count int64
	q := r.DB.Model(&model.PeerReviewSubmission{}).
		Where("user_id = ? AND exercise_id = ?", userID, exerciseID)
	q = scopeContext(q, "peer_review_submissions", ctx)
	err := q.Count(&count).Error
	return count, err
}

func (r *PeerReviewRepository) HasReviewed(giverID, slideSubmissionID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.PeerReviewSubmission{}).
		Where("user_id = ? AND slide_submission_id = ?", giverID, slideSubmissionID).
		Count(&count).Error
	return count > 0, err
}

func (r *PeerReviewRepository) ReviewedSlideSubmissionIDs(giverID, exerciseID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.PeerReviewSubmission{}).
		Where("user_id = ? AND exercise_id = ?", giverID, exerciseID).
		Pluck("slide_submission_id", &ids).Error
	return ids, err
}

// ReceivedReviews lists the reviews given to one slide submission, answers
// included.
func (r *PeerReviewRepository) ReceivedReviews(slideSubmissionID string) ([]model.PeerReviewSubmission, error) {
	var subs []model.PeerReviewSubmission
	err := r.DB.Preload("QuestionSubmissions").
		Where("slide_submission_id = ?", slideSubmissionID).
		Find(&subs).Error
	return subs, err
}

func (r *PeerReviewRepository) CountReceived(slideSubmissionID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.PeerReviewSubmission{}).
		Where("slide_submission_id = ?", slideSubmissionID).
		Count(&count).Error
	return count, err
}

// QueueCandidates returns queue entries another learner could review,
// ordered by how badly they still need reviews. With needingOnly false the
// received-enough filter is relaxed.
func (r *PeerReviewRepository) QueueCandidates(exerciseID string, ctx model.SubmissionContext, excludeUserID string, excludeSubmissionIDs []string, limit int, needingOnly bool) ([]model.PeerReviewQueueEntry, error) {
	var entries []model.PeerReviewQueueEntry
	q := r.DB.Where("exercise_id = ? AND user_id <> ?", exerciseID, excludeUserID)
	q = scopeContext(q, "peer_review_queue_entries", ctx)
	if needingOnly {
		q = q.Where("received_enough_peer_reviews = ?", false)
	}
	if len(excludeSubmissionIDs) > 0 {
		q = q.Where("receiving_slide_submission_id NOT IN ?", excludeSubmissionIDs)
	}
	err := q.Order("peer_review_priority DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *PeerReviewRepository) FindQueueEntryForUser(userID, exerciseID string, ctx model.SubmissionContext) (*model.PeerReviewQueueEntry, error) {
	var entry model.PeerReviewQueueEntry
	q := r.DB.Where("user_id = ? AND exercise_id = ?", userID, exerciseID)
	q = scopeContext(q, "peer_review_queue_entries", ctx)
	err := q.First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *PeerReviewRepository) CreateQueueEntry(e *model.PeerReviewQueueEntry) error {
	return r.DB.Create(e).Error
}

func (r *PeerReviewRepository) SaveQueueEntry(e *model.PeerReviewQueueEntry) error {
	return r.DB.Save(e).Error
}
