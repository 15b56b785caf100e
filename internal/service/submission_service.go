package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"
	"mooc_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmissionService struct {
	DB             *gorm.DB
	ExerciseRepo   *repository.ExerciseRepository
	SubmissionRepo *repository.SubmissionRepository
	StateService   *StateService
	Grader         TaskGrader
}

func NewSubmissionService(db *gorm.DB, exerciseRepo *repository.ExerciseRepository, submissionRepo *repository.SubmissionRepository, stateService *StateService, grader TaskGrader) *SubmissionService {
	return &SubmissionService{
		DB:             db,
		ExerciseRepo:   exerciseRepo,
		SubmissionRepo: submissionRepo,
		StateService:   stateService,
		Grader:         grader,
	}
}

type TaskSubmissionRequest struct {
	ExerciseTaskID string          `json:"exerciseTaskId" binding:"required"`
	DataJSON       json.RawMessage `json:"dataJson" binding:"required"`
}

type SlideSubmissionRequest struct {
	ExerciseSlideID  string                  `json:"exerciseSlideId" binding:"required"`
	CourseInstanceID *string                 `json:"courseInstanceId"`
	ExamID           *string                 `json:"examId"`
	TaskSubmissions  []TaskSubmissionRequest `json:"taskSubmissions" binding:"required"`
}

func (r *SlideSubmissionRequest) Context() model.SubmissionContext {
	return model.SubmissionContext{CourseInstanceID: r.CourseInstanceID, ExamID: r.ExamID}
}

// validateSlideSubmission checks that the submission targets the user's
// assigned slide and that every task belongs to it, exactly once.
func validateSlideSubmission(exercise *model.Exercise, state *model.UserExerciseState, req *SlideSubmissionRequest) (*model.ExerciseSlide, error) {
	if len(req.TaskSubmissions) == 0 {
		return nil, util.InvalidRequest("submission must contain at least one task submission")
	}

	if state.SelectedSlideID == nil || *state.SelectedSlideID != req.ExerciseSlideID {
		return nil, util.PreconditionFailed("slide %s is not the one assigned to this user", req.ExerciseSlideID)
	}

	var slide *model.ExerciseSlide
	for i := range exercise.Slides {
		if exercise.Slides[i].ID == req.ExerciseSlideID {
			slide = &exercise.Slides[i]
			break
		}
	}
	if slide == nil {
		return nil, util.NotFoundError("slide %s not found on exercise %s", req.ExerciseSlideID, exercise.ID)
	}

	taskIDs := make(map[string]bool, len(slide.Tasks))
	for _, t := range slide.Tasks {
		taskIDs[t.ID] = true
	}
	seen := make(map[string]bool, len(req.TaskSubmissions))
	for _, ts := range req.TaskSubmissions {
		if !taskIDs[ts.ExerciseTaskID] {
			return nil, util.InvalidRequest("task %s does not belong to slide %s", ts.ExerciseTaskID, slide.ID)
		}
		if seen[ts.ExerciseTaskID] {
			return nil, util.InvalidRequest("duplicate submission for task %s", ts.ExerciseTaskID)
		}
		seen[ts.ExerciseTaskID] = true
	}

	return slide, nil
}

// CreateSlideSubmission persists the submission, grades every task through
// the external grader, and re-aggregates the user's state, all in one
// transaction. A grader outage degrades the affected grading to failed
// instead of losing the submission.
func (s *SubmissionService) CreateSlideSubmission(ctx context.Context, userID string, exerciseID string, req *SlideSubmissionRequest) (*model.SlideSubmission, *model.UserExerciseState, error) {
	sctx := req.Context()
	if !sctx.Valid() {
		return nil, nil, util.InvalidRequest("exactly one of courseInstanceId and examId must be set")
	}

	exercise, err := s.ExerciseRepo.FindByID(exerciseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, util.NotFoundError("exercise %s not found", exerciseID)
	}
	if err != nil {
		return nil, nil, err
	}

	if exercise.Deadline != nil && time.Now().After(*exercise.Deadline) {
		return nil, nil, util.PreconditionFailed("deadline for exercise %s has passed", exerciseID)
	}

	state, err := s.StateService.GetOrCreateState(userID, exercise, sctx)
	if err != nil {
		return nil, nil, err
	}

	slide, err := validateSlideSubmission(exercise, state, req)
	if err != nil {
		return nil, nil, err
	}

	tasksByID := make(map[string]*model.ExerciseTask, len(slide.Tasks))
	for i := range slide.Tasks {
		tasksByID[slide.Tasks[i].ID] = &slide.Tasks[i]
	}

	var sub *model.SlideSubmission
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		subRepo := s.SubmissionRepo.WithTx(tx)

		sub = &model.SlideSubmission{
			ExerciseSlideID:  slide.ID,
			ExerciseID:       exercise.ID,
			UserID:           userID,
			CourseInstanceID: sctx.CourseInstanceID,
			ExamID:           sctx.ExamID,
		}
		if err := subRepo.CreateSlideSubmission(sub); err != nil {
			return err
		}

		for _, tsr := range req.TaskSubmissions {
			task := tasksByID[tsr.ExerciseTaskID]
			ts := &model.TaskSubmission{
				SlideSubmissionID: sub.ID,
				ExerciseTaskID:    task.ID,
				DataJSON:          tsr.DataJSON,
			}
			if err := subRepo.CreateTaskSubmission(ts); err != nil {
				return err
			}
			if err := s.gradeTaskSubmission(ctx, subRepo, exercise, task, ts); err != nil {
				return err
			}
			sub.TaskSubmissions = append(sub.TaskSubmissions, *ts)
		}

		_, err := s.StateService.ReaggregateInTx(tx, exercise, state, model.UpdateStrategyCanAddPointsButCannotRemovePoints)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Log.Info("slide submission processed",
		zap.String("userId", userID),
		zap.String("exerciseId", exercise.ID),
		zap.String("slideSubmissionId", sub.ID),
		zap.Int("tasks", len(sub.TaskSubmissions)),
	)
	return sub, state, nil
}

// ListForExercise pages through every submission of an exercise, newest
// first. Teacher-facing, so task data is included.
func (s *SubmissionService) ListForExercise(exerciseID string, page, limit int) ([]model.SlideSubmission, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.SubmissionRepo.ListForExercise(exerciseID, page, limit)
}

// gradeTaskSubmission creates the grading row and fills it from the grader's
// verdict. At most one grading exists per task submission; losing the insert
// race means another request already graded it, which is fine.
func (s *SubmissionService) gradeTaskSubmission(ctx context.Context, subRepo *repository.SubmissionRepository, exercise *model.Exercise, task *model.ExerciseTask, ts *model.TaskSubmission) error {
	grading := &model.TaskGrading{
		TaskSubmissionID: ts.ID,
		ExerciseID:       exercise.ID,
		ExerciseTaskID:   task.ID,
		GradingProgress:  model.GradingProgressNotReady,
		GradingStartedAt: time.Now(),
	}
	err := subRepo.CreateGrading(grading)
	if util.IsKind(err, util.KindConflict) {
		existing, ferr := subRepo.FindGradingByTaskSubmissionID(ts.ID)
		if ferr != nil {
			return ferr
		}
		grading = existing
	} else if err != nil {
		return err
	}

	result, gerr := s.Grader.Grade(ctx, task.ExerciseType, task.PrivateSpec, ts.DataJSON)
	if gerr != nil {
		logger.Log.Warn("grader call failed, marking grading as failed",
			zap.String("taskSubmissionId", ts.ID),
			zap.String("exerciseType", task.ExerciseType),
			zap.Error(gerr),
		)
		grading.GradingProgress = model.GradingProgressFailed
	} else {
		applyGradingResult(grading, result, exercise.ScoreMaximum)
	}

	monitoring.GradingCounter.WithLabelValues(task.ExerciseType, string(grading.GradingProgress)).Inc()

	if err := subRepo.UpdateGrading(grading); err != nil {
		return err
	}
	return subRepo.SetTaskSubmissionGradingID(ts.ID, grading.ID)
}

// applyGradingResult copies the grader verdict onto the grading row, scaling
// the unscaled score into the exercise's point range.
func applyGradingResult(grading *model.TaskGrading, result *GradingResult, scoreMaximum int) {
	now := time.Now()
	scaled := model.ScaleTaskScore(result.ScoreGiven, result.ScoreMaximum, scoreMaximum)

	grading.GradingProgress = result.GradingProgress
	grading.UnscaledScoreGiven = &result.ScoreGiven
	grading.UnscaledScoreMaximum = &result.ScoreMaximum
	grading.FeedbackText = result.FeedbackText
	grading.FeedbackJSON = result.FeedbackJSON
	if result.GradingProgress == model.GradingProgressFullyGraded {
		grading.ScoreGiven = &scaled
		grading.GradingCompletedAt = &now
	}
}
