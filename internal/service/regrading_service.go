package service

import (
	"context"
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

// RegradingService re-runs the grader over existing submissions: on demand
// for a whole exercise, and in the background for gradings whose original
// grader call never finished.
type RegradingService struct {
	DB             *gorm.DB
	ExerciseRepo   *repository.ExerciseRepository
	SubmissionRepo *repository.SubmissionRepository
	StateRepo      *repository.UserExerciseStateRepository
	StateService   *StateService
	Grader         TaskGrader
}

func NewRegradingService(db *gorm.DB, exerciseRepo *repository.ExerciseRepository, submissionRepo *repository.SubmissionRepository, stateRepo *repository.UserExerciseStateRepository, stateService *StateService, grader TaskGrader) *RegradingService {
	return &RegradingService{
		DB:             db,
		ExerciseRepo:   exerciseRepo,
		SubmissionRepo: submissionRepo,
		StateRepo:      stateRepo,
		StateService:   stateService,
		Grader:         grader,
	}
}

type RegradeRequest struct {
	UserPointsUpdateStrategy model.UserPointsUpdateStrategy `json:"userPointsUpdateStrategy"`
}

type RegradeReport struct {
	TaskSubmissionsRegraded int `json:"taskSubmissionsRegraded"`
	TaskSubmissionsFailed   int `json:"taskSubmissionsFailed"`
	StatesReaggregated      int `json:"statesReaggregated"`
}

// RegradeExercise regrades every live task submission of an exercise and
// then re-aggregates every affected user state with the requested strategy.
// Grader failures degrade individual gradings to failed and do not abort the
// run.
func (s *RegradingService) RegradeExercise(ctx context.Context, exerciseID string, req *RegradeRequest) (*RegradeReport, error) {
	strategy := req.UserPointsUpdateStrategy
	if strategy == "" {
		strategy = model.UpdateStrategyCanAddPointsButCannotRemovePoints
	}
	if !strategy.Valid() {
		return nil, util.InvalidRequest("unknown points update strategy %q", strategy)
	}

	exercise, err := s.ExerciseRepo.FindByID(exerciseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NotFoundError("exercise %s not found", exerciseID)
	}
	if err != nil {
		return nil, err
	}

	tasksByID := make(map[string]*model.ExerciseTask)
	for i := range exercise.Slides {
		for j := range exercise.Slides[i].Tasks {
			task := &exercise.Slides[i].Tasks[j]
			tasksByID[task.ID] = task
		}
	}

	taskSubs, err := s.SubmissionRepo.LiveTaskSubmissionsForExercise(exerciseID)
	if err != nil {
		return nil, err
	}

	report := &RegradeReport{}
	for i := range taskSubs {
		ts := &taskSubs[i]
		task, ok := tasksByID[ts.ExerciseTaskID]
		if !ok {
			// Task removed from the exercise after the submission was made.
			continue
		}
		if err := s.regradeTaskSubmission(ctx, exercise, task, ts); err != nil {
			report.TaskSubmissionsFailed++
			logger.Log.Warn("regrade of task submission failed",
				zap.String("taskSubmissionId", ts.ID),
				zap.Error(err),
			)
			continue
		}
		report.TaskSubmissionsRegraded++
	}

	states, err := s.StateRepo.StatesForExercise(exerciseID)
	if err != nil {
		return nil, err
	}
	for i := range states {
		if _, err := s.StateService.ReaggregateState(exercise, &states[i], strategy); err != nil {
			logger.Log.Error("re-aggregation after regrade failed",
				zap.String("userExerciseStateId", states[i].ID),
				zap.Error(err),
			)
			continue
		}
		report.StatesReaggregated++
	}

	logger.Log.Info("exercise regraded",
		zap.String("exerciseId", exerciseID),
		zap.String("strategy", string(strategy)),
		zap.Int("regraded", report.TaskSubmissionsRegraded),
		zap.Int("failed", report.TaskSubmissionsFailed),
		zap.Int("states", report.StatesReaggregated),
	)
	return report, nil
}

// regradeTaskSubmission overwrites the existing grading row in place; the
// one-grading-per-submission rule holds across regrades.
func (s *RegradingService) regradeTaskSubmission(ctx context.Context, exercise *model.Exercise, task *model.ExerciseTask, ts *model.TaskSubmission) error {
	grading, err := s.SubmissionRepo.FindGradingByTaskSubmissionID(ts.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		grading = &model.TaskGrading{
			TaskSubmissionID: ts.ID,
			ExerciseID:       exercise.ID,
			ExerciseTaskID:   task.ID,
			GradingProgress:  model.GradingProgressNotReady,
			GradingStartedAt: time.Now(),
		}
		if err := s.SubmissionRepo.CreateGrading(grading); err != nil {
			return err
		}
		if err := s.SubmissionRepo.SetTaskSubmissionGradingID(ts.ID, grading.ID); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	result, err := s.Grader.Grade(ctx, task.ExerciseType, task.PrivateSpec, ts.DataJSON)
	if err != nil {
		grading.GradingProgress = model.GradingProgressFailed
		if uerr := s.SubmissionRepo.UpdateGrading(grading); uerr != nil {
			return uerr
		}
		return err
	}

	applyGradingResult(grading, result, exercise.ScoreMaximum)
	monitoring.GradingCounter.WithLabelValues(task.ExerciseType, string(grading.GradingProgress)).Inc()
	return s.SubmissionRepo.UpdateGrading(grading)
}

// RetryStaleGradings picks up gradings stuck in not-ready, typically after a
// crash between creating the row and hearing back from the grader. Called
// periodically by the background sweeper.
func (s *RegradingService) RetryStaleGradings(ctx context.Context, olderThan time.Duration) error {
	gradings, err := s.SubmissionRepo.StaleNotReadyGradings(olderThan)
	if err != nil {
		return err
	}
	if len(gradings) == 0 {
		return nil
	}

	logger.Log.Info("retrying stale gradings", zap.Int("count", len(gradings)))

	for i := range gradings {
		if err := s.retryOne(ctx, &gradings[i]); err != nil {
			logger.Log.Warn("stale grading retry failed",
				zap.String("gradingId", gradings[i].ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *RegradingService) retryOne(ctx context.Context, grading *model.TaskGrading) error {
	ts, err := s.SubmissionRepo.FindTaskSubmissionByID(grading.TaskSubmissionID)
	if err != nil {
		return err
	}
	slideSub, err := s.SubmissionRepo.FindSlideSubmissionByID(ts.SlideSubmissionID)
	if err != nil {
		return err
	}
	exercise, err := s.ExerciseRepo.FindByID(grading.ExerciseID)
	if err != nil {
		return err
	}

	var task *model.ExerciseTask
	for i := range exercise.Slides {
		for j := range exercise.Slides[i].Tasks {
			if exercise.Slides[i].Tasks[j].ID == grading.ExerciseTaskID {
				task = &exercise.Slides[i].Tasks[j]
			}
		}
	}
	if task == nil {
		return util.NotFoundError("task %s no longer exists on exercise %s", grading.ExerciseTaskID, exercise.ID)
	}

	if err := s.regradeTaskSubmission(ctx, exercise, task, ts); err != nil {
		return err
	}

	state, err := s.StateRepo.Find(slideSub.UserID, exercise.ID, slideSub.Context())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.StateService.ReaggregateState(exercise, state, model.UpdateStrategyCanAddPointsButCannotRemovePoints)
	return err
}
