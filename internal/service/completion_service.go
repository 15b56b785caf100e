package service

import (
	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/pkg/logger"
	"mooc_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CompletionService struct {
	Repo         *repository.CompletionRepository
	StateRepo    *repository.UserExerciseStateRepository
	ExerciseRepo *repository.ExerciseRepository
}

func NewCompletionService(repo *repository.CompletionRepository, stateRepo *repository.UserExerciseStateRepository, exerciseRepo *repository.ExerciseRepository) *CompletionService {
	return &CompletionService{Repo: repo, StateRepo: stateRepo, ExerciseRepo: exerciseRepo}
}

// qualifiesForCompletion applies the module policy: at least one threshold
// must be defined, and every defined threshold must be met.
func qualifiesForCompletion(m *model.CourseModule, exercisesAttempted int64, pointsTotal float64) bool {
	if !m.AutomaticCompletion {
		return false
	}
	if m.ExercisesAttemptedThreshold == nil && m.PointsThreshold == nil {
		return false
	}
	if m.ExercisesAttemptedThreshold != nil && exercisesAttempted < int64(*m.ExercisesAttemptedThreshold) {
		return false
	}
	if m.PointsThreshold != nil && pointsTotal < float64(*m.PointsThreshold) {
		return false
	}
	return true
}

// Evaluate grants the module completion when the user's aggregated metrics
// meet the module policy. At most one completion exists per
// (user, module, course instance); an existing one ends the evaluation.
func (s *CompletionService) Evaluate(tx *gorm.DB, userID, courseInstanceID, moduleID string) error {
	repo := s.Repo.WithTx(tx)

	module, err := repo.ModuleByID(moduleID)
	if err != nil {
		return err
	}
	if !module.AutomaticCompletion {
		return nil
	}

	exists, err := repo.CompletionExists(userID, moduleID, courseInstanceID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	exerciseIDs, err := s.ExerciseRepo.WithTx(tx).ExerciseIDsForModule(moduleID)
	if err != nil {
		return err
	}

	attempted, points, err := s.StateRepo.WithTx(tx).ModuleMetrics(userID, courseInstanceID, exerciseIDs)
	if err != nil {
		return err
	}

	if !qualifiesForCompletion(module, attempted, points) {
		return nil
	}

	completion := &model.CourseModuleCompletion{
		CourseModuleID:     moduleID,
		CourseInstanceID:   courseInstanceID,
		UserID:             userID,
		ExercisesAttempted: int(attempted),
		PointsTotal:        float32(points),
	}
	if err := repo.Create(completion); err != nil {
		return err
	}

	monitoring.CompletionCounter.Inc()
	logger.Log.Info("course module completion granted",
		zap.String("userId", userID),
		zap.String("courseModuleId", moduleID),
		zap.Int64("exercisesAttempted", attempted),
		zap.Float64("pointsTotal", points),
	)
	return nil
}
