package service

import (
	"errors"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TeacherGradingService struct {
	DB           *gorm.DB
	ExerciseRepo *repository.ExerciseRepository
	StateRepo    *repository.UserExerciseStateRepository
	DecisionRepo *repository.TeacherDecisionRepository
	StateService *StateService
}

func NewTeacherGradingService(db *gorm.DB, exerciseRepo *repository.ExerciseRepository, stateRepo *repository.UserExerciseStateRepository, decisionRepo *repository.TeacherDecisionRepository, stateService *StateService) *TeacherGradingService {
	return &TeacherGradingService{
		DB:           db,
		ExerciseRepo: exerciseRepo,
		StateRepo:    stateRepo,
		DecisionRepo: decisionRepo,
		StateService: stateService,
	}
}

type TeacherDecisionRequest struct {
	TeacherDecision model.TeacherDecisionType `json:"teacherDecision" binding:"required"`
	CustomPoints    *float32                  `json:"customPoints"`
	Hidden          bool                      `json:"hidden"`
}

// decisionScore maps a decision type to the points it awards on the given
// exercise.
func decisionScore(ex *model.Exercise, req *TeacherDecisionRequest) (float32, error) {
	switch req.TeacherDecision {
	case model.TeacherDecisionFullPoints:
		return float32(ex.ScoreMaximum), nil
	case model.TeacherDecisionZeroPoints, model.TeacherDecisionSuspectedPlagiarism:
		return 0, nil
	case model.TeacherDecisionCustomPoints:
		if req.CustomPoints == nil {
			return 0, util.InvalidRequest("custom-points decision needs customPoints")
		}
		if *req.CustomPoints < 0 || *req.CustomPoints > float32(ex.ScoreMaximum) {
			return 0, util.InvalidRequest("customPoints must be between 0 and %d", ex.ScoreMaximum)
		}
		return *req.CustomPoints, nil
	default:
		return 0, util.InvalidRequest("unknown teacher decision %q", req.TeacherDecision)
	}
}

// RecordDecision stores a teacher's grading decision and re-aggregates the
// state. The decision path may lower the stored score; suspected plagiarism
// zeroes it.
func (s *TeacherGradingService) RecordDecision(stateID string, req *TeacherDecisionRequest) (*model.UserExerciseState, error) {
	state, err := s.StateRepo.FindByID(stateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NotFoundError("user exercise state %s not found", stateID)
	}
	if err != nil {
		return nil, err
	}

	exercise, err := s.ExerciseRepo.FindByID(state.ExerciseID)
	if err != nil {
		return nil, err
	}

	score, err := decisionScore(exercise, req)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		decision := &model.TeacherGradingDecision{
			UserExerciseStateID: state.ID,
			ScoreGiven:          score,
			TeacherDecision:     req.TeacherDecision,
			Hidden:              req.Hidden,
		}
		if err := s.DecisionRepo.WithTx(tx).Create(decision); err != nil {
			return err
		}

		_, err := s.StateService.ReaggregateInTx(tx, exercise, state, model.UpdateStrategyCanAddPointsAndCanRemovePoints)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("teacher grading decision recorded",
		zap.String("userExerciseStateId", state.ID),
		zap.String("decision", string(req.TeacherDecision)),
		zap.Float32("scoreGiven", score),
		zap.Bool("hidden", req.Hidden),
	)
	return state, nil
}
