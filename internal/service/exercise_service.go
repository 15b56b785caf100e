package service

import (
	"encoding/json"
	"errors"
	"time"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExerciseService struct {
	DB             *gorm.DB
	ExerciseRepo   *repository.ExerciseRepository
	PeerReviewRepo *repository.PeerReviewRepository
	StateService   *StateService
}

func NewExerciseService(db *gorm.DB, exerciseRepo *repository.ExerciseRepository, peerReviewRepo *repository.PeerReviewRepository, stateService *StateService) *ExerciseService {
	return &ExerciseService{
		DB:             db,
		ExerciseRepo:   exerciseRepo,
		PeerReviewRepo: peerReviewRepo,
		StateService:   stateService,
	}
}

type CreateExerciseTaskRequest struct {
	ExerciseType      string          `json:"exerciseType" binding:"required"`
	PrivateSpec       json.RawMessage `json:"privateSpec"`
	PublicSpec        json.RawMessage `json:"publicSpec"`
	ModelSolutionSpec json.RawMessage `json:"modelSolutionSpec"`
	OrderNumber       int             `json:"orderNumber"`
}

type CreateExerciseSlideRequest struct {
	OrderNumber int                         `json:"orderNumber"`
	Tasks       []CreateExerciseTaskRequest `json:"tasks" binding:"required"`
}

type CreatePeerReviewQuestionRequest struct {
	OrderNumber    int                          `json:"orderNumber"`
	Question       string                       `json:"question" binding:"required"`
	QuestionType   model.PeerReviewQuestionType `json:"questionType" binding:"required"`
	AnswerRequired bool                         `json:"answerRequired"`
	Weight         float32                      `json:"weight"`
}

type CreatePeerReviewConfigRequest struct {
	PeerReviewsToGive      int                                `json:"peerReviewsToGive"`
	PeerReviewsToReceive   int                                `json:"peerReviewsToReceive"`
	AcceptingThreshold     float32                            `json:"acceptingThreshold"`
	ProcessingStrategy     model.PeerReviewProcessingStrategy `json:"processingStrategy"`
	PointsAreAllOrNothing  bool                               `json:"pointsAreAllOrNothing"`
	ManualReviewCutoffDays int                                `json:"manualReviewCutoffDays"`
	Questions              []CreatePeerReviewQuestionRequest  `json:"questions"`
}

type CreateExerciseRequest struct {
	Name                             string                         `json:"name" binding:"required"`
	CourseID                         *string                        `json:"courseId"`
	ExamID                           *string                        `json:"examId"`
	CourseModuleID                   *string                        `json:"courseModuleId"`
	ScoreMaximum                     int                            `json:"scoreMaximum" binding:"required"`
	NeedsPeerReview                  bool                           `json:"needsPeerReview"`
	UseCourseDefaultPeerReviewConfig bool                           `json:"useCourseDefaultPeerReviewConfig"`
	Deadline                         *time.Time                     `json:"deadline"`
	Slides                           []CreateExerciseSlideRequest   `json:"slides" binding:"required"`
	PeerReviewConfig                 *CreatePeerReviewConfigRequest `json:"peerReviewConfig"`
}

// normalizeQuestionWeights rescales scale-question weights to sum to 1.
// Essay questions never carry weight. An all-zero weight set is kept as is;
// averaging then falls back to a plain mean.
func normalizeQuestionWeights(questions []model.PeerReviewQuestion) {
	var total float32
	for i := range questions {
		if questions[i].QuestionType == model.PeerReviewQuestionEssay {
			questions[i].Weight = 0
			continue
		}
		total += questions[i].Weight
	}
	if total == 0 {
		return
	}
	for i := range questions {
		if questions[i].QuestionType == model.PeerReviewQuestionScale {
			questions[i].Weight = questions[i].Weight / total
		}
	}
}

func (s *ExerciseService) CreateExercise(req *CreateExerciseRequest) (*model.Exercise, error) {
	if req.CourseID == nil && req.ExamID == nil {
		return nil, util.InvalidRequest("exercise must belong to a course or an exam")
	}
	if len(req.Slides) == 0 {
		return nil, util.InvalidRequest("exercise must have at least one slide")
	}
	if req.ScoreMaximum <= 0 {
		return nil, util.InvalidRequest("scoreMaximum must be positive")
	}
	for _, slide := range req.Slides {
		if len(slide.Tasks) == 0 {
			return nil, util.InvalidRequest("every slide must have at least one task")
		}
	}
	if req.NeedsPeerReview && !req.UseCourseDefaultPeerReviewConfig && req.PeerReviewConfig == nil {
		return nil, util.InvalidRequest("peer-review exercise needs a peerReviewConfig or the course default")
	}
	if req.PeerReviewConfig != nil && req.PeerReviewConfig.ProcessingStrategy != "" && !req.PeerReviewConfig.ProcessingStrategy.Valid() {
		return nil, util.InvalidRequest("unknown processing strategy %q", req.PeerReviewConfig.ProcessingStrategy)
	}

	ex := &model.Exercise{
		Name:                             req.Name,
		CourseID:                         req.CourseID,
		ExamID:                           req.ExamID,
		CourseModuleID:                   req.CourseModuleID,
		ScoreMaximum:                     req.ScoreMaximum,
		NeedsPeerReview:                  req.NeedsPeerReview,
		UseCourseDefaultPeerReviewConfig: req.UseCourseDefaultPeerReviewConfig,
		Deadline:                         req.Deadline,
	}
	for _, slide := range req.Slides {
		ms := model.ExerciseSlide{OrderNumber: slide.OrderNumber}
		for _, task := range slide.Tasks {
			ms.Tasks = append(ms.Tasks, model.ExerciseTask{
				ExerciseType:      task.ExerciseType,
				PrivateSpec:       task.PrivateSpec,
				PublicSpec:        task.PublicSpec,
				ModelSolutionSpec: task.ModelSolutionSpec,
				OrderNumber:       task.OrderNumber,
			})
		}
		ex.Slides = append(ex.Slides, ms)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ExerciseRepo.WithTx(tx).Create(ex); err != nil {
			return err
		}

		if req.PeerReviewConfig == nil {
			return nil
		}
		if req.CourseID == nil {
			return util.InvalidRequest("a peer-review config requires a course")
		}

		cfg := &model.PeerReviewConfig{
			CourseID:               *req.CourseID,
			ExerciseID:             &ex.ID,
			PeerReviewsToGive:      req.PeerReviewConfig.PeerReviewsToGive,
			PeerReviewsToReceive:   req.PeerReviewConfig.PeerReviewsToReceive,
			AcceptingThreshold:     req.PeerReviewConfig.AcceptingThreshold,
			ProcessingStrategy:     req.PeerReviewConfig.ProcessingStrategy,
			PointsAreAllOrNothing:  req.PeerReviewConfig.PointsAreAllOrNothing,
			ManualReviewCutoffDays: req.PeerReviewConfig.ManualReviewCutoffDays,
		}
		if cfg.ProcessingStrategy == "" {
			cfg.ProcessingStrategy = model.ProcessingStrategyAutomaticallyGradeByAverage
		}
		for _, q := range req.PeerReviewConfig.Questions {
			if q.QuestionType != model.PeerReviewQuestionEssay && q.QuestionType != model.PeerReviewQuestionScale {
				return util.InvalidRequest("unknown peer-review question type %q", q.QuestionType)
			}
			cfg.Questions = append(cfg.Questions, model.PeerReviewQuestion{
				OrderNumber:    q.OrderNumber,
				Question:       q.Question,
				QuestionType:   q.QuestionType,
				AnswerRequired: q.AnswerRequired,
				Weight:         q.Weight,
			})
		}
		normalizeQuestionWeights(cfg.Questions)
		return s.PeerReviewRepo.WithTx(tx).CreateConfig(cfg)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("exercise created",
		zap.String("exerciseId", ex.ID),
		zap.String("name", ex.Name),
		zap.Int("slides", len(ex.Slides)),
		zap.Bool("needsPeerReview", ex.NeedsPeerReview),
	)
	return ex, nil
}

// ExerciseTaskView is a task as shown to a learner: no private spec, no
// model solution.
type ExerciseTaskView struct {
	ID           string          `json:"id"`
	ExerciseType string          `json:"exerciseType"`
	PublicSpec   json.RawMessage `json:"publicSpec"`
	OrderNumber  int             `json:"orderNumber"`
}

type ExerciseSlideView struct {
	ID          string             `json:"id"`
	OrderNumber int                `json:"orderNumber"`
	Tasks       []ExerciseTaskView `json:"tasks"`
}

// ExerciseForUser is the learner-facing projection of an exercise: only the
// slide assigned to the user, tasks stripped to their public parts, plus the
// current state aggregate.
type ExerciseForUser struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	ScoreMaximum    int                      `json:"scoreMaximum"`
	NeedsPeerReview bool                     `json:"needsPeerReview"`
	Deadline        *time.Time               `json:"deadline"`
	CurrentSlide    *ExerciseSlideView       `json:"currentSlide"`
	State           *model.UserExerciseState `json:"state"`
}

func (s *ExerciseService) GetForUser(userID, exerciseID string, ctx model.SubmissionContext) (*ExerciseForUser, error) {
	exercise, err := s.findExercise(exerciseID)
	if err != nil {
		return nil, err
	}

	state, err := s.StateService.GetOrCreateState(userID, exercise, ctx)
	if err != nil {
		return nil, err
	}

	view := &ExerciseForUser{
		ID:              exercise.ID,
		Name:            exercise.Name,
		ScoreMaximum:    exercise.ScoreMaximum,
		NeedsPeerReview: exercise.NeedsPeerReview,
		Deadline:        exercise.Deadline,
		State:           state,
	}

	for _, slide := range exercise.Slides {
		if state.SelectedSlideID == nil || slide.ID != *state.SelectedSlideID {
			continue
		}
		sv := &ExerciseSlideView{ID: slide.ID, OrderNumber: slide.OrderNumber}
		for _, task := range slide.Tasks {
			sv.Tasks = append(sv.Tasks, ExerciseTaskView{
				ID:           task.ID,
				ExerciseType: task.ExerciseType,
				PublicSpec:   task.PublicSpec,
				OrderNumber:  task.OrderNumber,
			})
		}
		view.CurrentSlide = sv
		break
	}

	return view, nil
}

// GetState returns the existing aggregate without creating one.
func (s *ExerciseService) GetState(userID, exerciseID string, ctx model.SubmissionContext) (*model.UserExerciseState, error) {
	if !ctx.Valid() {
		return nil, util.InvalidRequest("exactly one of courseInstanceId and examId must be set")
	}
	state, err := s.StateService.StateRepo.Find(userID, exerciseID, ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NotFoundError("no state for user %s on exercise %s", userID, exerciseID)
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// GetFull returns the exercise with private and model-solution specs, plus
// its effective peer-review config. Teacher-facing only.
func (s *ExerciseService) GetFull(exerciseID string) (*model.Exercise, *model.PeerReviewConfig, error) {
	exercise, err := s.findExercise(exerciseID)
	if err != nil {
		return nil, nil, err
	}

	var cfg *model.PeerReviewConfig
	if exercise.NeedsPeerReview {
		cfg, err = s.PeerReviewRepo.ConfigForExercise(exercise)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}
	return exercise, cfg, nil
}

func (s *ExerciseService) findExercise(exerciseID string) (*model.Exercise, error) {
	exercise, err := s.ExerciseRepo.FindByID(exerciseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NotFoundError("exercise %s not found", exerciseID)
	}
	if err != nil {
		return nil, err
	}
	return exercise, nil
}
