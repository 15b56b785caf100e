package service

import (
	"errors"
	"math/rand"
	"time"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StateService owns the user exercise state aggregate: creation with the
// sticky slide assignment, and the re-aggregation pipeline every write path
// funnels through.
type StateService struct {
	DB             *gorm.DB
	ExerciseRepo   *repository.ExerciseRepository
	StateRepo      *repository.UserExerciseStateRepository
	SubmissionRepo *repository.SubmissionRepository
	DecisionRepo   *repository.TeacherDecisionRepository
	PeerReviewRepo *repository.PeerReviewRepository
	Completion     *CompletionService
}

func NewStateService(db *gorm.DB, exerciseRepo *repository.ExerciseRepository, stateRepo *repository.UserExerciseStateRepository, submissionRepo *repository.SubmissionRepository, decisionRepo *repository.TeacherDecisionRepository, peerReviewRepo *repository.PeerReviewRepository, completion *CompletionService) *StateService {
	return &StateService{
		DB:             db,
		ExerciseRepo:   exerciseRepo,
		StateRepo:      stateRepo,
		SubmissionRepo: submissionRepo,
		DecisionRepo:   decisionRepo,
		PeerReviewRepo: peerReviewRepo,
		Completion:     completion,
	}
}

// GetOrCreateState returns the user's state for the exercise in the given
// context, creating it on first contact. Creation picks the slide the user
// will work on uniformly at random; the choice sticks for the lifetime of
// the state.
func (s *StateService) GetOrCreateState(userID string, exercise *model.Exercise, ctx model.SubmissionContext) (*model.UserExerciseState, error) {
	if !ctx.Valid() {
		return nil, util.InvalidRequest("exactly one of courseInstanceId and examId must be set")
	}

	state, err := s.StateRepo.Find(userID, exercise.ID, ctx)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if len(exercise.Slides) == 0 {
		return nil, util.PreconditionFailed("exercise %s has no slides", exercise.ID)
	}
	slideID := exercise.Slides[rand.Intn(len(exercise.Slides))].ID

	state = &model.UserExerciseState{
		UserID:           userID,
		ExerciseID:       exercise.ID,
		CourseInstanceID: ctx.CourseInstanceID,
		ExamID:           ctx.ExamID,
		SelectedSlideID:  &slideID,
		GradingProgress:  model.GradingProgressNotReady,
		ActivityProgress: model.ActivityProgressStarted,
		ReviewingStage:   model.ReviewingStageNotStarted,
	}
	if err := s.StateRepo.Create(state); err != nil {
		return nil, err
	}

	logger.Log.Info("user exercise state created",
		zap.String("userId", userID),
		zap.String("exerciseId", exercise.ID),
		zap.String("selectedSlideId", slideID),
	)
	return state, nil
}

// ReaggregateInTx reloads everything that feeds the aggregate, runs the pure
// re-aggregation, and persists the result. Must be called inside the same
// transaction as the write that triggered it.
func (s *StateService) ReaggregateInTx(tx *gorm.DB, exercise *model.Exercise, state *model.UserExerciseState, strategy model.UserPointsUpdateStrategy) (*model.UserExerciseState, error) {
	subRepo := s.SubmissionRepo.WithTx(tx)
	stateRepo := s.StateRepo.WithTx(tx)
	ctx := state.Context()

	rows, err := subRepo.GradingRowsForUser(state.UserID, state.ExerciseID, ctx)
	if err != nil {
		return nil, err
	}
	summaries, latestGradedAt := summarizeBySlide(rows)

	for _, summary := range summaries {
		slideState := &model.UserExerciseSlideState{
			UserExerciseStateID: state.ID,
			ExerciseSlideID:     summary.SlideID,
			ScoreGiven:          summary.ScoreGiven,
			GradingProgress:     summary.GradingProgress,
		}
		if err := stateRepo.UpsertSlideState(slideState); err != nil {
			return nil, err
		}
	}

	decision, err := s.DecisionRepo.WithTx(tx).LatestVisibleForState(state.ID)
	if err != nil {
		return nil, err
	}
	decisionIsNewest := decision != nil &&
		(latestGradedAt == nil || decision.CreatedAt.After(*latestGradedAt))

	var prSnap *PeerReviewSnapshot
	if exercise.NeedsPeerReview {
		prSnap, err = s.loadPeerReviewSnapshot(tx, exercise, state)
		if err != nil {
			return nil, err
		}
	}

	update := Reaggregate(StateSnapshot{
		Exercise:         exercise,
		State:            state,
		SlideSummaries:   summaries,
		TeacherDecision:  decision,
		DecisionIsNewest: decisionIsNewest,
		PeerReview:       prSnap,
		UpdateStrategy:   strategy,
	})

	state.ScoreGiven = update.ScoreGiven
	state.GradingProgress = update.GradingProgress
	state.ActivityProgress = update.ActivityProgress
	state.ReviewingStage = update.ReviewingStage
	if err := stateRepo.Update(state); err != nil {
		return nil, err
	}

	if state.CourseInstanceID != nil && exercise.CourseModuleID != nil {
		if err := s.Completion.Evaluate(tx, state.UserID, *state.CourseInstanceID, *exercise.CourseModuleID); err != nil {
			return nil, err
		}
	}

	return state, nil
}

// summarizeBySlide groups live grading rows into per-slide summaries and
// tracks the newest grading completion time for the decision freshness check.
func summarizeBySlide(rows []repository.GradingRow) ([]SlideGradingSummary, *time.Time) {
	type acc struct {
		sum        float32
		hasScore   bool
		progresses []model.GradingProgress
	}
	bySlide := make(map[string]*acc)
	order := make([]string, 0)
	var latest *time.Time

	for _, row := range rows {
		a, ok := bySlide[row.SlideID]
		if !ok {
			a = &acc{}
			bySlide[row.SlideID] = a
			order = append(order, row.SlideID)
		}
		if row.ScoreGiven != nil {
			a.sum += *row.ScoreGiven
			a.hasScore = true
		}
		a.progresses = append(a.progresses, row.Progress)
		if row.CompletedAt != nil && (latest == nil || row.CompletedAt.After(*latest)) {
			latest = row.CompletedAt
		}
	}

	summaries := make([]SlideGradingSummary, 0, len(order))
	for _, slideID := range order {
		a := bySlide[slideID]
		summary := SlideGradingSummary{
			SlideID:         slideID,
			GradingProgress: model.MinGradingProgress(a.progresses),
		}
		if a.hasScore {
			sum := a.sum
			summary.ScoreGiven = &sum
		}
		summaries = append(summaries, summary)
	}
	return summaries, latest
}

// loadPeerReviewSnapshot gathers the review counts and received answers, and
// admits the user into the review queue once they have given enough reviews.
func (s *StateService) loadPeerReviewSnapshot(tx *gorm.DB, exercise *model.Exercise, state *model.UserExerciseState) (*PeerReviewSnapshot, error) {
	prRepo := s.PeerReviewRepo.WithTx(tx)
	subRepo := s.SubmissionRepo.WithTx(tx)
	ctx := state.Context()

	cfg, err := prRepo.ConfigForExercise(exercise)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PeerReviewSnapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	given, err := prRepo.CountGivenByUser(state.UserID, exercise.ID, ctx)
	if err != nil {
		return nil, err
	}

	snap := &PeerReviewSnapshot{
		Config:     cfg,
		Questions:  cfg.Questions,
		GivenCount: int(given),
	}

	latestSub, err := subRepo.LatestSlideSubmission(state.UserID, exercise.ID, ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return snap, nil
	}
	if err != nil {
		return nil, err
	}

	if snap.GivenCount >= cfg.PeerReviewsToGive {
		if err := s.admitToQueue(tx, cfg, exercise, state, latestSub); err != nil {
			return nil, err
		}
	}

	received, err := prRepo.ReceivedReviews(latestSub.ID)
	if err != nil {
		return nil, err
	}
	snap.ReceivedCount = len(received)
	snap.ReceivedReviews = received
	return snap, nil
}

// admitToQueue makes the user's latest submission reviewable by others. The
// entry always points at the latest slide submission, and its counters are
// derived from the reviews that submission has already received, so reviews
// handed out before admission still count.
func (s *StateService) admitToQueue(tx *gorm.DB, cfg *model.PeerReviewConfig, exercise *model.Exercise, state *model.UserExerciseState, sub *model.SlideSubmission) error {
	prRepo := s.PeerReviewRepo.WithTx(tx)

	entry, err := prRepo.FindQueueEntryForUser(state.UserID, exercise.ID, state.Context())
	if err != nil {
		return err
	}
	if entry != nil && entry.ReceivingSlideSubmissionID == sub.ID {
		return nil
	}

	received, err := prRepo.CountReceived(sub.ID)
	if err != nil {
		return err
	}

	if entry == nil {
		entry = &model.PeerReviewQueueEntry{
			UserID:           state.UserID,
			ExerciseID:       exercise.ID,
			CourseInstanceID: state.CourseInstanceID,
			ExamID:           state.ExamID,
		}
		applyQueueCounters(entry, cfg, sub.ID, int(received))
		return prRepo.CreateQueueEntry(entry)
	}

	applyQueueCounters(entry, cfg, sub.ID, int(received))
	return prRepo.SaveQueueEntry(entry)
}

// Reaggregate runs the pipeline in its own transaction, for callers that are
// not already inside one.
func (s *StateService) ReaggregateState(exercise *model.Exercise, state *model.UserExerciseState, strategy model.UserPointsUpdateStrategy) (*model.UserExerciseState, error) {
	var out *model.UserExerciseState
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		out, txErr = s.ReaggregateInTx(tx, exercise, state, strategy)
		return txErr
	})
	return out, err
}
