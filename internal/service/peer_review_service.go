package service

import (
	"errors"
	"math"
	"math/rand"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"
	"mooc_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	scaleAnswerMin = 1
	scaleAnswerMax = 5

	queueCandidateWindow = 10
)

type PeerReviewService struct {
	DB             *gorm.DB
	ExerciseRepo   *repository.ExerciseRepository
	SubmissionRepo *repository.SubmissionRepository
	PeerReviewRepo *repository.PeerReviewRepository
	StateService   *StateService
}

func NewPeerReviewService(db *gorm.DB, exerciseRepo *repository.ExerciseRepository, submissionRepo *repository.SubmissionRepository, peerReviewRepo *repository.PeerReviewRepository, stateService *StateService) *PeerReviewService {
	return &PeerReviewService{
		DB:             db,
		ExerciseRepo:   exerciseRepo,
		SubmissionRepo: submissionRepo,
		PeerReviewRepo: peerReviewRepo,
		StateService:   stateService,
	}
}

type PeerReviewAnswerRequest struct {
	PeerReviewQuestionID string   `json:"peerReviewQuestionId" binding:"required"`
	TextData             *string  `json:"textData"`
	NumberData           *float32 `json:"numberData"`
}

type PeerReviewSubmissionRequest struct {
	SlideSubmissionID string                    `json:"slideSubmissionId" binding:"required"`
	CourseInstanceID  *string                   `json:"courseInstanceId"`
	ExamID            *string                   `json:"examId"`
	Answers           []PeerReviewAnswerRequest `json:"answers" binding:"required"`
}

func (r *PeerReviewSubmissionRequest) Context() model.SubmissionContext {
	return model.SubmissionContext{CourseInstanceID: r.CourseInstanceID, ExamID: r.ExamID}
}

// validateAnswers checks a review against the question set and returns the
// answers that will be stored. Answers to questions outside the config are
// dropped silently; required questions must be answered and scale answers
// must be whole numbers on the 1..5 scale.
func validateAnswers(questions []model.PeerReviewQuestion, answers []PeerReviewAnswerRequest) ([]PeerReviewAnswerRequest, error) {
	byID := make(map[string]*model.PeerReviewQuestion, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	kept := make([]PeerReviewAnswerRequest, 0, len(answers))
	answered := make(map[string]bool, len(answers))
	for _, ans := range answers {
		q, ok := byID[ans.PeerReviewQuestionID]
		if !ok {
			continue
		}
		if answered[q.ID] {
			return nil, util.InvalidRequest("question %s answered twice", q.ID)
		}
		answered[q.ID] = true

		switch q.QuestionType {
		case model.PeerReviewQuestionScale:
			if ans.NumberData == nil {
				return nil, util.InvalidRequest("scale question %s needs a numeric answer", q.ID)
			}
			v := float64(*ans.NumberData)
			if v != math.Trunc(v) || v < scaleAnswerMin || v > scaleAnswerMax {
				return nil, util.InvalidRequest("scale answer for question %s must be an integer between %d and %d", q.ID, scaleAnswerMin, scaleAnswerMax)
			}
		case model.PeerReviewQuestionEssay:
			if ans.TextData == nil || *ans.TextData == "" {
				if q.Required() {
					return nil, util.InvalidRequest("essay question %s needs a text answer", q.ID)
				}
			}
		}
		kept = append(kept, ans)
	}

	for i := range questions {
		if questions[i].Required() && !answered[questions[i].ID] {
			return nil, util.InvalidRequest("required question %s has no answer", questions[i].ID)
		}
	}
	return kept, nil
}

// Submit records a peer review, advances the receiver's queue entry, and
// re-aggregates both the giver's and the receiver's exercise states.
func (s *PeerReviewService) Submit(userID, exerciseID string, req *PeerReviewSubmissionRequest) (*model.UserExerciseState, error) {
	sctx := req.Context()
	if !sctx.Valid() {
		return nil, util.InvalidRequest("exactly one of courseInstanceId and examId must be set")
	}

	exercise, err := s.ExerciseRepo.FindByID(exerciseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NotFoundError("exercise %s not found", exerciseID)
	}
	if err != nil {
		return nil, err
	}
	if !exercise.NeedsPeerReview {
		return nil, util.PreconditionFailed("exercise %s does not use peer review", exerciseID)
	}

	cfg, err := s.PeerReviewRepo.ConfigForExercise(exercise)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.PreconditionFailed("exercise %s has no peer-review config", exerciseID)
	}
	if err != nil {
		return nil, err
	}

	answers, err := validateAnswers(cfg.Questions, req.Answers)
	if err != nil {
		return nil, err
	}

	giverState, err := s.StateService.StateRepo.Find(userID, exerciseID, sctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.PreconditionFailed("submit your own answer before reviewing others")
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.SubmissionRepo.LatestSlideSubmission(userID, exerciseID, sctx); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.PreconditionFailed("submit your own answer before reviewing others")
	} else if err != nil {
		return nil, err
	}

	target, err := s.SubmissionRepo.FindSlideSubmissionByID(req.SlideSubmissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NotFoundError("slide submission %s not found", req.SlideSubmissionID)
	}
	if err != nil {
		return nil, err
	}
	if target.UserID == userID {
		return nil, util.InvalidRequest("cannot peer review your own submission")
	}
	if target.ExerciseID != exerciseID {
		return nil, util.InvalidRequest("slide submission %s belongs to a different exercise", req.SlideSubmissionID)
	}

	alreadyReviewed, err := s.PeerReviewRepo.HasReviewed(userID, target.ID)
	if err != nil {
		return nil, err
	}
	if alreadyReviewed {
		return nil, util.InvalidRequest("submission %s already reviewed by this user", target.ID)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		prRepo := s.PeerReviewRepo.WithTx(tx)

		review := &model.PeerReviewSubmission{
			UserID:             userID,
			ExerciseID:         exerciseID,
			CourseInstanceID:   sctx.CourseInstanceID,
			ExamID:             sctx.ExamID,
			PeerReviewConfigID: cfg.ID,
			SlideSubmissionID:  target.ID,
		}
		for _, ans := range answers {
			review.QuestionSubmissions = append(review.QuestionSubmissions, model.PeerReviewQuestionSubmission{
				PeerReviewQuestionID: ans.PeerReviewQuestionID,
				TextData:             ans.TextData,
				NumberData:           ans.NumberData,
			})
		}
		if err := prRepo.CreateSubmission(review); err != nil {
			return err
		}

		if err := s.advanceReceiverQueue(tx, cfg, target); err != nil {
			return err
		}

		if _, err := s.StateService.ReaggregateInTx(tx, exercise, giverState, model.UpdateStrategyCanAddPointsButCannotRemovePoints); err != nil {
			return err
		}

		receiverState, err := s.StateService.StateRepo.WithTx(tx).Find(target.UserID, exerciseID, target.Context())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The receiver submitted without a state only if data was
			// removed underneath us; the review still stands.
			return nil
		}
		if err != nil {
			return err
		}
		_, err = s.StateService.ReaggregateInTx(tx, exercise, receiverState, model.UpdateStrategyCanAddPointsButCannotRemovePoints)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.PeerReviewCounter.Inc()
	logger.Log.Info("peer review submitted",
		zap.String("giverId", userID),
		zap.String("receiverId", target.UserID),
		zap.String("exerciseId", exerciseID),
		zap.String("slideSubmissionId", target.ID),
	)
	return giverState, nil
}

func (s *PeerReviewService) advanceReceiverQueue(tx *gorm.DB, cfg *model.PeerReviewConfig, target *model.SlideSubmission) error {
	prRepo := s.PeerReviewRepo.WithTx(tx)

	entry, err := prRepo.FindQueueEntryForUser(target.UserID, target.ExerciseID, target.Context())
	if err != nil {
		return err
	}
	// Reviews given before admission, or against a superseded submission,
	// are backfilled when the entry is pointed at the latest submission.
	if entry == nil || entry.ReceivingSlideSubmissionID != target.ID {
		return nil
	}

	received, err := prRepo.CountReceived(target.ID)
	if err != nil {
		return err
	}
	applyQueueCounters(entry, cfg, target.ID, int(received))
	return prRepo.SaveQueueEntry(entry)
}

// applyQueueCounters points a queue entry at a slide submission and derives
// the received counters from that submission's live review count. Priority is
// the number of reviews the entry still needs.
func applyQueueCounters(entry *model.PeerReviewQueueEntry, cfg *model.PeerReviewConfig, slideSubmissionID string, received int) {
	entry.ReceivingSlideSubmissionID = slideSubmissionID
	entry.PeerReviewsReceived = received
	entry.ReceivedEnoughPeerReviews = received >= cfg.PeerReviewsToReceive
	entry.PeerReviewPriority = cfg.PeerReviewsToReceive - received
}

// ReviewTarget is a submission handed out for review, stripped to what the
// reviewer may see.
type ReviewTarget struct {
	SlideSubmission *model.SlideSubmission     `json:"slideSubmission"`
	Questions       []model.PeerReviewQuestion `json:"questions"`
}

// SelectCandidate picks a submission for the user to review. Preference
// order: queue entries still needing reviews, any other queue entry, then a
// random submission from another learner. A nil target with nil error means
// nothing is available yet.
func (s *PeerReviewService) SelectCandidate(userID, exerciseID string, sctx model.SubmissionContext) (*ReviewTarget, error) {
	if !sctx.Valid() {
		return nil, util.InvalidRequest("exactly one of courseInstanceId and examId must be set")
	}

	exercise, err := s.ExerciseRepo.FindByID(exerciseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NotFoundError("exercise %s not found", exerciseID)
	}
	if err != nil {
		return nil, err
	}
	if !exercise.NeedsPeerReview {
		return nil, util.PreconditionFailed("exercise %s does not use peer review", exerciseID)
	}

	cfg, err := s.PeerReviewRepo.ConfigForExercise(exercise)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.PreconditionFailed("exercise %s has no peer-review config", exerciseID)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.SubmissionRepo.LatestSlideSubmission(userID, exerciseID, sctx); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.PreconditionFailed("submit your own answer before reviewing others")
	} else if err != nil {
		return nil, err
	}

	reviewedIDs, err := s.PeerReviewRepo.ReviewedSlideSubmissionIDs(userID, exerciseID)
	if err != nil {
		return nil, err
	}

	subID, err := s.pickCandidateSubmissionID(exerciseID, sctx, userID, reviewedIDs)
	if err != nil {
		return nil, err
	}
	if subID == "" {
		return nil, nil
	}

	sub, err := s.SubmissionRepo.FindSlideSubmissionByID(subID)
	if err != nil {
		return nil, err
	}
	return &ReviewTarget{SlideSubmission: sub, Questions: cfg.Questions}, nil
}

func (s *PeerReviewService) pickCandidateSubmissionID(exerciseID string, sctx model.SubmissionContext, userID string, reviewedIDs []string) (string, error) {
	for _, needingOnly := range []bool{true, false} {
		entries, err := s.PeerReviewRepo.QueueCandidates(exerciseID, sctx, userID, reviewedIDs, queueCandidateWindow, needingOnly)
		if err != nil {
			return "", err
		}
		if len(entries) > 0 {
			// Shuffle within the priority window so concurrent reviewers
			// spread over different submissions.
			rand.Shuffle(len(entries), func(i, j int) {
				entries[i], entries[j] = entries[j], entries[i]
			})
			return entries[0].ReceivingSlideSubmissionID, nil
		}
	}

	sub, err := s.SubmissionRepo.RandomSlideSubmissionFromOthers(exerciseID, userID, reviewedIDs, sctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sub.ID, nil
}
