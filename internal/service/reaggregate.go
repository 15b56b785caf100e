package service

import (
	"mooc_backend/internal/model"
)

// SlideGradingSummary is the per-slide roll-up of task gradings: summed
// score, minimum progress on the lattice.
type SlideGradingSummary struct {
	SlideID         string
	ScoreGiven      *float32
	GradingProgress model.GradingProgress
}

// PeerReviewSnapshot carries everything the peer-review pipeline needs to
// decide the user's stage and score.
type PeerReviewSnapshot struct {
	Config          *model.PeerReviewConfig
	Questions       []model.PeerReviewQuestion
	GivenCount      int
	ReceivedCount   int
	ReceivedReviews []model.PeerReviewSubmission
}

// StateSnapshot is the full input of one re-aggregation. It is loaded inside
// the caller's transaction; Reaggregate itself touches nothing but this.
type StateSnapshot struct {
	Exercise        *model.Exercise
	State           *model.UserExerciseState
	SlideSummaries  []SlideGradingSummary
	TeacherDecision *model.TeacherGradingDecision
	// True when the decision postdates every task grading that shaped the
	// current aggregate.
	DecisionIsNewest bool
	PeerReview       *PeerReviewSnapshot
	UpdateStrategy   model.UserPointsUpdateStrategy
}

// StateUpdate is the re-derived aggregate, ready to persist.
type StateUpdate struct {
	ScoreGiven       *float32
	GradingProgress  model.GradingProgress
	ActivityProgress model.ActivityProgress
	ReviewingStage   model.ReviewingStage
}

var activityRank = map[model.ActivityProgress]int{
	model.ActivityProgressInitialized: 0,
	model.ActivityProgressStarted:     1,
	model.ActivityProgressInProgress:  2,
	model.ActivityProgressSubmitted:   3,
	model.ActivityProgressCompleted:   4,
}

// Reaggregate recomputes a user exercise state from its inputs. It is a pure
// function: calling it twice on the same snapshot yields the same update.
func Reaggregate(snap StateSnapshot) StateUpdate {
	st := snap.State
	out := StateUpdate{
		ScoreGiven:       st.ScoreGiven,
		GradingProgress:  st.GradingProgress,
		ActivityProgress: st.ActivityProgress,
		ReviewingStage:   st.ReviewingStage,
	}

	candidateScore, candidateProgress, hasSubmission := deriveCandidate(snap.SlideSummaries)

	if hasSubmission && activityRank[out.ActivityProgress] < activityRank[model.ActivityProgressSubmitted] {
		out.ActivityProgress = model.ActivityProgressSubmitted
	}

	decisionApplied := false
	if snap.TeacherDecision != nil && !snap.TeacherDecision.Hidden && snap.DecisionIsNewest {
		v := snap.TeacherDecision.ScoreGiven
		candidateScore = &v
		candidateProgress = model.GradingProgressFullyGraded
		out.ReviewingStage = model.ReviewingStageReviewedAndLocked
		decisionApplied = true
	}

	if !decisionApplied && snap.Exercise.NeedsPeerReview {
		candidateScore, candidateProgress = applyPeerReviewPipeline(snap, &out, candidateScore, candidateProgress, hasSubmission)
	}

	out.ScoreGiven = mergeScore(st.ScoreGiven, candidateScore, snap.UpdateStrategy)
	out.GradingProgress = model.MaxGradingProgress(st.GradingProgress, candidateProgress)

	locked := out.ReviewingStage == model.ReviewingStageReviewedAndLocked
	if out.GradingProgress == model.GradingProgressFullyGraded &&
		(!snap.Exercise.NeedsPeerReview || locked) {
		out.ActivityProgress = model.ActivityProgressCompleted
	}

	return out
}

func deriveCandidate(summaries []SlideGradingSummary) (*float32, model.GradingProgress, bool) {
	if len(summaries) == 0 {
		return nil, model.GradingProgressNotReady, false
	}

	var sum float32
	progresses := make([]model.GradingProgress, 0, len(summaries))
	for _, s := range summaries {
		progresses = append(progresses, s.GradingProgress)
		if s.ScoreGiven != nil {
			sum += *s.ScoreGiven
		}
	}
	return &sum, model.MinGradingProgress(progresses), true
}

// applyPeerReviewPipeline walks the queue thresholds and the processing
// strategy. While reviews are outstanding the candidate score is withheld so
// grading cannot finalize early.
func applyPeerReviewPipeline(snap StateSnapshot, out *StateUpdate, candidateScore *float32, candidateProgress model.GradingProgress, hasSubmission bool) (*float32, model.GradingProgress) {
	if !hasSubmission {
		return candidateScore, candidateProgress
	}

	pr := snap.PeerReview
	if pr == nil || pr.Config == nil {
		// Peer review required but not configured: the submission can only
		// wait for a teacher.
		out.ReviewingStage = model.ReviewingStageWaitingForManualGrading
		return nil, model.GradingProgressPendingManual
	}

	withheld := func() (*float32, model.GradingProgress) {
		if candidateProgress == model.GradingProgressFullyGraded {
			candidateProgress = model.GradingProgressPending
		}
		return nil, candidateProgress
	}

	if pr.GivenCount < pr.Config.PeerReviewsToGive {
		out.ReviewingStage = model.ReviewingStagePeerReview
		return withheld()
	}

	if pr.ReceivedCount < pr.Config.PeerReviewsToReceive {
		out.ReviewingStage = model.ReviewingStageWaitingForPeerReviews
		return withheld()
	}

	avg, ok := weightedReviewAverage(pr.Questions, pr.ReceivedReviews)
	accepted := ok && avg >= pr.Config.AcceptingThreshold

	switch pr.Config.ProcessingStrategy {
	case model.ProcessingStrategyAutomaticallyGradeByAverage:
		if accepted {
			candidateScore = acceptedScore(snap.Exercise, pr.Config, candidateScore)
		} else {
			zero := float32(0)
			candidateScore = &zero
		}
		out.ReviewingStage = model.ReviewingStageReviewedAndLocked
		return candidateScore, model.GradingProgressFullyGraded

	case model.ProcessingStrategyAutomaticallyGradeOrManualReviewByAvg:
		if accepted {
			out.ReviewingStage = model.ReviewingStageReviewedAndLocked
			return acceptedScore(snap.Exercise, pr.Config, candidateScore), model.GradingProgressFullyGraded
		}
		out.ReviewingStage = model.ReviewingStageWaitingForManualGrading
		return nil, model.GradingProgressPendingManual

	default: // manual-review-everything
		out.ReviewingStage = model.ReviewingStageWaitingForManualGrading
		return nil, model.GradingProgressPendingManual
	}
}

func acceptedScore(ex *model.Exercise, cfg *model.PeerReviewConfig, candidateScore *float32) *float32 {
	if cfg.PointsAreAllOrNothing {
		full := float32(ex.ScoreMaximum)
		return &full
	}
	return candidateScore
}

// weightedReviewAverage averages the scale answers of the received reviews.
// Each review contributes its weight-combined scale score; weights are
// normalized at config-edit time to sum to 1, and an all-zero weight set
// falls back to a plain mean. The second return is false when no scale
// answer exists at all.
func weightedReviewAverage(questions []model.PeerReviewQuestion, reviews []model.PeerReviewSubmission) (float32, bool) {
	weights := make(map[string]float32, len(questions))
	var totalWeight float32
	for _, q := range questions {
		if q.QuestionType == model.PeerReviewQuestionScale {
			weights[q.ID] = q.Weight
			totalWeight += q.Weight
		}
	}

	var reviewSum float32
	reviewsCounted := 0
	for _, review := range reviews {
		var score float32
		answered := false
		var plainSum float32
		var plainCount int
		for _, ans := range review.QuestionSubmissions {
			w, isScale := weights[ans.PeerReviewQuestionID]
			if !isScale || ans.NumberData == nil {
				continue
			}
			answered = true
			score += w * (*ans.NumberData)
			plainSum += *ans.NumberData
			plainCount++
		}
		if !answered {
			continue
		}
		if totalWeight == 0 {
			score = plainSum / float32(plainCount)
		}
		reviewSum += score
		reviewsCounted++
	}

	if reviewsCounted == 0 {
		return 0, false
	}
	return reviewSum / float32(reviewsCounted), true
}

// mergeScore applies the points update strategy. Scores are rounded at this
// boundary, the only place they are written into a user exercise state.
func mergeScore(old, candidate *float32, strategy model.UserPointsUpdateStrategy) *float32 {
	if candidate == nil {
		return old
	}
	rounded := model.RoundScore(*candidate)
	if strategy == model.UpdateStrategyCanAddPointsAndCanRemovePoints {
		return &rounded
	}
	if old == nil || rounded > *old {
		return &rounded
	}
	return old
}
