package service

import (
	"testing"

	"mooc_backend/internal/model"
)

func fptr(v float32) *float32 { return &v }

func baseState() *model.UserExerciseState {
	return &model.UserExerciseState{
		GradingProgress:  model.GradingProgressNotReady,
		ActivityProgress: model.ActivityProgressStarted,
		ReviewingStage:   model.ReviewingStageNotStarted,
	}
}

func scaleQuestion(id string, weight float32) model.PeerReviewQuestion {
	q := model.PeerReviewQuestion{
		QuestionType: model.PeerReviewQuestionScale,
		Weight:       weight,
	}
	q.ID = id
	return q
}

func reviewWithAnswers(answers map[string]float32) model.PeerReviewSubmission {
	var sub model.PeerReviewSubmission
	for qid, v := range answers {
		sub.QuestionSubmissions = append(sub.QuestionSubmissions, model.PeerReviewQuestionSubmission{
			PeerReviewQuestionID: qid,
			NumberData:           fptr(v),
		})
	}
	return sub
}

func TestReaggregateSingleTaskAutoGrade(t *testing.T) {
	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10},
		State:    baseState(),
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(8), GradingProgress: model.GradingProgressFullyGraded},
		},
		UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven == nil || *got.ScoreGiven != 8 {
		t.Errorf("score = %v, want 8", got.ScoreGiven)
	}
	if got.GradingProgress != model.GradingProgressFullyGraded {
		t.Errorf("progress = %q, want fully-graded", got.GradingProgress)
	}
	if got.ReviewingStage != model.ReviewingStageNotStarted {
		t.Errorf("stage = %q, want not-started", got.ReviewingStage)
	}
	if got.ActivityProgress != model.ActivityProgressCompleted {
		t.Errorf("activity = %q, want completed", got.ActivityProgress)
	}
}

func TestReaggregateTwoTaskPartialGrade(t *testing.T) {
	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10},
		State:    baseState(),
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(6), GradingProgress: model.GradingProgressPending},
		},
		UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven == nil || *got.ScoreGiven != 6 {
		t.Errorf("score = %v, want 6", got.ScoreGiven)
	}
	if got.GradingProgress != model.GradingProgressPending {
		t.Errorf("progress = %q, want pending", got.GradingProgress)
	}
	if got.ActivityProgress != model.ActivityProgressSubmitted {
		t.Errorf("activity = %q, want submitted", got.ActivityProgress)
	}
}

func peerReviewConfig(strategy model.PeerReviewProcessingStrategy) *model.PeerReviewConfig {
	return &model.PeerReviewConfig{
		PeerReviewsToGive:    3,
		PeerReviewsToReceive: 3,
		AcceptingThreshold:   3.0,
		ProcessingStrategy:   strategy,
	}
}

func TestReaggregatePeerReviewAutoAccept(t *testing.T) {
	q := scaleQuestion("q1", 1)
	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10, NeedsPeerReview: true},
		State:    baseState(),
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(7), GradingProgress: model.GradingProgressFullyGraded},
		},
		PeerReview: &PeerReviewSnapshot{
			Config:        peerReviewConfig(model.ProcessingStrategyAutomaticallyGradeByAverage),
			Questions:     []model.PeerReviewQuestion{q},
			GivenCount:    3,
			ReceivedCount: 3,
			ReceivedReviews: []model.PeerReviewSubmission{
				reviewWithAnswers(map[string]float32{"q1": 4}),
				reviewWithAnswers(map[string]float32{"q1": 3}),
				reviewWithAnswers(map[string]float32{"q1": 3.5}),
			},
		},
		UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven == nil || *got.ScoreGiven != 7 {
		t.Errorf("score = %v, want 7", got.ScoreGiven)
	}
	if got.ReviewingStage != model.ReviewingStageReviewedAndLocked {
		t.Errorf("stage = %q, want reviewed-and-locked", got.ReviewingStage)
	}
	if got.GradingProgress != model.GradingProgressFullyGraded {
		t.Errorf("progress = %q, want fully-graded", got.GradingProgress)
	}
	if got.ActivityProgress != model.ActivityProgressCompleted {
		t.Errorf("activity = %q, want completed", got.ActivityProgress)
	}
}

func TestReaggregatePeerReviewRejectGoesManual(t *testing.T) {
	q := scaleQuestion("q1", 1)
	state := baseState()
	state.ScoreGiven = nil

	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10, NeedsPeerReview: true},
		State:    state,
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(7), GradingProgress: model.GradingProgressFullyGraded},
		},
		PeerReview: &PeerReviewSnapshot{
			Config:        peerReviewConfig(model.ProcessingStrategyAutomaticallyGradeOrManualReviewByAvg),
			Questions:     []model.PeerReviewQuestion{q},
			GivenCount:    3,
			ReceivedCount: 3,
			ReceivedReviews: []model.PeerReviewSubmission{
				reviewWithAnswers(map[string]float32{"q1": 2}),
				reviewWithAnswers(map[string]float32{"q1": 2}),
				reviewWithAnswers(map[string]float32{"q1": 2}),
			},
		},
		UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven != nil {
		t.Errorf("score = %v, want unchanged nil", *got.ScoreGiven)
	}
	if got.ReviewingStage != model.ReviewingStageWaitingForManualGrading {
		t.Errorf("stage = %q, want waiting-for-manual-grading", got.ReviewingStage)
	}
	if got.GradingProgress != model.GradingProgressPendingManual {
		t.Errorf("progress = %q, want pending-manual", got.GradingProgress)
	}
}

func TestReaggregatePeerReviewRejectAutoGradeZeroes(t *testing.T) {
	q := scaleQuestion("q1", 1)
	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10, NeedsPeerReview: true},
		State:    baseState(),
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(7), GradingProgress: model.GradingProgressFullyGraded},
		},
		PeerReview: &PeerReviewSnapshot{
			Config:        peerReviewConfig(model.ProcessingStrategyAutomaticallyGradeByAverage),
			Questions:     []model.PeerReviewQuestion{q},
			GivenCount:    3,
			ReceivedCount: 3,
			ReceivedReviews: []model.PeerReviewSubmission{
				reviewWithAnswers(map[string]float32{"q1": 1}),
				reviewWithAnswers(map[string]float32{"q1": 2}),
				reviewWithAnswers(map[string]float32{"q1": 2}),
			},
		},
		UpdateStrategy: model.UpdateStrategyCanAddPointsAndCanRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven == nil || *got.ScoreGiven != 0 {
		t.Errorf("score = %v, want 0", got.ScoreGiven)
	}
	if got.ReviewingStage != model.ReviewingStageReviewedAndLocked {
		t.Errorf("stage = %q, want reviewed-and-locked", got.ReviewingStage)
	}
}

func TestReaggregatePeerReviewAllOrNothingAward(t *testing.T) {
	q := scaleQuestion("q1", 1)
	cfg := peerReviewConfig(model.ProcessingStrategyAutomaticallyGradeByAverage)
	cfg.PointsAreAllOrNothing = true

	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10, NeedsPeerReview: true},
		State:    baseState(),
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(4), GradingProgress: model.GradingProgressFullyGraded},
		},
		PeerReview: &PeerReviewSnapshot{
			Config:        cfg,
			Questions:     []model.PeerReviewQuestion{q},
			GivenCount:    3,
			ReceivedCount: 3,
			ReceivedReviews: []model.PeerReviewSubmission{
				reviewWithAnswers(map[string]float32{"q1": 5}),
				reviewWithAnswers(map[string]float32{"q1": 5}),
				reviewWithAnswers(map[string]float32{"q1": 5}),
			},
		},
		UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven == nil || *got.ScoreGiven != 10 {
		t.Errorf("score = %v, want full 10", got.ScoreGiven)
	}
}

func TestReaggregatePeerReviewStagesBeforeThresholds(t *testing.T) {
	exercise := &model.Exercise{ScoreMaximum: 10, NeedsPeerReview: true}
	summaries := []SlideGradingSummary{
		{SlideID: "slide-1", ScoreGiven: fptr(7), GradingProgress: model.GradingProgressFullyGraded},
	}

	t.Run("not enough given", func(t *testing.T) {
		snap := StateSnapshot{
			Exercise:       exercise,
			State:          baseState(),
			SlideSummaries: summaries,
			PeerReview: &PeerReviewSnapshot{
				Config:     peerReviewConfig(model.ProcessingStrategyAutomaticallyGradeByAverage),
				GivenCount: 1,
			},
			UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
		}
		got := Reaggregate(snap)
		if got.ReviewingStage != model.ReviewingStagePeerReview {
			t.Errorf("stage = %q, want peer-review", got.ReviewingStage)
		}
		if got.ScoreGiven != nil {
			t.Errorf("score = %v, want withheld", *got.ScoreGiven)
		}
		if got.GradingProgress != model.GradingProgressPending {
			t.Errorf("progress = %q, want pending", got.GradingProgress)
		}
	})

	t.Run("not enough received", func(t *testing.T) {
		snap := StateSnapshot{
			Exercise:       exercise,
			State:          baseState(),
			SlideSummaries: summaries,
			PeerReview: &PeerReviewSnapshot{
				Config:        peerReviewConfig(model.ProcessingStrategyAutomaticallyGradeByAverage),
				GivenCount:    3,
				ReceivedCount: 1,
			},
			UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
		}
		got := Reaggregate(snap)
		if got.ReviewingStage != model.ReviewingStageWaitingForPeerReviews {
			t.Errorf("stage = %q, want waiting-for-peer-reviews", got.ReviewingStage)
		}
		if got.ScoreGiven != nil {
			t.Errorf("score = %v, want withheld", *got.ScoreGiven)
		}
	})
}

func TestReaggregateTeacherDecisionOverride(t *testing.T) {
	state := baseState()
	state.ScoreGiven = fptr(8)
	state.GradingProgress = model.GradingProgressFullyGraded
	state.ActivityProgress = model.ActivityProgressCompleted

	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10},
		State:    state,
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(8), GradingProgress: model.GradingProgressFullyGraded},
		},
		TeacherDecision: &model.TeacherGradingDecision{
			ScoreGiven:      3,
			TeacherDecision: model.TeacherDecisionCustomPoints,
		},
		DecisionIsNewest: true,
		UpdateStrategy:   model.UpdateStrategyCanAddPointsAndCanRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven == nil || *got.ScoreGiven != 3 {
		t.Errorf("score = %v, want 3", got.ScoreGiven)
	}
	if got.ReviewingStage != model.ReviewingStageReviewedAndLocked {
		t.Errorf("stage = %q, want reviewed-and-locked", got.ReviewingStage)
	}
}

func TestReaggregateStaleDecisionIgnored(t *testing.T) {
	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10},
		State:    baseState(),
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(8), GradingProgress: model.GradingProgressFullyGraded},
		},
		TeacherDecision: &model.TeacherGradingDecision{
			ScoreGiven:      3,
			TeacherDecision: model.TeacherDecisionCustomPoints,
		},
		DecisionIsNewest: false,
		UpdateStrategy:   model.UpdateStrategyCanAddPointsButCannotRemovePoints,
	}

	got := Reaggregate(snap)

	if got.ScoreGiven == nil || *got.ScoreGiven != 8 {
		t.Errorf("score = %v, want 8 from gradings", got.ScoreGiven)
	}
}

func TestReaggregateIdempotent(t *testing.T) {
	snap := StateSnapshot{
		Exercise: &model.Exercise{ScoreMaximum: 10},
		State:    baseState(),
		SlideSummaries: []SlideGradingSummary{
			{SlideID: "slide-1", ScoreGiven: fptr(8), GradingProgress: model.GradingProgressFullyGraded},
		},
		UpdateStrategy: model.UpdateStrategyCanAddPointsButCannotRemovePoints,
	}

	first := Reaggregate(snap)

	applied := *snap.State
	applied.ScoreGiven = first.ScoreGiven
	applied.GradingProgress = first.GradingProgress
	applied.ActivityProgress = first.ActivityProgress
	applied.ReviewingStage = first.ReviewingStage
	snap.State = &applied

	second := Reaggregate(snap)
	if *second.ScoreGiven != *first.ScoreGiven ||
		second.GradingProgress != first.GradingProgress ||
		second.ActivityProgress != first.ActivityProgress ||
		second.ReviewingStage != first.ReviewingStage {
		t.Errorf("second run diverged: %+v vs %+v", second, first)
	}
}

func TestMergeScore(t *testing.T) {
	addOnly := model.UpdateStrategyCanAddPointsButCannotRemovePoints
	addRemove := model.UpdateStrategyCanAddPointsAndCanRemovePoints

	if got := mergeScore(fptr(8), fptr(5), addOnly); *got != 8 {
		t.Errorf("add-only kept %v, want 8", *got)
	}
	if got := mergeScore(fptr(5), fptr(8), addOnly); *got != 8 {
		t.Errorf("add-only raised to %v, want 8", *got)
	}
	if got := mergeScore(fptr(8), fptr(5), addRemove); *got != 5 {
		t.Errorf("add-remove kept %v, want 5", *got)
	}
	if got := mergeScore(fptr(8), nil, addRemove); *got != 8 {
		t.Errorf("nil candidate changed score to %v", *got)
	}
	if got := mergeScore(nil, fptr(7.005), addOnly); *got != 7.01 {
		t.Errorf("merge did not round: %v", *got)
	}
}

func TestWeightedReviewAverage(t *testing.T) {
	q1 := scaleQuestion("q1", 0.75)
	q2 := scaleQuestion("q2", 0.25)

	avg, ok := weightedReviewAverage(
		[]model.PeerReviewQuestion{q1, q2},
		[]model.PeerReviewSubmission{
			reviewWithAnswers(map[string]float32{"q1": 4, "q2": 2}),
			reviewWithAnswers(map[string]float32{"q1": 2, "q2": 2}),
		},
	)
	if !ok {
		t.Fatal("expected an average")
	}
	// Review one: 0.75*4 + 0.25*2 = 3.5. Review two: 0.75*2 + 0.25*2 = 2.
	if avg != 2.75 {
		t.Errorf("avg = %v, want 2.75", avg)
	}
}

func TestWeightedReviewAverageZeroWeightsFallsBackToMean(t *testing.T) {
	q1 := scaleQuestion("q1", 0)
	q2 := scaleQuestion("q2", 0)

	avg, ok := weightedReviewAverage(
		[]model.PeerReviewQuestion{q1, q2},
		[]model.PeerReviewSubmission{
			reviewWithAnswers(map[string]float32{"q1": 4, "q2": 2}),
		},
	)
	if !ok {
		t.Fatal("expected an average")
	}
	if avg != 3 {
		t.Errorf("avg = %v, want plain mean 3", avg)
	}
}

func TestWeightedReviewAverageNoScaleAnswers(t *testing.T) {
	if _, ok := weightedReviewAverage(nil, []model.PeerReviewSubmission{{}}); ok {
		t.Error("expected no average without scale answers")
	}
}
