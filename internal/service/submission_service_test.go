package service

import (
	"testing"
	"time"

	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
)

func exerciseWithSlide() (*model.Exercise, *model.UserExerciseState) {
	ex := &model.Exercise{ScoreMaximum: 10}
	ex.ID = "ex-1"
	slide := model.ExerciseSlide{}
	slide.ID = "slide-1"
	task := model.ExerciseTask{}
	task.ID = "task-1"
	slide.Tasks = []model.ExerciseTask{task}
	ex.Slides = []model.ExerciseSlide{slide}

	slideID := "slide-1"
	state := &model.UserExerciseState{SelectedSlideID: &slideID}
	return ex, state
}

func TestValidateSlideSubmission(t *testing.T) {
	ex, state := exerciseWithSlide()

	slide, err := validateSlideSubmission(ex, state, &SlideSubmissionRequest{
		ExerciseSlideID: "slide-1",
		TaskSubmissions: []TaskSubmissionRequest{{ExerciseTaskID: "task-1"}},
	})
	if err != nil {
		t.Fatalf("validateSlideSubmission: %v", err)
	}
	if slide.ID != "slide-1" {
		t.Errorf("slide = %q", slide.ID)
	}
}

func TestValidateSlideSubmissionWrongSlide(t *testing.T) {
	ex, state := exerciseWithSlide()

	_, err := validateSlideSubmission(ex, state, &SlideSubmissionRequest{
		ExerciseSlideID: "slide-2",
		TaskSubmissions: []TaskSubmissionRequest{{ExerciseTaskID: "task-1"}},
	})
	if !util.IsKind(err, util.KindPreconditionFailed) {
		t.Errorf("err = %v, want precondition_failed", err)
	}
}

func TestValidateSlideSubmissionForeignTask(t *testing.T) {
	ex, state := exerciseWithSlide()

	_, err := validateSlideSubmission(ex, state, &SlideSubmissionRequest{
		ExerciseSlideID: "slide-1",
		TaskSubmissions: []TaskSubmissionRequest{{ExerciseTaskID: "task-other"}},
	})
	if !util.IsKind(err, util.KindInvalidRequest) {
		t.Errorf("err = %v, want invalid_request", err)
	}
}

func TestValidateSlideSubmissionDuplicateTask(t *testing.T) {
	ex, state := exerciseWithSlide()

	_, err := validateSlideSubmission(ex, state, &SlideSubmissionRequest{
		ExerciseSlideID: "slide-1",
		TaskSubmissions: []TaskSubmissionRequest{
			{ExerciseTaskID: "task-1"},
			{ExerciseTaskID: "task-1"},
		},
	})
	if !util.IsKind(err, util.KindInvalidRequest) {
		t.Errorf("err = %v, want invalid_request", err)
	}
}

func TestApplyGradingResultScalesScore(t *testing.T) {
	grading := &model.TaskGrading{}
	text := "good"
	applyGradingResult(grading, &GradingResult{
		GradingProgress: model.GradingProgressFullyGraded,
		ScoreGiven:      4,
		ScoreMaximum:    5,
		FeedbackText:    &text,
	}, 10)

	if grading.ScoreGiven == nil || *grading.ScoreGiven != 8 {
		t.Errorf("scaled score = %v, want 8", grading.ScoreGiven)
	}
	if grading.GradingCompletedAt == nil {
		t.Error("completed timestamp not set")
	}
	if *grading.UnscaledScoreGiven != 4 || *grading.UnscaledScoreMaximum != 5 {
		t.Errorf("unscaled = %v/%v", *grading.UnscaledScoreGiven, *grading.UnscaledScoreMaximum)
	}
}

func TestApplyGradingResultPendingLeavesScoreUnset(t *testing.T) {
	grading := &model.TaskGrading{}
	applyGradingResult(grading, &GradingResult{
		GradingProgress: model.GradingProgressPendingManual,
		ScoreGiven:      4,
		ScoreMaximum:    5,
	}, 10)

	if grading.ScoreGiven != nil {
		t.Errorf("score = %v, want unset until graded", *grading.ScoreGiven)
	}
	if grading.GradingCompletedAt != nil {
		t.Error("completed timestamp set on pending grading")
	}
}

func TestSummarizeBySlide(t *testing.T) {
	early := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	summaries, latest := summarizeBySlide([]repository.GradingRow{
		{SlideID: "slide-1", ScoreGiven: fptr(3), Progress: model.GradingProgressFullyGraded, CompletedAt: &early},
		{SlideID: "slide-1", ScoreGiven: fptr(2), Progress: model.GradingProgressFullyGraded, CompletedAt: &late},
		{SlideID: "slide-2", Progress: model.GradingProgressPending},
	})

	if len(summaries) != 2 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	if *summaries[0].ScoreGiven != 5 {
		t.Errorf("slide-1 score = %v, want 5", *summaries[0].ScoreGiven)
	}
	if summaries[0].GradingProgress != model.GradingProgressFullyGraded {
		t.Errorf("slide-1 progress = %q", summaries[0].GradingProgress)
	}
	if summaries[1].ScoreGiven != nil {
		t.Errorf("slide-2 score = %v, want nil", *summaries[1].ScoreGiven)
	}
	if summaries[1].GradingProgress != model.GradingProgressPending {
		t.Errorf("slide-2 progress = %q", summaries[1].GradingProgress)
	}
	if latest == nil || !latest.Equal(late) {
		t.Errorf("latest = %v, want %v", latest, late)
	}
}
