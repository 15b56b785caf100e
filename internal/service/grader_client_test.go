package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mooc_backend/internal/config"
	"mooc_backend/internal/model"
	"mooc_backend/internal/util"
)

func TestGraderClientGrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gradingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if string(req.SubmissionData) != `{"answer":42}` {
			t.Errorf("submission data = %s", req.SubmissionData)
		}
		json.NewEncoder(w).Encode(GradingResult{
			GradingProgress: model.GradingProgressFullyGraded,
			ScoreGiven:      4,
			ScoreMaximum:    5,
		})
	}))
	defer srv.Close()

	client := NewGraderClient(config.GraderConfig{
		Services: map[string]string{"example-exercise": srv.URL},
	})

	result, err := client.Grade(context.Background(), "example-exercise",
		json.RawMessage(`{"correct":42}`), json.RawMessage(`{"answer":42}`))
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if result.GradingProgress != model.GradingProgressFullyGraded {
		t.Errorf("progress = %q", result.GradingProgress)
	}
	if result.ScoreGiven != 4 || result.ScoreMaximum != 5 {
		t.Errorf("score = %v/%v, want 4/5", result.ScoreGiven, result.ScoreMaximum)
	}
}

func TestGraderClientUnknownExerciseType(t *testing.T) {
	client := NewGraderClient(config.GraderConfig{Services: map[string]string{}})

	_, err := client.Grade(context.Background(), "no-such-type", nil, nil)
	if !util.IsKind(err, util.KindGraderUnavailable) {
		t.Errorf("err = %v, want grader_unavailable", err)
	}
}

func TestGraderClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewGraderClient(config.GraderConfig{
		Services: map[string]string{"example-exercise": srv.URL},
	})

	_, err := client.Grade(context.Background(), "example-exercise", nil, nil)
	if !util.IsKind(err, util.KindGraderUnavailable) {
		t.Errorf("err = %v, want grader_unavailable", err)
	}
}

func TestGraderClientInvalidProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"grading_progress": "half-done"})
	}))
	defer srv.Close()

	client := NewGraderClient(config.GraderConfig{
		Services: map[string]string{"example-exercise": srv.URL},
	})

	_, err := client.Grade(context.Background(), "example-exercise", nil, nil)
	if !util.IsKind(err, util.KindGraderUnavailable) {
		t.Errorf("err = %v, want grader_unavailable", err)
	}
}
