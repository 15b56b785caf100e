package service

import (
	"testing"

	"mooc_backend/internal/model"
	"mooc_backend/internal/util"
)

func TestDecisionScore(t *testing.T) {
	ex := &model.Exercise{ScoreMaximum: 10}

	cases := []struct {
		name string
		req  TeacherDecisionRequest
		want float32
	}{
		{"full points", TeacherDecisionRequest{TeacherDecision: model.TeacherDecisionFullPoints}, 10},
		{"zero points", TeacherDecisionRequest{TeacherDecision: model.TeacherDecisionZeroPoints}, 0},
		{"suspected plagiarism", TeacherDecisionRequest{TeacherDecision: model.TeacherDecisionSuspectedPlagiarism}, 0},
		{"custom points", TeacherDecisionRequest{TeacherDecision: model.TeacherDecisionCustomPoints, CustomPoints: fptr(6.5)}, 6.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decisionScore(ex, &tc.req)
			if err != nil {
				t.Fatalf("decisionScore: %v", err)
			}
			if got != tc.want {
				t.Errorf("score = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecisionScoreRejections(t *testing.T) {
	ex := &model.Exercise{ScoreMaximum: 10}

	cases := []struct {
		name string
		req  TeacherDecisionRequest
	}{
		{"custom without points", TeacherDecisionRequest{TeacherDecision: model.TeacherDecisionCustomPoints}},
		{"custom negative", TeacherDecisionRequest{TeacherDecision: model.TeacherDecisionCustomPoints, CustomPoints: fptr(-1)}},
		{"custom above maximum", TeacherDecisionRequest{TeacherDecision: model.TeacherDecisionCustomPoints, CustomPoints: fptr(11)}},
		{"unknown decision", TeacherDecisionRequest{TeacherDecision: "half-points"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decisionScore(ex, &tc.req); !util.IsKind(err, util.KindInvalidRequest) {
				t.Errorf("err = %v, want invalid_request", err)
			}
		})
	}
}
