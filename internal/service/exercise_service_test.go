package service

import (
	"math"
	"testing"

	"mooc_backend/internal/model"
)

func TestNormalizeQuestionWeights(t *testing.T) {
	questions := []model.PeerReviewQuestion{
		{QuestionType: model.PeerReviewQuestionScale, Weight: 3},
		{QuestionType: model.PeerReviewQuestionScale, Weight: 1},
		{QuestionType: model.PeerReviewQuestionEssay, Weight: 2},
	}

	normalizeQuestionWeights(questions)

	if questions[0].Weight != 0.75 || questions[1].Weight != 0.25 {
		t.Errorf("scale weights = %v, %v, want 0.75, 0.25", questions[0].Weight, questions[1].Weight)
	}
	if questions[2].Weight != 0 {
		t.Errorf("essay weight = %v, want 0", questions[2].Weight)
	}

	var total float64
	for _, q := range questions {
		total += float64(q.Weight)
	}
	if math.Abs(total-1) > 1e-6 {
		t.Errorf("weights sum to %v", total)
	}
}

func TestNormalizeQuestionWeightsAllZero(t *testing.T) {
	questions := []model.PeerReviewQuestion{
		{QuestionType: model.PeerReviewQuestionScale, Weight: 0},
		{QuestionType: model.PeerReviewQuestionScale, Weight: 0},
	}

	normalizeQuestionWeights(questions)

	if questions[0].Weight != 0 || questions[1].Weight != 0 {
		t.Errorf("zero weights changed: %v, %v", questions[0].Weight, questions[1].Weight)
	}
}
