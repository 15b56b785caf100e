package service

import (
	"testing"

	"mooc_backend/internal/model"
	"mooc_backend/internal/util"
)

func sptr(s string) *string { return &s }

func questionSet() []model.PeerReviewQuestion {
	scale := scaleQuestion("q-scale", 1)
	essay := model.PeerReviewQuestion{
		QuestionType:   model.PeerReviewQuestionEssay,
		AnswerRequired: true,
	}
	essay.ID = "q-essay"
	optional := model.PeerReviewQuestion{
		QuestionType:   model.PeerReviewQuestionEssay,
		AnswerRequired: false,
	}
	optional.ID = "q-optional"
	return []model.PeerReviewQuestion{scale, essay, optional}
}

func TestValidateAnswersAccepts(t *testing.T) {
	kept, err := validateAnswers(questionSet(), []PeerReviewAnswerRequest{
		{PeerReviewQuestionID: "q-scale", NumberData: fptr(4)},
		{PeerReviewQuestionID: "q-essay", TextData: sptr("solid work")},
	})
	if err != nil {
		t.Errorf("validateAnswers: %v", err)
	}
	if len(kept) != 2 {
		t.Errorf("kept %d answers, want 2", len(kept))
	}
}

func TestValidateAnswersFiltersUnknownQuestions(t *testing.T) {
	kept, err := validateAnswers(questionSet(), []PeerReviewAnswerRequest{
		{PeerReviewQuestionID: "q-scale", NumberData: fptr(4)},
		{PeerReviewQuestionID: "q-essay", TextData: sptr("x")},
		{PeerReviewQuestionID: "q-from-old-config", TextData: sptr("stale")},
	})
	if err != nil {
		t.Fatalf("validateAnswers: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d answers, want 2", len(kept))
	}
	for _, ans := range kept {
		if ans.PeerReviewQuestionID == "q-from-old-config" {
			t.Error("unknown-question answer was kept")
		}
	}
}

func TestValidateAnswersRejections(t *testing.T) {
	cases := []struct {
		name    string
		answers []PeerReviewAnswerRequest
	}{
		{
			"missing required essay",
			[]PeerReviewAnswerRequest{
				{PeerReviewQuestionID: "q-scale", NumberData: fptr(4)},
			},
		},
		{
			"missing scale answer",
			[]PeerReviewAnswerRequest{
				{PeerReviewQuestionID: "q-essay", TextData: sptr("x")},
			},
		},
		{
			"scale answer not numeric",
			[]PeerReviewAnswerRequest{
				{PeerReviewQuestionID: "q-scale", TextData: sptr("four")},
				{PeerReviewQuestionID: "q-essay", TextData: sptr("x")},
			},
		},
		{
			"scale answer fractional",
			[]PeerReviewAnswerRequest{
				{PeerReviewQuestionID: "q-scale", NumberData: fptr(3.5)},
				{PeerReviewQuestionID: "q-essay", TextData: sptr("x")},
			},
		},
		{
			"scale answer out of range",
			[]PeerReviewAnswerRequest{
				{PeerReviewQuestionID: "q-scale", NumberData: fptr(6)},
				{PeerReviewQuestionID: "q-essay", TextData: sptr("x")},
			},
		},
		{
			"duplicate answer",
			[]PeerReviewAnswerRequest{
				{PeerReviewQuestionID: "q-scale", NumberData: fptr(4)},
				{PeerReviewQuestionID: "q-scale", NumberData: fptr(5)},
				{PeerReviewQuestionID: "q-essay", TextData: sptr("x")},
			},
		},
		{
			"required essay empty",
			[]PeerReviewAnswerRequest{
				{PeerReviewQuestionID: "q-scale", NumberData: fptr(4)},
				{PeerReviewQuestionID: "q-essay", TextData: sptr("")},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := validateAnswers(questionSet(), tc.answers); !util.IsKind(err, util.KindInvalidRequest) {
				t.Errorf("err = %v, want invalid_request", err)
			}
		})
	}
}

func TestApplyQueueCountersBackfillsEarlierReviews(t *testing.T) {
	cfg := &model.PeerReviewConfig{PeerReviewsToReceive: 2}
	entry := &model.PeerReviewQueueEntry{}

	applyQueueCounters(entry, cfg, "sub-1", 2)

	if entry.PeerReviewsReceived != 2 {
		t.Errorf("PeerReviewsReceived = %d, want 2", entry.PeerReviewsReceived)
	}
	if !entry.ReceivedEnoughPeerReviews {
		t.Error("ReceivedEnoughPeerReviews = false with received count at the threshold")
	}
	if entry.PeerReviewPriority != 0 {
		t.Errorf("PeerReviewPriority = %d, want 0", entry.PeerReviewPriority)
	}
}

func TestApplyQueueCountersRetargetsLatestSubmission(t *testing.T) {
	cfg := &model.PeerReviewConfig{PeerReviewsToReceive: 3}
	entry := &model.PeerReviewQueueEntry{
		ReceivingSlideSubmissionID: "sub-old",
		PeerReviewsReceived:        2,
	}

	applyQueueCounters(entry, cfg, "sub-new", 0)

	if entry.ReceivingSlideSubmissionID != "sub-new" {
		t.Errorf("ReceivingSlideSubmissionID = %q, want %q", entry.ReceivingSlideSubmissionID, "sub-new")
	}
	if entry.PeerReviewsReceived != 0 {
		t.Errorf("PeerReviewsReceived = %d, want 0 after retarget", entry.PeerReviewsReceived)
	}
	if entry.ReceivedEnoughPeerReviews {
		t.Error("ReceivedEnoughPeerReviews = true for a fresh submission")
	}
	if entry.PeerReviewPriority != 3 {
		t.Errorf("PeerReviewPriority = %d, want 3", entry.PeerReviewPriority)
	}
}

func TestApplyQueueCountersPriorityIsReviewsStillNeeded(t *testing.T) {
	cfg := &model.PeerReviewConfig{PeerReviewsToReceive: 3}
	cases := []struct {
		received int
		want     int
	}{
		{0, 3},
		{1, 2},
		{3, 0},
		{5, -2},
	}
	for _, tc := range cases {
		entry := &model.PeerReviewQueueEntry{}
		applyQueueCounters(entry, cfg, "sub", tc.received)
		if entry.PeerReviewPriority != tc.want {
			t.Errorf("priority with %d received = %d, want %d", tc.received, entry.PeerReviewPriority, tc.want)
		}
	}
}

func TestValidateAnswersOptionalEssayMaySkip(t *testing.T) {
	_, err := validateAnswers(questionSet(), []PeerReviewAnswerRequest{
		{PeerReviewQuestionID: "q-scale", NumberData: fptr(1)},
		{PeerReviewQuestionID: "q-essay", TextData: sptr("ok")},
		{PeerReviewQuestionID: "q-optional", TextData: nil},
	})
	if err != nil {
		t.Errorf("optional essay without text rejected: %v", err)
	}
}
