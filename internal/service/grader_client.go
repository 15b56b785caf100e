package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mooc_backend/internal/config"
	"mooc_backend/internal/model"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/monitoring"
	"net/http"
	"time"
)

// TaskGrader grades one task submission. Implementations are keyed by the
// exercise-type slug; there is exactly one per external grader service.
type TaskGrader interface {
	Grade(ctx context.Context, exerciseType string, privateSpec, submissionData json.RawMessage) (*GradingResult, error)
}

// GradingResult is the grader service's verdict, still unscaled.
type GradingResult struct {
	GradingProgress model.GradingProgress `json:"grading_progress"`
	ScoreGiven      float32               `json:"score_given"`
	ScoreMaximum    float32               `json:"score_maximum"`
	FeedbackText    *string               `json:"feedback_text,omitempty"`
	FeedbackJSON    json.RawMessage       `json:"feedback_json,omitempty"`
}

type gradingRequest struct {
	ExerciseSpec   json.RawMessage `json:"exercise_spec"`
	SubmissionData json.RawMessage `json:"submission_data"`
}

// GraderClient resolves grader endpoints from config and calls them over
// HTTP with a hard timeout. It never retries; retrying is the caller's job.
type GraderClient struct {
	cfg    config.GraderConfig
	client *http.Client
}

func NewGraderClient(cfg config.GraderConfig) *GraderClient {
	return &GraderClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

func (c *GraderClient) Grade(ctx context.Context, exerciseType string, privateSpec, submissionData json.RawMessage) (*GradingResult, error) {
	endpoint, ok := c.cfg.Services[exerciseType]
	if !ok {
		return nil, util.GraderUnavailable(fmt.Sprintf("no grader registered for exercise type %q", exerciseType), nil)
	}

	body, err := json.Marshal(gradingRequest{
		ExerciseSpec:   privateSpec,
		SubmissionData: submissionData,
	})
	if err != nil {
		return nil, util.Internal("failed to encode grading request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, util.Internal("failed to build grading request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	monitoring.GraderCallDuration.WithLabelValues(exerciseType).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, util.GraderUnavailable("grader request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, util.GraderUnavailable(fmt.Sprintf("grader for %q returned status %d: %s", exerciseType, resp.StatusCode, string(snippet)), nil)
	}

	var result GradingResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, util.GraderUnavailable("failed to decode grader response", err)
	}
	if !result.GradingProgress.Valid() {
		return nil, util.GraderUnavailable(fmt.Sprintf("grader returned unknown grading progress %q", result.GradingProgress), nil)
	}

	return &result, nil
}
