package model

import (
	"encoding/json"
	"time"
)

// GradingProgress is the lifecycle of a grading attempt. The values form a
// total order used when rolling task gradings up to a slide:
// not-ready < failed < pending-manual < pending < fully-graded.
type GradingProgress string

const (
	GradingProgressNotReady      GradingProgress = "not-ready"
	GradingProgressFailed        GradingProgress = "failed"
	GradingProgressPendingManual GradingProgress = "pending-manual"
	GradingProgressPending       GradingProgress = "pending"
	GradingProgressFullyGraded   GradingProgress = "fully-graded"
)

var gradingProgressRank = map[GradingProgress]int{
	GradingProgressNotReady:      0,
	GradingProgressFailed:        1,
	GradingProgressPendingManual: 2,
	GradingProgressPending:       3,
	GradingProgressFullyGraded:   4,
}

func (p GradingProgress) Rank() int {
	return gradingProgressRank[p]
}

func (p GradingProgress) Valid() bool {
	_, ok := gradingProgressRank[p]
	return ok
}

// MinGradingProgress rolls a set of task progresses up to slide level.
// An empty set means nothing has been graded yet.
func MinGradingProgress(ps []GradingProgress) GradingProgress {
	if len(ps) == 0 {
		return GradingProgressNotReady
	}
	min := ps[0]
	for _, p := range ps[1:] {
		if p.Rank() < min.Rank() {
			min = p
		}
	}
	return min
}

// MaxGradingProgress merges a derived progress into a stored one; progress
// only ever advances on the lattice.
func MaxGradingProgress(a, b GradingProgress) GradingProgress {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

// swagger:model TaskGrading
type TaskGrading struct {
	UUIDBase
	TaskSubmissionID     string          `gorm:"size:36;uniqueIndex:idx_task_gradings_submission" json:"taskSubmissionId"`
	ExerciseID           string          `gorm:"size:36;index" json:"exerciseId"`
	ExerciseTaskID       string          `gorm:"size:36;index" json:"exerciseTaskId"`
	GradingPriority      int             `gorm:"default:100" json:"gradingPriority"`
	ScoreGiven           *float32        `json:"scoreGiven"`
	GradingProgress      GradingProgress `gorm:"size:20;default:'not-ready'" json:"gradingProgress"`
	UnscaledScoreGiven   *float32        `json:"unscaledScoreGiven"`
	UnscaledScoreMaximum *float32        `json:"unscaledScoreMaximum"`
	GradingStartedAt     time.Time       `json:"gradingStartedAt"`
	GradingCompletedAt   *time.Time      `json:"gradingCompletedAt"`
	FeedbackText         *string         `gorm:"type:text" json:"feedbackText"`
	FeedbackJSON         json.RawMessage `gorm:"type:json" json:"feedbackJson"`
}

func (TaskGrading) TableName() string {
	return "task_gradings"
}

type TeacherDecisionType string

const (
	TeacherDecisionFullPoints          TeacherDecisionType = "full-points"
	TeacherDecisionZeroPoints          TeacherDecisionType = "zero-points"
	TeacherDecisionCustomPoints        TeacherDecisionType = "custom-points"
	TeacherDecisionSuspectedPlagiarism TeacherDecisionType = "suspected-plagiarism"
)

func (t TeacherDecisionType) Valid() bool {
	switch t {
	case TeacherDecisionFullPoints, TeacherDecisionZeroPoints,
		TeacherDecisionCustomPoints, TeacherDecisionSuspectedPlagiarism:
		return true
	}
	return false
}

// swagger:model TeacherGradingDecision
type TeacherGradingDecision struct {
	UUIDBase
	UserExerciseStateID string              `gorm:"size:36;index" json:"userExerciseStateId"`
	ScoreGiven          float32             `json:"scoreGiven"`
	TeacherDecision     TeacherDecisionType `gorm:"size:30" json:"teacherDecision"`
	Hidden              bool                `gorm:"default:false" json:"hidden"`
}

func (TeacherGradingDecision) TableName() string {
	return "teacher_grading_decisions"
}

// UserPointsUpdateStrategy controls whether a re-aggregation may lower a
// user's stored score.
type UserPointsUpdateStrategy string

const (
	// The default: a score only ever increases.
	UpdateStrategyCanAddPointsButCannotRemovePoints UserPointsUpdateStrategy = "can-add-points-but-cannot-remove-points"
	// Used when a teacher decision or regrade explicitly revises downward.
	UpdateStrategyCanAddPointsAndCanRemovePoints UserPointsUpdateStrategy = "can-add-points-and-can-remove-points"
)

func (s UserPointsUpdateStrategy) Valid() bool {
	return s == UpdateStrategyCanAddPointsButCannotRemovePoints ||
		s == UpdateStrategyCanAddPointsAndCanRemovePoints
}
