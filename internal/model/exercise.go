package model

import (
	"encoding/json"
	"time"
)

// swagger:model Exercise
type Exercise struct {
	UUIDBase
	Name                              string     `gorm:"size:255" json:"name"`
	CourseID                          *string    `gorm:"size:36;index" json:"courseId"`
	ExamID                            *string    `gorm:"size:36;index" json:"examId"`
	CourseModuleID                    *string    `gorm:"size:36;index" json:"courseModuleId"`
	ScoreMaximum                      int        `json:"scoreMaximum"`
	NeedsPeerReview                   bool       `gorm:"default:false" json:"needsPeerReview"`
	UseCourseDefaultPeerReviewConfig  bool       `gorm:"default:false" json:"useCourseDefaultPeerReviewConfig"`
	Deadline                          *time.Time `json:"deadline"`

	Slides []ExerciseSlide `gorm:"foreignKey:ExerciseID" json:"slides,omitempty"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// swagger:model ExerciseSlide
type ExerciseSlide struct {
	UUIDBase
	ExerciseID  string `gorm:"size:36;index" json:"exerciseId"`
	OrderNumber int    `json:"orderNumber"`

	Tasks []ExerciseTask `gorm:"foreignKey:ExerciseSlideID" json:"tasks,omitempty"`
}

func (ExerciseSlide) TableName() string {
	return "exercise_slides"
}

// swagger:model ExerciseTask
type ExerciseTask struct {
	UUIDBase
	ExerciseSlideID   string          `gorm:"size:36;index" json:"exerciseSlideId"`
	ExerciseType      string          `gorm:"size:50" json:"exerciseType"`
	PrivateSpec       json.RawMessage `gorm:"type:json" json:"privateSpec,omitempty"`
	PublicSpec        json.RawMessage `gorm:"type:json" json:"publicSpec"`
	ModelSolutionSpec json.RawMessage `gorm:"type:json" json:"modelSolutionSpec,omitempty"`
	OrderNumber       int             `json:"orderNumber"`
}

func (ExerciseTask) TableName() string {
	return "exercise_tasks"
}
