package model

import "encoding/json"

// SubmissionContext is the enrollment scope a submission belongs to:
// exactly one of course instance or exam.
type SubmissionContext struct {
	CourseInstanceID *string `json:"courseInstanceId"`
	ExamID           *string `json:"examId"`
}

func (c SubmissionContext) Valid() bool {
	return (c.CourseInstanceID != nil) != (c.ExamID != nil)
}

// swagger:model SlideSubmission
type SlideSubmission struct {
	UUIDBase
	ExerciseSlideID  string  `gorm:"size:36;index" json:"exerciseSlideId"`
	ExerciseID       string  `gorm:"size:36;index" json:"exerciseId"`
	UserID           string  `gorm:"size:36;index" json:"userId"`
	CourseInstanceID *string `gorm:"size:36;index" json:"courseInstanceId"`
	ExamID           *string `gorm:"size:36;index" json:"examId"`

	TaskSubmissions []TaskSubmission `gorm:"foreignKey:SlideSubmissionID" json:"taskSubmissions,omitempty"`
}

func (SlideSubmission) TableName() string {
	return "slide_submissions"
}

func (s *SlideSubmission) Context() SubmissionContext {
	return SubmissionContext{CourseInstanceID: s.CourseInstanceID, ExamID: s.ExamID}
}

// swagger:model TaskSubmission
type TaskSubmission struct {
	UUIDBase
	SlideSubmissionID string          `gorm:"size:36;index" json:"slideSubmissionId"`
	ExerciseTaskID    string          `gorm:"size:36;index" json:"exerciseTaskId"`
	DataJSON          json.RawMessage `gorm:"type:json" json:"dataJson"`
	GradingID         *string         `gorm:"size:36" json:"gradingId"`
}

func (TaskSubmission) TableName() string {
	return "task_submissions"
}
