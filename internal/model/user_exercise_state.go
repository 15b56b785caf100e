package model

type ActivityProgress string

const (
	ActivityProgressInitialized ActivityProgress = "initialized"
	ActivityProgressStarted     ActivityProgress = "started"
	ActivityProgressInProgress  ActivityProgress = "in-progress"
	ActivityProgressSubmitted   ActivityProgress = "submitted"
	ActivityProgressCompleted   ActivityProgress = "completed"
)

type ReviewingStage string

const (
	ReviewingStageNotStarted              ReviewingStage = "not-started"
	ReviewingStagePeerReview              ReviewingStage = "peer-review"
	ReviewingStageSelfReview              ReviewingStage = "self-review"
	ReviewingStageWaitingForPeerReviews   ReviewingStage = "waiting-for-peer-reviews"
	ReviewingStageWaitingForManualGrading ReviewingStage = "waiting-for-manual-grading"
	ReviewingStageReviewedAndLocked       ReviewingStage = "reviewed-and-locked"
)

// UserExerciseState is the per-(user, exercise, context) aggregate the whole
// engine revolves around. It is recomputed from task gradings, teacher
// decisions and peer reviews; it is never mutated transitively.
//
// swagger:model UserExerciseState
type UserExerciseState struct {
	UUIDBase
	UserID           string           `gorm:"size:36;index:idx_user_exercise_ctx" json:"userId"`
	ExerciseID       string           `gorm:"size:36;index:idx_user_exercise_ctx" json:"exerciseId"`
	CourseInstanceID *string          `gorm:"size:36;index" json:"courseInstanceId"`
	ExamID           *string          `gorm:"size:36;index" json:"examId"`
	SelectedSlideID  *string          `gorm:"size:36" json:"selectedSlideId"`
	ScoreGiven       *float32         `json:"scoreGiven"`
	GradingProgress  GradingProgress  `gorm:"size:20;default:'not-ready'" json:"gradingProgress"`
	ActivityProgress ActivityProgress `gorm:"size:20;default:'initialized'" json:"activityProgress"`
	ReviewingStage   ReviewingStage   `gorm:"size:30;default:'not-started'" json:"reviewingStage"`
}

func (UserExerciseState) TableName() string {
	return "user_exercise_states"
}

func (s *UserExerciseState) Context() SubmissionContext {
	return SubmissionContext{CourseInstanceID: s.CourseInstanceID, ExamID: s.ExamID}
}

// UserExerciseSlideState is the derived per-slide roll-up. It back-references
// its aggregate by ID only.
//
// swagger:model UserExerciseSlideState
type UserExerciseSlideState struct {
	UUIDBase
	UserExerciseStateID string          `gorm:"size:36;index:idx_slide_state,unique" json:"userExerciseStateId"`
	ExerciseSlideID     string          `gorm:"size:36;index:idx_slide_state,unique" json:"exerciseSlideId"`
	ScoreGiven          *float32        `json:"scoreGiven"`
	GradingProgress     GradingProgress `gorm:"size:20;default:'not-ready'" json:"gradingProgress"`
}

func (UserExerciseSlideState) TableName() string {
	return "user_exercise_slide_states"
}
