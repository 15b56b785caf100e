package model

// PeerReviewProcessingStrategy maps received peer-review averages to scoring
// outcomes once both give/receive thresholds are met.
type PeerReviewProcessingStrategy string

const (
	ProcessingStrategyAutomaticallyGradeByAverage             PeerReviewProcessingStrategy = "automatically-grade-by-average"
	ProcessingStrategyAutomaticallyGradeOrManualReviewByAvg   PeerReviewProcessingStrategy = "automatically-grade-or-manual-review-by-average"
	ProcessingStrategyManualReviewEverything                  PeerReviewProcessingStrategy = "manual-review-everything"
)

func (s PeerReviewProcessingStrategy) Valid() bool {
	switch s {
	case ProcessingStrategyAutomaticallyGradeByAverage,
		ProcessingStrategyAutomaticallyGradeOrManualReviewByAvg,
		ProcessingStrategyManualReviewEverything:
		return true
	}
	return false
}

// swagger:model PeerReviewConfig
type PeerReviewConfig struct {
	UUIDBase
	CourseID               string                       `gorm:"size:36;index" json:"courseId"`
	ExerciseID             *string                      `gorm:"size:36;index" json:"exerciseId"`
	PeerReviewsToGive      int                          `json:"peerReviewsToGive"`
	PeerReviewsToReceive   int                          `json:"peerReviewsToReceive"`
	AcceptingThreshold     float32                      `json:"acceptingThreshold"`
	ProcessingStrategy     PeerReviewProcessingStrategy `gorm:"size:60;default:'automatically-grade-by-average'" json:"processingStrategy"`
	PointsAreAllOrNothing  bool                         `gorm:"default:false" json:"pointsAreAllOrNothing"`
	ManualReviewCutoffDays int                          `json:"manualReviewCutoffDays"`

	Questions []PeerReviewQuestion `gorm:"foreignKey:PeerReviewConfigID" json:"questions,omitempty"`
}

func (PeerReviewConfig) TableName() string {
	return "peer_review_configs"
}

type PeerReviewQuestionType string

const (
	PeerReviewQuestionEssay PeerReviewQuestionType = "essay"
	PeerReviewQuestionScale PeerReviewQuestionType = "scale"
)

// swagger:model PeerReviewQuestion
type PeerReviewQuestion struct {
	UUIDBase
	PeerReviewConfigID string                 `gorm:"size:36;index" json:"peerReviewConfigId"`
	OrderNumber        int                    `json:"orderNumber"`
	Question           string                 `gorm:"type:text" json:"question"`
	QuestionType       PeerReviewQuestionType `gorm:"size:10" json:"questionType"`
	AnswerRequired     bool                   `gorm:"default:true" json:"answerRequired"`
	Weight             float32                `json:"weight"`
}

func (PeerReviewQuestion) TableName() string {
	return "peer_review_questions"
}

// Required reports whether an answer must be present. Scale questions are
// always required.
func (q *PeerReviewQuestion) Required() bool {
	return q.QuestionType == PeerReviewQuestionScale || q.AnswerRequired
}

// swagger:model PeerReviewSubmission
type PeerReviewSubmission struct {
	UUIDBase
	UserID             string  `gorm:"size:36;index" json:"userId"`
	ExerciseID         string  `gorm:"size:36;index" json:"exerciseId"`
	CourseInstanceID   *string `gorm:"size:36;index" json:"courseInstanceId"`
	ExamID             *string `gorm:"size:36;index" json:"examId"`
	PeerReviewConfigID string  `gorm:"size:36" json:"peerReviewConfigId"`
	SlideSubmissionID  string  `gorm:"size:36;index" json:"slideSubmissionId"`

	QuestionSubmissions []PeerReviewQuestionSubmission `gorm:"foreignKey:PeerReviewSubmissionID" json:"questionSubmissions,omitempty"`
}

func (PeerReviewSubmission) TableName() string {
	return "peer_review_submissions"
}

// swagger:model PeerReviewQuestionSubmission
type PeerReviewQuestionSubmission struct {
	UUIDBase
	PeerReviewSubmissionID string   `gorm:"size:36;index" json:"peerReviewSubmissionId"`
	PeerReviewQuestionID   string   `gorm:"size:36;index" json:"peerReviewQuestionId"`
	TextData               *string  `gorm:"type:text" json:"textData"`
	NumberData             *float32 `json:"numberData"`
}

func (PeerReviewQuestionSubmission) TableName() string {
	return "peer_review_question_submissions"
}

// swagger:model PeerReviewQueueEntry
type PeerReviewQueueEntry struct {
	UUIDBase
	UserID                     string  `gorm:"size:36;index:idx_queue_user_exercise" json:"userId"`
	ExerciseID                 string  `gorm:"size:36;index:idx_queue_user_exercise" json:"exerciseId"`
	CourseInstanceID           *string `gorm:"size:36;index" json:"courseInstanceId"`
	ExamID                     *string `gorm:"size:36;index" json:"examId"`
	ReceivingSlideSubmissionID string  `gorm:"size:36;index" json:"receivingSlideSubmissionId"`
	ReceivedEnoughPeerReviews  bool    `gorm:"default:false" json:"receivedEnoughPeerReviews"`
	PeerReviewPriority         int     `gorm:"index" json:"peerReviewPriority"`
	PeerReviewsReceived        int     `gorm:"default:0" json:"peerReviewsReceived"`
}

func (PeerReviewQueueEntry) TableName() string {
	return "peer_review_queue_entries"
}
