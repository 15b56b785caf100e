package model

// swagger:model CourseModule
type CourseModule struct {
	UUIDBase
	CourseID                    string   `gorm:"size:36;index" json:"courseId"`
	Name                        string   `gorm:"size:255" json:"name"`
	OrderNumber                 int      `json:"orderNumber"`
	AutomaticCompletion         bool     `gorm:"default:false" json:"automaticCompletion"`
	ExercisesAttemptedThreshold *int     `json:"exercisesAttemptedThreshold"`
	PointsThreshold             *float32 `json:"pointsThreshold"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// swagger:model CourseModuleCompletion
type CourseModuleCompletion struct {
	UUIDBase
	CourseModuleID     string  `gorm:"size:36;index:idx_module_completion,unique" json:"courseModuleId"`
	CourseInstanceID   string  `gorm:"size:36;index:idx_module_completion,unique" json:"courseInstanceId"`
	UserID             string  `gorm:"size:36;index:idx_module_completion,unique" json:"userId"`
	ExercisesAttempted int     `json:"exercisesAttempted"`
	PointsTotal        float32 `json:"pointsTotal"`
}

func (CourseModuleCompletion) TableName() string {
	return "course_module_completions"
}
