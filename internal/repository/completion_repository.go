package repository

import (
	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

// CompletionRepository 处理课程模块完成记录的数据库操作
type CompletionRepository struct {
	DB *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{DB: db}
}

func (r *CompletionRepository) WithTx(tx *gorm.DB) *CompletionRepository {
	return &CompletionRepository{DB: tx}
}

func (r *CompletionRepository) ModuleByID(id string) (*model.CourseModule, error) {
	var m model.CourseModule
	err := r.DB.First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CompletionRepository) ModulesForCourse(courseID string) ([]model.CourseModule, error) {
	var modules []model.CourseModule
	err := r.DB.Where("course_id = ?", courseID).Order("order_number ASC").Find(&modules).Error
	return modules, err
}

func (r *CompletionRepository) CompletionExists(userID, moduleID, courseInstanceID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.CourseModuleCompletion{}).
		Where("user_id = ? AND course_module_id = ? AND course_instance_id = ?", userID, moduleID, courseInstanceID).
		Count(&count).Error
	return count > 0, err
}

func (r *CompletionRepository) Create(c *model.CourseModuleCompletion) error {
	return r.DB.Create(c).Error
}
