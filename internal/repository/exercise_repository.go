package repository

import (
	"context"
	"encoding/json"
	"mooc_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const exerciseCacheTTL = 5 * time.Minute

// ExerciseRepository 处理练习配置的数据库操作
// Exercise configuration is immutable once published, so reads go through a
// redis cache; score state never does.
type ExerciseRepository struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func NewExerciseRepository(db *gorm.DB, rdb *redis.Client) *ExerciseRepository {
	return &ExerciseRepository{DB: db, RDB: rdb}
}

func (r *ExerciseRepository) WithTx(tx *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: tx, RDB: r.RDB}
}

func (r *ExerciseRepository) FindByID(id string) (*model.Exercise, error) {
	if r.RDB != nil {
		if cached, err := r.RDB.Get(context.Background(), "exercise:"+id).Bytes(); err == nil {
			var ex model.Exercise
			if json.Unmarshal(cached, &ex) == nil {
				return &ex, nil
			}
		}
	}

	var ex model.Exercise
	err := r.DB.Preload("Slides.Tasks").First(&ex, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	if r.RDB != nil {
		if data, err := json.Marshal(&ex); err == nil {
			r.RDB.Set(context.Background(), "exercise:"+id, data, exerciseCacheTTL)
		}
	}

	return &ex, nil
}

func (r *ExerciseRepository) FindSlideWithTasks(slideID string) (*model.ExerciseSlide, error) {
	var slide model.ExerciseSlide
	err := r.DB.Preload("Tasks").First(&slide, "id = ?", slideID).Error
	if err != nil {
		return nil, err
	}
	return &slide, nil
}

func (r *ExerciseRepository) Create(ex *model.Exercise) error {
	return r.DB.Create(ex).Error
}

func (r *ExerciseRepository) InvalidateCache(id string) {
	if r.RDB != nil {
		r.RDB.Del(context.Background(), "exercise:"+id)
	}
}

func (r *ExerciseRepository) ExerciseIDsForModule(moduleID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.Exercise{}).
		Where("course_module_id = ?", moduleID).
		Pluck("id", &ids).Error
	return ids, err
}
