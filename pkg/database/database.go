package database

import (
	"fmt"
	"log"
	"mooc_backend/internal/config"
	"mooc_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !migrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.Exercise{},
		&model.ExerciseSlide{},
		&model.ExerciseTask{},
		&model.SlideSubmission{},
		&model.TaskSubmission{},
		&model.TaskGrading{},
		&model.UserExerciseState{},
		&model.UserExerciseSlideState{},
		&model.TeacherGradingDecision{},
		&model.PeerReviewConfig{},
		&model.PeerReviewQuestion{},
		&model.PeerReviewSubmission{},
		&model.PeerReviewQuestionSubmission{},
		&model.PeerReviewQueueEntry{},
		&model.CourseModule{},
		&model.CourseModuleCompletion{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}
