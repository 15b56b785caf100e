// Manual regrade tool.
//
// The HTTP API exposes the same operation at POST
// /api/teacher/exercises/:id/regrade; this script exists for operators who
// need to regrade from a shell, for example after fixing a grader
// deployment.
//
// Usage: go run scripts/regrade.go -exercise <exercise-id> [-allow-score-decrease]
package main

import (
	"context"
	"flag"
	"log"

	"mooc_backend/internal/config"
	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/service"
	"mooc_backend/pkg/database"
	"mooc_backend/pkg/logger"
)

func main() {
	exerciseID := flag.String("exercise", "", "ID of the exercise to regrade")
	allowDecrease := flag.Bool("allow-score-decrease", false, "let the regrade lower existing scores")
	flag.Parse()

	if *exerciseID == "" {
		log.Fatal("missing -exercise")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	exerciseRepo := repository.NewExerciseRepository(db, rdb)
	submissionRepo := repository.NewSubmissionRepository(db)
	stateRepo := repository.NewUserExerciseStateRepository(db)
	decisionRepo := repository.NewTeacherDecisionRepository(db)
	peerReviewRepo := repository.NewPeerReviewRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	grader := service.NewGraderClient(cfg.Grader)
	completion := service.NewCompletionService(completionRepo, stateRepo, exerciseRepo)
	stateService := service.NewStateService(db, exerciseRepo, stateRepo, submissionRepo, decisionRepo, peerReviewRepo, completion)
	regrading := service.NewRegradingService(db, exerciseRepo, submissionRepo, stateRepo, stateService, grader)

	strategy := model.UpdateStrategyCanAddPointsButCannotRemovePoints
	if *allowDecrease {
		strategy = model.UpdateStrategyCanAddPointsAndCanRemovePoints
	}

	report, err := regrading.RegradeExercise(context.Background(), *exerciseID, &service.RegradeRequest{
		UserPointsUpdateStrategy: strategy,
	})
	if err != nil {
		log.Fatalf("Regrade failed: %v", err)
	}

	log.Printf("Regrade finished: %d regraded, %d failed, %d states re-aggregated",
		report.TaskSubmissionsRegraded, report.TaskSubmissionsFailed, report.StatesReaggregated)
}
