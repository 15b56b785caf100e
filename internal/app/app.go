package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mooc_backend/internal/config"
	"mooc_backend/internal/controller"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/service"
	"mooc_backend/pkg/configwatcher"
	"mooc_backend/pkg/database"
	"mooc_backend/pkg/logger"
	"mooc_backend/pkg/monitoring"
	"mooc_backend/pkg/security"
	"mooc_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const staleGradingCutoff = 10 * time.Minute

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	exercise   *repository.ExerciseRepository
	submission *repository.SubmissionRepository
	state      *repository.UserExerciseStateRepository
	decision   *repository.TeacherDecisionRepository
	peerReview *repository.PeerReviewRepository
	completion *repository.CompletionRepository
}

type services struct {
	state          *service.StateService
	exercise       *service.ExerciseService
	submission     *service.SubmissionService
	peerReview     *service.PeerReviewService
	teacherGrading *service.TeacherGradingService
	regrading      *service.RegradingService
	completion     *service.CompletionService
}

type controllers struct {
	exercise   *controller.ExerciseController
	submission *controller.SubmissionController
	peerReview *controller.PeerReviewController
	teacher    *controller.TeacherController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		exercise:   repository.NewExerciseRepository(db, rdb),
		submission: repository.NewSubmissionRepository(db),
		state:      repository.NewUserExerciseStateRepository(db),
		decision:   repository.NewTeacherDecisionRepository(db),
		peerReview: repository.NewPeerReviewRepository(db),
		completion: repository.NewCompletionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}

	grader := service.NewGraderClient(cfg.Grader)

	s.completion = service.NewCompletionService(repos.completion, repos.state, repos.exercise)
	s.state = service.NewStateService(db, repos.exercise, repos.state, repos.submission, repos.decision, repos.peerReview, s.completion)
	s.exercise = service.NewExerciseService(db, repos.exercise, repos.peerReview, s.state)
	s.submission = service.NewSubmissionService(db, repos.exercise, repos.submission, s.state, grader)
	s.peerReview = service.NewPeerReviewService(db, repos.exercise, repos.submission, repos.peerReview, s.state)
	s.teacherGrading = service.NewTeacherGradingService(db, repos.exercise, repos.state, repos.decision, s.state)
	s.regrading = service.NewRegradingService(db, repos.exercise, repos.submission, repos.state, s.state, grader)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		exercise:   controller.NewExerciseController(s.exercise),
		submission: controller.NewSubmissionController(s.submission),
		peerReview: controller.NewPeerReviewController(s.peerReview),
		teacher:    controller.NewTeacherController(s.exercise, s.submission, s.teacherGrading, s.regrading),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the stale-grading sweeper: gradings stuck in
// not-ready after a crash or grader outage get retried once per minute.
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			if err := s.regrading.RetryStaleGradings(context.Background(), staleGradingCutoff); err != nil {
				logger.Log.Error("stale grading sweep error", zap.Error(err))
			}
		}
	}()
}

func (a *App) watchConfig() {
	go configwatcher.WatchConfig("configs/config.yaml", a.Config, func(newCfg interface{}) {
		cfg, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		logger.Log.Info("configuration reloaded")
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	// Release deployments migrate only when asked to via -migrate.
	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, db)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("exercise-engine", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)
	app.watchConfig()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
