package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devday_quiz_backend/internal/config"
	"devday_quiz_backend/internal/controller"
	"devday_quiz_backend/internal/repository"
	"devday_quiz_backend/internal/service"
	"devday_quiz_backend/pkg/database"
	"devday_quiz_backend/pkg/logger"
	"devday_quiz_backend/pkg/monitoring"
	"devday_quiz_backend/pkg/security"
	"devday_quiz_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user       *repository.UserRepository
	question   *repository.QuestionRepository
	session    *repository.SessionRepository
	team       *repository.TeamRepository
	submission *repository.SubmissionRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	question   *service.QuestionService
	session    *service.SessionService
	team       *service.TeamService
	submission *service.SubmissionService
	scoring    *service.ScoringService
	liveHub    *service.LiveHub
}

type controllers struct {
	auth       *controller.AuthController
	question   *controller.QuestionController
	session    *controller.SessionController
	team       *controller.TeamController
	submission *controller.SubmissionController
	scoring    *controller.ScoringController
	live       *controller.LiveController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		question:   repository.NewQuestionRepository(db),
		session:    repository.NewSessionRepository(db),
		team:       repository.NewTeamRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.liveHub = service.NewLiveHub(rdb)
	go s.liveHub.Run()

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)

	cache := service.NewQuestionCache(rdb, func() time.Duration {
		return a.Config.QuestionCacheTTL(10 * time.Minute)
	})
	s.question = service.NewQuestionService(repos.question, repos.session, cache)

	s.session = service.NewSessionService(repos.session, repos.question, s.liveHub)
	s.team = service.NewTeamService(repos.team, repos.session, s.liveHub, cfg)
	s.submission = service.NewSubmissionService(repos.submission, repos.session, s.question, s.liveHub)
	s.scoring = service.NewScoringService(repos.submission, repos.team, repos.session, s.liveHub)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		question:   controller.NewQuestionController(s.question, s.storage),
		session:    controller.NewSessionController(s.session),
		team:       controller.NewTeamController(s.team),
		submission: controller.NewSubmissionController(s.submission),
		scoring:    controller.NewScoringController(s.scoring),
		live:       controller.NewLiveController(s.liveHub, s.session),
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

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := database.SeedAdminUsers(db, &cfg.Admin); err != nil {
		logger.Log.Fatal("Failed to seed admin accounts", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
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
		if _, err := tracing.InitTracer("devday-quiz", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// ReloadConfig swaps the live configuration. Only settings read per
// request or per cache fill pick it up; ports and connection endpoints
// need a restart.
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	logger.Log.Info("Configuration reloaded")
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

	if a.services != nil && a.services.liveHub != nil {
		a.services.liveHub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
