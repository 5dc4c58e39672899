package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wyattbui/toeic-app-mimi-service/internal/config"
	"github.com/wyattbui/toeic-app-mimi-service/internal/controller"
	"github.com/wyattbui/toeic-app-mimi-service/internal/repository"
	"github.com/wyattbui/toeic-app-mimi-service/internal/service"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/database"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/logger"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/monitoring"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/security"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user       *repository.UserRepository
	part       *repository.PartRepository
	question   *repository.QuestionRepository
	testSet    *repository.TestSetRepository
	testResult *repository.TestResultRepository
	bookmark   *repository.BookmarkRepository
}

type services struct {
	auth     *service.AuthService
	storage  *service.StorageService
	question *service.QuestionService
	testSet  *service.TestSetService
}

type controllers struct {
	auth     *controller.AuthController
	question *controller.QuestionController
	testSet  *controller.TestSetController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		part:       repository.NewPartRepository(db),
		question:   repository.NewQuestionRepository(db),
		testSet:    repository.NewTestSetRepository(db),
		testResult: repository.NewTestResultRepository(db),
		bookmark:   repository.NewBookmarkRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	sampler := util.NewSampler(time.Now().UnixNano())

	s := &services{}
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.question = service.NewQuestionService(repos.question, repos.part, repos.testResult, repos.bookmark, sampler, rdb)
	s.testSet = service.NewTestSetService(repos.testSet, repos.question, repos.part, repos.user, sampler)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		question: controller.NewQuestionController(s.question, s.storage),
		testSet:  controller.NewTestSetController(s.testSet),
		health:   controller.NewHealthController(db, rdb),
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

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Auto-migration runs everywhere except release mode, where it must be
	// requested explicitly.
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		database.SeedParts(db)
		logger.Log.Info("Database migration completed")
	}

	if cfg.MigrateOnly {
		logger.Log.Info("Migration completed, exiting")
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// The parts cache is an optimization; the service runs without it.
		logger.Log.Warn("Redis unavailable, caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("toeic-mimi-service", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
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

	logger.Log.Sync()
	log.Println("Server exiting")
}
