package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"petopia_backend/internal/config"
	"petopia_backend/internal/controller"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/service"
	"petopia_backend/internal/util"
	"petopia_backend/pkg/database"
	"petopia_backend/pkg/logger"
	"petopia_backend/pkg/monitoring"
	"petopia_backend/pkg/security"
	"petopia_backend/pkg/tracing"
	"syscall"
	"time"

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
	user    *repository.UserRepository
	pet     *repository.PetRepository
	attempt *repository.GameAttemptRepository
	points  *repository.PointsRepository
	coupon  *repository.CouponRepository
	setting *repository.SettingRepository
	checkin *repository.CheckinRepository
}

type services struct {
	auth    *service.AuthService
	storage *service.StorageService
	setting *service.SettingService
	pet     *service.PetService
	game    *service.GameService
	points  *service.PointsService
	coupon  *service.CouponService
	checkin *service.CheckinService
}

type controllers struct {
	auth    *controller.AuthController
	pet     *controller.PetController
	game    *controller.GameController
	points  *controller.PointsController
	coupon  *controller.CouponController
	checkin *controller.CheckinController
	setting *controller.SettingController
	health  *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		pet:     repository.NewPetRepository(db),
		attempt: repository.NewGameAttemptRepository(db),
		points:  repository.NewPointsRepository(db),
		coupon:  repository.NewCouponRepository(db),
		setting: repository.NewSettingRepository(db),
		checkin: repository.NewCheckinRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	clock, err := util.NewClock(cfg.Game.Timezone)
	if err != nil {
		logger.Log.Fatal("Invalid game timezone", zap.String("timezone", cfg.Game.Timezone), zap.Error(err))
	}

	s := &services{}
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.setting = service.NewSettingService(repos.setting, rdb, cfg)
	s.pet = service.NewPetService(repos.pet, s.storage)
	s.game = service.NewGameService(repos.attempt, repos.pet, repos.user, repos.points, repos.coupon, s.setting, clock, db)
	s.points = service.NewPointsService(repos.user, repos.points)
	s.coupon = service.NewCouponService(repos.coupon)
	s.checkin = service.NewCheckinService(repos.checkin, repos.user, repos.points, clock, db)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		pet:     controller.NewPetController(s.pet),
		game:    controller.NewGameController(s.game, repos.attempt),
		points:  controller.NewPointsController(s.points),
		coupon:  controller.NewCouponController(s.coupon),
		checkin: controller.NewCheckinController(s.checkin),
		setting: controller.NewSettingController(s.setting),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ApplyConfig 热更新回调：配置文件变更后刷新玩法规则的兜底值
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	a.services.setting.ReloadConfig(cfg)
	logger.Log.Info("Config reloaded", zap.Int("daily_attempt_limit", cfg.Game.DailyAttemptLimit))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
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

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("petopia-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
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
