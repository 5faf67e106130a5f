package app

import (
	"context"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/controller"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/service"
	"eportfolio_grading/internal/upgrade"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/configwatcher"
	"eportfolio_grading/pkg/database"
	"eportfolio_grading/pkg/logger"
	"eportfolio_grading/pkg/monitoring"
	"eportfolio_grading/pkg/security"
	"eportfolio_grading/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigFile 热更新监听的配置文件
const ConfigFile = "configs/config.yaml"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	stopWatch       chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	role      *repository.RoleRepository
	course    *repository.CourseRepository
	instance  *repository.InstanceRepository
	file      *repository.FileRepository
	share     *repository.ShareRepository
	grading   *repository.GradingRepository
	event     *repository.EventRepository
	gradebook *repository.GradebookRepository
}

type services struct {
	authorizer  service.Authorizer
	files       *service.FileService
	messages    *service.MessageService
	gradebook   *service.GradebookService
	events      *service.EventLogService
	instances   *service.InstanceService
	overview    *service.OverviewService
	grading     *service.GradingService
	withdrawals *service.WithdrawalService
	renderer    *service.RenderService
}

type controllers struct {
	eportfolio *controller.EPortfolioController
	grading    *controller.GradingController
	submission *controller.SubmissionController
	instance   *controller.InstanceController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		role:      repository.NewRoleRepository(db),
		course:    repository.NewCourseRepository(db),
		instance:  repository.NewInstanceRepository(db),
		file:      repository.NewFileRepository(db),
		share:     repository.NewShareRepository(db),
		grading:   repository.NewGradingRepository(db),
		event:     repository.NewEventRepository(db),
		gradebook: repository.NewGradebookRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	renderer, err := service.NewRenderService()
	if err != nil {
		return nil, err
	}
	s.renderer = renderer

	// Redis 不可用时撤回确认令牌只保存在本进程内存
	var pending service.PendingStore = service.NewMemoryPendingStore()
	if rdb != nil {
		pending = service.NewRedisPendingStore(rdb)
	}

	s.authorizer = service.NewRoleAuthorizer(repos.role)
	s.files = service.NewFileService(db, repos.file, repos.share, service.NewStorageProvider(&cfg.Storage))
	s.messages = service.NewMessageService(service.NewMessageProvider(&cfg.Messaging, rdb), cfg)
	s.gradebook = service.NewGradebookService(service.NewGradebookProvider(&cfg.Gradebook, repos.gradebook))
	s.events = service.NewEventLogService(repos.event)

	s.instances = service.NewInstanceService(
		db,
		repos.instance,
		repos.course,
		repos.grading,
		repos.file,
		repos.share,
		repos.event,
		s.files,
		s.gradebook,
	)

	s.overview = service.NewOverviewService(repos.share, repos.grading, s.authorizer)

	s.grading = service.NewGradingService(
		db,
		repos.grading,
		repos.share,
		repos.user,
		s.instances,
		s.files,
		s.authorizer,
		s.messages,
		s.gradebook,
		s.events,
	)

	s.withdrawals = service.NewWithdrawalService(
		db,
		pending,
		cfg.Withdrawal.ConfirmTTL,
		repos.file,
		repos.share,
		repos.grading,
		repos.user,
		s.instances,
		s.files,
		s.authorizer,
		s.messages,
		s.events,
	)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		eportfolio: controller.NewEPortfolioController(s.instances, s.overview, s.grading, s.withdrawals, s.files, s.events),
		grading:    controller.NewGradingController(s.instances, s.overview, s.grading, s.withdrawals),
		submission: controller.NewSubmissionController(s.instances, s.files),
		instance:   controller.NewInstanceController(s.instances, s.authorizer),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(&cfg.CORS))
	router.Use(security.Secure(&cfg.Security))
	router.Use(security.RateLimiter(a.stopWatch, &cfg.RateLimit, "/api/health", "/metrics"))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// migrate 宿主表由 AutoMigrate 维护，插件表按版本升级
func migrate(ctx context.Context, db *gorm.DB) error {
	if err := database.MigrateHostTables(db); err != nil {
		return err
	}
	provisioner := upgrade.NewProvisioner(db, upgrade.NewPluginVersionStore(db, model.Component))
	upgraded, err := provisioner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Log.Info("Plugin schema ready",
		zap.Int64("version", provisioner.LatestVersion()),
		zap.Bool("upgraded", upgraded))
	return nil
}

func connectRedis(cfg *config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	rdb, err := database.InitRedis(cfg)
	if err != nil {
		logger.Log.Warn("Redis unavailable, using in-memory confirmation store", zap.Error(err))
		return nil
	}
	return rdb
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不迁移，需显式 -migrate
	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := migrate(context.Background(), db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	rdb := connectRedis(&cfg.Redis)

	app := &App{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		stopWatch: make(chan struct{}),
	}

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	router.SetHTMLTemplate(services.renderer.Template())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(logger.SetLevel)

	return app
}

// Uninstall 删除插件在宿主表中留下的数据
func (a *App) Uninstall(ctx context.Context) error {
	if a.services == nil {
		return nil
	}
	return a.services.instances.Uninstall(ctx)
}

func (a *App) watchConfig() {
	path, err := filepath.Abs(ConfigFile)
	if err != nil {
		logger.Log.Warn("Config watcher disabled", zap.Error(err))
		return
	}
	err = configwatcher.WatchConfig(path, a.stopWatch, func(cfg *config.Config) {
		for _, callback := range a.configCallbacks {
			callback(cfg)
		}
		logger.Log.Info("Config reloaded", zap.String("level", logger.Level().String()))
	})
	if err != nil {
		logger.Log.Warn("Config watcher stopped", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go a.watchConfig()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	close(a.stopWatch)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 等待后台的评分通知投递完成
	if a.services != nil {
		a.services.messages.Wait()
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
