package container

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/practica-gin/internal/api"
	"github.com/mautops/practica-gin/internal/auth"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/metrics"
	"github.com/mautops/practica-gin/internal/notify"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/service"
	"github.com/mautops/practica-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const metricsInterval = 30 * time.Second

// Container 依赖注入容器
// 管理数据库、领域管理器、服务以及后台组件
type Container struct {
	cfg    *config.Config
	logger *logrus.Logger

	db          *gorm.DB
	templateMgr *integration.TemplateManager
	practiceMgr *integration.PracticeManager
	dispatcher  *integration.NotificationDispatcher

	practiceSvc   service.PracticeService
	templateSvc   service.TemplateService
	querySvc      service.QueryService
	statisticsSvc service.StatisticsService

	validator *auth.SessionValidator
	hub       *websocket.Hub
	scheduler *service.FinalizationScheduler
	collector *metrics.Collector
	tracing   *api.Tracing
	started   bool
}

// NewContainer 创建依赖注入容器
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// 1. 数据库（默认重试 3 次，初始间隔 1 秒，指数退避）
	db, err := database.ConnectWithRetry(cfg.Database, logger, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 表单模板
	templateMgr := integration.NewTemplateManager(db)
	seeds, err := integration.LoadSeedTemplates(cfg.Forms.SeedFile)
	if err != nil {
		return nil, err
	}
	created, err := templateMgr.Seed(context.Background(), seeds)
	if err != nil {
		return nil, fmt.Errorf("failed to seed templates: %w", err)
	}
	if created > 0 {
		logger.WithField("count", created).Info("Seeded form templates")
	}

	// 3. 通知
	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}
	dispatcher := integration.NewNotificationDispatcher(db, notifier, logger, integration.DispatcherOptions{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		SendTimeout: time.Duration(cfg.Notify.SendTimeoutSeconds) * time.Second,
	})
	dispatcher.OnResult(metrics.RecordNotification)
	composer := integration.NewNotificationComposer(cfg.Notify)

	// 4. 状态机与访问令牌
	grants := integration.NewAccessGrantManager(db, time.Duration(cfg.AccessToken.TTLHours)*time.Hour)
	practiceMgr := integration.NewPracticeManager(db, templateMgr, grants, dispatcher, composer, logger)

	hub := websocket.NewHub(logger)
	practiceMgr.AddObserver(integration.TransitionObserverFunc(func(evt integration.TransitionEvent) {
		metrics.RecordTransition(string(evt.Action), evt.Result)
	}))
	practiceMgr.AddObserver(hub)

	// 5. 服务
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))

	tracing, err := api.InitTracing(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &Container{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		templateMgr:   templateMgr,
		practiceMgr:   practiceMgr,
		dispatcher:    dispatcher,
		practiceSvc:   service.NewPracticeService(practiceMgr, auditSvc),
		templateSvc:   service.NewTemplateService(templateMgr, db, auditSvc),
		querySvc:      service.NewQueryService(db),
		statisticsSvc: service.NewStatisticsService(db),
		validator:     auth.NewSessionValidator(cfg.Auth),
		hub:           hub,
		scheduler:     service.NewFinalizationScheduler(practiceMgr, cfg.Scheduler.FinalizeCron, logger),
		collector:     metrics.NewCollector(db, metricsInterval, logger),
		tracing:       tracing,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// TemplateManager 获取模板管理器
func (c *Container) TemplateManager() *integration.TemplateManager {
	return c.templateMgr
}

// PracticeManager 获取实习状态机管理器
func (c *Container) PracticeManager() *integration.PracticeManager {
	return c.practiceMgr
}

// SessionValidator 获取会话令牌验证器
func (c *Container) SessionValidator() *auth.SessionValidator {
	return c.validator
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Scheduler 获取自动结束调度器
func (c *Container) Scheduler() *service.FinalizationScheduler {
	return c.scheduler
}

// RouterDeps 组装路由依赖
func (c *Container) RouterDeps() api.RouterDeps {
	return api.RouterDeps{
		Config:            c.cfg,
		DB:                c.db,
		Validator:         c.validator,
		Hub:               c.hub,
		Tracing:           c.tracing,
		PracticeService:   c.practiceSvc,
		TemplateService:   c.templateSvc,
		QueryService:      c.querySvc,
		StatisticsService: c.statisticsSvc,
	}
}

// Start 启动后台组件
func (c *Container) Start() error {
	go c.hub.Run()
	c.collector.Start()
	c.started = true
	if c.cfg.Scheduler.Enabled {
		if err := c.scheduler.Start(); err != nil {
			return err
		}
		c.logger.WithField("schedule", c.cfg.Scheduler.FinalizeCron).Info("Finalization scheduler started")
	}
	return nil
}

// Close 关闭容器,清理资源
func (c *Container) Close(ctx context.Context) error {
	if c.started {
		if c.cfg.Scheduler.Enabled {
			c.scheduler.Stop()
		}
		c.collector.Stop()
	}
	c.hub.Stop()
	// 等待队列中的通知发送完成
	c.dispatcher.Close()

	if err := c.tracing.Shutdown(ctx); err != nil {
		c.logger.WithError(err).Warn("Failed to shutdown tracer provider")
	}

	if sqlDB, err := c.db.DB(); err == nil {
		return sqlDB.Close()
	}
	return nil
}
