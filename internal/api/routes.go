package api

import (
	"github.com/gin-gonic/gin"
	_ "github.com/mautops/practica-gin/docs" // 导入生成的 docs 包
	"github.com/mautops/practica-gin/internal/auth"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/service"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/mautops/practica-gin/internal/websocket"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config            *config.Config
	DB                *gorm.DB
	Validator         *auth.SessionValidator
	Hub               *websocket.Hub
	Tracing           *Tracing
	PracticeService   service.PracticeService
	TemplateService   service.TemplateService
	QueryService      service.QueryService
	StatisticsService service.StatisticsService
}

// userContextMiddleware 将会话用户写入请求 context,供审计日志使用
func userContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := auth.ActorFromContext(c); ok {
			c.Request = c.Request.WithContext(service.WithUserID(c.Request.Context(), actor.ID))
		}
		c.Next()
	}
}

// SetupRoutes 配置路由
func SetupRoutes(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	// 中间件
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	if deps.Tracing.Enabled() {
		router.Use(deps.Tracing.Middleware())
	}
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware(config.IsProduction(cfg)))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(RateLimitMiddleware(cfg.RateLimit))
	router.Use(ErrorHandlerMiddleware())
	router.NoRoute(NoRouteHandler)

	// 健康检查
	healthController := NewHealthController(deps.DB, cfg.Notify.Driver)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler())

	// WebSocket 路由
	if deps.Hub != nil {
		router.GET("/ws/practicas", websocket.WebSocketHandler(deps.Hub, deps.Validator, websocket.NewUpgrader(cfg.CORS.AllowedOrigins)))
	}

	// Swagger UI 路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	practiceController := NewPracticeController(deps.PracticeService, deps.QueryService)
	coordinatorController := NewCoordinatorController(deps.PracticeService)
	companyController := NewCompanyController(deps.PracticeService)
	templateController := NewTemplateController(deps.TemplateService)
	queryController := NewQueryController(deps.QueryService, deps.StatisticsService)

	student := auth.RequireRole(statemachine.RoleStudent)
	coordinator := auth.RequireRole(statemachine.RoleCoordinator)
	anyone := auth.RequireRole(statemachine.RoleStudent, statemachine.RoleCoordinator)

	v1 := router.Group("/api/v1")

	// 企业令牌路由,不需要会话
	empresa := v1.Group("/empresa")
	{
		empresa.GET("/practica", companyController.View)
		empresa.POST("/confirmar-inicio-practica", companyController.ConfirmStart)
		empresa.POST("/enviar-evaluacion", companyController.SubmitEvaluation)
	}

	session := v1.Group("")
	session.Use(auth.SessionMiddleware(deps.Validator), userContextMiddleware())
	{
		practicas := session.Group("/practicas")
		{
			practicas.POST("/postular", student, practiceController.Apply)
			practicas.GET("/mias", student, practiceController.Mine)
			practicas.GET("", coordinator, queryController.ListPractices)
			practicas.GET("/estadisticas", coordinator, queryController.Statistics)
			practicas.GET("/:id", anyone, practiceController.Get)
			practicas.GET("/:id/historial", anyone, practiceController.History)
			practicas.GET("/:id/documentos", anyone, practiceController.Documents)
			practicas.POST("/:id/corregir", student, practiceController.Correct)
			practicas.POST("/:id/bitacora", student, practiceController.Logbook)
			practicas.PATCH("/:id/cerrar", coordinator, practiceController.Close)
			practicas.DELETE("/:id", coordinator, practiceController.Delete)
		}

		coordinador := session.Group("/coordinador", coordinator)
		{
			coordinador.PUT("/evaluar/:id", coordinatorController.Evaluate)
			coordinador.POST("/practicas/:id/enviar-empresa", coordinatorController.SendToCompany)
			coordinador.POST("/practicas/:id/finalizar", coordinatorController.Finish)
			coordinador.PUT("/practicas/:id/estado", coordinatorController.UpdateState)
			coordinador.PUT("/practicas/:id/acceso", coordinatorController.ExtendAccess)
			coordinador.POST("/practicas/:id/acceso", coordinatorController.ReissueAccess)
			coordinador.GET("/practicas/:id/notificaciones", queryController.Notifications)
		}

		formularios := session.Group("/formularios")
		{
			formularios.GET("", anyone, templateController.List)
			formularios.GET("/:kind", anyone, templateController.GetByKind)
			formularios.POST("", coordinator, templateController.Create)
			formularios.PUT("/:id", coordinator, templateController.Update)
			formularios.DELETE("/:id", coordinator, templateController.Delete)
		}
	}

	return router
}
