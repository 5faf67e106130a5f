package app

import (
	"eportfolio_grading/docs"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/middleware"
	"eportfolio_grading/internal/model"

	"eportfolio_grading/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 活动页面
	a.registerPageRoutes(router, c, cfg)

	// 3. 需要授权的接口
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.Language())
	{
		a.registerGradingRoutes(authGroup, c)

		// 教师相关接口
		a.registerInstanceRoutes(authGroup, c)
	}
}

func (a *App) registerPageRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	page := router.Group("/mod/eportfolio")
	page.Use(middleware.AuthMiddleware(cfg), middleware.Language())
	{
		page.GET("/view", c.eportfolio.View)
		page.POST("/view", c.eportfolio.View)
	}
}

func (a *App) registerGradingRoutes(rg *gin.RouterGroup, c *controllers) {
	modules := rg.Group("/eportfolio/modules/:cmid")
	{
		modules.GET("/overview", c.grading.GetOverview)
		modules.GET("/grades", c.grading.GetGrade)
		modules.PUT("/grades", c.grading.PutGrade)
		modules.POST("/withdrawals", c.grading.RequestWithdrawal)
		modules.POST("/withdrawals/:token/confirm", c.grading.ConfirmWithdrawal)
		modules.POST("/submissions", c.submission.Upload)
	}
}

func (a *App) registerInstanceRoutes(rg *gin.RouterGroup, c *controllers) {
	instances := rg.Group("/eportfolio/instances")
	instances.Use(middleware.RoleMiddleware(model.Teacher))
	{
		instances.POST("", c.instance.Create)
		instances.PUT("/:id", c.instance.Update)
		instances.DELETE("/:id", c.instance.Delete)
	}
}
