package api

import (
	"net/http"
	"time"

	_ "promptlab/api/docs"
	analyticsHandlers "promptlab/api/handlers/analytics"
	"promptlab/api/handlers/categories"
	"promptlab/api/handlers/prompts"
	"promptlab/api/handlers/shortcuts"
	"promptlab/api/handlers/templates"
	"promptlab/api/handlers/testruns"
	"promptlab/internal/analytics"
	"promptlab/internal/cache"
	"promptlab/internal/category"
	"promptlab/internal/config"
	"promptlab/internal/infra"
	"promptlab/internal/metrics"
	middlewarepkg "promptlab/internal/middleware"
	"promptlab/internal/prompt"
	"promptlab/internal/shortcut"
	"promptlab/internal/template"
	"promptlab/internal/testrun"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Handlers 全部 HTTP Handler 的集合
type Handlers struct {
	Prompt    *prompts.PromptHandler
	Category  *categories.CategoryHandler
	Template  *templates.TemplateHandler
	Shortcut  *shortcuts.ShortcutHandler
	TestRun   *testruns.TestRunHandler
	Analytics *analyticsHandlers.AnalyticsHandler
}

// SetupRouter 组装服务与路由，返回可直接运行的 Gin 引擎
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Redis 可选，不可用时统计缓存自动降级
	redisClient := infra.InitRedis(&cfg.Redis)
	statsCache := cache.New(redisClient, time.Duration(cfg.Analytics.CacheTTL)*time.Second)

	// 领域服务
	promptSvc := prompt.NewService(db)
	categorySvc := category.NewService(db)
	templateSvc := template.NewService(db, promptSvc)
	shortcutSvc := shortcut.NewService(db)
	testrunSvc := testrun.NewService(db, promptSvc)
	analyticsSvc := analytics.NewService(db, statsCache)
	runner := testrun.NewRunner(&cfg.OpenAI, testrunSvc)

	handlers := &Handlers{
		Prompt:    prompts.NewPromptHandler(promptSvc, testrunSvc),
		Category:  categories.NewCategoryHandler(categorySvc, promptSvc),
		Template:  templates.NewTemplateHandler(templateSvc),
		Shortcut:  shortcuts.NewShortcutHandler(shortcutSvc),
		TestRun:   testruns.NewTestRunHandler(testrunSvc, runner),
		Analytics: analyticsHandlers.NewAnalyticsHandler(analyticsSvc),
	}

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middlewarepkg.RequestIDMiddleware())
	router.Use(middlewarepkg.TracingMiddleware())
	router.Use(metrics.PrometheusMiddleware())
	router.Use(RequestLogger())
	router.Use(CORS())
	router.Use(invalidateStatsCache(analyticsSvc))

	// 系统端点
	router.GET("/health", HealthCheck(db))
	router.GET("/ready", ReadinessCheck(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	RegisterRoutes(router, handlers)

	return router
}

// invalidateStatsCache 写操作成功后清除总览缓存，保证统计及时刷新
func invalidateStatsCache(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method != http.MethodGet && c.Writer.Status() < http.StatusBadRequest {
			svc.InvalidateOverview(c.Request.Context())
		}
	}
}
