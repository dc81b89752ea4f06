package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有 API 路由
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	api := router.Group("/api")
	registerPromptRoutes(api, h)
	registerCategoryRoutes(api, h)
	registerTemplateRoutes(api, h)
	registerShortcutRoutes(api, h)
	registerTestResultRoutes(api, h)
	registerAnalyticsRoutes(api, h)
}

// registerPromptRoutes 提示词版本链
func registerPromptRoutes(g *gin.RouterGroup, h *Handlers) {
	prompts := g.Group("/prompts")
	{
		prompts.GET("", h.Prompt.ListPrompts)
		prompts.POST("", h.Prompt.CreatePrompt)
		prompts.POST("/search", h.Prompt.SearchPrompts)
		prompts.GET("/:id", h.Prompt.GetPrompt)
		prompts.PUT("/:id", h.Prompt.UpdatePrompt)
		prompts.DELETE("/:id", h.Prompt.DeletePrompt)
		prompts.GET("/:id/history", h.Prompt.GetHistory)
		prompts.POST("/:id/duplicate", h.Prompt.DuplicatePrompt)
		prompts.GET("/:id/diff/:other", h.Prompt.ComparePrompts)
		prompts.GET("/:id/stats", h.Prompt.GetPromptStats)
	}
}

// registerCategoryRoutes 分类管理
func registerCategoryRoutes(g *gin.RouterGroup, h *Handlers) {
	categories := g.Group("/categories")
	{
		categories.GET("", h.Category.ListCategories)
		categories.POST("", h.Category.CreateCategory)
		categories.GET("/:id", h.Category.GetCategory)
		categories.PUT("/:id", h.Category.UpdateCategory)
		categories.DELETE("/:id", h.Category.DeleteCategory)
		categories.GET("/:id/prompts", h.Category.ListCategoryPrompts)
	}
}

// registerTemplateRoutes 模板管理
func registerTemplateRoutes(g *gin.RouterGroup, h *Handlers) {
	templates := g.Group("/templates")
	{
		templates.GET("", h.Template.ListTemplates)
		templates.POST("", h.Template.CreateTemplate)
		templates.GET("/:id", h.Template.GetTemplate)
		templates.PUT("/:id", h.Template.UpdateTemplate)
		templates.DELETE("/:id", h.Template.DeleteTemplate)
		templates.POST("/:id/instantiate", h.Template.InstantiateTemplate)
		templates.POST("/:id/preview", h.Template.PreviewTemplate)
	}
}

// registerShortcutRoutes 快捷指令
func registerShortcutRoutes(g *gin.RouterGroup, h *Handlers) {
	shortcuts := g.Group("/shortcuts")
	{
		shortcuts.GET("", h.Shortcut.ListShortcuts)
		shortcuts.POST("", h.Shortcut.CreateShortcut)
		shortcuts.POST("/match", h.Shortcut.MatchShortcut)
		shortcuts.GET("/:id", h.Shortcut.GetShortcut)
		shortcuts.PUT("/:id", h.Shortcut.UpdateShortcut)
		shortcuts.DELETE("/:id", h.Shortcut.DeleteShortcut)
		shortcuts.POST("/:id/use", h.Shortcut.UseShortcut)
	}
}

// registerTestResultRoutes 测试结果
func registerTestResultRoutes(g *gin.RouterGroup, h *Handlers) {
	results := g.Group("/test-results")
	{
		results.GET("", h.TestRun.ListResults)
		results.POST("", h.TestRun.RecordResult)
		results.POST("/batch", h.TestRun.BatchRecord)
		results.POST("/run", h.TestRun.RunTest)
		results.GET("/sessions/:session_id/analysis", h.TestRun.AnalyzeSession)
		results.GET("/:id", h.TestRun.GetResult)
		results.PUT("/:id/rate", h.TestRun.RateResult)
		results.DELETE("/:id", h.TestRun.DeleteResult)
	}
}

// registerAnalyticsRoutes 统计分析
func registerAnalyticsRoutes(g *gin.RouterGroup, h *Handlers) {
	stats := g.Group("/analytics")
	{
		stats.GET("/overview", h.Analytics.GetOverview)
		stats.GET("/usage", h.Analytics.GetUsage)
		stats.GET("/popular", h.Analytics.GetPopular)
		stats.GET("/templates", h.Analytics.GetPopularTemplates)
		stats.GET("/shortcuts", h.Analytics.GetPopularShortcuts)
		stats.GET("/categories", h.Analytics.GetCategoryDistribution)
		stats.GET("/recent", h.Analytics.GetRecent)
		stats.GET("/tests", h.Analytics.GetTestStats)
	}
}
