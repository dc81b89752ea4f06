package analytics

import (
	"net/http"

	handlerCommon "promptlab/api/handlers/common"
	"promptlab/internal/analytics"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 统计分析 Handler
type AnalyticsHandler struct {
	service *analytics.Service
}

// NewAnalyticsHandler 创建 AnalyticsHandler 实例
func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetOverview 总览统计
// @Summary 总览统计
// @Description 各资源总数与周期环比增长率
// @Tags Analytics
// @Produce json
// @Param days query int false "对比窗口天数，默认 30"
// @Success 200 {object} analytics.Overview
// @Router /api/analytics/overview [get]
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	ov, err := h.service.GetOverview(c.Request.Context(), handlerCommon.QueryInt(c, "days", 30))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// GetUsage 使用曲线
// @Summary 按天统计使用量
// @Tags Analytics
// @Produce json
// @Param days query int false "回看天数，默认 30"
// @Success 200 {array} analytics.UsagePoint
// @Router /api/analytics/usage [get]
func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	points, err := h.service.UsageOverTime(c.Request.Context(), handlerCommon.QueryInt(c, "days", 30))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetPopular 热门提示词
// @Summary 热门提示词
// @Tags Analytics
// @Produce json
// @Param limit query int false "数量上限，默认 10"
// @Success 200 {array} analytics.PopularPrompt
// @Router /api/analytics/popular [get]
func (h *AnalyticsHandler) GetPopular(c *gin.Context) {
	popular, err := h.service.PopularPrompts(c.Request.Context(), handlerCommon.QueryInt(c, "limit", 10))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, popular)
}

// GetPopularTemplates 热门模板
// @Summary 热门模板
// @Tags Analytics
// @Produce json
// @Param limit query int false "数量上限，默认 10"
// @Success 200 {array} analytics.PopularTemplate
// @Router /api/analytics/templates [get]
func (h *AnalyticsHandler) GetPopularTemplates(c *gin.Context) {
	popular, err := h.service.PopularTemplates(c.Request.Context(), handlerCommon.QueryInt(c, "limit", 10))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, popular)
}

// GetPopularShortcuts 热门快捷指令
// @Summary 热门快捷指令
// @Tags Analytics
// @Produce json
// @Param limit query int false "数量上限，默认 10"
// @Success 200 {array} analytics.PopularShortcut
// @Router /api/analytics/shortcuts [get]
func (h *AnalyticsHandler) GetPopularShortcuts(c *gin.Context) {
	popular, err := h.service.PopularShortcuts(c.Request.Context(), handlerCommon.QueryInt(c, "limit", 10))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, popular)
}

// GetCategoryDistribution 分类分布
// @Summary 分类分布
// @Description 各分类下的提示词数量，无分类的归入未分类扇区
// @Tags Analytics
// @Produce json
// @Success 200 {array} analytics.CategorySlice
// @Router /api/analytics/categories [get]
func (h *AnalyticsHandler) GetCategoryDistribution(c *gin.Context) {
	slices, err := h.service.CategoryDistribution(c.Request.Context())
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slices)
}

// GetRecent 最近动态
// @Summary 最近动态
// @Tags Analytics
// @Produce json
// @Param limit query int false "每个维度的数量上限，默认 10"
// @Success 200 {object} analytics.RecentActivity
// @Router /api/analytics/recent [get]
func (h *AnalyticsHandler) GetRecent(c *gin.Context) {
	items, err := h.service.RecentActivity(c.Request.Context(), handlerCommon.QueryInt(c, "limit", 10))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetTestStats 测试统计
// @Summary 测试结果统计
// @Tags Analytics
// @Produce json
// @Param days query int false "周期窗口天数，默认 30"
// @Success 200 {object} analytics.TestStats
// @Router /api/analytics/tests [get]
func (h *AnalyticsHandler) GetTestStats(c *gin.Context) {
	stats, err := h.service.GetTestStats(c.Request.Context(), handlerCommon.QueryInt(c, "days", 30))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
