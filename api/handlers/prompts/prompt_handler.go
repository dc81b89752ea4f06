package prompts

import (
	"net/http"
	"strings"

	handlerCommon "promptlab/api/handlers/common"
	"promptlab/internal/prompt"
	"promptlab/internal/testrun"

	"github.com/gin-gonic/gin"
)

// PromptHandler 提示词版本链管理 Handler
type PromptHandler struct {
	service *prompt.Service
	tests   *testrun.Service
}

// NewPromptHandler 创建 PromptHandler 实例
func NewPromptHandler(service *prompt.Service, tests *testrun.Service) *PromptHandler {
	return &PromptHandler{service: service, tests: tests}
}

// ListPrompts 查询当前版本列表
// @Summary 查询提示词列表
// @Description 返回每条版本链的当前版本，支持分类、收藏、模板、关键词与标签过滤
// @Tags Prompts
// @Produce json
// @Param category_id query int false "分类 ID"
// @Param is_favorite query bool false "仅收藏"
// @Param search query string false "关键词"
// @Success 200 {array} prompt.Prompt
// @Router /api/prompts [get]
func (h *PromptHandler) ListPrompts(c *gin.Context) {
	req := &prompt.ListHeadsRequest{
		CategoryID: handlerCommon.QueryUint(c, "category_id"),
		IsFavorite: handlerCommon.QueryBool(c, "is_favorite"),
		IsTemplate: handlerCommon.QueryBool(c, "is_template"),
		Search:     c.Query("search"),
	}
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if t := strings.TrimSpace(tag); t != "" {
				req.Tags = append(req.Tags, t)
			}
		}
	}

	prompts, err := h.service.ListHeads(c.Request.Context(), req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}

// CreatePrompt 创建提示词
// @Summary 创建提示词
// @Description 创建一条新的版本链，新提示词即为链的根节点
// @Tags Prompts
// @Accept json
// @Produce json
// @Success 201 {object} prompt.Prompt
// @Router /api/prompts [post]
func (h *PromptHandler) CreatePrompt(c *gin.Context) {
	var req prompt.CreateRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	p, err := h.service.CreateRoot(c.Request.Context(), &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetPrompt 查询单个提示词
// @Summary 查询提示词
// @Description 按 ID 查询提示词，同时记录一次使用
// @Tags Prompts
// @Produce json
// @Param id path int true "提示词 ID"
// @Success 200 {object} prompt.Prompt
// @Router /api/prompts/{id} [get]
func (h *PromptHandler) GetPrompt(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Touch(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePrompt 提交新版本
// @Summary 更新提示词
// @Description 以当前节点为父提交新版本，原节点保留为历史版本
// @Tags Prompts
// @Accept json
// @Produce json
// @Param id path int true "父版本 ID"
// @Success 201 {object} prompt.Prompt
// @Router /api/prompts/{id} [put]
func (h *PromptHandler) UpdatePrompt(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req prompt.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	// 追加式更新产生新的版本资源
	p, err := h.service.Commit(c.Request.Context(), id, &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// DeletePrompt 删除提示词
// @Summary 删除提示词
// @Description 删除单个版本节点，存在子版本时返回冲突
// @Tags Prompts
// @Param id path int true "提示词 ID"
// @Success 204
// @Router /api/prompts/{id} [delete]
func (h *PromptHandler) DeletePrompt(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetHistory 查询版本链历史
// @Summary 查询版本历史
// @Description 返回该提示词所在版本链的全部版本，按创建顺序
// @Tags Prompts
// @Produce json
// @Param id path int true "提示词 ID"
// @Success 200 {array} prompt.Prompt
// @Router /api/prompts/{id}/history [get]
func (h *PromptHandler) GetHistory(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	chain, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chain)
}

// DuplicatePrompt 复制提示词
// @Summary 复制提示词
// @Description 以当前内容开启一条新版本链，版本号与统计重置
// @Tags Prompts
// @Accept json
// @Produce json
// @Param id path int true "提示词 ID"
// @Success 201 {object} prompt.Prompt
// @Router /api/prompts/{id}/duplicate [post]
func (h *PromptHandler) DuplicatePrompt(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req prompt.DuplicateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
			return
		}
	}

	p, err := h.service.Duplicate(c.Request.Context(), id, &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// SearchPrompts 高级搜索
// @Summary 搜索提示词
// @Description 关键词搜索当前版本，支持排序与分页
// @Tags Prompts
// @Accept json
// @Produce json
// @Success 200 {object} prompt.SearchResult
// @Router /api/prompts/search [post]
func (h *PromptHandler) SearchPrompts(c *gin.Context) {
	var req prompt.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	result, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ComparePrompts 版本对比
// @Summary 对比两个版本
// @Description 生成同一版本链内两个版本的统一差异文本
// @Tags Prompts
// @Produce json
// @Param id path int true "旧版本 ID"
// @Param other path int true "新版本 ID"
// @Success 200 {object} prompt.VersionDiff
// @Router /api/prompts/{id}/diff/{other} [get]
func (h *PromptHandler) ComparePrompts(c *gin.Context) {
	from, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}
	to, ok := handlerCommon.ParseIDParam(c, "other")
	if !ok {
		return
	}

	diff, err := h.service.CompareVersions(c.Request.Context(), from, to)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, diff)
}

// GetPromptStats 查询提示词测试统计
// @Summary 提示词测试统计
// @Tags Prompts
// @Produce json
// @Param id path int true "提示词 ID"
// @Success 200 {object} testrun.PromptStats
// @Router /api/prompts/{id}/stats [get]
func (h *PromptHandler) GetPromptStats(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.tests.StatsForPrompt(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
