package categories

import (
	"net/http"

	handlerCommon "promptlab/api/handlers/common"
	"promptlab/internal/category"
	"promptlab/internal/prompt"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类管理 Handler
type CategoryHandler struct {
	service *category.Service
	prompts *prompt.Service
}

// NewCategoryHandler 创建 CategoryHandler 实例
func NewCategoryHandler(service *category.Service, prompts *prompt.Service) *CategoryHandler {
	return &CategoryHandler{service: service, prompts: prompts}
}

// ListCategories 查询分类列表
// @Summary 查询分类列表
// @Description 按名称排序返回全部分类，附带各分类下的提示词数量
// @Tags Categories
// @Produce json
// @Success 200 {array} category.Category
// @Router /api/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GetCategory 查询单个分类
// @Summary 查询分类
// @Tags Categories
// @Produce json
// @Param id path int true "分类 ID"
// @Success 200 {object} category.Category
// @Router /api/categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	cat, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// CreateCategory 创建分类
// @Summary 创建分类
// @Tags Categories
// @Accept json
// @Produce json
// @Success 201 {object} category.Category
// @Router /api/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req category.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	cat, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// UpdateCategory 更新分类
// @Summary 更新分类
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path int true "分类 ID"
// @Success 200 {object} category.Category
// @Router /api/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req category.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	cat, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// DeleteCategory 删除分类
// @Summary 删除分类
// @Description 分类下仍有提示词时拒绝删除
// @Tags Categories
// @Param id path int true "分类 ID"
// @Success 204
// @Router /api/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
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

// ListCategoryPrompts 查询分类下的提示词
// @Summary 查询分类下的提示词
// @Description 返回该分类下的全部提示词（含历史版本）
// @Tags Categories
// @Produce json
// @Param id path int true "分类 ID"
// @Success 200 {array} prompt.Prompt
// @Router /api/categories/{id}/prompts [get]
func (h *CategoryHandler) ListCategoryPrompts(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	// 先确认分类存在，避免对不存在的分类返回空列表
	if _, err := h.service.Get(c.Request.Context(), id); err != nil {
		handlerCommon.RespondError(c, err)
		return
	}

	prompts, err := h.prompts.ListByCategory(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}
