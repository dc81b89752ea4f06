package templates

import (
	"net/http"

	handlerCommon "promptlab/api/handlers/common"
	"promptlab/internal/template"

	"github.com/gin-gonic/gin"
)

// TemplateHandler 提示词模板管理 Handler
type TemplateHandler struct {
	service *template.Service
}

// NewTemplateHandler 创建 TemplateHandler 实例
func NewTemplateHandler(service *template.Service) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// ListTemplates 查询模板列表
// @Summary 查询模板列表
// @Tags Templates
// @Produce json
// @Param category_id query int false "分类 ID"
// @Param search query string false "在名称、内容、描述中检索"
// @Success 200 {array} template.PromptTemplate
// @Router /api/templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context(), handlerCommon.QueryUint(c, "category_id"), c.Query("search"))
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetTemplate 查询单个模板
// @Summary 查询模板
// @Tags Templates
// @Produce json
// @Param id path int true "模板 ID"
// @Success 200 {object} template.PromptTemplate
// @Router /api/templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	tpl, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// CreateTemplate 创建模板
// @Summary 创建模板
// @Description 创建模板并从内容中自动提取变量定义
// @Tags Templates
// @Accept json
// @Produce json
// @Success 201 {object} template.PromptTemplate
// @Router /api/templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req template.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	tpl, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// UpdateTemplate 更新模板
// @Summary 更新模板
// @Description 内容变更时重新提取变量定义
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path int true "模板 ID"
// @Success 200 {object} template.PromptTemplate
// @Router /api/templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req template.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	tpl, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// DeleteTemplate 删除模板
// @Summary 删除模板
// @Tags Templates
// @Param id path int true "模板 ID"
// @Success 204
// @Router /api/templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
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

// InstantiateTemplate 实例化模板
// @Summary 实例化模板
// @Description 用变量表替换占位符，创建一条新的提示词版本链
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path int true "模板 ID"
// @Success 201 {object} prompt.Prompt
// @Router /api/templates/{id}/instantiate [post]
func (h *TemplateHandler) InstantiateTemplate(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req template.InstantiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	p, err := h.service.Instantiate(c.Request.Context(), id, &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PreviewTemplate 预览模板替换结果
// @Summary 预览模板
// @Description 返回变量替换后的文本，不创建提示词也不计数
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path int true "模板 ID"
// @Success 200 {object} map[string]string
// @Router /api/templates/{id}/preview [post]
func (h *TemplateHandler) PreviewTemplate(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Values map[string]string `json:"values"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	content, err := h.service.Preview(c.Request.Context(), id, req.Values)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}
