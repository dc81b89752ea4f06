package shortcuts

import (
	"net/http"

	handlerCommon "promptlab/api/handlers/common"
	"promptlab/internal/shortcut"

	"github.com/gin-gonic/gin"
)

// ShortcutHandler 快捷指令管理 Handler
type ShortcutHandler struct {
	service *shortcut.Service
}

// NewShortcutHandler 创建 ShortcutHandler 实例
func NewShortcutHandler(service *shortcut.Service) *ShortcutHandler {
	return &ShortcutHandler{service: service}
}

// ListShortcuts 查询快捷指令列表
// @Summary 查询快捷指令列表
// @Tags Shortcuts
// @Produce json
// @Param search query string false "在触发词、展开内容、描述中检索"
// @Param is_active query bool false "按启用状态筛选"
// @Success 200 {array} shortcut.Shortcut
// @Router /api/shortcuts [get]
func (h *ShortcutHandler) ListShortcuts(c *gin.Context) {
	req := &shortcut.ListRequest{
		Search:   c.Query("search"),
		IsActive: handlerCommon.QueryBool(c, "is_active"),
	}

	shortcuts, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shortcuts)
}

// GetShortcut 查询单个快捷指令
// @Summary 查询快捷指令
// @Tags Shortcuts
// @Produce json
// @Param id path int true "快捷指令 ID"
// @Success 200 {object} shortcut.Shortcut
// @Router /api/shortcuts/{id} [get]
func (h *ShortcutHandler) GetShortcut(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	sc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// CreateShortcut 创建快捷指令
// @Summary 创建快捷指令
// @Description 触发词全局唯一，重复时返回冲突
// @Tags Shortcuts
// @Accept json
// @Produce json
// @Success 201 {object} shortcut.Shortcut
// @Router /api/shortcuts [post]
func (h *ShortcutHandler) CreateShortcut(c *gin.Context) {
	var req shortcut.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	sc, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc)
}

// UpdateShortcut 更新快捷指令
// @Summary 更新快捷指令
// @Tags Shortcuts
// @Accept json
// @Produce json
// @Param id path int true "快捷指令 ID"
// @Success 200 {object} shortcut.Shortcut
// @Router /api/shortcuts/{id} [put]
func (h *ShortcutHandler) UpdateShortcut(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req shortcut.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	sc, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// DeleteShortcut 删除快捷指令
// @Summary 删除快捷指令
// @Tags Shortcuts
// @Param id path int true "快捷指令 ID"
// @Success 204
// @Router /api/shortcuts/{id} [delete]
func (h *ShortcutHandler) DeleteShortcut(c *gin.Context) {
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

// MatchShortcut 后缀匹配
// @Summary 触发词匹配
// @Description 对输入文本做后缀匹配，返回第一个命中的启用指令
// @Tags Shortcuts
// @Accept json
// @Produce json
// @Success 200 {object} shortcut.Match
// @Router /api/shortcuts/match [post]
func (h *ShortcutHandler) MatchShortcut(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	match, err := h.service.FindMatch(c.Request.Context(), req.Text)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// UseShortcut 记录一次使用
// @Summary 记录快捷指令使用
// @Tags Shortcuts
// @Produce json
// @Param id path int true "快捷指令 ID"
// @Success 200 {object} shortcut.Shortcut
// @Router /api/shortcuts/{id}/use [post]
func (h *ShortcutHandler) UseShortcut(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	sc, err := h.service.Increment(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}
