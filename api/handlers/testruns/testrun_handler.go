package testruns

import (
	"net/http"

	handlerCommon "promptlab/api/handlers/common"
	"promptlab/internal/testrun"

	"github.com/gin-gonic/gin"
)

// TestRunHandler 测试结果管理 Handler
// runner 为 nil 时在线测试接口返回校验错误
type TestRunHandler struct {
	service *testrun.Service
	runner  *testrun.Runner
}

// NewTestRunHandler 创建 TestRunHandler 实例
func NewTestRunHandler(service *testrun.Service, runner *testrun.Runner) *TestRunHandler {
	return &TestRunHandler{service: service, runner: runner}
}

// ListResults 查询测试结果列表
// @Summary 查询测试结果
// @Tags TestResults
// @Produce json
// @Param prompt_id query int false "提示词 ID"
// @Param test_session_id query string false "会话 ID"
// @Param test_type query string false "测试类型"
// @Success 200 {array} testrun.TestResult
// @Router /api/test-results [get]
func (h *TestRunHandler) ListResults(c *gin.Context) {
	req := &testrun.ListRequest{
		PromptID:  handlerCommon.QueryUint(c, "prompt_id"),
		SessionID: c.Query("test_session_id"),
		TestType:  c.Query("test_type"),
		Limit:     handlerCommon.QueryInt(c, "limit", 100),
	}

	results, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// RecordResult 记录测试结果
// @Summary 记录测试结果
// @Description 保存一次模型调用的输入输出，未提供 token 数时自动估算
// @Tags TestResults
// @Accept json
// @Produce json
// @Success 201 {object} testrun.TestResult
// @Router /api/test-results [post]
func (h *TestRunHandler) RecordResult(c *gin.Context) {
	var req testrun.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	result, err := h.service.Record(c.Request.Context(), &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetResult 查询单条测试结果
// @Summary 查询测试结果
// @Tags TestResults
// @Produce json
// @Param id path int true "测试结果 ID"
// @Success 200 {object} testrun.TestResult
// @Router /api/test-results/{id} [get]
func (h *TestRunHandler) GetResult(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RateResult 补充评分
// @Summary 评分测试结果
// @Tags TestResults
// @Accept json
// @Produce json
// @Param id path int true "测试结果 ID"
// @Success 200 {object} testrun.TestResult
// @Router /api/test-results/{id}/rate [put]
func (h *TestRunHandler) RateResult(c *gin.Context) {
	id, ok := handlerCommon.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req testrun.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	result, err := h.service.Rate(c.Request.Context(), id, &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteResult 删除测试结果
// @Summary 删除测试结果
// @Tags TestResults
// @Param id path int true "测试结果 ID"
// @Success 204
// @Router /api/test-results/{id} [delete]
func (h *TestRunHandler) DeleteResult(c *gin.Context) {
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

// BatchRecord 批量记录测试结果
// @Summary 批量记录测试结果
// @Description 所有条目归入同一个新会话并返回会话 ID
// @Tags TestResults
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Router /api/test-results/batch [post]
func (h *TestRunHandler) BatchRecord(c *gin.Context) {
	var req struct {
		Results []*testrun.RecordRequest `json:"results"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	sessionID, results, err := h.service.Batch(c.Request.Context(), req.Results)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"test_session_id": sessionID,
		"results":    results,
	})
}

// AnalyzeSession 会话聚合分析
// @Summary 分析测试会话
// @Tags TestResults
// @Produce json
// @Param session_id path string true "会话 ID"
// @Success 200 {object} testrun.SessionAnalysis
// @Router /api/test-results/sessions/{session_id}/analysis [get]
func (h *TestRunHandler) AnalyzeSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少会话 ID"})
		return
	}

	analysis, err := h.service.AnalyzeSession(c.Request.Context(), sessionID)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// RunTest 在线执行一次模型测试
// @Summary 在线测试提示词
// @Description 把提示词发给配置的模型并保存测试结果，未配置 API Key 时不可用
// @Tags TestResults
// @Accept json
// @Produce json
// @Success 201 {object} testrun.TestResult
// @Router /api/test-results/run [post]
func (h *TestRunHandler) RunTest(c *gin.Context) {
	var req testrun.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	result, err := h.runner.Run(c.Request.Context(), &req)
	if err != nil {
		handlerCommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
