package common

import (
	"net/http"
	"strconv"

	"promptlab/internal/common"
	"promptlab/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 把业务错误映射为 HTTP 状态码并输出统一错误结构
// 非业务错误一律按 500 处理，只记日志不向客户端暴露细节
func RespondError(c *gin.Context, err error) {
	if be, ok := common.AsBusinessError(err); ok {
		c.JSON(statusOf(be.Code), gin.H{"error": be.Message})
		return
	}

	logger.Error("请求处理失败",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "内部服务错误"})
}

// statusOf 业务错误码到 HTTP 状态码的映射
func statusOf(code int) int {
	switch code {
	case common.CodeInvalidRequest:
		return http.StatusBadRequest
	case common.CodeNotFound:
		return http.StatusNotFound
	case common.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ParseIDParam 解析路径中的数字 ID 参数
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 ID 参数"})
		return 0, false
	}
	return uint(id), true
}

// QueryUint 解析可选的数字查询参数，缺失或非法时返回 nil
func QueryUint(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}

// QueryBool 解析可选的布尔查询参数，缺失或非法时返回 nil
func QueryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// QueryInt 解析可选的整数查询参数，缺失或非法时返回默认值
func QueryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
