package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlab_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptlab_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// 业务指标
var (
	// PromptCommitsTotal 提示词版本提交总数
	PromptCommitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptlab_prompt_commits_total",
			Help: "提示词版本提交总数（非破坏性更新）",
		},
	)

	// TemplateInstantiationsTotal 模板实例化总数
	TemplateInstantiationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptlab_template_instantiations_total",
			Help: "模板实例化为提示词的总数",
		},
	)

	// ShortcutMatchesTotal 快捷短语匹配结果计数
	ShortcutMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlab_shortcut_matches_total",
			Help: "快捷短语后缀匹配次数",
		},
		[]string{"matched"},
	)

	// TestResultsTotal 测试结果写入总数
	TestResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlab_test_results_total",
			Help: "LLM 测试结果写入总数",
		},
		[]string{"test_type"},
	)
)
