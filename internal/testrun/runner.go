package testrun

import (
	"context"
	"fmt"
	"time"

	"promptlab/internal/common"
	"promptlab/internal/config"
	"promptlab/internal/logger"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Runner 在线测试执行器
// 把提示词作为 system 消息发给模型并记录结果；未配置 API Key 时
// 执行器不可用，相关接口返回校验错误
type Runner struct {
	client      *openai.Client
	results     *Service
	temperature float64
	maxTokens   int
}

// NewRunner 根据配置创建执行器，未配置 API Key 时返回 nil
func NewRunner(cfg *config.OpenAIConfig, results *Service) *Runner {
	if cfg == nil || cfg.APIKey == "" {
		logger.Info("未配置模型 API Key，在线测试执行器已禁用")
		return nil
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Runner{
		client:      openai.NewClientWithConfig(clientCfg),
		results:     results,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// RunRequest 在线测试请求
type RunRequest struct {
	PromptID uint   `json:"prompt_id"`
	Input    string `json:"input"`
	Model    string `json:"model"`
}

// Run 以提示词为 system 消息执行一次模型调用并保存测试结果
func (r *Runner) Run(ctx context.Context, req *RunRequest) (*TestResult, error) {
	if r == nil {
		return nil, common.ErrValidation("在线测试未启用，请配置模型 API Key")
	}

	p, err := r.results.prompts.Get(ctx, req.PromptID)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.Content},
	}
	if req.Input != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser, Content: req.Input,
		})
	}

	completion := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(r.temperature),
	}
	if r.maxTokens > 0 {
		completion.MaxTokens = r.maxTokens
	}

	// 单次调用，失败不重试
	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, completion)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		logger.Error("模型调用失败",
			zap.Uint("prompt_id", req.PromptID),
			zap.String("model", model),
			zap.Error(err))
		return nil, fmt.Errorf("模型调用失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, common.ErrInternal("模型没有返回任何内容")
	}

	inputTokens := resp.Usage.PromptTokens
	outputTokens := resp.Usage.CompletionTokens
	record := &RecordRequest{
		PromptID:      req.PromptID,
		ModelName:     model,
		SystemMessage: p.Content,
		UserMessage:   req.Input,
		Output:        resp.Choices[0].Message.Content,
		ResponseTime:  &elapsed,
		InputTokens:   &inputTokens,
		OutputTokens:  &outputTokens,
		TestType:      TypeManual,
	}
	if r.temperature > 0 {
		t := r.temperature
		record.Temperature = &t
	}
	if r.maxTokens > 0 {
		m := r.maxTokens
		record.MaxTokens = &m
	}
	return r.results.Record(ctx, record)
}
