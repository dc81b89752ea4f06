package testrun

import (
	"context"
	"fmt"

	"promptlab/internal/common"
	"promptlab/internal/logger"
	"promptlab/internal/metrics"
	"promptlab/internal/prompt"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service 测试结果服务
type Service struct {
	db      *gorm.DB
	prompts *prompt.Service
}

// NewService 创建测试结果服务
func NewService(db *gorm.DB, prompts *prompt.Service) *Service {
	return &Service{db: db, prompts: prompts}
}

// RecordRequest 记录测试结果请求
type RecordRequest struct {
	PromptID         uint     `json:"prompt_id"`
	ModelName        string   `json:"model_name"`
	Temperature      *float64 `json:"temperature"`
	MaxTokens        *int     `json:"max_tokens"`
	SystemMessage    string   `json:"system_message"`
	UserMessage      string   `json:"user_message"`
	Output           string   `json:"model_response"`
	ResponseTime     *float64 `json:"response_time"`
	InputTokens      *int     `json:"token_count_input"`
	OutputTokens     *int     `json:"token_count_output"`
	Cost             *float64 `json:"cost"`
	Rating           *int     `json:"user_rating"`
	Feedback         string   `json:"feedback"`
	QualityScore     *float64 `json:"quality_score"`
	ConsistencyScore *float64 `json:"consistency_score"`
	TestType         string   `json:"test_type"`
	SessionID        string   `json:"test_session_id"`
}

// 未显式指定采样温度时的缺省值
const defaultTemperature = 0.7

// Record 记录一条测试结果
// 未提供 token 数时按消息文本估算
func (s *Service) Record(ctx context.Context, req *RecordRequest) (*TestResult, error) {
	if _, err := s.prompts.Get(ctx, req.PromptID); err != nil {
		return nil, err
	}
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	testType := req.TestType
	switch testType {
	case "":
		testType = TypeManual
	case TypeManual, TypeBatch, TypeComparison:
	default:
		return nil, common.ErrValidation("无效的测试类型")
	}

	temperature := req.Temperature
	if temperature == nil {
		t := defaultTemperature
		temperature = &t
	}

	inputTokens := req.InputTokens
	if inputTokens == nil {
		estimated := EstimateTokens(req.SystemMessage + req.UserMessage)
		inputTokens = &estimated
	}
	outputTokens := req.OutputTokens
	if outputTokens == nil {
		estimated := EstimateTokens(req.Output)
		outputTokens = &estimated
	}

	result := &TestResult{
		PromptID:         req.PromptID,
		ModelName:        req.ModelName,
		Temperature:      temperature,
		MaxTokens:        req.MaxTokens,
		SystemMessage:    req.SystemMessage,
		UserMessage:      req.UserMessage,
		Output:           req.Output,
		ResponseTime:     req.ResponseTime,
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		Cost:             req.Cost,
		Rating:           req.Rating,
		Feedback:         req.Feedback,
		QualityScore:     req.QualityScore,
		ConsistencyScore: req.ConsistencyScore,
		TestType:         testType,
		SessionID:        req.SessionID,
	}

	if err := s.db.WithContext(ctx).Create(result).Error; err != nil {
		return nil, fmt.Errorf("保存测试结果失败: %w", err)
	}

	metrics.TestResultsTotal.WithLabelValues(testType).Inc()

	return result, nil
}

// Get 按 ID 查询测试结果
func (s *Service) Get(ctx context.Context, id uint) (*TestResult, error) {
	var result TestResult
	if err := s.db.WithContext(ctx).First(&result, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, common.ErrNotFound("测试结果不存在")
		}
		return nil, fmt.Errorf("查询测试结果失败: %w", err)
	}
	return &result, nil
}

// ListRequest 测试结果筛选条件
type ListRequest struct {
	PromptID  *uint
	SessionID string
	TestType  string
	Limit     int
}

// List 查询测试结果，按创建时间倒序
func (s *Service) List(ctx context.Context, req *ListRequest) ([]*TestResult, error) {
	query := s.db.WithContext(ctx).Model(&TestResult{})
	if req.PromptID != nil {
		query = query.Where("prompt_id = ?", *req.PromptID)
	}
	if req.SessionID != "" {
		query = query.Where("session_id = ?", req.SessionID)
	}
	if req.TestType != "" {
		query = query.Where("test_type = ?", req.TestType)
	}
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}

	var results []*TestResult
	if err := query.Order("created_at DESC, id DESC").Limit(req.Limit).Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询测试结果列表失败: %w", err)
	}
	return results, nil
}

// RateRequest 补充评分请求
type RateRequest struct {
	Rating           *int     `json:"user_rating"`
	Feedback         *string  `json:"feedback"`
	QualityScore     *float64 `json:"quality_score"`
	ConsistencyScore *float64 `json:"consistency_score"`
}

// Rate 对已有测试结果补充评分与反馈
func (s *Service) Rate(ctx context.Context, id uint, req *RateRequest) (*TestResult, error) {
	result, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	if req.Rating != nil {
		result.Rating = req.Rating
	}
	if req.Feedback != nil {
		result.Feedback = *req.Feedback
	}
	if req.QualityScore != nil {
		result.QualityScore = req.QualityScore
	}
	if req.ConsistencyScore != nil {
		result.ConsistencyScore = req.ConsistencyScore
	}

	if err := s.db.WithContext(ctx).Save(result).Error; err != nil {
		return nil, fmt.Errorf("更新测试结果失败: %w", err)
	}
	return result, nil
}

// Delete 删除测试结果
func (s *Service) Delete(ctx context.Context, id uint) error {
	result, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(result).Error; err != nil {
		return fmt.Errorf("删除测试结果失败: %w", err)
	}
	return nil
}

// Batch 批量记录测试结果，所有条目归入同一个新会话
func (s *Service) Batch(ctx context.Context, requests []*RecordRequest) (string, []*TestResult, error) {
	if len(requests) == 0 {
		return "", nil, common.ErrValidation("批量请求不能为空")
	}

	sessionID := uuid.New().String()
	results := make([]*TestResult, 0, len(requests))

	for _, req := range requests {
		req.SessionID = sessionID
		if req.TestType == "" {
			req.TestType = TypeBatch
		}
		result, err := s.Record(ctx, req)
		if err != nil {
			return "", nil, err
		}
		results = append(results, result)
	}

	logger.Info("批量测试结果已记录",
		zap.String("session_id", sessionID),
		zap.Int("count", len(results)))

	return sessionID, results, nil
}

// SessionAnalysis 会话聚合分析
type SessionAnalysis struct {
	SessionID       string   `json:"test_session_id"`
	TotalTests      int      `json:"total_tests"`
	AvgResponseTime float64  `json:"avg_response_time"`
	AvgInputTokens  float64  `json:"avg_input_tokens"`
	AvgOutputTokens float64  `json:"avg_output_tokens"`
	TotalCost       float64  `json:"total_cost"`
	AvgRating       *float64 `json:"avg_rating"`
	AvgQualityScore *float64 `json:"avg_quality_score"`
	RatedCount      int      `json:"rated_count"`
	Models          []string `json:"models_tested"`
	TestTypes       []string `json:"test_types"`
}

// AnalyzeSession 聚合分析一个会话内的全部测试结果
// 响应时间与 token 的均值按总条数计算，缺失值按零参与；
// 评分与质量分的均值只在已评分的子集上计算
func (s *Service) AnalyzeSession(ctx context.Context, sessionID string) (*SessionAnalysis, error) {
	results, err := s.List(ctx, &ListRequest{SessionID: sessionID, Limit: 500})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, common.ErrNotFound("会话不存在或没有测试结果")
	}

	analysis := &SessionAnalysis{
		SessionID:  sessionID,
		TotalTests: len(results),
	}

	var sumResponse, sumInput, sumOutput, sumRating, sumQuality float64
	var qualityCount int
	modelSet := map[string]struct{}{}
	typeSet := map[string]struct{}{}

	for _, r := range results {
		if r.ResponseTime != nil {
			sumResponse += *r.ResponseTime
		}
		if r.InputTokens != nil {
			sumInput += float64(*r.InputTokens)
		}
		if r.OutputTokens != nil {
			sumOutput += float64(*r.OutputTokens)
		}
		if r.Cost != nil {
			analysis.TotalCost += *r.Cost
		}
		if r.Rating != nil {
			sumRating += float64(*r.Rating)
			analysis.RatedCount++
		}
		if r.QualityScore != nil {
			sumQuality += *r.QualityScore
			qualityCount++
		}
		if r.ModelName != "" {
			modelSet[r.ModelName] = struct{}{}
		}
		if r.TestType != "" {
			typeSet[r.TestType] = struct{}{}
		}
	}

	total := float64(len(results))
	analysis.AvgResponseTime = sumResponse / total
	analysis.AvgInputTokens = sumInput / total
	analysis.AvgOutputTokens = sumOutput / total
	if analysis.RatedCount > 0 {
		avg := sumRating / float64(analysis.RatedCount)
		analysis.AvgRating = &avg
	}
	if qualityCount > 0 {
		avg := sumQuality / float64(qualityCount)
		analysis.AvgQualityScore = &avg
	}
	for m := range modelSet {
		analysis.Models = append(analysis.Models, m)
	}
	for t := range typeSet {
		analysis.TestTypes = append(analysis.TestTypes, t)
	}

	return analysis, nil
}

// ModelStats 按模型聚合的测试统计
type ModelStats struct {
	Count           int      `json:"count"`
	AvgResponseTime float64  `json:"avg_response_time"`
	TotalCost       float64  `json:"total_cost"`
	AvgRating       *float64 `json:"avg_rating"`
	AvgQuality      *float64 `json:"avg_quality"`
}

// PromptStats 单个提示词的测试统计
type PromptStats struct {
	PromptID   uint                   `json:"prompt_id"`
	TotalTests int64                  `json:"total_tests"`
	AvgRating  *float64               `json:"avg_rating"`
	LastTested *string                `json:"last_tested"`
	ModelStats map[string]*ModelStats `json:"model_stats"`
}

// StatsForPrompt 统计某个提示词的全部测试情况
// 模型维度的响应时间均值按该模型的总条数计算，评分与质量分
// 只在出现过正值时给出均值
func (s *Service) StatsForPrompt(ctx context.Context, promptID uint) (*PromptStats, error) {
	if _, err := s.prompts.Get(ctx, promptID); err != nil {
		return nil, err
	}

	stats := &PromptStats{PromptID: promptID, ModelStats: map[string]*ModelStats{}}

	var results []*TestResult
	if err := s.db.WithContext(ctx).
		Where("prompt_id = ?", promptID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询测试记录失败: %w", err)
	}

	stats.TotalTests = int64(len(results))
	if len(results) == 0 {
		return stats, nil
	}

	type modelAccum struct {
		count       int
		sumResponse float64
		totalCost   float64
		sumRating   float64
		sumQuality  float64
	}
	accums := map[string]*modelAccum{}
	var sumRating float64
	var ratedCount int

	for _, r := range results {
		acc := accums[r.ModelName]
		if acc == nil {
			acc = &modelAccum{}
			accums[r.ModelName] = acc
		}
		acc.count++
		if r.ResponseTime != nil {
			acc.sumResponse += *r.ResponseTime
		}
		if r.Cost != nil {
			acc.totalCost += *r.Cost
		}
		if r.Rating != nil {
			acc.sumRating += float64(*r.Rating)
			sumRating += float64(*r.Rating)
			ratedCount++
		}
		if r.QualityScore != nil {
			acc.sumQuality += *r.QualityScore
		}
	}

	for model, acc := range accums {
		ms := &ModelStats{
			Count:           acc.count,
			AvgResponseTime: acc.sumResponse / float64(acc.count),
			TotalCost:       acc.totalCost,
		}
		if acc.sumRating > 0 {
			avg := acc.sumRating / float64(acc.count)
			ms.AvgRating = &avg
		}
		if acc.sumQuality > 0 {
			avg := acc.sumQuality / float64(acc.count)
			ms.AvgQuality = &avg
		}
		stats.ModelStats[model] = ms
	}

	if ratedCount > 0 {
		avg := sumRating / float64(ratedCount)
		stats.AvgRating = &avg
	}

	last := results[len(results)-1]
	t := last.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	stats.LastTested = &t

	return stats, nil
}

// EstimateTokens 估算文本的 token 数
// 使用 cl100k_base 编码；编码器不可用时回退为按 4 字符 1 token 粗估
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("token 编码器初始化失败，使用粗估", zap.Error(err))
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return common.ErrValidation("评分必须在 1 到 5 之间")
	}
	return nil
}
