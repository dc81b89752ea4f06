package testrun

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"promptlab/internal/category"
	"promptlab/internal/common"
	"promptlab/internal/prompt"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testrun_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&category.Category{}, &prompt.Prompt{}, &TestResult{}))
	return db
}

func newTestService(t *testing.T) (*Service, *prompt.Prompt) {
	t.Helper()
	db := setupTestDB(t)
	prompts := prompt.NewService(db)

	p, err := prompts.CreateRoot(context.Background(), &prompt.CreateRootRequest{
		Title:   "测试对象",
		Content: "你是一个助手",
	})
	require.NoError(t, err)

	return NewService(db, prompts), p
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestRecord(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()

	t.Run("记录并估算token", func(t *testing.T) {
		result, err := svc.Record(ctx, &RecordRequest{
			PromptID:    p.ID,
			ModelName:   "gpt-4o-mini",
			UserMessage: "hello",
			Output:      "world",
		})
		require.NoError(t, err)
		require.Equal(t, TypeManual, result.TestType)
		require.NotNil(t, result.InputTokens)
		require.Greater(t, *result.InputTokens, 0)
		require.NotNil(t, result.OutputTokens)
		require.Greater(t, *result.OutputTokens, 0)
	})

	t.Run("缺省采样温度", func(t *testing.T) {
		result, err := svc.Record(ctx, &RecordRequest{PromptID: p.ID})
		require.NoError(t, err)
		require.NotNil(t, result.Temperature)
		require.InDelta(t, 0.7, *result.Temperature, 1e-9)
	})

	t.Run("显式token不被覆盖", func(t *testing.T) {
		result, err := svc.Record(ctx, &RecordRequest{
			PromptID:     p.ID,
			InputTokens:  intPtr(42),
			OutputTokens: intPtr(7),
		})
		require.NoError(t, err)
		require.Equal(t, 42, *result.InputTokens)
		require.Equal(t, 7, *result.OutputTokens)
	})

	t.Run("评分越界返回校验错误", func(t *testing.T) {
		_, err := svc.Record(ctx, &RecordRequest{PromptID: p.ID, Rating: intPtr(6)})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeInvalidRequest, be.Code)
	})

	t.Run("无效测试类型", func(t *testing.T) {
		_, err := svc.Record(ctx, &RecordRequest{PromptID: p.ID, TestType: "fuzz"})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeInvalidRequest, be.Code)
	})

	t.Run("提示词不存在", func(t *testing.T) {
		_, err := svc.Record(ctx, &RecordRequest{PromptID: 99999})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeNotFound, be.Code)
	})
}

func TestResultWireFormat(t *testing.T) {
	svc, p := newTestService(t)

	result, err := svc.Record(context.Background(), &RecordRequest{
		PromptID:  p.ID,
		ModelName: "gpt-4o-mini",
		Output:    "回复",
		Rating:    intPtr(4),
		SessionID: "s-1",
	})
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	// 对外字段名与历史客户端保持一致
	for _, key := range []string{
		"model_response", "user_rating", "test_session_id",
		"token_count_input", "token_count_output",
	} {
		require.Contains(t, fields, key)
	}
	for _, key := range []string{"output", "rating", "session_id"} {
		require.NotContains(t, fields, key)
	}
}

func TestBatchAndAnalyze(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()

	sessionID, results, err := svc.Batch(ctx, []*RecordRequest{
		{PromptID: p.ID, ModelName: "gpt-4o", ResponseTime: floatPtr(1.0), OutputTokens: intPtr(100), Cost: floatPtr(0.02), Rating: intPtr(4)},
		{PromptID: p.ID, ModelName: "gpt-4o-mini", ResponseTime: floatPtr(3.0), OutputTokens: intPtr(200), Cost: floatPtr(0.01), Rating: intPtr(2)},
		{PromptID: p.ID, ModelName: "gpt-4o", OutputTokens: intPtr(300)},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.NotEmpty(t, sessionID)

	t.Run("批量条目共享会话并标记为batch", func(t *testing.T) {
		for _, r := range results {
			require.Equal(t, sessionID, r.SessionID)
			require.Equal(t, TypeBatch, r.TestType)
		}
	})

	t.Run("均值按总条数计算缺失按零", func(t *testing.T) {
		analysis, err := svc.AnalyzeSession(ctx, sessionID)
		require.NoError(t, err)
		require.Equal(t, 3, analysis.TotalTests)
		// (1.0 + 3.0 + 0) / 3
		require.InDelta(t, 4.0/3.0, analysis.AvgResponseTime, 1e-9)
		require.InDelta(t, 200.0, analysis.AvgOutputTokens, 1e-9)
		require.InDelta(t, 0.03, analysis.TotalCost, 1e-9)
		require.ElementsMatch(t, []string{"gpt-4o", "gpt-4o-mini"}, analysis.Models)
	})

	t.Run("评分均值仅在已评分子集上计算", func(t *testing.T) {
		analysis, err := svc.AnalyzeSession(ctx, sessionID)
		require.NoError(t, err)
		require.Equal(t, 2, analysis.RatedCount)
		require.NotNil(t, analysis.AvgRating)
		require.InDelta(t, 3.0, *analysis.AvgRating, 1e-9)
	})

	t.Run("空会话返回未找到", func(t *testing.T) {
		_, err := svc.AnalyzeSession(ctx, "no-such-session")
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeNotFound, be.Code)
	})

	t.Run("空批量返回校验错误", func(t *testing.T) {
		_, _, err := svc.Batch(ctx, nil)
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeInvalidRequest, be.Code)
	})
}

func TestRate(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()

	result, err := svc.Record(ctx, &RecordRequest{PromptID: p.ID, Output: "输出"})
	require.NoError(t, err)
	require.Nil(t, result.Rating)

	feedback := "结构清晰"
	rated, err := svc.Rate(ctx, result.ID, &RateRequest{
		Rating:           intPtr(5),
		Feedback:         &feedback,
		QualityScore:     floatPtr(0.9),
		ConsistencyScore: floatPtr(0.8),
	})
	require.NoError(t, err)
	require.Equal(t, 5, *rated.Rating)
	require.Equal(t, "结构清晰", rated.Feedback)
	require.InDelta(t, 0.9, *rated.QualityScore, 1e-9)
	require.InDelta(t, 0.8, *rated.ConsistencyScore, 1e-9)
}

func TestStatsForPrompt(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()

	t.Run("无测试记录", func(t *testing.T) {
		stats, err := svc.StatsForPrompt(ctx, p.ID)
		require.NoError(t, err)
		require.Zero(t, stats.TotalTests)
		require.Nil(t, stats.AvgRating)
	})

	t.Run("有测试记录", func(t *testing.T) {
		_, err := svc.Record(ctx, &RecordRequest{PromptID: p.ID, ModelName: "gpt-4o", Rating: intPtr(4), ResponseTime: floatPtr(2.0), Cost: floatPtr(0.05)})
		require.NoError(t, err)
		_, err = svc.Record(ctx, &RecordRequest{PromptID: p.ID, ModelName: "gpt-4o", ResponseTime: floatPtr(4.0)})
		require.NoError(t, err)

		stats, err := svc.StatsForPrompt(ctx, p.ID)
		require.NoError(t, err)
		require.EqualValues(t, 2, stats.TotalTests)
		require.NotNil(t, stats.AvgRating)
		require.InDelta(t, 4.0, *stats.AvgRating, 1e-9)
		require.NotNil(t, stats.LastTested)

		ms := stats.ModelStats["gpt-4o"]
		require.NotNil(t, ms)
		require.Equal(t, 2, ms.Count)
		require.InDelta(t, 3.0, ms.AvgResponseTime, 1e-9)
		require.InDelta(t, 0.05, ms.TotalCost, 1e-9)
		// 评分均值按该模型总条数折算
		require.NotNil(t, ms.AvgRating)
		require.InDelta(t, 2.0, *ms.AvgRating, 1e-9)
		require.Nil(t, ms.AvgQuality)
	})
}

func TestEstimateTokens(t *testing.T) {
	require.Zero(t, EstimateTokens(""))
	require.Greater(t, EstimateTokens("The quick brown fox jumps over the lazy dog"), 5)
}
