package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"promptlab/internal/cache"
	"promptlab/internal/category"
	"promptlab/internal/prompt"
	"promptlab/internal/shortcut"
	"promptlab/internal/template"
	"promptlab/internal/testrun"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:analytics_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&category.Category{},
		&prompt.Prompt{},
		&template.PromptTemplate{},
		&shortcut.Shortcut{},
		&testrun.TestResult{},
	))
	return db
}

func TestGrowthRate(t *testing.T) {
	t.Run("前期为零当期有量", func(t *testing.T) {
		require.InDelta(t, 100.0, GrowthRate(0, 5), 1e-9)
	})

	t.Run("两期都为零", func(t *testing.T) {
		require.InDelta(t, 0.0, GrowthRate(0, 0), 1e-9)
	})

	t.Run("下降", func(t *testing.T) {
		require.InDelta(t, -50.0, GrowthRate(10, 5), 1e-9)
	})

	t.Run("上升", func(t *testing.T) {
		require.InDelta(t, 150.0, GrowthRate(2, 5), 1e-9)
	})
}

func TestGetOverview(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	prompts := prompt.NewService(db)
	ctx := context.Background()

	root, err := prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "链1", Content: "v1"})
	require.NoError(t, err)
	content := "v2"
	_, err = prompts.Commit(ctx, root.ID, &prompt.CommitRequest{Content: &content})
	require.NoError(t, err)
	_, err = prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "链2", Content: "x"})
	require.NoError(t, err)
	_, err = prompts.Touch(ctx, root.ID)
	require.NoError(t, err)

	ov, err := svc.GetOverview(ctx, 30)
	require.NoError(t, err)
	require.EqualValues(t, 3, ov.TotalPrompts)
	require.EqualValues(t, 2, ov.TotalChains)
	require.EqualValues(t, 1, ov.TotalPromptUses)
	require.EqualValues(t, 3, ov.PromptsInPeriod)
	require.Equal(t, 30, ov.PeriodDays)
	// 最近 30 天新增 3 条，之前窗口为空
	require.InDelta(t, 100.0, ov.PromptGrowth, 1e-9)
	require.InDelta(t, 0.0, ov.TestGrowth, 1e-9)
}

func TestOverviewCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	statsCache := cache.New(client, time.Minute)

	db := setupTestDB(t)
	svc := NewService(db, statsCache)
	prompts := prompt.NewService(db)
	ctx := context.Background()

	_, err := prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "缓存", Content: "x"})
	require.NoError(t, err)

	// 缺省窗口的总览结果会写入缓存
	_, err = svc.GetOverview(ctx, 30)
	require.NoError(t, err)
	require.True(t, mr.Exists("analytics:overview"))

	// 写操作之后缓存被清除
	svc.InvalidateOverview(ctx)
	require.False(t, mr.Exists("analytics:overview"))

	// 非缺省窗口不经过缓存
	_, err = svc.GetOverview(ctx, 7)
	require.NoError(t, err)
	require.False(t, mr.Exists("analytics:overview"))
}

func TestCategoryDistribution(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	categories := category.NewService(db)
	prompts := prompt.NewService(db)
	ctx := context.Background()

	cat, err := categories.Create(ctx, &category.CreateRequest{Name: "写作", Color: "#FF0000"})
	require.NoError(t, err)

	_, err = prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "有分类", Content: "x", CategoryID: &cat.ID})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: fmt.Sprintf("无分类%d", i), Content: "y"})
		require.NoError(t, err)
	}

	slices, err := svc.CategoryDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, slices, 2)
	// 扇区按数量降序，未分类一并参与排序
	require.Equal(t, "未分类", slices[0].Name)
	require.Equal(t, UncategorizedColor, slices[0].Color)
	require.EqualValues(t, 2, slices[0].Count)
	require.Equal(t, "写作", slices[1].Name)
	require.Equal(t, "#FF0000", slices[1].Color)
	require.EqualValues(t, 1, slices[1].Count)
}

func TestPopularPrompts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	prompts := prompt.NewService(db)
	ctx := context.Background()

	hot, err := prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "热门", Content: "x"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = prompts.Touch(ctx, hot.ID)
		require.NoError(t, err)
	}
	warm, err := prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "次热", Content: "y"})
	require.NoError(t, err)
	_, err = prompts.Touch(ctx, warm.ID)
	require.NoError(t, err)
	_, err = prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "从未使用", Content: "z"})
	require.NoError(t, err)

	popular, err := svc.PopularPrompts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	require.Equal(t, hot.ID, popular[0].ID)
	require.Equal(t, 3, popular[0].UseCount)
}

func TestPopularTemplatesAndShortcuts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&template.PromptTemplate{Name: "周报", Content: "{{name}}", UseCount: 3}).Error)
	require.NoError(t, db.Create(&template.PromptTemplate{Name: "冷门", Content: "x"}).Error)
	require.NoError(t, db.Create(&shortcut.Shortcut{Trigger: ":sig", Expansion: "Best regards", IsActive: true, UseCount: 5}).Error)
	require.NoError(t, db.Create(&shortcut.Shortcut{Trigger: ":br", Expansion: "<br>", IsActive: true}).Error)

	templates, err := svc.PopularTemplates(ctx, 10)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.Equal(t, "周报", templates[0].Name)
	require.Equal(t, "未分类", templates[0].Category)

	shortcuts, err := svc.PopularShortcuts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, shortcuts, 1)
	require.Equal(t, ":sig", shortcuts[0].Trigger)
	require.Equal(t, 5, shortcuts[0].UseCount)
}

func TestUsageOverTime(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	prompts := prompt.NewService(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: fmt.Sprintf("统计%d", i), Content: "x"})
		require.NoError(t, err)
	}

	points, err := svc.UsageOverTime(ctx, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	// 统计的是提示词创建量，两条都落在今天
	var total int64
	for _, pt := range points {
		total += pt.Count
	}
	require.EqualValues(t, 2, total)
	require.EqualValues(t, 0, points[0].Count)
}

func TestGetTestStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	prompts := prompt.NewService(db)
	results := testrun.NewService(db, prompts)
	ctx := context.Background()

	p, err := prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "统计", Content: "x"})
	require.NoError(t, err)

	rating := 4
	rt := 2.0
	quality := 0.9
	_, err = results.Record(ctx, &testrun.RecordRequest{PromptID: p.ID, ModelName: "gpt-4o", Rating: &rating, ResponseTime: &rt, QualityScore: &quality})
	require.NoError(t, err)
	_, err = results.Record(ctx, &testrun.RecordRequest{PromptID: p.ID, ModelName: "gpt-4o", TestType: testrun.TypeBatch})
	require.NoError(t, err)
	// 未填模型名的记录归入 Unknown
	_, err = results.Record(ctx, &testrun.RecordRequest{PromptID: p.ID})
	require.NoError(t, err)

	stats, err := svc.GetTestStats(ctx, 30)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.Total)
	require.EqualValues(t, 3, stats.InPeriod)
	require.Len(t, stats.Recent, 3)
	require.EqualValues(t, 2, stats.ByType[testrun.TypeManual])
	require.EqualValues(t, 1, stats.ByType[testrun.TypeBatch])
	require.EqualValues(t, 2, stats.ByModel["gpt-4o"])
	require.EqualValues(t, 1, stats.ByModel["Unknown"])
	require.NotNil(t, stats.AvgRating)
	require.InDelta(t, 4.0, *stats.AvgRating, 1e-9)
	require.InDelta(t, 0.9, *stats.AvgQualityScore, 1e-9)
	require.Nil(t, stats.AvgConsistencyScore)
	require.InDelta(t, 2.0, *stats.AvgResponseTime, 1e-9)
}

func TestRecentActivity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	prompts := prompt.NewService(db)
	ctx := context.Background()

	used, err := prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "用过的", Content: "x"})
	require.NoError(t, err)
	_, err = prompts.Touch(ctx, used.ID)
	require.NoError(t, err)
	_, err = prompts.CreateRoot(ctx, &prompt.CreateRootRequest{Title: "没用过的", Content: "y"})
	require.NoError(t, err)

	activity, err := svc.RecentActivity(ctx, 10)
	require.NoError(t, err)

	// 创建与更新两个维度包含全部提示词
	require.Len(t, activity.RecentCreated, 2)
	require.Len(t, activity.RecentUpdated, 2)
	require.Equal(t, "未分类", activity.RecentCreated[0].Category)

	// 使用维度只包含有 last_used 的
	require.Len(t, activity.RecentUsed, 1)
	require.Equal(t, used.ID, activity.RecentUsed[0].ID)
	require.Equal(t, 1, activity.RecentUsed[0].UseCount)
	require.NotNil(t, activity.RecentUsed[0].LastUsed)
}
