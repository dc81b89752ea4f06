package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"promptlab/internal/cache"
	"promptlab/internal/category"
	"promptlab/internal/common"
	"promptlab/internal/prompt"
	"promptlab/internal/shortcut"
	"promptlab/internal/template"
	"promptlab/internal/testrun"

	"gorm.io/gorm"
)

const overviewCacheKey = "analytics:overview"

// Service 统计分析服务
// 所有统计都是读取时实时聚合，总览结果可经 Redis 短暂缓存
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewService 创建统计服务，cache 可为 nil
func NewService(db *gorm.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

// GetOverview 总览统计，days 为对比窗口长度
// 只有缺省窗口的结果会进缓存
func (s *Service) GetOverview(ctx context.Context, days int) (*Overview, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	var cached Overview
	if days == 30 && s.cache.GetJSON(ctx, overviewCacheKey, &cached) {
		return &cached, nil
	}

	ov := &Overview{PeriodDays: days}

	counts := []struct {
		model any
		dest  *int64
	}{
		{&prompt.Prompt{}, &ov.TotalPrompts},
		{&category.Category{}, &ov.TotalCategories},
		{&template.PromptTemplate{}, &ov.TotalTemplates},
		{&shortcut.Shortcut{}, &ov.TotalShortcuts},
		{&testrun.TestResult{}, &ov.TotalTestResults},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("统计总数失败: %w", err)
		}
	}

	// 版本链数量即 HEAD 数量
	parentIDs := s.db.Model(&prompt.Prompt{}).
		Select("parent_id").
		Where("parent_id IS NOT NULL")
	if err := s.db.WithContext(ctx).Model(&prompt.Prompt{}).
		Where("id NOT IN (?)", parentIDs).
		Count(&ov.TotalChains).Error; err != nil {
		return nil, fmt.Errorf("统计版本链数量失败: %w", err)
	}

	useSums := []struct {
		model any
		dest  *int64
	}{
		{&prompt.Prompt{}, &ov.TotalPromptUses},
		{&template.PromptTemplate{}, &ov.TotalTemplateUses},
		{&shortcut.Shortcut{}, &ov.TotalShortcutUses},
	}
	for _, u := range useSums {
		var sum *int64
		if err := s.db.WithContext(ctx).Model(u.model).
			Select("SUM(use_count)").
			Scan(&sum).Error; err != nil {
			return nil, fmt.Errorf("统计使用总数失败: %w", err)
		}
		if sum != nil {
			*u.dest = *sum
		}
	}

	if err := s.db.WithContext(ctx).Model(&prompt.Prompt{}).
		Where("is_favorite = ?", true).
		Count(&ov.TotalFavorites).Error; err != nil {
		return nil, fmt.Errorf("统计收藏数失败: %w", err)
	}

	now := time.Now().UTC()
	cur := now.AddDate(0, 0, -days)
	prev := now.AddDate(0, 0, -2*days)

	promptCur, promptPrev, err := s.windowCounts(ctx, &prompt.Prompt{}, prev, cur, now)
	if err != nil {
		return nil, err
	}
	testCur, testPrev, err := s.windowCounts(ctx, &testrun.TestResult{}, prev, cur, now)
	if err != nil {
		return nil, err
	}
	ov.PromptsInPeriod = promptCur
	ov.PromptGrowth = GrowthRate(promptPrev, promptCur)
	ov.TestGrowth = GrowthRate(testPrev, testCur)

	if days == 30 {
		s.cache.SetJSON(ctx, overviewCacheKey, ov)
	}

	return ov, nil
}

// windowCounts 统计相邻两个时间窗内的新增数量
func (s *Service) windowCounts(ctx context.Context, model any, prevStart, curStart, now time.Time) (cur, prev int64, err error) {
	if err = s.db.WithContext(ctx).Model(model).
		Scopes(common.CreatedBetween(curStart, now)).
		Count(&cur).Error; err != nil {
		return 0, 0, fmt.Errorf("统计当前窗口失败: %w", err)
	}
	if err = s.db.WithContext(ctx).Model(model).
		Scopes(common.CreatedBetween(prevStart, curStart)).
		Count(&prev).Error; err != nil {
		return 0, 0, fmt.Errorf("统计对比窗口失败: %w", err)
	}
	return cur, prev, nil
}

// GrowthRate 计算环比增长率（百分比）
// 前期为零且当期有量记为 100%，两期都为零记为 0%
func GrowthRate(prev, cur int64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return float64(cur-prev) / float64(prev) * 100
}

// UsageOverTime 按天统计新建的提示词数量，days 为回看天数
func (s *Service) UsageOverTime(ctx context.Context, days int) ([]UsagePoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	// 窗口含当天，共 days 个自然日
	since := time.Now().UTC().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	var prompts []*prompt.Prompt
	if err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("查询创建记录失败: %w", err)
	}

	byDay := map[string]int64{}
	for _, p := range prompts {
		byDay[p.CreatedAt.UTC().Format("2006-01-02")]++
	}

	// 没有记录的天补零，曲线保持连续
	points := make([]UsagePoint, 0, days)
	for d := 0; d < days; d++ {
		day := since.AddDate(0, 0, d).Format("2006-01-02")
		points = append(points, UsagePoint{Date: day, Count: byDay[day]})
	}
	return points, nil
}

// PopularPrompts 按使用次数取 HEAD 提示词的 Top N
func (s *Service) PopularPrompts(ctx context.Context, limit int) ([]PopularPrompt, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	parentIDs := s.db.Model(&prompt.Prompt{}).
		Select("parent_id").
		Where("parent_id IS NOT NULL")

	var prompts []*prompt.Prompt
	if err := s.db.WithContext(ctx).
		Where("id NOT IN (?)", parentIDs).
		Scopes(common.UsedAtLeastOnce()).
		Order("use_count DESC, last_used DESC").
		Limit(limit).
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("查询热门提示词失败: %w", err)
	}

	popular := make([]PopularPrompt, 0, len(prompts))
	for _, p := range prompts {
		popular = append(popular, PopularPrompt{
			ID:       p.ID,
			Title:    p.Title,
			UseCount: p.UseCount,
			LastUsed: p.LastUsed,
		})
	}
	return popular, nil
}

// PopularTemplates 按使用次数取模板的 Top N
func (s *Service) PopularTemplates(ctx context.Context, limit int) ([]PopularTemplate, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var templates []*template.PromptTemplate
	if err := s.db.WithContext(ctx).
		Scopes(common.UsedAtLeastOnce()).
		Order("use_count DESC").
		Limit(limit).
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("查询热门模板失败: %w", err)
	}

	popular := make([]PopularTemplate, 0, len(templates))
	for _, t := range templates {
		name := "未分类"
		if t.CategoryID != nil {
			var c category.Category
			if err := s.db.WithContext(ctx).First(&c, *t.CategoryID).Error; err == nil {
				name = c.Name
			}
		}
		popular = append(popular, PopularTemplate{
			ID:       t.ID,
			Name:     t.Name,
			UseCount: t.UseCount,
			Category: name,
		})
	}
	return popular, nil
}

// PopularShortcuts 按使用次数取快捷指令的 Top N
func (s *Service) PopularShortcuts(ctx context.Context, limit int) ([]PopularShortcut, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var shortcuts []*shortcut.Shortcut
	if err := s.db.WithContext(ctx).
		Scopes(common.UsedAtLeastOnce()).
		Order("use_count DESC").
		Limit(limit).
		Find(&shortcuts).Error; err != nil {
		return nil, fmt.Errorf("查询热门快捷指令失败: %w", err)
	}

	popular := make([]PopularShortcut, 0, len(shortcuts))
	for _, sc := range shortcuts {
		popular = append(popular, PopularShortcut{
			ID:          sc.ID,
			Trigger:     sc.Trigger,
			UseCount:    sc.UseCount,
			Description: sc.Description,
			IsActive:    sc.IsActive,
		})
	}
	return popular, nil
}

// CategoryDistribution 统计各分类下的提示词数量
// 无分类的提示词归入 “未分类” 扇区
func (s *Service) CategoryDistribution(ctx context.Context) ([]CategorySlice, error) {
	var categories []*category.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}

	slices := make([]CategorySlice, 0, len(categories)+1)
	for _, c := range categories {
		var count int64
		if err := s.db.WithContext(ctx).Model(&prompt.Prompt{}).
			Where("category_id = ?", c.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("统计分类数量失败: %w", err)
		}
		if count > 0 {
			slices = append(slices, CategorySlice{Name: c.Name, Color: c.Color, Count: count})
		}
	}

	var uncategorized int64
	if err := s.db.WithContext(ctx).Model(&prompt.Prompt{}).
		Where("category_id IS NULL").
		Count(&uncategorized).Error; err != nil {
		return nil, fmt.Errorf("统计未分类数量失败: %w", err)
	}
	if uncategorized > 0 {
		slices = append(slices, CategorySlice{
			Name:  "未分类",
			Color: UncategorizedColor,
			Count: uncategorized,
		})
	}

	// 未分类参与排序，数量多的扇区在前
	sort.Slice(slices, func(i, j int) bool {
		return slices[i].Count > slices[j].Count
	})

	return slices, nil
}

// RecentActivity 最近动态：最近创建、最近更新、最近使用各取 Top N
func (s *Service) RecentActivity(ctx context.Context, limit int) (*RecentActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	created, err := s.recentPrompts(ctx, limit, "created_at DESC", nil)
	if err != nil {
		return nil, err
	}
	updated, err := s.recentPrompts(ctx, limit, "updated_at DESC", nil)
	if err != nil {
		return nil, err
	}
	used, err := s.recentPrompts(ctx, limit, "last_used DESC", func(db *gorm.DB) *gorm.DB {
		return db.Where("last_used IS NOT NULL")
	})
	if err != nil {
		return nil, err
	}

	return &RecentActivity{
		RecentCreated: created,
		RecentUpdated: updated,
		RecentUsed:    used,
	}, nil
}

func (s *Service) recentPrompts(ctx context.Context, limit int, order string, scope func(*gorm.DB) *gorm.DB) ([]RecentPrompt, error) {
	query := s.db.WithContext(ctx).
		Preload("Category").
		Order(order).
		Limit(limit)
	if scope != nil {
		query = scope(query)
	}

	var prompts []*prompt.Prompt
	if err := query.Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("查询最近提示词失败: %w", err)
	}

	recent := make([]RecentPrompt, 0, len(prompts))
	for _, p := range prompts {
		name := "未分类"
		if p.Category != nil {
			name = p.Category.Name
		}
		recent = append(recent, RecentPrompt{
			ID:        p.ID,
			Title:     p.Title,
			Category:  name,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
			LastUsed:  p.LastUsed,
			UseCount:  p.UseCount,
		})
	}
	return recent, nil
}

// GetTestStats 测试结果统计，days 为周期窗口长度
func (s *Service) GetTestStats(ctx context.Context, days int) (*TestStats, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	stats := &TestStats{ByType: map[string]int64{}, ByModel: map[string]int64{}}

	if err := s.db.WithContext(ctx).Model(&testrun.TestResult{}).
		Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("统计测试总数失败: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&testrun.TestResult{}).
		Scopes(common.CreatedBetween(now.AddDate(0, 0, -days), now)).
		Count(&stats.InPeriod).Error; err != nil {
		return nil, fmt.Errorf("统计周期内测试数失败: %w", err)
	}

	type typeCount struct {
		TestType string
		Count    int64
	}
	var byType []typeCount
	if err := s.db.WithContext(ctx).Model(&testrun.TestResult{}).
		Select("test_type, COUNT(*) as count").
		Group("test_type").
		Scan(&byType).Error; err != nil {
		return nil, fmt.Errorf("按类型统计失败: %w", err)
	}
	for _, tc := range byType {
		stats.ByType[tc.TestType] = tc.Count
	}

	type modelCount struct {
		ModelName string
		Count     int64
	}
	var byModel []modelCount
	if err := s.db.WithContext(ctx).Model(&testrun.TestResult{}).
		Select("model_name, COUNT(*) as count").
		Group("model_name").
		Scan(&byModel).Error; err != nil {
		return nil, fmt.Errorf("按模型统计失败: %w", err)
	}
	for _, mc := range byModel {
		name := mc.ModelName
		if name == "" {
			name = "Unknown"
		}
		stats.ByModel[name] += mc.Count
	}

	// 各均值都只在非空子集上计算
	averages := []struct {
		column string
		dest   **float64
	}{
		{"rating", &stats.AvgRating},
		{"quality_score", &stats.AvgQualityScore},
		{"consistency_score", &stats.AvgConsistencyScore},
		{"response_time", &stats.AvgResponseTime},
	}
	for _, a := range averages {
		if err := s.db.WithContext(ctx).Model(&testrun.TestResult{}).
			Where(a.column+" IS NOT NULL").
			Select("AVG(" + a.column + ")").
			Scan(a.dest).Error; err != nil {
			return nil, fmt.Errorf("统计 %s 均值失败: %w", a.column, err)
		}
	}

	var recent []*testrun.TestResult
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("查询最近测试失败: %w", err)
	}
	stats.Recent = make([]RecentTest, 0, len(recent))
	for _, r := range recent {
		stats.Recent = append(stats.Recent, RecentTest{
			ID:        r.ID,
			PromptID:  r.PromptID,
			ModelName: r.ModelName,
			Rating:    r.Rating,
			CreatedAt: r.CreatedAt,
		})
	}

	return stats, nil
}

// InvalidateOverview 写操作后清除总览缓存
func (s *Service) InvalidateOverview(ctx context.Context) {
	s.cache.Invalidate(ctx, overviewCacheKey)
}
