package analytics

import "time"

// 未分类提示词在分布图中的展示颜色
const UncategorizedColor = "#6B7280"

// Overview 总览统计
// 增长率对比最近一个周期与再往前一个周期的新增数量
type Overview struct {
	TotalPrompts      int64   `json:"total_prompts"`
	TotalChains       int64   `json:"total_chains"`
	TotalCategories   int64   `json:"total_categories"`
	TotalTemplates    int64   `json:"total_templates"`
	TotalShortcuts    int64   `json:"total_shortcuts"`
	TotalTestResults  int64   `json:"total_test_results"`
	TotalFavorites    int64   `json:"total_favorites"`
	PromptsInPeriod   int64   `json:"prompts_in_period"`
	TotalPromptUses   int64   `json:"total_prompt_uses"`
	TotalTemplateUses int64   `json:"total_template_uses"`
	TotalShortcutUses int64   `json:"total_shortcut_uses"`
	PromptGrowth      float64 `json:"prompt_growth"`
	TestGrowth        float64 `json:"test_growth"`
	PeriodDays        int     `json:"period_days"`
}

// UsagePoint 按天聚合的使用曲线点
type UsagePoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// PopularPrompt 热门提示词
type PopularPrompt struct {
	ID       uint       `json:"id"`
	Title    string     `json:"title"`
	UseCount int        `json:"use_count"`
	LastUsed *time.Time `json:"last_used"`
}

// PopularTemplate 热门模板
type PopularTemplate struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	UseCount int    `json:"use_count"`
	Category string `json:"category"`
}

// PopularShortcut 热门快捷指令
type PopularShortcut struct {
	ID          uint   `json:"id"`
	Trigger     string `json:"trigger"`
	UseCount    int    `json:"use_count"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// CategorySlice 分类分布中的一个扇区
type CategorySlice struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int64  `json:"count"`
}

// RecentPrompt 最近动态中的提示词摘要
type RecentPrompt struct {
	ID        uint       `json:"id"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	UseCount  int        `json:"use_count"`
}

// RecentActivity 最近动态的三个维度
type RecentActivity struct {
	RecentCreated []RecentPrompt `json:"recent_created"`
	RecentUpdated []RecentPrompt `json:"recent_updated"`
	RecentUsed    []RecentPrompt `json:"recent_used"`
}

// RecentTest 测试统计中的最近一次测试摘要
type RecentTest struct {
	ID        uint      `json:"id"`
	PromptID  uint      `json:"prompt_id"`
	ModelName string    `json:"model_name"`
	Rating    *int      `json:"user_rating"`
	CreatedAt time.Time `json:"created_at"`
}

// TestStats 测试结果统计
type TestStats struct {
	Total               int64            `json:"total"`
	InPeriod            int64            `json:"in_period"`
	ByType              map[string]int64 `json:"by_type"`
	ByModel             map[string]int64 `json:"by_model"`
	AvgRating           *float64         `json:"avg_rating"`
	AvgQualityScore     *float64         `json:"avg_quality_score"`
	AvgConsistencyScore *float64         `json:"avg_consistency_score"`
	AvgResponseTime     *float64         `json:"avg_response_time"`
	Recent              []RecentTest     `json:"recent"`
}
