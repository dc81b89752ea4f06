package category

import "time"

// Category 提示词分类
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	Color       string    `json:"color" gorm:"size:7"` // 十六进制颜色，如 #3B82F6
	CreatedAt   time.Time `json:"created_at" gorm:"not null;autoCreateTime"`

	// 关联提示词数量（查询时填充，不落库）
	PromptCount int64 `json:"prompt_count" gorm:"-"`
}

// DefaultColor 分类默认颜色
const DefaultColor = "#3B82F6"
