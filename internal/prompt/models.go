package prompt

import (
	"time"

	"promptlab/internal/category"

	"gorm.io/datatypes"
)

// Prompt 提示词，同时是版本链上的一个节点
//
// parent_id 为空的记录是版本链的根；parent_id = P 表示本记录是对 P 的一次编辑。
// 更新永远以追加新叶子的方式进行，历史节点不会被修改。
// 未被任何记录引用为 parent 的节点即该链的当前版本（HEAD）。
type Prompt struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"size:200;not null"`
	Content     string `json:"content" gorm:"type:text;not null"`
	Description string `json:"description" gorm:"type:text"`
	Author      string `json:"author" gorm:"size:100"`
	Source      string `json:"source" gorm:"size:200"`

	CategoryID *uint              `json:"category_id" gorm:"index"`
	Category   *category.Category `json:"category" gorm:"foreignKey:CategoryID"`

	IsFavorite bool `json:"is_favorite" gorm:"default:false"`
	IsTemplate bool `json:"is_template" gorm:"default:false"`

	// 标签为有序列表，持久化为 JSON 列
	Tags datatypes.JSONSlice[string] `json:"tags"`

	// 版本信息
	Version        string `json:"version" gorm:"size:20"`
	VersionMessage string `json:"version_message" gorm:"size:500"`
	ParentID       *uint  `json:"parent_id" gorm:"index"`

	CreatedAt time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"not null;autoUpdateTime"`
	LastUsed  *time.Time `json:"last_used"`
	UseCount  int        `json:"use_count" gorm:"default:0"`

	// 链根的创建时间，沿版本链原样传递
	OriginalCreationDate *time.Time `json:"original_creation_date"`
}

// DefaultVersion 新链的初始版本号
const DefaultVersion = "1.0.0"

// IsRoot 是否为版本链的根节点
func (p *Prompt) IsRoot() bool {
	return p.ParentID == nil
}
