package shortcut

import "time"

// Shortcut 文本快捷指令
// 触发词以输入文本的后缀匹配触发，命中后由客户端将触发词
// 替换为展开内容
type Shortcut struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Trigger     string    `json:"trigger" gorm:"size:100;not null;uniqueIndex"`
	Expansion   string    `json:"expansion" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	UseCount    int       `json:"use_count" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
