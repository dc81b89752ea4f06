package template

import "time"

// Variable 模板变量定义
// 从模板内容中按 {{name|default}} 语法提取，默认值可为空
type Variable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     string `json:"default"`
}

// PromptTemplate 提示词模板
// 保存可复用的参数化提示词文本；实例化时以变量表替换占位符，
// 产物是一条全新的提示词版本链
type PromptTemplate struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string     `json:"description" gorm:"type:text"`
	Content     string     `json:"content" gorm:"type:text;not null"`
	CategoryID  *uint      `json:"category_id" gorm:"index"`
	Variables   []Variable `json:"variables" gorm:"serializer:json"`
	UseCount    int        `json:"use_count" gorm:"default:0"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (PromptTemplate) TableName() string {
	return "prompt_templates"
}
