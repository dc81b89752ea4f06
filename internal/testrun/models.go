package testrun

import "time"

// 测试类型
const (
	TypeManual     = "manual"
	TypeBatch      = "batch"
	TypeComparison = "comparison"
)

// TestResult 提示词测试结果
// 记录一次模型调用的输入输出与主观评价；同一批次的结果
// 通过 SessionID 关联
type TestResult struct {
	ID            uint     `json:"id" gorm:"primaryKey"`
	PromptID      uint     `json:"prompt_id" gorm:"index;not null"`
	ModelName     string   `json:"model_name" gorm:"size:100"`
	Temperature   *float64 `json:"temperature"`
	MaxTokens     *int     `json:"max_tokens"`
	SystemMessage string   `json:"system_message" gorm:"type:text"`
	UserMessage   string   `json:"user_message" gorm:"type:text"`
	Output        string   `json:"model_response" gorm:"type:text"`
	ResponseTime  *float64 `json:"response_time"`
	InputTokens   *int     `json:"token_count_input"`
	OutputTokens  *int     `json:"token_count_output"`
	Cost          *float64 `json:"cost"`
	// Rating 为 1-5 的主观评分，未评分为空
	Rating           *int      `json:"user_rating"`
	Feedback         string    `json:"feedback" gorm:"type:text"`
	QualityScore     *float64  `json:"quality_score"`
	ConsistencyScore *float64  `json:"consistency_score"`
	TestType         string    `json:"test_type" gorm:"size:20;default:manual;index"`
	SessionID        string    `json:"test_session_id" gorm:"size:36;index"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}
