package template

import (
	"context"
	"fmt"

	"promptlab/internal/common"
	"promptlab/internal/metrics"
	"promptlab/internal/prompt"

	"gorm.io/gorm"
)

// Service 提示词模板服务
type Service struct {
	db      *gorm.DB
	prompts *prompt.Service
}

// NewService 创建模板服务
func NewService(db *gorm.DB, prompts *prompt.Service) *Service {
	return &Service{db: db, prompts: prompts}
}

// List 查询模板，常用的排在前面
func (s *Service) List(ctx context.Context, categoryID *uint, search string) ([]*PromptTemplate, error) {
	query := s.db.WithContext(ctx).Model(&PromptTemplate{})
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if search != "" {
		query = query.Scopes(common.KeywordSearch(search, "name", "content", "description"))
	}

	var templates []*PromptTemplate
	if err := query.Order("use_count DESC, updated_at DESC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("查询模板列表失败: %w", err)
	}
	return templates, nil
}

// Get 按 ID 查询模板
func (s *Service) Get(ctx context.Context, id uint) (*PromptTemplate, error) {
	var tpl PromptTemplate
	if err := s.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, common.ErrNotFound("模板不存在")
		}
		return nil, fmt.Errorf("查询模板失败: %w", err)
	}
	return &tpl, nil
}

// CreateRequest 创建模板请求
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
	CategoryID  *uint  `json:"category_id"`
	// 变量描述按名称补充到提取结果上，名称与默认值以内容为准
	VariableDescriptions map[string]string `json:"variable_descriptions"`
}

// Create 创建模板，变量定义从内容中自动提取
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*PromptTemplate, error) {
	if req.Name == "" {
		return nil, common.ErrValidation("模板名称不能为空")
	}
	if req.Content == "" {
		return nil, common.ErrValidation("模板内容不能为空")
	}

	exists, err := s.nameExists(ctx, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrConflict("模板名称已存在")
	}

	tpl := &PromptTemplate{
		Name:        req.Name,
		Description: req.Description,
		Content:     req.Content,
		CategoryID:  req.CategoryID,
		Variables:   annotate(ExtractVariables(req.Content), req.VariableDescriptions),
	}

	if err := s.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return nil, fmt.Errorf("创建模板失败: %w", err)
	}
	return tpl, nil
}

// UpdateRequest 更新模板请求，nil 字段保持不变
type UpdateRequest struct {
	Name                 *string           `json:"name"`
	Description          *string           `json:"description"`
	Content              *string           `json:"content"`
	CategoryID           *uint             `json:"category_id"`
	VariableDescriptions map[string]string `json:"variable_descriptions"`
}

// Update 更新模板；内容变更时重新提取变量定义
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*PromptTemplate, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != tpl.Name {
		if *req.Name == "" {
			return nil, common.ErrValidation("模板名称不能为空")
		}
		exists, err := s.nameExists(ctx, *req.Name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, common.ErrConflict("模板名称已存在")
		}
		tpl.Name = *req.Name
	}
	if req.Description != nil {
		tpl.Description = *req.Description
	}
	if req.CategoryID != nil {
		tpl.CategoryID = req.CategoryID
	}
	if req.Content != nil {
		tpl.Content = *req.Content
		tpl.Variables = annotate(ExtractVariables(tpl.Content), req.VariableDescriptions)
	}

	if err := s.db.WithContext(ctx).Save(tpl).Error; err != nil {
		return nil, fmt.Errorf("更新模板失败: %w", err)
	}
	return tpl, nil
}

// Delete 删除模板
func (s *Service) Delete(ctx context.Context, id uint) error {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(tpl).Error; err != nil {
		return fmt.Errorf("删除模板失败: %w", err)
	}
	return nil
}

// InstantiateRequest 模板实例化请求
type InstantiateRequest struct {
	Title      string            `json:"title"`
	Values     map[string]string `json:"values"`
	CategoryID *uint             `json:"category_id"`
	Tags       []string          `json:"tags"`
}

// Instantiate 实例化模板：替换变量后创建一条新的提示词版本链
// 模板自身的 use_count 同时自增
func (s *Service) Instantiate(ctx context.Context, id uint, req *InstantiateRequest) (*prompt.Prompt, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = tpl.Name
	}

	categoryID := req.CategoryID
	if categoryID == nil {
		categoryID = tpl.CategoryID
	}

	p, err := s.prompts.CreateRoot(ctx, &prompt.CreateRootRequest{
		Title:       title,
		Content:     Substitute(tpl.Content, req.Values),
		Description: tpl.Description,
		Source:      fmt.Sprintf("template:%s", tpl.Name),
		CategoryID:  categoryID,
		Tags:        req.Tags,
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(tpl).
		UpdateColumn("use_count", gorm.Expr("use_count + 1")).Error; err != nil {
		return nil, fmt.Errorf("更新模板使用次数失败: %w", err)
	}

	metrics.TemplateInstantiationsTotal.Inc()

	return p, nil
}

// Preview 预览变量替换结果，不落库也不计数
func (s *Service) Preview(ctx context.Context, id uint, values map[string]string) (string, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return Substitute(tpl.Content, values), nil
}

// nameExists 检查模板名是否被其他记录占用
func (s *Service) nameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&PromptTemplate{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("检查模板名称失败: %w", err)
	}
	return count > 0, nil
}

// annotate 把外部提供的变量描述合并到提取结果上
func annotate(vars []Variable, descriptions map[string]string) []Variable {
	if len(descriptions) == 0 {
		return vars
	}
	for i := range vars {
		if d, ok := descriptions[vars[i].Name]; ok {
			vars[i].Description = d
		}
	}
	return vars
}
