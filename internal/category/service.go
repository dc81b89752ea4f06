package category

import (
	"context"
	"fmt"

	"promptlab/internal/common"

	"gorm.io/gorm"
)

// Service 分类管理服务
type Service struct {
	db *gorm.DB
}

// NewService 创建分类服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List 查询全部分类（按名称升序），并填充各分类的提示词数量
func (s *Service) List(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	if err := s.db.WithContext(ctx).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("查询分类列表失败: %w", err)
	}

	for _, c := range categories {
		count, err := s.promptCount(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.PromptCount = count
	}

	return categories, nil
}

// Get 查询单个分类
func (s *Service) Get(ctx context.Context, id uint) (*Category, error) {
	var c Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, common.ErrNotFound("分类不存在")
		}
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}

	count, err := s.promptCount(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.PromptCount = count

	return &c, nil
}

// CreateRequest 创建分类请求
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Create 创建分类（名称唯一）
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Category, error) {
	if req.Name == "" {
		return nil, common.ErrValidation("分类名称不能为空")
	}

	exists, err := s.nameExists(ctx, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrConflict("分类名称已存在")
	}

	color := req.Color
	if color == "" {
		color = DefaultColor
	}

	c := &Category{
		Name:        req.Name,
		Description: req.Description,
		Color:       color,
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("创建分类失败: %w", err)
	}

	return c, nil
}

// UpdateRequest 更新分类请求（nil 字段表示保持不变）
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// Update 更新分类
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// 名称变更时检查唯一性
	if req.Name != nil && *req.Name != c.Name {
		exists, err := s.nameExists(ctx, *req.Name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, common.ErrConflict("分类名称已存在")
		}
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(c).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("更新分类失败: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Delete 删除分类
// 分类下仍有提示词时拒绝删除，不做级联
func (s *Service) Delete(ctx context.Context, id uint) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if c.PromptCount > 0 {
		return common.ErrValidation("分类下仍有提示词，请先移动或删除后再操作")
	}

	if err := s.db.WithContext(ctx).Delete(&Category{}, id).Error; err != nil {
		return fmt.Errorf("删除分类失败: %w", err)
	}

	return nil
}

// promptCount 统计分类下的提示词数量
// 通过表名查询避免与 prompt 包互相依赖
func (s *Service) promptCount(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Table("prompts").
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计分类提示词数量失败: %w", err)
	}
	return count, nil
}

// nameExists 检查名称是否已被其他分类占用
func (s *Service) nameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&Category{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("检查分类名称失败: %w", err)
	}
	return count > 0, nil
}
