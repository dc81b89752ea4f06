package shortcut

import (
	"context"
	"fmt"
	"strings"

	"promptlab/internal/common"
	"promptlab/internal/metrics"

	"gorm.io/gorm"
)

// Service 快捷指令服务
type Service struct {
	db *gorm.DB
}

// NewService 创建快捷指令服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListRequest 快捷指令筛选条件
type ListRequest struct {
	Search   string
	IsActive *bool
}

// List 查询快捷指令，按使用次数倒序再按触发词排序
func (s *Service) List(ctx context.Context, req *ListRequest) ([]*Shortcut, error) {
	query := s.db.WithContext(ctx).Model(&Shortcut{})
	if req != nil {
		if req.Search != "" {
			query = query.Scopes(common.KeywordSearch(req.Search, "trigger", "expansion", "description"))
		}
		if req.IsActive != nil {
			query = query.Where("is_active = ?", *req.IsActive)
		}
	}

	var shortcuts []*Shortcut
	if err := query.Order("use_count DESC, trigger ASC").Find(&shortcuts).Error; err != nil {
		return nil, fmt.Errorf("查询快捷指令列表失败: %w", err)
	}
	return shortcuts, nil
}

// activeInCreationOrder 匹配候选集，启用的指令按创建顺序返回
func (s *Service) activeInCreationOrder(ctx context.Context) ([]*Shortcut, error) {
	var shortcuts []*Shortcut
	if err := s.db.WithContext(ctx).
		Scopes(common.ActiveOnly()).
		Order("id ASC").
		Find(&shortcuts).Error; err != nil {
		return nil, fmt.Errorf("查询启用的快捷指令失败: %w", err)
	}
	return shortcuts, nil
}

// Get 按 ID 查询快捷指令
func (s *Service) Get(ctx context.Context, id uint) (*Shortcut, error) {
	var sc Shortcut
	if err := s.db.WithContext(ctx).First(&sc, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, common.ErrNotFound("快捷指令不存在")
		}
		return nil, fmt.Errorf("查询快捷指令失败: %w", err)
	}
	return &sc, nil
}

// CreateRequest 创建快捷指令请求
type CreateRequest struct {
	Trigger     string `json:"trigger"`
	Expansion   string `json:"expansion"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// Create 创建快捷指令，触发词全局唯一
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Shortcut, error) {
	trigger := strings.TrimSpace(req.Trigger)
	if trigger == "" {
		return nil, common.ErrValidation("触发词不能为空")
	}
	if req.Expansion == "" {
		return nil, common.ErrValidation("展开内容不能为空")
	}

	exists, err := s.triggerExists(ctx, trigger, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrConflict("触发词已存在")
	}

	sc := &Shortcut{
		Trigger:     trigger,
		Expansion:   req.Expansion,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		sc.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Create(sc).Error; err != nil {
		return nil, fmt.Errorf("创建快捷指令失败: %w", err)
	}
	return sc, nil
}

// UpdateRequest 更新快捷指令请求，nil 字段保持不变
type UpdateRequest struct {
	Trigger     *string `json:"trigger"`
	Expansion   *string `json:"expansion"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Update 更新快捷指令
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*Shortcut, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Trigger != nil {
		trigger := strings.TrimSpace(*req.Trigger)
		if trigger == "" {
			return nil, common.ErrValidation("触发词不能为空")
		}
		if trigger != sc.Trigger {
			exists, err := s.triggerExists(ctx, trigger, id)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, common.ErrConflict("触发词已存在")
			}
		}
		sc.Trigger = trigger
	}
	if req.Expansion != nil {
		if *req.Expansion == "" {
			return nil, common.ErrValidation("展开内容不能为空")
		}
		sc.Expansion = *req.Expansion
	}
	if req.Description != nil {
		sc.Description = *req.Description
	}
	if req.IsActive != nil {
		sc.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(sc).Error; err != nil {
		return nil, fmt.Errorf("更新快捷指令失败: %w", err)
	}
	return sc, nil
}

// Delete 删除快捷指令
func (s *Service) Delete(ctx context.Context, id uint) error {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(sc).Error; err != nil {
		return fmt.Errorf("删除快捷指令失败: %w", err)
	}
	return nil
}

// Match 后缀匹配结果
type Match struct {
	Matched  bool      `json:"matched"`
	Shortcut *Shortcut `json:"shortcut,omitempty"`
	// Position 是触发词在输入文本中的起始字节偏移
	Position int `json:"position"`
}

// FindMatch 在输入文本上做触发词后缀匹配
// 候选为全部启用的指令，按创建顺序（主键升序）检查，命中第一个即返回，
// 因此先创建的长触发词（如 ":shrug"）优先于后创建的短触发词（"shrug"）
func (s *Service) FindMatch(ctx context.Context, text string) (*Match, error) {
	if text == "" {
		return &Match{Matched: false, Position: -1}, nil
	}

	candidates, err := s.activeInCreationOrder(ctx)
	if err != nil {
		return nil, err
	}

	for _, sc := range candidates {
		if strings.HasSuffix(text, sc.Trigger) {
			metrics.ShortcutMatchesTotal.WithLabelValues("hit").Inc()
			return &Match{
				Matched:  true,
				Shortcut: sc,
				Position: len(text) - len(sc.Trigger),
			}, nil
		}
	}

	metrics.ShortcutMatchesTotal.WithLabelValues("miss").Inc()
	return &Match{Matched: false, Position: -1}, nil
}

// Increment 记录一次快捷指令使用
func (s *Service) Increment(ctx context.Context, id uint) (*Shortcut, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(sc).
		UpdateColumn("use_count", gorm.Expr("use_count + 1")).Error; err != nil {
		return nil, fmt.Errorf("更新快捷指令使用次数失败: %w", err)
	}
	return s.Get(ctx, id)
}

// triggerExists 检查触发词是否被其他记录占用
func (s *Service) triggerExists(ctx context.Context, trigger string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&Shortcut{}).Where("trigger = ?", trigger)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("检查触发词失败: %w", err)
	}
	return count > 0, nil
}
