package prompt

import (
	"context"
	"fmt"
	"time"

	"promptlab/internal/common"
	"promptlab/internal/metrics"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service 提示词版本链服务
//
// 版本链是只追加的结构：提交（commit）产生新叶子，父节点永不修改。
// 对同一父节点的并发提交会产生两个 HEAD，这是已接受的竞态而非缺陷，
// 这里不做任何加锁处理。
type Service struct {
	db *gorm.DB
}

// NewService 创建提示词服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// findByID 按 ID 查询提示词（带分类）
func (s *Service) findByID(ctx context.Context, id uint) (*Prompt, error) {
	var p Prompt
	if err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, common.ErrNotFound("提示词不存在")
		}
		return nil, fmt.Errorf("查询提示词失败: %w", err)
	}
	return &p, nil
}

// Get 按 ID 查询提示词，不记录使用
func (s *Service) Get(ctx context.Context, id uint) (*Prompt, error) {
	return s.findByID(ctx, id)
}

// CreateRootRequest 创建新版本链请求
type CreateRootRequest struct {
	Title                string     `json:"title"`
	Content              string     `json:"content"`
	Description          string     `json:"description"`
	Author               string     `json:"author"`
	Source               string     `json:"source"`
	CategoryID           *uint      `json:"category_id"`
	IsFavorite           bool       `json:"is_favorite"`
	IsTemplate           bool       `json:"is_template"`
	Tags                 []string   `json:"tags"`
	Version              string     `json:"version"`
	OriginalCreationDate *time.Time `json:"original_creation_date"`
}

// CreateRoot 创建新的版本链根节点
func (s *Service) CreateRoot(ctx context.Context, req *CreateRootRequest) (*Prompt, error) {
	if req.Title == "" {
		return nil, common.ErrValidation("标题不能为空")
	}
	if req.Content == "" {
		return nil, common.ErrValidation("内容不能为空")
	}

	version := req.Version
	if version == "" {
		version = DefaultVersion
	}

	now := time.Now().UTC()
	ocd := req.OriginalCreationDate
	if ocd == nil {
		ocd = &now
	}

	p := &Prompt{
		Title:                req.Title,
		Content:              req.Content,
		Description:          req.Description,
		Author:               req.Author,
		Source:               req.Source,
		CategoryID:           req.CategoryID,
		IsFavorite:           req.IsFavorite,
		IsTemplate:           req.IsTemplate,
		Tags:                 datatypes.JSONSlice[string](req.Tags),
		Version:              version,
		OriginalCreationDate: ocd,
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("创建提示词失败: %w", err)
	}

	return s.findByID(ctx, p.ID)
}

// CommitRequest 提交新版本请求
// nil 字段从父版本继承（写时复制）
type CommitRequest struct {
	Title          *string   `json:"title"`
	Content        *string   `json:"content"`
	Description    *string   `json:"description"`
	Author         *string   `json:"author"`
	Source         *string   `json:"source"`
	CategoryID     *uint     `json:"category_id"`
	IsFavorite     *bool     `json:"is_favorite"`
	IsTemplate     *bool     `json:"is_template"`
	Tags           *[]string `json:"tags"`
	Version        *string   `json:"version"`
	VersionMessage string    `json:"version_message"`
}

// Commit 以 parentID 为父节点提交新版本（非破坏性更新）
// 未指定的字段继承父版本当前值，父节点本身不会被修改
func (s *Service) Commit(ctx context.Context, parentID uint, req *CommitRequest) (*Prompt, error) {
	parent, err := s.findByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	next := &Prompt{
		Title:          inherit(req.Title, parent.Title),
		Content:        inherit(req.Content, parent.Content),
		Description:    inherit(req.Description, parent.Description),
		Author:         inherit(req.Author, parent.Author),
		Source:         inherit(req.Source, parent.Source),
		CategoryID:     parent.CategoryID,
		IsFavorite:     inherit(req.IsFavorite, parent.IsFavorite),
		IsTemplate:     inherit(req.IsTemplate, parent.IsTemplate),
		Version:        inherit(req.Version, parent.Version),
		VersionMessage: req.VersionMessage,
		ParentID:       &parent.ID,
	}

	if req.CategoryID != nil {
		next.CategoryID = req.CategoryID
	}

	// 标签继承父版本，除非显式替换
	if req.Tags != nil {
		next.Tags = datatypes.JSONSlice[string](*req.Tags)
	} else {
		next.Tags = parent.Tags
	}

	// 链根创建时间沿链传递；根节点自身未记录时以其创建时间为锚点
	if parent.OriginalCreationDate != nil {
		next.OriginalCreationDate = parent.OriginalCreationDate
	} else {
		created := parent.CreatedAt
		next.OriginalCreationDate = &created
	}

	if err := s.db.WithContext(ctx).Create(next).Error; err != nil {
		return nil, fmt.Errorf("提交新版本失败: %w", err)
	}

	metrics.PromptCommitsTotal.Inc()

	return s.findByID(ctx, next.ID)
}

// ListHeadsRequest 查询当前版本列表请求
type ListHeadsRequest struct {
	CategoryID *uint
	IsFavorite *bool
	IsTemplate *bool
	Search     string
	Tags       []string
}

// ListHeads 查询所有 HEAD（当前版本）提示词
// HEAD 的判定使用集合差：所有 ID 减去被引用为 parent_id 的 ID
func (s *Service) ListHeads(ctx context.Context, req *ListHeadsRequest) ([]*Prompt, error) {
	parentIDs := s.db.Model(&Prompt{}).
		Select("parent_id").
		Where("parent_id IS NOT NULL")

	query := s.db.WithContext(ctx).
		Model(&Prompt{}).
		Preload("Category").
		Where("id NOT IN (?)", parentIDs)

	if req.CategoryID != nil {
		query = query.Where("category_id = ?", *req.CategoryID)
	}
	if req.IsFavorite != nil {
		query = query.Where("is_favorite = ?", *req.IsFavorite)
	}
	if req.IsTemplate != nil {
		query = query.Where("is_template = ?", *req.IsTemplate)
	}
	if req.Search != "" {
		query = query.Scopes(common.KeywordSearch(req.Search, "title", "content", "description"))
	}
	for _, tag := range req.Tags {
		query = query.Where("tags LIKE ?", "%"+tag+"%")
	}

	// 最近使用优先，空值排最后，其次按更新时间
	var prompts []*Prompt
	if err := query.
		Order("last_used IS NULL, last_used DESC, updated_at DESC").
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("查询提示词列表失败: %w", err)
	}

	return prompts, nil
}

// History 查询 promptID 所在版本链的完整历史
// 先沿 parent 指针回溯到根，再收集根的全部后代，按创建顺序返回
func (s *Service) History(ctx context.Context, promptID uint) ([]*Prompt, error) {
	node, err := s.findByID(ctx, promptID)
	if err != nil {
		return nil, err
	}

	root, err := s.chainRoot(ctx, node)
	if err != nil {
		return nil, err
	}

	chain := []*Prompt{root}
	frontier := []uint{root.ID}

	// 逐层收集后代
	for len(frontier) > 0 {
		var children []*Prompt
		if err := s.db.WithContext(ctx).
			Preload("Category").
			Where("parent_id IN ?", frontier).
			Order("id ASC").
			Find(&children).Error; err != nil {
			return nil, fmt.Errorf("查询版本链失败: %w", err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			chain = append(chain, child)
			frontier = append(frontier, child.ID)
		}
	}

	return chain, nil
}

// chainRoot 沿 parent 指针回溯到链根
// 父节点已被删除（悬挂引用）时，回溯终止于当前可达的最早节点
func (s *Service) chainRoot(ctx context.Context, node *Prompt) (*Prompt, error) {
	current := node
	visited := map[uint]struct{}{current.ID: {}}

	for current.ParentID != nil {
		if _, seen := visited[*current.ParentID]; seen {
			return nil, common.ErrInternal("版本链存在环")
		}

		var parent Prompt
		err := s.db.WithContext(ctx).Preload("Category").First(&parent, *current.ParentID).Error
		if err == gorm.ErrRecordNotFound {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("回溯版本链失败: %w", err)
		}

		visited[parent.ID] = struct{}{}
		current = &parent
	}

	return current, nil
}

// Touch 记录一次使用：更新 last_used 并自增 use_count
// 按 ID 读取提示词即视为一次使用
func (s *Service) Touch(ctx context.Context, promptID uint) (*Prompt, error) {
	p, err := s.findByID(ctx, promptID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(p).Updates(map[string]any{
		"last_used": now,
		"use_count": gorm.Expr("use_count + 1"),
	}).Error; err != nil {
		return nil, fmt.Errorf("更新使用记录失败: %w", err)
	}

	return s.findByID(ctx, promptID)
}

// DuplicateRequest 复制提示词请求
type DuplicateRequest struct {
	Title string `json:"title"`
}

// Duplicate 复制提示词
// 产生一条新链：版本号重置为 1.0.0，收藏标记清除；parent_id 指向源
// 仅作为来源追溯
func (s *Service) Duplicate(ctx context.Context, promptID uint, req *DuplicateRequest) (*Prompt, error) {
	original, err := s.findByID(ctx, promptID)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s (Copy)", original.Title)
	}

	dup := &Prompt{
		Title:       title,
		Content:     original.Content,
		Description: original.Description,
		Author:      original.Author,
		Source:      original.Source,
		CategoryID:  original.CategoryID,
		IsFavorite:  false,
		IsTemplate:  original.IsTemplate,
		Tags:        original.Tags,
		Version:     DefaultVersion,
		ParentID:    &original.ID,
	}

	if err := s.db.WithContext(ctx).Create(dup).Error; err != nil {
		return nil, fmt.Errorf("复制提示词失败: %w", err)
	}

	return s.findByID(ctx, dup.ID)
}

// Delete 删除提示词节点
// 为避免产生悬挂的子版本，存在子版本的节点拒绝删除
func (s *Service) Delete(ctx context.Context, promptID uint) error {
	p, err := s.findByID(ctx, promptID)
	if err != nil {
		return err
	}

	var children int64
	if err := s.db.WithContext(ctx).
		Model(&Prompt{}).
		Where("parent_id = ?", p.ID).
		Count(&children).Error; err != nil {
		return fmt.Errorf("检查子版本失败: %w", err)
	}
	if children > 0 {
		return common.ErrConflict("该提示词存在后续版本，请先删除其子版本")
	}

	if err := s.db.WithContext(ctx).Delete(&Prompt{}, p.ID).Error; err != nil {
		return fmt.Errorf("删除提示词失败: %w", err)
	}

	return nil
}

// ListByCategory 查询分类下的全部提示词（含历史版本）
func (s *Service) ListByCategory(ctx context.Context, categoryID uint) ([]*Prompt, error) {
	var prompts []*Prompt
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Where("category_id = ?", categoryID).
		Order("id ASC").
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("查询分类提示词失败: %w", err)
	}
	return prompts, nil
}

// inherit 取请求值，nil 时回退为父版本值
func inherit[T any](override *T, fallback T) T {
	if override != nil {
		return *override
	}
	return fallback
}
