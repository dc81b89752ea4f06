package prompt

import (
	"context"
	"fmt"
	"time"

	"promptlab/internal/common"
)

// 可用于排序的字段白名单，防止排序参数注入
var sortableFields = map[string]string{
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"last_used":  "last_used",
	"use_count":  "use_count",
	"version":    "version",
}

// SearchRequest 高级搜索请求
type SearchRequest struct {
	Keyword     string     `json:"keyword"`
	CategoryIDs []uint     `json:"category_ids"`
	Tags        []string   `json:"tags"`
	IsFavorite  *bool      `json:"is_favorite"`
	IsTemplate  *bool      `json:"is_template"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	SortBy      string     `json:"sort_by"`
	SortDesc    bool       `json:"sort_desc"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
}

// SearchResult 搜索结果（含总数便于分页）
type SearchResult struct {
	Total   int64     `json:"total"`
	Prompts []*Prompt `json:"prompts"`
}

// Search 全字段搜索，涵盖所有历史版本，不限于 HEAD
func (s *Service) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	query := s.db.WithContext(ctx).Model(&Prompt{})

	if req.Keyword != "" {
		query = query.Scopes(common.KeywordSearch(req.Keyword,
			"title", "content", "description", "author", "source"))
	}
	if len(req.CategoryIDs) > 0 {
		query = query.Where("category_id IN ?", req.CategoryIDs)
	}
	for _, tag := range req.Tags {
		query = query.Where("tags LIKE ?", "%"+tag+"%")
	}
	if req.IsFavorite != nil {
		query = query.Where("is_favorite = ?", *req.IsFavorite)
	}
	if req.IsTemplate != nil {
		query = query.Where("is_template = ?", *req.IsTemplate)
	}
	if req.DateFrom != nil {
		query = query.Where("created_at >= ?", *req.DateFrom)
	}
	if req.DateTo != nil {
		query = query.Where("created_at <= ?", *req.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计搜索结果失败: %w", err)
	}

	column, ok := sortableFields[req.SortBy]
	if !ok {
		column = "updated_at"
	}
	direction := "ASC"
	if req.SortDesc || req.SortBy == "" {
		direction = "DESC"
	}

	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}

	var prompts []*Prompt
	if err := query.
		Preload("Category").
		Order(fmt.Sprintf("%s %s", column, direction)).
		Limit(req.Limit).
		Offset(req.Offset).
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("搜索提示词失败: %w", err)
	}

	return &SearchResult{Total: total, Prompts: prompts}, nil
}
