package common

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// KeywordSearch 应用关键词模糊搜索（多字段 OR 匹配）
// 使用方法：db.Scopes(common.KeywordSearch("test", "title", "content")).Find(&prompts)
func KeywordSearch(keyword string, fields ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if keyword == "" || len(fields) == 0 {
			return db
		}

		whereClause := ""
		var args []interface{}
		for i, field := range fields {
			if i > 0 {
				whereClause += " OR "
			}
			whereClause += fmt.Sprintf("%s LIKE ?", field)
			args = append(args, "%"+keyword+"%")
		}

		return db.Where("("+whereClause+")", args...)
	}
}

// CreatedBetween 按创建时间范围过滤
// 零值时间表示不限制对应边界
func CreatedBetween(start, end time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !start.IsZero() {
			db = db.Where("created_at >= ?", start)
		}
		if !end.IsZero() {
			db = db.Where("created_at <= ?", end)
		}
		return db
	}
}

// ActiveOnly 仅查询激活状态的记录
// 使用方法：db.Scopes(common.ActiveOnly()).Find(&shortcuts)
func ActiveOnly() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true)
	}
}

// UsedAtLeastOnce 仅查询 use_count > 0 的记录（热门排行用）
func UsedAtLeastOnce() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("use_count > 0")
	}
}
