package shortcut

import (
	"context"
	"fmt"
	"os"

	"promptlab/internal/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedEntry 种子文件中的单条快捷指令
type seedEntry struct {
	Trigger     string `yaml:"trigger"`
	Expansion   string `yaml:"expansion"`
	Description string `yaml:"description"`
	IsActive    *bool  `yaml:"is_active"`
}

// seedFile 种子文件结构
type seedFile struct {
	Shortcuts []seedEntry `yaml:"shortcuts"`
}

// SeedResult 导入结果统计
type SeedResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// SeedFromFile 从 YAML 文件导入示例快捷指令
// 触发词已存在的条目跳过不覆盖，导入可安全地重复执行
func (s *Service) SeedFromFile(ctx context.Context, path string) (*SeedResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取种子文件失败: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析种子文件失败: %w", err)
	}

	result := &SeedResult{}
	for _, entry := range file.Shortcuts {
		exists, err := s.triggerExists(ctx, entry.Trigger, 0)
		if err != nil {
			return nil, err
		}
		if exists {
			logger.Debug("跳过已存在的快捷指令", zap.String("trigger", entry.Trigger))
			result.Skipped++
			continue
		}

		if _, err := s.Create(ctx, &CreateRequest{
			Trigger:     entry.Trigger,
			Expansion:   entry.Expansion,
			Description: entry.Description,
			IsActive:    entry.IsActive,
		}); err != nil {
			return nil, fmt.Errorf("导入快捷指令 %q 失败: %w", entry.Trigger, err)
		}
		result.Added++
	}

	logger.Info("快捷指令种子导入完成",
		zap.String("file", path),
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped))

	return result, nil
}
