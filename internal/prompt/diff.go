package prompt

import (
	"context"
	"fmt"

	"promptlab/internal/common"

	"github.com/pmezard/go-difflib/difflib"
)

// VersionDiff 两个版本间的内容对比结果
type VersionDiff struct {
	FromID      uint   `json:"from_id"`
	ToID        uint   `json:"to_id"`
	FromVersion string `json:"from_version"`
	ToVersion   string `json:"to_version"`
	Diff        string `json:"diff"`
}

// CompareVersions 生成同一版本链内两个版本的统一差异（unified diff）
func (s *Service) CompareVersions(ctx context.Context, fromID, toID uint) (*VersionDiff, error) {
	from, err := s.findByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.findByID(ctx, toID)
	if err != nil {
		return nil, err
	}

	sameChain, err := s.inSameChain(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if !sameChain {
		return nil, common.ErrValidation("两个版本不属于同一版本链")
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from.Content),
		B:        difflib.SplitLines(to.Content),
		FromFile: fmt.Sprintf("v%s (#%d)", from.Version, from.ID),
		ToFile:   fmt.Sprintf("v%s (#%d)", to.Version, to.ID),
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("生成版本差异失败: %w", err)
	}

	return &VersionDiff{
		FromID:      from.ID,
		ToID:        to.ID,
		FromVersion: from.Version,
		ToVersion:   to.Version,
		Diff:        text,
	}, nil
}

// inSameChain 判断两个节点是否共享同一链根
func (s *Service) inSameChain(ctx context.Context, a, b *Prompt) (bool, error) {
	rootA, err := s.chainRoot(ctx, a)
	if err != nil {
		return false, err
	}
	rootB, err := s.chainRoot(ctx, b)
	if err != nil {
		return false, err
	}
	return rootA.ID == rootB.ID, nil
}
