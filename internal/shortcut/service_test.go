package shortcut

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"promptlab/internal/common"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:shortcut_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Shortcut{}))
	return db
}

func TestShortcutCRUD(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	t.Run("创建默认启用", func(t *testing.T) {
		sc, err := svc.Create(ctx, &CreateRequest{
			Trigger:   ":sig",
			Expansion: "Best regards,\nAlice",
		})
		require.NoError(t, err)
		require.True(t, sc.IsActive)
	})

	t.Run("触发词重复返回冲突", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateRequest{Trigger: ":sig", Expansion: "x"})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeConflict, be.Code)
	})

	t.Run("触发词为空返回校验错误", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateRequest{Trigger: "  ", Expansion: "x"})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeInvalidRequest, be.Code)
	})

	t.Run("更新触发词检查唯一性", func(t *testing.T) {
		sc, err := svc.Create(ctx, &CreateRequest{Trigger: ":br", Expansion: "Best regards"})
		require.NoError(t, err)

		dup := ":sig"
		_, err = svc.Update(ctx, sc.ID, &UpdateRequest{Trigger: &dup})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeConflict, be.Code)
	})

	t.Run("停用后不参与匹配", func(t *testing.T) {
		inactive := false
		sc, err := svc.Create(ctx, &CreateRequest{Trigger: ":off", Expansion: "x"})
		require.NoError(t, err)
		_, err = svc.Update(ctx, sc.ID, &UpdateRequest{IsActive: &inactive})
		require.NoError(t, err)

		m, err := svc.FindMatch(ctx, "hello :off")
		require.NoError(t, err)
		require.False(t, m.Matched)
	})
}

func TestFindMatch(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	// 创建顺序决定匹配优先级
	long, err := svc.Create(ctx, &CreateRequest{Trigger: ":shrug", Expansion: `¯\_(ツ)_/¯`})
	require.NoError(t, err)
	short, err := svc.Create(ctx, &CreateRequest{Trigger: "shrug", Expansion: "短版本"})
	require.NoError(t, err)

	t.Run("后缀命中", func(t *testing.T) {
		m, err := svc.FindMatch(ctx, "I feel like :shrug")
		require.NoError(t, err)
		require.True(t, m.Matched)
		require.Equal(t, long.ID, m.Shortcut.ID)
		require.Equal(t, len("I feel like "), m.Position)
	})

	t.Run("先创建的触发词优先", func(t *testing.T) {
		// ":shrug" 与 "shrug" 同时是后缀时，命中先创建的 ":shrug"
		m, err := svc.FindMatch(ctx, "test :shrug")
		require.NoError(t, err)
		require.Equal(t, long.ID, m.Shortcut.ID)
	})

	t.Run("仅短触发词是后缀", func(t *testing.T) {
		m, err := svc.FindMatch(ctx, "just shrug")
		require.NoError(t, err)
		require.True(t, m.Matched)
		require.Equal(t, short.ID, m.Shortcut.ID)
	})

	t.Run("中间出现不算命中", func(t *testing.T) {
		m, err := svc.FindMatch(ctx, ":shrug in the middle")
		require.NoError(t, err)
		require.False(t, m.Matched)
		require.Equal(t, -1, m.Position)
	})

	t.Run("空文本", func(t *testing.T) {
		m, err := svc.FindMatch(ctx, "")
		require.NoError(t, err)
		require.False(t, m.Matched)
	})
}

func TestShortcutList(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	sig, err := svc.Create(ctx, &CreateRequest{Trigger: ":sig", Expansion: "Best regards", Description: "署名"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateRequest{Trigger: ":br", Expansion: "<br>"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = svc.Increment(ctx, sig.ID)
		require.NoError(t, err)
	}

	t.Run("常用的排在前面", func(t *testing.T) {
		shortcuts, err := svc.List(ctx, nil)
		require.NoError(t, err)
		require.Len(t, shortcuts, 2)
		require.Equal(t, ":sig", shortcuts[0].Trigger)
	})

	t.Run("按关键词检索", func(t *testing.T) {
		shortcuts, err := svc.List(ctx, &ListRequest{Search: "署名"})
		require.NoError(t, err)
		require.Len(t, shortcuts, 1)
		require.Equal(t, ":sig", shortcuts[0].Trigger)
	})

	t.Run("按启用状态筛选", func(t *testing.T) {
		active := false
		_, err := svc.Update(ctx, sig.ID, &UpdateRequest{IsActive: &active})
		require.NoError(t, err)

		shortcuts, err := svc.List(ctx, &ListRequest{IsActive: &active})
		require.NoError(t, err)
		require.Len(t, shortcuts, 1)
		require.Equal(t, ":sig", shortcuts[0].Trigger)
	})
}

func TestIncrement(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	sc, err := svc.Create(ctx, &CreateRequest{Trigger: ":lgtm", Expansion: "Looks good to me!"})
	require.NoError(t, err)

	got, err := svc.Increment(ctx, sc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.UseCount)

	got, err = svc.Increment(ctx, sc.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.UseCount)
}

func TestSeedFromFile(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	seedYAML := `shortcuts:
  - trigger: ":email"
    expansion: "your@email.com"
    description: "Your email address"
  - trigger: ":thanks"
    expansion: "Thank you for your time and consideration."
    is_active: true
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	t.Run("首次导入全部新增", func(t *testing.T) {
		result, err := svc.SeedFromFile(ctx, path)
		require.NoError(t, err)
		require.Equal(t, 2, result.Added)
		require.Zero(t, result.Skipped)
	})

	t.Run("重复导入全部跳过", func(t *testing.T) {
		result, err := svc.SeedFromFile(ctx, path)
		require.NoError(t, err)
		require.Zero(t, result.Added)
		require.Equal(t, 2, result.Skipped)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := svc.SeedFromFile(ctx, "/nonexistent/seed.yaml")
		require.Error(t, err)
	})
}
