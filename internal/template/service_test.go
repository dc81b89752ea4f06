package template

import (
	"context"
	"fmt"
	"testing"
	"time"

	"promptlab/internal/category"
	"promptlab/internal/common"
	"promptlab/internal/prompt"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:template_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&category.Category{}, &prompt.Prompt{}, &PromptTemplate{}))
	return db
}

func newTestService(t *testing.T) (*Service, *prompt.Service) {
	t.Helper()
	db := setupTestDB(t)
	prompts := prompt.NewService(db)
	return NewService(db, prompts), prompts
}

func TestTemplateCRUD(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("创建时自动提取变量", func(t *testing.T) {
		tpl, err := svc.Create(ctx, &CreateRequest{
			Name:    "翻译模板",
			Content: "把 {{text}} 翻译成 {{language|英文}}",
			VariableDescriptions: map[string]string{
				"text": "待翻译的内容",
			},
		})
		require.NoError(t, err)
		require.Len(t, tpl.Variables, 2)
		require.Equal(t, "text", tpl.Variables[0].Name)
		require.Equal(t, "待翻译的内容", tpl.Variables[0].Description)
		require.Equal(t, "英文", tpl.Variables[1].Default)
	})

	t.Run("名称重复返回冲突", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateRequest{Name: "翻译模板", Content: "x"})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeConflict, be.Code)
	})

	t.Run("名称为空返回校验错误", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateRequest{Content: "x"})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeInvalidRequest, be.Code)
	})

	t.Run("更新内容后重新提取变量", func(t *testing.T) {
		tpl, err := svc.Create(ctx, &CreateRequest{Name: "改写模板", Content: "{{a}}"})
		require.NoError(t, err)

		newContent := "{{b}} 与 {{c|默认}}"
		updated, err := svc.Update(ctx, tpl.ID, &UpdateRequest{Content: &newContent})
		require.NoError(t, err)
		require.Len(t, updated.Variables, 2)
		require.Equal(t, "b", updated.Variables[0].Name)
		require.Equal(t, "c", updated.Variables[1].Name)
	})

	t.Run("删除后无法查询", func(t *testing.T) {
		tpl, err := svc.Create(ctx, &CreateRequest{Name: "临时模板", Content: "x"})
		require.NoError(t, err)
		require.NoError(t, svc.Delete(ctx, tpl.ID))

		_, err = svc.Get(ctx, tpl.ID)
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeNotFound, be.Code)
	})
}

func TestTemplateList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	hot, err := svc.Create(ctx, &CreateRequest{Name: "周报模板", Content: "本周{{work}}"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateRequest{Name: "邮件模板", Content: "尊敬的{{name}}"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = svc.Instantiate(ctx, hot.ID, &InstantiateRequest{Values: map[string]string{"work": "x"}})
		require.NoError(t, err)
	}

	t.Run("常用的排在前面", func(t *testing.T) {
		templates, err := svc.List(ctx, nil, "")
		require.NoError(t, err)
		require.Len(t, templates, 2)
		require.Equal(t, "周报模板", templates[0].Name)
	})

	t.Run("按关键词检索", func(t *testing.T) {
		templates, err := svc.List(ctx, nil, "邮件")
		require.NoError(t, err)
		require.Len(t, templates, 1)
		require.Equal(t, "邮件模板", templates[0].Name)
	})
}

func TestInstantiate(t *testing.T) {
	svc, prompts := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, &CreateRequest{
		Name:    "邮件模板",
		Content: "尊敬的{{name}}：{{body|请查收附件}}",
	})
	require.NoError(t, err)

	t.Run("实例化创建新版本链", func(t *testing.T) {
		p, err := svc.Instantiate(ctx, tpl.ID, &InstantiateRequest{
			Title:  "给王工的邮件",
			Values: map[string]string{"name": "王工"},
		})
		require.NoError(t, err)
		require.Equal(t, "尊敬的王工：{{body|请查收附件}}", p.Content)
		require.Nil(t, p.ParentID)
		require.Equal(t, "template:邮件模板", p.Source)

		chain, err := prompts.History(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, chain, 1)
	})

	t.Run("实例化自增模板使用次数", func(t *testing.T) {
		fresh, err := svc.Get(ctx, tpl.ID)
		require.NoError(t, err)
		require.Equal(t, 1, fresh.UseCount)
	})

	t.Run("标题缺省使用模板名", func(t *testing.T) {
		p, err := svc.Instantiate(ctx, tpl.ID, &InstantiateRequest{
			Values: map[string]string{"name": "李工", "body": "附件已更新"},
		})
		require.NoError(t, err)
		require.Equal(t, "邮件模板", p.Title)
	})

	t.Run("模板不存在", func(t *testing.T) {
		_, err := svc.Instantiate(ctx, 99999, &InstantiateRequest{})
		be, ok := common.AsBusinessError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeNotFound, be.Code)
	})
}

func TestPreview(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, &CreateRequest{
		Name:    "预览模板",
		Content: "{{greeting|你好}}，{{name}}",
	})
	require.NoError(t, err)

	got, err := svc.Preview(ctx, tpl.ID, map[string]string{"name": "世界"})
	require.NoError(t, err)
	require.Equal(t, "{{greeting|你好}}，世界", got)

	// 预览不计入使用次数
	fresh, err := svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	require.Zero(t, fresh.UseCount)
}
