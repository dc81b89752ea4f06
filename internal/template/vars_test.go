package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractVariables(t *testing.T) {
	t.Run("提取不带默认值的变量", func(t *testing.T) {
		vars := ExtractVariables("请把 {{text}} 翻译成 {{language}}")
		require.Len(t, vars, 2)
		require.Equal(t, "text", vars[0].Name)
		require.Equal(t, "language", vars[1].Name)
		require.Empty(t, vars[0].Default)
	})

	t.Run("提取带默认值的变量", func(t *testing.T) {
		vars := ExtractVariables("翻译成 {{language|英文}}")
		require.Len(t, vars, 1)
		require.Equal(t, "language", vars[0].Name)
		require.Equal(t, "英文", vars[0].Default)
	})

	t.Run("变量名两端空白被去除", func(t *testing.T) {
		vars := ExtractVariables("{{ name }} 与 {{ tone | 正式 }}")
		require.Len(t, vars, 2)
		require.Equal(t, "name", vars[0].Name)
		require.Equal(t, "tone", vars[1].Name)
		require.Equal(t, "正式", vars[1].Default)
	})

	t.Run("重复变量以首次出现为准", func(t *testing.T) {
		vars := ExtractVariables("{{x|第一个}} 然后 {{x|第二个}} 再 {{x}}")
		require.Len(t, vars, 1)
		require.Equal(t, "第一个", vars[0].Default)
	})

	t.Run("无变量返回空切片", func(t *testing.T) {
		require.Empty(t, ExtractVariables("纯文本，没有占位符"))
	})

	t.Run("空变量名被忽略", func(t *testing.T) {
		require.Empty(t, ExtractVariables("{{ }} 与 {{|默认}}"))
	})
}

func TestSubstitute(t *testing.T) {
	t.Run("按键替换全部出现位置", func(t *testing.T) {
		got := Substitute("{{x}} + {{x|忽略默认}}", map[string]string{"x": "1"})
		require.Equal(t, "1 + 1", got)
	})

	t.Run("缺失变量不回退默认值", func(t *testing.T) {
		got := Substitute("语气：{{tone|正式}}", nil)
		require.Equal(t, "语气：{{tone|正式}}", got)
	})

	t.Run("缺失变量原样保留", func(t *testing.T) {
		got := Substitute("语气：{{tone}}", map[string]string{"other": "x"})
		require.Equal(t, "语气：{{tone}}", got)
	})

	t.Run("未知变量原样保留", func(t *testing.T) {
		got := Substitute("保留 {{unknown}}", map[string]string{"other": "x"})
		require.Equal(t, "保留 {{unknown}}", got)
	})

	t.Run("不做递归展开", func(t *testing.T) {
		got := Substitute("{{a}}", map[string]string{"a": "{{b}}", "b": "深层"})
		require.Equal(t, "{{b}}", got)
	})

	t.Run("空字符串值也是有效值", func(t *testing.T) {
		got := Substitute("[{{x|默认}}]", map[string]string{"x": ""})
		require.Equal(t, "[]", got)
	})
}
