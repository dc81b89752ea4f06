package template

import (
	"regexp"
	"strings"
)

// 变量占位符语法：{{name}} 或 {{name|default}}
// 变量名不含 } 与 |，默认值不含 }
var variablePattern = regexp.MustCompile(`\{\{([^}|]+)(?:\|([^}]*))?\}\}`)

// ExtractVariables 从模板内容中提取变量定义
// 同名变量以首次出现为准，变量名与默认值两端空白会被去除
func ExtractVariables(content string) []Variable {
	matches := variablePattern.FindAllStringSubmatch(content, -1)

	seen := make(map[string]struct{}, len(matches))
	vars := make([]Variable, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		vars = append(vars, Variable{
			Name:    name,
			Default: strings.TrimSpace(m[2]),
		})
	}
	return vars
}

// Substitute 用变量表替换模板中的占位符
// 替换是单趟盲替换：{{key}} 与 {{key|任意默认值}} 都替换为 values[key]，
// 未提供的变量连同默认值原样保留；不做递归展开
func Substitute(content string, values map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(content, func(match string) string {
		sub := variablePattern.FindStringSubmatch(match)
		name := strings.TrimSpace(sub[1])

		if val, ok := values[name]; ok {
			return val
		}
		return match
	})
}
