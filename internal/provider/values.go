package provider

import (
	"strings"

	"github.com/samber/lo"
)

// QuoteTXT 为 TXT 值加上引号，已加引号时原样返回
func QuoteTXT(value string) string {
	if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2 {
		return value
	}
	return `"` + value + `"`
}

// UnquoteTXT 去掉 TXT 值两端的引号
func UnquoteTXT(value string) string {
	return strings.TrimSuffix(strings.TrimPrefix(value, `"`), `"`)
}

// AppendValue 追加 TXT 值，已存在时不重复
func AppendValue(values []string, value string) []string {
	if lo.ContainsBy(values, func(v string) bool { return UnquoteTXT(v) == UnquoteTXT(value) }) {
		return values
	}
	return append(values, value)
}

// RemoveValue 移除 TXT 值
func RemoveValue(values []string, value string) []string {
	return lo.Reject(values, func(v string, _ int) bool {
		return UnquoteTXT(v) == UnquoteTXT(value)
	})
}
