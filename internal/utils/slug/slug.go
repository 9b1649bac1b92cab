// Package slug 把名称规范化为 URL 安全的基础 slug。
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fallback 名称规范化后为空时使用的基础 slug（如纯中文名称）
const Fallback = "business"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Normalize 生成基础 slug。
// "Café Olé & Sons" -> "cafe-ole-sons"
func Normalize(name string) string {
	// 分解带重音字符，再去掉非 ASCII
	s := norm.NFKD.String(name)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	// 撇号直接删除，避免 "joe's" -> "joe-s"
	s = strings.ReplaceAll(s, "'", "")
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return Fallback
	}
	return s
}
