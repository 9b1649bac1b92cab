// Package address 从自由文本格式化地址中尽力解析城市、州代码与邮编。
//
// 语法：按逗号切分；倒数第二段匹配两位大写州代码与 5 位（可带 -4）邮编；
// 倒数第三段（存在时）视为城市；最后一段视为国家。
// 解析是尽力而为的：无法识别的字段返回 Unknown，永不报错。
package address

import (
	"regexp"
	"strings"
)

// Unknown 无法识别字段的哨兵值
const Unknown = "Unknown"

var (
	regionRe = regexp.MustCompile(`\b([A-Z]{2})\b`)
	postalRe = regexp.MustCompile(`\b(\d{5}(?:-\d{4})?)\b`)
)

// Components 解析结果
type Components struct {
	City       string
	Region     string
	PostalCode string
	Country    string
}

// Parse 解析格式化地址
func Parse(formatted string) Components {
	out := Components{City: Unknown, Region: Unknown, PostalCode: Unknown, Country: Unknown}

	var segments []string
	for _, s := range strings.Split(formatted, ",") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	n := len(segments)
	if n < 2 {
		return out
	}

	out.Country = segments[n-1]

	regionPostal := segments[n-2]
	if m := regionRe.FindStringSubmatch(regionPostal); m != nil {
		out.Region = m[1]
	}
	if m := postalRe.FindStringSubmatch(regionPostal); m != nil {
		out.PostalCode = m[1]
	}
	if n >= 3 {
		out.City = segments[n-3]
	}
	return out
}

// IsKnown 字段是否被成功解析
func IsKnown(v string) bool {
	return v != "" && v != Unknown
}

// OrEmpty Unknown 转为空串，方便落库
func OrEmpty(v string) string {
	if IsKnown(v) {
		return v
	}
	return ""
}
