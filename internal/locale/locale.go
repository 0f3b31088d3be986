// Package locale holds the translated labels used by the dashboard.
package locale

import "strings"

// Message keys.
const (
	InputHeading   = "input_heading"
	OutputHeading  = "output_heading"
	OutcomeHeading = "outcome_heading"
	GroupNone      = "group_none"
	QueryExists    = "query_exists"
)

// Supported languages.
const (
	English            = "en"
	SimplifiedChinese  = "zh-cn"
	TraditionalChinese = "zh-tw"
)

var messages = map[string]map[string]string{
	English: {
		InputHeading:   "Input (LEARN)",
		OutputHeading:  "Output (THINK)",
		OutcomeHeading: "Outcome (DO)",
		GroupNone:      "No group",
		QueryExists:    "A saved query with this name already exists",
	},
	SimplifiedChinese: {
		InputHeading:   "输入 LEARN",
		OutputHeading:  "输出 THINK",
		OutcomeHeading: "成果 DO",
		GroupNone:      "未分组",
		QueryExists:    "已存在同名的查询",
	},
	TraditionalChinese: {
		InputHeading:   "輸入 LEARN",
		OutputHeading:  "輸出 THINK",
		OutcomeHeading: "成果 DO",
		GroupNone:      "未分組",
		QueryExists:    "已存在同名的查詢",
	},
}

// Languages returns the supported language codes.
func Languages() []string {
	return []string{English, SimplifiedChinese, TraditionalChinese}
}

// T returns the label for key in lang, falling back to English and then to
// the key itself.
func T(lang, key string) string {
	if m, ok := messages[strings.ToLower(lang)]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := messages[English][key]; ok {
		return s
	}
	return key
}
