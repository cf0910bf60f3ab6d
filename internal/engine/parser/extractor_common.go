package parser

import (
	"regexp"
	"sort"
	"strings"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//.*`)
)

// StripComments removes /* */ block comments and // line comments. It is a
// text filter, not a lexer: "//" inside string literals is stripped too.
func StripComments(content string) string {
	content = blockComment.ReplaceAllString(content, "")
	return lineComment.ReplaceAllString(content, "")
}

// keywordAlternation builds a regexp alternation for configuration keywords.
// Bare identifiers are bounded by \b on both sides; quoted keywords are
// matched literally.
func keywordAlternation(keywords []string) string {
	sorted := append([]string{}, keywords...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	parts := make([]string, 0, len(sorted))
	for _, kw := range sorted {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if isQuoted(kw) {
			parts = append(parts, regexp.QuoteMeta(kw))
			continue
		}
		parts = append(parts, `\b`+regexp.QuoteMeta(kw)+`\b`)
	}
	return "(?:" + strings.Join(parts, "|") + ")"
}

func isQuoted(value string) bool {
	return len(value) >= 2 &&
		(value[0] == '"' || value[0] == '\'') &&
		value[len(value)-1] == value[0]
}

func lastSegment(value, sep string) string {
	value = strings.Trim(value, sep)
	if idx := strings.LastIndex(value, sep); idx != -1 {
		return value[idx+len(sep):]
	}
	return value
}

func lineAt(content string, offset int) int {
	if offset <= 0 {
		return 1
	}
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}
