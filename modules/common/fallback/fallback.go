package fallback

import (
	"strings"
)

// DefaultHeadline - 모델이 headline을 주지 않았을 때 사용
const DefaultHeadline = "Untitled Post"

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fallback string) string {
	switch v := value.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case *string:
		if v != nil {
			return SafeString(*v, fallback)
		}
	}
	return fallback
}

// SafeStrings trims every entry and drops empty ones. A nil input yields an
// empty, non-nil slice so JSON output is [] rather than null.
func SafeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Hashtag normalizes "#tag", " tag " and "##tag" to "tag".
func Hashtag(tag string) string {
	return strings.TrimLeft(strings.TrimSpace(tag), "#")
}

// Truncate - 로그용 문자열 자르기 (rune 단위, 초과 시 "..." 추가)
func Truncate(s string, maxRunes int) string {
	if maxRunes < 0 {
		maxRunes = 0
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
