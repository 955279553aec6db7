package textproc

import "strings"

// Scrub 仅保留下游分词/情绪分类/TTS 可以安全处理的字符：a-z、A-Z、0-9、?、!、, 和空格。
// 其余字符直接删除（不做替换），保留原有相对顺序。
func Scrub(text string) string {
	if text == "" {
		return ""
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if allowed(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}

	switch r {
	case '?', '!', ',', ' ':
		return true
	default:
		return false
	}
}
