package discord

import (
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[^\s\[\]()<>]+`)

// WrapURLsNoEmbed wraps URLs in angle brackets so Discord does not unfurl
// link previews under announcements. URLs already inside <> are left alone.
func WrapURLsNoEmbed(text string) string {
	matches := urlRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(text[last:start])
		last = end
		url := text[start:end]
		if start > 0 && text[start-1] == '<' {
			b.WriteString(url)
			continue
		}
		trimmed := strings.TrimRight(url, ".,;:!?)")
		b.WriteString("<" + trimmed + ">" + url[len(trimmed):])
	}
	b.WriteString(text[last:])
	return b.String()
}
