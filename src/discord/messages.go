package discord

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxDiscordMessageLen = 2000
	SafeChunkLen         = 1900
)

// SplitMessage breaks text into chunks that fit in one Discord message.
// It prefers line boundaries and only cuts inside a line that is itself too
// long. Chunk sizes are counted in runes, as Discord counts characters.
func SplitMessage(text string) []string {
	return splitMessage(text, SafeChunkLen)
}

func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for _, piece := range splitLongLine(line, limit) {
			pieceLen := utf8.RuneCountInString(piece)
			sep := 0
			if currentLen > 0 {
				sep = 1
			}
			if currentLen+sep+pieceLen > limit {
				flush()
				sep = 0
			}
			if sep == 1 {
				current.WriteByte('\n')
			}
			current.WriteString(piece)
			currentLen += sep + pieceLen
		}
	}
	flush()
	return chunks
}

func splitLongLine(line string, limit int) []string {
	if utf8.RuneCountInString(line) <= limit {
		return []string{line}
	}
	var out []string
	runes := []rune(line)
	for len(runes) > limit {
		cut := limit
		if i := lastSpace(runes[:limit]); i > limit/2 {
			cut = i
		}
		out = append(out, strings.TrimRight(string(runes[:cut]), " "))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
