package proposals

import (
	"errors"
	"strings"
	"unicode"
)

var errUnclosedQuote = errors.New("unclosed quote")

// splitArgs splits a command line on whitespace. Double quotes, including the
// typographic pair, group words into one argument; a backslash escapes a quote
// inside a quoted argument.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		closing rune
		started bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '\\' && i+1 < len(runes) && isQuote(runes[i+1]):
			i++
			cur.WriteRune(runes[i])
		case inQuote && r == closing:
			inQuote = false
		case !inQuote && isQuote(r) && !started:
			inQuote, started = true, true
			closing = closingQuote(r)
		case !inQuote && unicode.IsSpace(r):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errUnclosedQuote
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

func isQuote(r rune) bool { return r == '"' || r == '“' || r == '”' }

func closingQuote(r rune) rune {
	if r == '“' {
		return '”'
	}
	return '"'
}
