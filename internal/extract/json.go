// Package extract recovers JSON values from free-form model output.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\\n?(.*?)```")

// JSONObject recovers a single JSON object from text.
//
// It accepts a bare object, an object inside a fenced code block, and an object surrounded by
// prose. Balanced spans are located with string-aware brace counting; a span that fails to
// parse gets one repair pass that strips trailing commas. Returns nil when nothing parses.
func JSONObject(text string) map[string]any {
	text = strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if text == "" {
		return nil
	}

	if obj := parseObject(text); obj != nil {
		return obj
	}

	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		if obj := parseObject(inner); obj != nil {
			return obj
		}
		if obj := scanObject(inner); obj != nil {
			return obj
		}
	}

	return scanObject(text)
}

// scanObject tries each balanced {...} span in order.
func scanObject(text string) map[string]any {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		end := balancedEnd(text, start, '{', '}')
		if end < 0 {
			return nil
		}
		span := text[start : end+1]
		if obj := parseObject(span); obj != nil {
			return obj
		}
		if obj := parseObject(StripTrailingCommas(span)); obj != nil {
			return obj
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			return nil
		}
		start += next + 1
	}
	return nil
}

func parseObject(s string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil
	}
	return obj
}

// balancedEnd returns the index of the closer matching the opener at start, or -1.
// Delimiters inside double-quoted strings (including escaped quotes) are ignored.
func balancedEnd(text string, start int, open, close byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// StripTrailingCommas removes commas that directly precede } or ], outside strings.
func StripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
