package normalisers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// RichText coerces an untrusted value into a bounded run list.
// Accepts strings, numbers, booleans, arrays of strings and run objects
// ({"text":{"content":..}}, {"plain_text":..}, {"content":..}).
// The result always holds at least one run.
func RichText(value any) []domain.RichText {
	var runs []domain.RichText
	collectRuns(value, &runs, 0)
	return NormalizeRuns(runs)
}

// PlainString flattens a rich-text-like value to a single string
func PlainString(value any) string {
	return strings.TrimSpace(domain.PlainText(RichText(value)))
}

// NormalizeRuns applies the destination limits: NFC text, at most MaxRichTextRuns runs of
// at most MaxRichTextLength runes. Long runs are split rather than cut while run slots remain.
func NormalizeRuns(runs []domain.RichText) []domain.RichText {
	out := make([]domain.RichText, 0, len(runs))
	for _, r := range runs {
		content := norm.NFC.String(r.Content)
		if content == "" {
			continue
		}
		link := r.Link
		if link != "" && !isHTTPURL(link) {
			link = ""
		}
		for _, part := range splitRunes(content, domain.MaxRichTextLength) {
			if len(out) == domain.MaxRichTextRuns {
				return out
			}
			out = append(out, domain.RichText{Content: part, Link: link})
		}
	}
	if len(out) == 0 {
		out = append(out, domain.RichText{Content: ""})
	}
	return out
}

func collectRuns(value any, runs *[]domain.RichText, depth int) {
	if depth > 4 {
		return
	}
	switch v := value.(type) {
	case nil:
	case string:
		*runs = append(*runs, domain.RichText{Content: v})
	case json.Number:
		*runs = append(*runs, domain.RichText{Content: v.String()})
	case float64:
		*runs = append(*runs, domain.RichText{Content: strconv.FormatFloat(v, 'f', -1, 64)})
	case bool:
		*runs = append(*runs, domain.RichText{Content: strconv.FormatBool(v)})
	case []any:
		for _, item := range v {
			collectRuns(item, runs, depth+1)
		}
	case map[string]any:
		if run, ok := runFromObject(v); ok {
			*runs = append(*runs, run)
			return
		}
		for _, key := range []string{"title", "rich_text", "richText", "value", "name"} {
			if inner, ok := v[key]; ok {
				collectRuns(inner, runs, depth+1)
				return
			}
		}
	default:
		*runs = append(*runs, domain.RichText{Content: fmt.Sprint(v)})
	}
}

func runFromObject(obj map[string]any) (domain.RichText, bool) {
	if text, ok := obj["text"].(map[string]any); ok {
		content, _ := text["content"].(string)
		run := domain.RichText{Content: content}
		if link, ok := text["link"].(map[string]any); ok {
			run.Link, _ = link["url"].(string)
		}
		return run, true
	}
	if s, ok := obj["text"].(string); ok {
		return domain.RichText{Content: s}, true
	}
	if s, ok := obj["plain_text"].(string); ok {
		href, _ := obj["href"].(string)
		return domain.RichText{Content: s, Link: href}, true
	}
	if s, ok := obj["content"].(string); ok {
		link, _ := obj["link"].(string)
		return domain.RichText{Content: s, Link: link}, true
	}
	return domain.RichText{}, false
}

func splitRunes(s string, n int) []string {
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	parts := make([]string, 0, len(runes)/n+1)
	for len(runes) > n {
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
