package normalisers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

func TestRichText_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", "hello"},
		{"number", float64(42), "42"},
		{"array of strings", []any{"a", "b"}, "ab"},
		{"destination run", []any{map[string]any{"text": map[string]any{"content": "run"}}}, "run"},
		{"plain_text run", map[string]any{"plain_text": "pt"}, "pt"},
		{"nested title", map[string]any{"title": "nested"}, "nested"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.PlainText(RichText(tt.value)))
		})
	}
}

func TestRichText_NeverEmpty(t *testing.T) {
	for _, v := range []any{nil, "", []any{}, map[string]any{}} {
		runs := RichText(v)
		require.Len(t, runs, 1)
		assert.Equal(t, "", runs[0].Content)
	}
}

func TestNormalizeRuns_Limits(t *testing.T) {
	long := strings.Repeat("a", domain.MaxRichTextLength*2+10)
	runs := NormalizeRuns([]domain.RichText{{Content: long}})

	require.Len(t, runs, 3)
	for _, r := range runs {
		assert.LessOrEqual(t, len([]rune(r.Content)), domain.MaxRichTextLength)
	}

	many := make([]domain.RichText, 30)
	for i := range many {
		many[i] = domain.RichText{Content: "x"}
	}
	assert.Len(t, NormalizeRuns(many), domain.MaxRichTextRuns)
}

func TestNormalizeRuns_NFC(t *testing.T) {
	decomposed := "e\u0301"
	runs := NormalizeRuns([]domain.RichText{{Content: decomposed}})
	assert.Equal(t, "\u00e9", runs[0].Content)
}

func TestNormalizeRuns_DropsBadLinks(t *testing.T) {
	runs := NormalizeRuns([]domain.RichText{{Content: "x", Link: "javascript:alert(1)"}})
	assert.Empty(t, runs[0].Link)
}
