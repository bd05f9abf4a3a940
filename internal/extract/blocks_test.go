package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockArray_Shapes(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bare array", `[{"type":"paragraph","text":"a"},{"type":"heading_2","text":"b"}]`},
		{"children wrapper", `{"children":[{"type":"paragraph","text":"a"},{"type":"heading_2","text":"b"}]}`},
		{"blocks wrapper", `{"blocks":[{"type":"paragraph","text":"a"},{"type":"heading_2","text":"b"}]}`},
		{"fenced", "```json\n[{\"type\":\"paragraph\",\"text\":\"a\"},{\"type\":\"heading_2\",\"text\":\"b\"}]\n```"},
		{"prose wrapped", `Sure! {"children":[{"type":"paragraph","text":"a"},{"type":"heading_2","text":"b"}]} Hope it helps.`},
		{"prose array trailing comma", `Blocks: [{"type":"paragraph","text":"a"},{"type":"heading_2","text":"b"},] end`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, ok := BlockArray(tt.text)
			require.True(t, ok)
			require.Len(t, blocks, 2)
			assert.Equal(t, "paragraph", blocks[0]["type"])
			assert.Equal(t, "heading_2", blocks[1]["type"])
		})
	}
}

func TestBlockArray_Rejects(t *testing.T) {
	for _, text := range []string{
		"",
		"not json",
		`{"properties":{"a":1}}`,
		`[{"text":"missing type"}]`,
		`[1, 2]`,
		`{"children":"nope"}`,
	} {
		_, ok := BlockArray(text)
		assert.False(t, ok, "input %q", text)
	}
}

func TestBlocksFromObject(t *testing.T) {
	blocks, ok := BlocksFromObject(map[string]any{
		"properties": map[string]any{},
		"children":   []any{map[string]any{"type": "quote", "text": "q"}},
	})
	require.True(t, ok)
	assert.Len(t, blocks, 1)

	_, ok = BlocksFromObject(map[string]any{"title": "x"})
	assert.False(t, ok)
}
