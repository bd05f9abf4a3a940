package postprocessors

import (
	"encoding/json"
	"testing"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		tag  string
		want domain.BlockKind
	}{
		{"paragraph", domain.BlockParagraph},
		{"p", domain.BlockParagraph},
		{"h1", domain.BlockHeading1},
		{"heading_2", domain.BlockHeading2},
		{"bulletedListItem", domain.BlockBulletedListItem},
		{"bullet", domain.BlockBulletedListItem},
		{"numbered", domain.BlockNumberedListItem},
		{"blockquote", domain.BlockQuote},
		{"img", domain.BlockImage},
		{"table", domain.BlockKind("table")},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := ParseKind(tt.tag); got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestDecodeBlock_DestinationShape(t *testing.T) {
	var obj map[string]any
	raw := `{"type":"heading_2","heading_2":{"rich_text":[{"text":{"content":"Intro"}}]}}`
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatal(err)
	}

	b := DecodeBlock(obj)
	if b.Kind != domain.BlockHeading2 {
		t.Errorf("expected heading_2, got %s", b.Kind)
	}
	if domain.PlainText(b.RichText) != "Intro" {
		t.Errorf("expected Intro, got %q", domain.PlainText(b.RichText))
	}
}

func TestDecodeBlock_FlatShape(t *testing.T) {
	b := DecodeBlock(map[string]any{"type": "p", "text": "hello"})
	if b.Kind != domain.BlockParagraph || domain.PlainText(b.RichText) != "hello" {
		t.Errorf("unexpected block %+v", b)
	}
}

func TestDecodeBlock_Image(t *testing.T) {
	b := DecodeBlock(map[string]any{
		"type":  "image",
		"image": map[string]any{"external": map[string]any{"url": "https://example.com/x.jpg"}, "caption": "A cat"},
	})
	if b.Image == nil || b.Image.ExternalURL != "https://example.com/x.jpg" {
		t.Fatalf("unexpected image %+v", b.Image)
	}
	if b.Image.Caption != "A cat" {
		t.Errorf("expected caption, got %q", b.Image.Caption)
	}

	flat := DecodeBlock(map[string]any{"type": "img", "src": "https://example.com/y.jpg"})
	if flat.Image == nil || flat.Image.ExternalURL != "https://example.com/y.jpg" {
		t.Errorf("unexpected flat image %+v", flat.Image)
	}

	missing := DecodeBlock(map[string]any{"type": "image"})
	if missing.Image != nil {
		t.Errorf("expected nil image, got %+v", missing.Image)
	}
}

func TestDecodeRaw_SkipsNonObjects(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"type":"quote","content":"q"}`),
		json.RawMessage(`"nope"`),
		json.RawMessage(`{"type":"paragraph","text":"p"}`),
	}

	blocks := DecodeRaw(raw)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != domain.BlockQuote {
		t.Errorf("expected quote, got %s", blocks[0].Kind)
	}
}
