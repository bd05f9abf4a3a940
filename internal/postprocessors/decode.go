package postprocessors

import (
	"encoding/json"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/normalisers"
)

// kindAliases maps loose block tags, lowercased with separators removed, onto block kinds
var kindAliases = map[string]domain.BlockKind{
	"paragraph":        domain.BlockParagraph,
	"p":                domain.BlockParagraph,
	"text":             domain.BlockParagraph,
	"heading1":         domain.BlockHeading1,
	"h1":               domain.BlockHeading1,
	"heading2":         domain.BlockHeading2,
	"h2":               domain.BlockHeading2,
	"heading3":         domain.BlockHeading3,
	"h3":               domain.BlockHeading3,
	"bulletedlistitem": domain.BlockBulletedListItem,
	"bulleted":         domain.BlockBulletedListItem,
	"bullet":           domain.BlockBulletedListItem,
	"numberedlistitem": domain.BlockNumberedListItem,
	"numbered":         domain.BlockNumberedListItem,
	"quote":            domain.BlockQuote,
	"blockquote":       domain.BlockQuote,
	"image":            domain.BlockImage,
	"img":              domain.BlockImage,
}

// ParseKind resolves a loose block tag. Unknown tags are returned as-is and later dropped.
func ParseKind(tag string) domain.BlockKind {
	key := strings.ToLower(strings.TrimSpace(tag))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	if kind, ok := kindAliases[key]; ok {
		return kind
	}
	return domain.BlockKind(tag)
}

// DecodeBlock converts one untrusted block object into a Block.
// Both destination-shaped ({"type":"paragraph","paragraph":{"rich_text":[...]}}) and flat
// ({"type":"paragraph","text":"..."}) shapes are accepted.
func DecodeBlock(obj map[string]any) domain.Block {
	tag, _ := obj["type"].(string)
	kind := ParseKind(tag)
	block := domain.Block{Kind: kind}

	body, _ := obj[tag].(map[string]any)
	if body == nil {
		body, _ = obj[string(kind)].(map[string]any)
	}

	if kind == domain.BlockImage {
		block.Image = decodeImage(obj, body)
		return block
	}

	for _, src := range []map[string]any{body, obj} {
		if src == nil {
			continue
		}
		for _, key := range []string{"rich_text", "richText", "text", "content"} {
			if v, ok := src[key]; ok {
				block.RichText = normalisers.RichText(v)
				return block
			}
		}
	}
	return block
}

func decodeImage(obj, body map[string]any) *domain.ImageRef {
	ref := &domain.ImageRef{}
	for _, src := range []map[string]any{body, obj} {
		if src == nil {
			continue
		}
		if ext, ok := src["external"].(map[string]any); ok {
			ref.ExternalURL, _ = ext["url"].(string)
		}
		if up, ok := src["file_upload"].(map[string]any); ok {
			ref.FileUploadID, _ = up["id"].(string)
		}
		if ref.ExternalURL == "" {
			for _, key := range []string{"url", "src"} {
				if s, ok := src[key].(string); ok {
					ref.ExternalURL = s
					break
				}
			}
		}
		if ref.Caption == "" {
			if c, ok := src["caption"]; ok {
				ref.Caption = normalisers.PlainString(c)
			}
		}
		if ref.ExternalURL != "" || ref.FileUploadID != "" {
			break
		}
	}
	ref.ExternalURL = strings.TrimSpace(ref.ExternalURL)
	if ref.ExternalURL == "" && ref.FileUploadID == "" {
		return nil
	}
	return ref
}

// DecodeBlocks converts block objects in order.
func DecodeBlocks(objs []map[string]any) []domain.Block {
	blocks := make([]domain.Block, 0, len(objs))
	for _, obj := range objs {
		blocks = append(blocks, DecodeBlock(obj))
	}
	return blocks
}

// DecodeRaw converts raw JSON blocks in order, skipping entries that are not objects.
func DecodeRaw(raw []json.RawMessage) []domain.Block {
	blocks := make([]domain.Block, 0, len(raw))
	for _, r := range raw {
		var obj map[string]any
		if err := json.Unmarshal(r, &obj); err != nil || obj == nil {
			continue
		}
		blocks = append(blocks, DecodeBlock(obj))
	}
	return blocks
}
