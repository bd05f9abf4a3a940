package notion

import (
	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// encodeRichText converts runs into API rich text objects
func encodeRichText(runs []domain.RichText) []map[string]any {
	out := make([]map[string]any, 0, len(runs))
	for _, r := range runs {
		text := map[string]any{"content": r.Content}
		if r.Link != "" {
			text["link"] = map[string]any{"url": r.Link}
		}
		out = append(out, map[string]any{"type": "text", "text": text})
	}
	return out
}

func plainRichText(s string) []map[string]any {
	if s == "" {
		return []map[string]any{}
	}
	return encodeRichText([]domain.RichText{{Content: s}})
}

// encodeProperties converts validated values into the page create property payload.
// Values with an unknown type are skipped.
func encodeProperties(props domain.NormalizedProperties) map[string]any {
	out := make(map[string]any, len(props))
	for name, v := range props {
		if enc, ok := encodeValue(v); ok {
			out[name] = enc
		}
	}
	return out
}

func encodeValue(v domain.PropertyValue) (map[string]any, bool) {
	switch v.Type {
	case domain.PropertyTypeTitle, domain.PropertyTypeRichText:
		return map[string]any{string(v.Type): encodeRichText(v.RichText)}, true

	case domain.PropertyTypeURL, domain.PropertyTypeEmail, domain.PropertyTypePhone:
		return map[string]any{string(v.Type): v.Text}, true

	case domain.PropertyTypeNumber:
		if v.Number == nil {
			return nil, false
		}
		return map[string]any{"number": *v.Number}, true

	case domain.PropertyTypeCheckbox:
		checked := v.Checkbox != nil && *v.Checkbox
		return map[string]any{"checkbox": checked}, true

	case domain.PropertyTypeSelect, domain.PropertyTypeStatus:
		if len(v.Options) == 0 {
			return nil, false
		}
		return map[string]any{string(v.Type): map[string]any{"name": v.Options[0]}}, true

	case domain.PropertyTypeMultiSelect:
		opts := make([]map[string]any, 0, len(v.Options))
		for _, o := range v.Options {
			opts = append(opts, map[string]any{"name": o})
		}
		return map[string]any{"multi_select": opts}, true

	case domain.PropertyTypeDate:
		if v.Date == nil {
			return nil, false
		}
		date := map[string]any{"start": v.Date.Start}
		if v.Date.End != "" {
			date["end"] = v.Date.End
		}
		if v.Date.TimeZone != "" {
			date["time_zone"] = v.Date.TimeZone
		}
		return map[string]any{"date": date}, true

	case domain.PropertyTypeFiles:
		files := make([]map[string]any, 0, len(v.Files))
		for _, f := range v.Files {
			if enc := encodeFile(f); enc != nil {
				files = append(files, enc)
			}
		}
		return map[string]any{"files": files}, true
	}
	return nil, false
}

func encodeFile(f domain.FileRef) map[string]any {
	name := f.Name
	switch {
	case f.FileUploadID != "":
		if name == "" {
			name = f.FileUploadID
		}
		return map[string]any{
			"name":        domain.Truncate(name, 100),
			"type":        "file_upload",
			"file_upload": map[string]any{"id": f.FileUploadID},
		}
	case f.ExternalURL != "":
		if name == "" {
			name = f.ExternalURL
		}
		return map[string]any{
			"name":     domain.Truncate(name, 100),
			"type":     "external",
			"external": map[string]any{"url": f.ExternalURL},
		}
	}
	return nil
}

// encodeBlocks converts content blocks into API block objects.
// Blocks that cannot be expressed are dropped.
func encodeBlocks(blocks []domain.Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		if enc := encodeBlock(b); enc != nil {
			out = append(out, enc)
		}
	}
	return out
}

func encodeBlock(b domain.Block) map[string]any {
	if !b.Kind.IsAllowed() {
		return nil
	}
	kind := string(b.Kind)

	if b.Kind == domain.BlockImage {
		if b.Image == nil {
			return nil
		}
		img := map[string]any{}
		switch {
		case b.Image.FileUploadID != "":
			img["type"] = "file_upload"
			img["file_upload"] = map[string]any{"id": b.Image.FileUploadID}
		case b.Image.ExternalURL != "":
			img["type"] = "external"
			img["external"] = map[string]any{"url": b.Image.ExternalURL}
		default:
			return nil
		}
		if b.Image.Caption != "" {
			img["caption"] = plainRichText(b.Image.Caption)
		}
		return map[string]any{"object": "block", "type": kind, kind: img}
	}

	return map[string]any{
		"object": "block",
		"type":   kind,
		kind:     map[string]any{"rich_text": encodeRichText(b.RichText)},
	}
}
