package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// blockArraySchema accepts any array of tagged objects; kind filtering happens downstream.
const blockArraySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "maxItems": 1000,
  "items": {
    "type": "object",
    "required": ["type"],
    "properties": {
      "type": {"type": "string", "minLength": 1}
    }
  }
}`

var blockSchema = mustCompile("blocks.json", blockArraySchema)

func mustCompile(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader([]byte(schema))); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// blockKeys are the wrapper keys a model may put its block array under
var blockKeys = []string{"children", "blocks"}

// BlockArray recovers a block array from model text.
// Accepts a bare array, a fenced array, or an object wrapping the array as children or blocks.
// Returns false when no candidate validates as an array of tagged objects.
func BlockArray(text string) ([]map[string]any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	candidates := []string{text}
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	for _, candidate := range candidates {
		if blocks, ok := parseBlockArray(candidate); ok {
			return blocks, true
		}
	}

	if obj := JSONObject(text); obj != nil {
		if blocks, ok := BlocksFromObject(obj); ok {
			return blocks, true
		}
	}

	if start := strings.IndexByte(text, '['); start >= 0 {
		if end := balancedEnd(text, start, '[', ']'); end > start {
			span := text[start : end+1]
			if blocks, ok := parseBlockArray(span); ok {
				return blocks, true
			}
			return parseBlockArray(StripTrailingCommas(span))
		}
	}
	return nil, false
}

// BlocksFromObject returns the validated array under the children or blocks key of obj.
func BlocksFromObject(obj map[string]any) ([]map[string]any, bool) {
	for _, key := range blockKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if blocks, ok := validateBlocks(raw); ok {
			return blocks, true
		}
	}
	return nil, false
}

func parseBlockArray(s string) ([]map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	if obj, ok := v.(map[string]any); ok {
		return BlocksFromObject(obj)
	}
	return validateBlocks(v)
}

func validateBlocks(v any) ([]map[string]any, bool) {
	if err := blockSchema.Validate(v); err != nil {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	blocks := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		blocks = append(blocks, obj)
	}
	return blocks, true
}
