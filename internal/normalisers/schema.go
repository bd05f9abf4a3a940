package normalisers

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// imageHints mark properties that should be filled from a content image
var imageHints = []string{"poster", "cover", "thumbnail", "image", "artwork", "screenshot"}

// urlHints rank url properties when a collection has more than one
var urlHints = []string{"url", "link", "source"}

type rawCollection struct {
	ID         string                 `json:"id"`
	Properties map[string]rawProperty `json:"properties"`
}

type rawProperty struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Select      *rawOptionList `json:"select"`
	MultiSelect *rawOptionList `json:"multi_select"`
	Status      *rawOptionList `json:"status"`
	Number      *rawNumberInfo `json:"number"`
}

type rawOptionList struct {
	Options []struct {
		Name string `json:"name"`
	} `json:"options"`
}

type rawNumberInfo struct {
	Format string `json:"format"`
}

// SimplifySchema reduces a raw collection object to the simplified schema.
// Option colors and ids are discarded. The first title property in name order wins.
func SimplifySchema(collectionID string, raw json.RawMessage) (*domain.SimplifiedSchema, error) {
	var rc rawCollection
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if rc.Properties == nil {
		return nil, fmt.Errorf("decode collection: %w: no properties", domain.ErrInvalidInput)
	}
	if collectionID == "" {
		collectionID = rc.ID
	}

	schema := &domain.SimplifiedSchema{
		CollectionID: collectionID,
		Properties:   make(map[string]*domain.SimplifiedProperty, len(rc.Properties)),
		UpdatedAt:    time.Now().UTC(),
	}

	names := make([]string, 0, len(rc.Properties))
	for name := range rc.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var urlCandidates []string
	for _, name := range names {
		rp := rc.Properties[name]
		pt := domain.PropertyType(rp.Type)
		sp := &domain.SimplifiedProperty{
			ID:          rp.ID,
			Type:        pt,
			Description: strings.TrimSpace(rp.Description),
			Writable:    pt.IsWritable(),
			ImageLike:   matchesHint(name, imageHints),
		}

		switch pt {
		case domain.PropertyTypeSelect:
			sp.Options = optionNames(rp.Select)
		case domain.PropertyTypeMultiSelect:
			sp.Options = optionNames(rp.MultiSelect)
		case domain.PropertyTypeStatus:
			sp.Options = optionNames(rp.Status)
		case domain.PropertyTypeNumber:
			if rp.Number != nil {
				sp.Format = rp.Number.Format
			}
		case domain.PropertyTypeTitle:
			if schema.TitleProperty == "" {
				schema.TitleProperty = name
			}
		case domain.PropertyTypeURL:
			urlCandidates = append(urlCandidates, name)
		}
		schema.Properties[name] = sp
	}

	schema.URLProperty = pickURLProperty(urlCandidates)
	schema.Version = SchemaVersion(schema.Properties)
	return schema, nil
}

func optionNames(list *rawOptionList) []string {
	if list == nil {
		return nil
	}
	names := make([]string, 0, len(list.Options))
	for _, opt := range list.Options {
		if opt.Name != "" {
			names = append(names, opt.Name)
		}
	}
	return names
}

func matchesHint(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, hint := range hints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// pickURLProperty prefers a url-typed property whose name looks like a source link.
func pickURLProperty(candidates []string) string {
	for _, hint := range urlHints {
		for _, name := range candidates {
			if strings.EqualFold(strings.TrimSpace(name), hint) {
				return name
			}
		}
	}
	for _, name := range candidates {
		if matchesHint(name, urlHints) {
			return name
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// SchemaVersion is a stable hash of the property mapping. Option order does not affect it.
func SchemaVersion(props map[string]*domain.SimplifiedProperty) string {
	canonical := make(map[string]domain.SimplifiedProperty, len(props))
	for name, p := range props {
		cp := *p
		cp.Options = append([]string(nil), p.Options...)
		sort.Strings(cp.Options)
		canonical[name] = cp
	}
	// map keys are emitted sorted
	data, _ := json.Marshal(canonical)
	return hashBytes(data)
}

// IndexVersion is a stable hash of the collection list sorted by id.
func IndexVersion(items []domain.CollectionSummary) string {
	sorted := append([]domain.CollectionSummary(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	data, _ := json.Marshal(sorted)
	return hashBytes(data)
}

func hashBytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
