package normalisers

import (
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// placeholderTitles are never accepted as a page title (compared case-insensitively after trimming)
var placeholderTitles = map[string]bool{
	"":         true,
	"untitled": true,
	"new page": true,
	"no title": true,
	"home":     true,
}

// IsPlaceholderTitle reports whether s is empty or a known placeholder
func IsPlaceholderTitle(s string) bool {
	return placeholderTitles[strings.ToLower(strings.TrimSpace(s))]
}

// EnforceTitle makes sure the title property holds a real title. A missing or placeholder value
// is replaced by the page title, then a meta title, then the source URL, then "Untitled".
func EnforceTitle(schema *domain.SimplifiedSchema, props domain.NormalizedProperties, page *domain.PageContext) {
	if schema == nil || schema.TitleProperty == "" {
		return
	}
	if current, ok := props[schema.TitleProperty]; ok && !IsPlaceholderTitle(current.PlainText()) {
		return
	}

	title := "Untitled"
	if page != nil {
		for _, candidate := range []string{page.Title, page.MetaTitle(), page.URL} {
			if !IsPlaceholderTitle(candidate) {
				title = strings.TrimSpace(candidate)
				break
			}
		}
	}
	props[schema.TitleProperty] = domain.PropertyValue{
		Type:     domain.PropertyTypeTitle,
		RichText: NormalizeRuns([]domain.RichText{{Content: title}}),
	}
}
