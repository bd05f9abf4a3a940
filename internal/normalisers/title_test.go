package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

func titleOf(props domain.NormalizedProperties) string {
	return props["Name"].PlainText()
}

func TestEnforceTitle_ReplacesPlaceholders(t *testing.T) {
	page := &domain.PageContext{URL: "https://x.test/p", Title: "Real Title"}

	for _, placeholder := range []string{"", "Untitled", "  new page ", "NO TITLE", "Home", "untitled"} {
		t.Run(placeholder, func(t *testing.T) {
			props := domain.NormalizedProperties{
				"Name": {Type: domain.PropertyTypeTitle, RichText: []domain.RichText{{Content: placeholder}}},
			}
			EnforceTitle(fullSchema(), props, page)
			assert.Equal(t, "Real Title", titleOf(props))
		})
	}
}

func TestEnforceTitle_PreservesRealTitles(t *testing.T) {
	page := &domain.PageContext{Title: "Page"}

	for _, title := range []string{"Homework", "Untitled Goose Game", "x"} {
		props := domain.NormalizedProperties{
			"Name": {Type: domain.PropertyTypeTitle, RichText: []domain.RichText{{Content: title}}},
		}
		EnforceTitle(fullSchema(), props, page)
		assert.Equal(t, title, titleOf(props))
	}
}

func TestEnforceTitle_FallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		page *domain.PageContext
		want string
	}{
		{"page title", &domain.PageContext{Title: "T", URL: "https://u.test"}, "T"},
		{"meta title", &domain.PageContext{Title: "Home", Meta: map[string]string{"og:title": "Meta"}, URL: "https://u.test"}, "Meta"},
		{"url", &domain.PageContext{Title: "", URL: "https://u.test/p"}, "https://u.test/p"},
		{"untitled", &domain.PageContext{}, "Untitled"},
		{"nil page", nil, "Untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := domain.NormalizedProperties{}
			EnforceTitle(fullSchema(), props, tt.page)
			assert.Equal(t, tt.want, titleOf(props))
		})
	}
}

func TestIsPlaceholderTitle(t *testing.T) {
	assert.True(t, IsPlaceholderTitle(" HOME "))
	assert.False(t, IsPlaceholderTitle("Homepage"))
}
