package domain

import (
	"testing"
	"time"
)

func testSchema() *SimplifiedSchema {
	return &SimplifiedSchema{
		CollectionID:  "db-1",
		TitleProperty: "Name",
		URLProperty:   "Link",
		Properties: map[string]*SimplifiedProperty{
			"Name": {ID: "title", Type: PropertyTypeTitle, Writable: true},
			"Link": {ID: "a", Type: PropertyTypeURL, Writable: true},
			"Tags": {ID: "b", Type: PropertyTypeMultiSelect, Options: []string{"Go", "Rust"}, Writable: true},
		},
	}
}

func TestPropertyType_IsWritable(t *testing.T) {
	readOnly := []PropertyType{PropertyTypeRollup, PropertyTypeFormula, PropertyTypeCreatedTime, PropertyTypeLastEditedTime}
	for _, pt := range readOnly {
		if pt.IsWritable() {
			t.Errorf("expected %s to be read-only", pt)
		}
	}
	writable := []PropertyType{PropertyTypeTitle, PropertyTypeSelect, PropertyTypeFiles, PropertyTypeDate}
	for _, pt := range writable {
		if !pt.IsWritable() {
			t.Errorf("expected %s to be writable", pt)
		}
	}
}

func TestSimplifiedSchema_ResolveKey(t *testing.T) {
	s := testSchema()

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"Tags", "Tags", true},
		{"tags", "Tags", true},
		{"title", "Name", true},
		{"URL", "Link", true},
		{"Unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := s.ResolveKey(tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ResolveKey(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSimplifiedProperty_HasOption(t *testing.T) {
	p := testSchema().Properties["Tags"]

	name, ok := p.HasOption(" go ")
	if !ok || name != "Go" {
		t.Errorf("expected canonical Go, got %q %v", name, ok)
	}
	if _, ok := p.HasOption("Python"); ok {
		t.Error("expected Python to be missing")
	}
}

func TestCachedSchema_IsStale(t *testing.T) {
	now := time.Now()
	fresh := &CachedSchema{UpdatedAt: now.Add(-time.Hour)}
	old := &CachedSchema{UpdatedAt: now.Add(-25 * time.Hour)}

	if fresh.IsStale(SchemaTTL, now) {
		t.Error("expected fresh row")
	}
	if !old.IsStale(SchemaTTL, now) {
		t.Error("expected stale row")
	}
}

func TestPageContext_MetaTitle(t *testing.T) {
	p := &PageContext{Meta: map[string]string{"OG:Title": "  From OG  ", "description": "x"}}
	if got := p.MetaTitle(); got != "From OG" {
		t.Errorf("expected From OG, got %q", got)
	}

	empty := &PageContext{}
	if got := empty.MetaTitle(); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
