package domain

import (
	"encoding/json"
	"time"
)

// PropertyType identifies the type of a collection property as reported by the destination
type PropertyType string

const (
	PropertyTypeTitle          PropertyType = "title"
	PropertyTypeRichText       PropertyType = "rich_text"
	PropertyTypeNumber         PropertyType = "number"
	PropertyTypeSelect         PropertyType = "select"
	PropertyTypeMultiSelect    PropertyType = "multi_select"
	PropertyTypeStatus         PropertyType = "status"
	PropertyTypeDate           PropertyType = "date"
	PropertyTypePeople         PropertyType = "people"
	PropertyTypeFiles          PropertyType = "files"
	PropertyTypeCheckbox       PropertyType = "checkbox"
	PropertyTypeURL            PropertyType = "url"
	PropertyTypeEmail          PropertyType = "email"
	PropertyTypePhone          PropertyType = "phone_number"
	PropertyTypeRelation       PropertyType = "relation"
	PropertyTypeFormula        PropertyType = "formula"
	PropertyTypeRollup         PropertyType = "rollup"
	PropertyTypeCreatedTime    PropertyType = "created_time"
	PropertyTypeCreatedBy      PropertyType = "created_by"
	PropertyTypeLastEditedTime PropertyType = "last_edited_time"
	PropertyTypeLastEditedBy   PropertyType = "last_edited_by"
	PropertyTypeUniqueID       PropertyType = "unique_id"
)

// readOnlyTypes are computed by the destination and never written.
var readOnlyTypes = map[PropertyType]bool{
	PropertyTypeFormula:        true,
	PropertyTypeRollup:         true,
	PropertyTypeCreatedTime:    true,
	PropertyTypeCreatedBy:      true,
	PropertyTypeLastEditedTime: true,
	PropertyTypeLastEditedBy:   true,
	PropertyTypeUniqueID:       true,
}

// IsWritable reports whether values of this type can be written on page create
func (t PropertyType) IsWritable() bool {
	return !readOnlyTypes[t]
}

// HasOptions reports whether the type carries a fixed option list
func (t PropertyType) HasOptions() bool {
	return t == PropertyTypeSelect || t == PropertyTypeMultiSelect || t == PropertyTypeStatus
}

// MaxSelectOptions is the destination's per-property option capacity
const MaxSelectOptions = 100

// SchemaShape selects the representation returned by the schema cache
type SchemaShape string

const (
	SchemaShapeSimplified SchemaShape = "simplified"
	SchemaShapeRaw        SchemaShape = "raw"
)

// SimplifiedProperty is the minimal view of one collection property
type SimplifiedProperty struct {
	ID          string       `json:"id"`
	Type        PropertyType `json:"type"`
	Description string       `json:"description,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Format      string       `json:"format,omitempty"`
	Writable    bool         `json:"writable"`
	ImageLike   bool         `json:"imageLike,omitempty"`
}

// HasOption reports whether name is a defined option (case-insensitive) and returns its canonical spelling
func (p *SimplifiedProperty) HasOption(name string) (string, bool) {
	for _, opt := range p.Options {
		if equalFoldTrim(opt, name) {
			return opt, true
		}
	}
	return "", false
}

// SimplifiedSchema is the normalized schema of one collection
type SimplifiedSchema struct {
	CollectionID  string                         `json:"collectionId"`
	TitleProperty string                         `json:"titleProperty,omitempty"`
	URLProperty   string                         `json:"urlProperty,omitempty"`
	Properties    map[string]*SimplifiedProperty `json:"properties"`
	Version       string                         `json:"version"`
	UpdatedAt     time.Time                      `json:"updatedAt"`
}

// Property returns the named property or nil
func (s *SimplifiedSchema) Property(name string) *SimplifiedProperty {
	if s == nil || s.Properties == nil {
		return nil
	}
	return s.Properties[name]
}

// ResolveKey maps a proposed key onto a schema property name.
// Exact matches win, then case-insensitive matches, then the "title"/"url" aliases.
func (s *SimplifiedSchema) ResolveKey(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	if _, ok := s.Properties[key]; ok {
		return key, true
	}
	for name := range s.Properties {
		if equalFoldTrim(name, key) {
			return name, true
		}
	}
	switch {
	case equalFoldTrim(key, "title") && s.TitleProperty != "":
		return s.TitleProperty, true
	case equalFoldTrim(key, "url") && s.URLProperty != "":
		return s.URLProperty, true
	}
	return "", false
}

// CachedSchema is a schema cache row scoped by (user, collection)
type CachedSchema struct {
	UserID       string            `json:"user_id"`
	CollectionID string            `json:"collection_id"`
	Schema       *SimplifiedSchema `json:"schema"`
	Raw          json.RawMessage   `json:"raw,omitempty"`
	Version      string            `json:"version"`
	UpdatedAt    time.Time         `json:"updated_at"`

	// CredentialID is the linked credential that last read the collection
	CredentialID string `json:"credential_id,omitempty"`
}

// IsStale reports whether the row is older than ttl
func (c *CachedSchema) IsStale(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.UpdatedAt) > ttl
}

// SchemaResult is what the schema cache hands back to callers
type SchemaResult struct {
	Schema      *SimplifiedSchema `json:"schema,omitempty"`
	Raw         json.RawMessage   `json:"raw,omitempty"`
	Version     string            `json:"version"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Stale       bool              `json:"stale"`
	NotModified bool              `json:"-"`
}

// CollectionSummary is one entry of the per-user collection index
type CollectionSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	IconEmoji string `json:"iconEmoji,omitempty"`
	URL       string `json:"url"`
}

// CollectionIndex is the cached list of collections a user can reach
type CollectionIndex struct {
	Items       []CollectionSummary `json:"items"`
	Version     string              `json:"version"`
	RefreshedAt time.Time           `json:"refreshedAt"`
	Stale       bool                `json:"stale"`
}

// Cache time-to-live windows
const (
	SchemaTTL = 24 * time.Hour
	IndexTTL  = 10 * time.Minute
)

// Clone returns a deep copy so callers can mutate options without touching cached state
func (s *SimplifiedSchema) Clone() *SimplifiedSchema {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Properties = make(map[string]*SimplifiedProperty, len(s.Properties))
	for name, p := range s.Properties {
		pc := *p
		pc.Options = append([]string(nil), p.Options...)
		cp.Properties[name] = &pc
	}
	return &cp
}
