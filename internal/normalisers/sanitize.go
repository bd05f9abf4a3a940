package normalisers

import (
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

var defaultRegistry = DefaultRegistry()

// Sanitizer coerces untrusted proposed values into NormalizedProperties.
type Sanitizer struct {
	registry *Registry
}

// NewSanitizer creates a sanitizer backed by registry. A nil registry uses the built-in rules.
func NewSanitizer(registry *Registry) *Sanitizer {
	if registry == nil {
		registry = defaultRegistry
	}
	return &Sanitizer{registry: registry}
}

// Sanitize coerces proposed with the built-in rules.
func Sanitize(schema *domain.SimplifiedSchema, proposed map[string]any) domain.NormalizedProperties {
	return NewSanitizer(nil).Sanitize(schema, proposed)
}

// Sanitize keeps only keys that resolve to a writable schema property and whose value
// coerces into the canonical shape for that property's type. Everything else is omitted.
func (s *Sanitizer) Sanitize(schema *domain.SimplifiedSchema, proposed map[string]any) domain.NormalizedProperties {
	out := make(domain.NormalizedProperties)
	if schema == nil || len(proposed) == 0 {
		return out
	}
	proposed = UnwrapProposed(schema, proposed)

	// exact keys win over aliased ones
	resolved := make(map[string]any, len(proposed))
	for key, value := range proposed {
		if _, ok := schema.Properties[key]; ok {
			resolved[key] = value
		}
	}
	for key, value := range proposed {
		name, ok := schema.ResolveKey(key)
		if !ok {
			continue
		}
		if _, taken := resolved[name]; !taken {
			resolved[name] = value
		}
	}

	for name, value := range resolved {
		prop := schema.Properties[name]
		if prop == nil || !prop.Writable || value == nil {
			continue
		}
		coercer := s.registry.Get(prop.Type)
		if coercer == nil {
			continue
		}
		pv, ok := coercer.Coerce(prop, unwrapTyped(prop.Type, value))
		if !ok {
			continue
		}
		out[name] = pv
	}
	return out
}

// UnwrapProposed returns the inner map when the model wrapped its answer as {"properties": {...}}
// and the collection has no property of that name.
func UnwrapProposed(schema *domain.SimplifiedSchema, proposed map[string]any) map[string]any {
	inner, ok := proposed["properties"].(map[string]any)
	if !ok {
		return proposed
	}
	if schema != nil {
		for name := range schema.Properties {
			if strings.EqualFold(name, "properties") {
				return proposed
			}
		}
	}
	return inner
}

// unwrapTyped strips destination-shaped wrappers such as {"select": {"name": "A"}}.
func unwrapTyped(t domain.PropertyType, value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if inner, ok := obj[string(t)]; ok {
		return inner
	}
	return value
}

// FillURL sets the collection's url property to pageURL when the model left it out.
func FillURL(schema *domain.SimplifiedSchema, props domain.NormalizedProperties, pageURL string) {
	if schema == nil || schema.URLProperty == "" || !isHTTPURL(pageURL) {
		return
	}
	prop := schema.Property(schema.URLProperty)
	if prop == nil || !prop.Writable {
		return
	}
	if _, ok := props[schema.URLProperty]; ok {
		return
	}
	props[schema.URLProperty] = domain.PropertyValue{Type: domain.PropertyTypeURL, Text: strings.TrimSpace(pageURL)}
}
