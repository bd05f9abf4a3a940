package normalisers

import (
	"sort"
	"sync"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// Coercer turns an untrusted proposed value into the canonical shape of one property type.
// It reports false when the value cannot be coerced; the caller then omits the property.
type Coercer interface {
	Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool)
	SupportedTypes() []domain.PropertyType
}

// Registry maps property types to their coercion rule.
// Registering a coercer for a type that already has one replaces it.
type Registry struct {
	mu       sync.RWMutex
	coercers map[domain.PropertyType]Coercer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		coercers: make(map[domain.PropertyType]Coercer),
	}
}

// Register registers a coercer for every type it supports.
func (r *Registry) Register(c Coercer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range c.SupportedTypes() {
		r.coercers[t] = c
	}
}

// Get returns the coercer for a type, or nil if the type has no rule.
// Read-only types never have a rule.
func (r *Registry) Get(t domain.PropertyType) Coercer {
	if !t.IsWritable() {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coercers[t]
}

// List returns all registered types, sorted.
func (r *Registry) List() []domain.PropertyType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.PropertyType, 0, len(r.coercers))
	for t := range r.coercers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// DefaultRegistry creates a registry with the built-in rule table.
// people and relation have no rule: ids cannot be validated locally, so such values are omitted.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&TextCoercer{})
	r.Register(&NumberCoercer{})
	r.Register(&CheckboxCoercer{})
	r.Register(&URLCoercer{})
	r.Register(&EmailCoercer{})
	r.Register(&PhoneCoercer{})
	r.Register(&SelectCoercer{})
	r.Register(&MultiSelectCoercer{})
	r.Register(&DateCoercer{})
	r.Register(&FilesCoercer{})

	return r
}
