package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// OptionPatcher writes the full option list of a select-like property to the destination.
type OptionPatcher func(ctx context.Context, property string, propType domain.PropertyType, options []string) error

// LiveSchemaReader returns the collection schema as the destination currently holds it.
type LiveSchemaReader func(ctx context.Context) (*domain.SimplifiedSchema, error)

// LiveOptionPatcher wraps patch so every write starts from the destination's current option list
// rather than the cached one. Options added on the destination since the schema was cached are
// kept, so a patch only ever adds. read is called at most once per patcher; when it fails no
// patch is attempted.
func LiveOptionPatcher(read LiveSchemaReader, patch OptionPatcher) OptionPatcher {
	var (
		live    *domain.SimplifiedSchema
		readErr error
		loaded  bool
	)
	return func(ctx context.Context, property string, propType domain.PropertyType, options []string) error {
		if !loaded {
			live, readErr = read(ctx)
			loaded = true
		}
		if readErr != nil {
			return fmt.Errorf("read live options: %w", readErr)
		}
		prop := live.Property(property)
		if prop == nil {
			return fmt.Errorf("%w: property %q no longer exists", domain.ErrInvalidInput, property)
		}

		merged := MergeOptions(prop.Options, options)
		if len(merged) > domain.MaxSelectOptions {
			return fmt.Errorf("%w: property %q would exceed %d options", domain.ErrInvalidInput, property, domain.MaxSelectOptions)
		}
		if err := patch(ctx, property, propType, merged); err != nil {
			return err
		}
		prop.Options = merged
		return nil
	}
}

// MergeOptions returns live followed by the names in desired it lacks, compared case-insensitively.
func MergeOptions(live, desired []string) []string {
	seen := make(map[string]bool, len(live)+len(desired))
	merged := make([]string, 0, len(live)+len(desired))
	for _, list := range [][]string{live, desired} {
		for _, name := range list {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, name)
		}
	}
	return merged
}

// fallbackOptionNames are preferred remap targets, in order
var fallbackOptionNames = []string{"Other", "Misc", "Miscellaneous", "Uncategorized"}

// OptionReport describes what EnsureOptions changed.
type OptionReport struct {
	Created  map[string][]string
	Remapped map[string][]string
	Dropped  map[string][]string
	Errors   map[string]error
}

// Changed reports whether any option was added to the schema
func (r *OptionReport) Changed() bool {
	return len(r.Created) > 0
}

// EnsureOptions reconciles select and multi_select values with the schema's options.
//
// Unknown names are created through patch while option capacity remains; the schema passed in
// is updated to include them, so a second call with the same names is a no-op. Names that
// cannot be created are remapped to a fallback option when one exists, otherwise dropped.
// A property left with no names is removed from props.
func EnsureOptions(ctx context.Context, schema *domain.SimplifiedSchema, props domain.NormalizedProperties, patch OptionPatcher) *OptionReport {
	report := &OptionReport{
		Created:  make(map[string][]string),
		Remapped: make(map[string][]string),
		Dropped:  make(map[string][]string),
		Errors:   make(map[string]error),
	}
	if schema == nil {
		return report
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := props[name]
		prop := schema.Property(name)
		if prop == nil {
			continue
		}
		if value.Type != domain.PropertyTypeSelect && value.Type != domain.PropertyTypeMultiSelect {
			continue
		}

		missing := missingOptions(prop, value.Options)
		if len(missing) == 0 {
			continue
		}

		capacity := domain.MaxSelectOptions - len(prop.Options)
		if capacity < 0 {
			capacity = 0
		}
		toCreate := missing
		var overflow []string
		if len(toCreate) > capacity {
			toCreate, overflow = missing[:capacity], missing[capacity:]
		}

		if len(toCreate) > 0 {
			desired := append(append([]string(nil), prop.Options...), toCreate...)
			if patch == nil {
				overflow = missing
			} else if err := patch(ctx, name, prop.Type, desired); err != nil {
				report.Errors[name] = err
				overflow = missing
			} else {
				prop.Options = desired
				report.Created[name] = toCreate
			}
		}

		if len(overflow) == 0 {
			continue
		}

		fallback := fallbackOption(prop)
		remapped, ok := remapValue(value, overflow, fallback)
		if fallback != "" {
			report.Remapped[name] = overflow
		} else {
			report.Dropped[name] = overflow
		}
		if !ok {
			delete(props, name)
			continue
		}
		props[name] = remapped
	}
	return report
}

// missingOptions returns the names in values that are not defined on prop, deduplicated.
func missingOptions(prop *domain.SimplifiedProperty, values []string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, v := range values {
		if _, ok := prop.HasOption(v); ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(v))
		if seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, v)
	}
	return missing
}

func fallbackOption(prop *domain.SimplifiedProperty) string {
	for _, candidate := range fallbackOptionNames {
		if canonical, ok := prop.HasOption(candidate); ok {
			return canonical
		}
	}
	return ""
}

// remapValue replaces the overflow names with fallback, or removes them when fallback is empty.
// It reports false when no names remain.
func remapValue(value domain.PropertyValue, overflow []string, fallback string) (domain.PropertyValue, bool) {
	drop := make(map[string]bool, len(overflow))
	for _, name := range overflow {
		drop[strings.ToLower(strings.TrimSpace(name))] = true
	}

	seen := make(map[string]bool)
	var names []string
	for _, v := range value.Options {
		if drop[strings.ToLower(strings.TrimSpace(v))] {
			if fallback == "" {
				continue
			}
			v = fallback
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, v)
	}
	if len(names) == 0 {
		return value, false
	}
	if value.Type == domain.PropertyTypeSelect {
		names = names[:1]
	}
	value.Options = names
	return value, true
}
