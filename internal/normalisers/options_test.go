package normalisers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

type patchRecorder struct {
	calls [][]string
	err   error
}

func (p *patchRecorder) patch(ctx context.Context, property string, propType domain.PropertyType, options []string) error {
	p.calls = append(p.calls, options)
	return p.err
}

func tagsSchema(options ...string) *domain.SimplifiedSchema {
	return &domain.SimplifiedSchema{
		Properties: map[string]*domain.SimplifiedProperty{
			"Tags": {Type: domain.PropertyTypeMultiSelect, Options: options, Writable: true},
			"Kind": {Type: domain.PropertyTypeSelect, Options: []string{"A"}, Writable: true},
		},
	}
}

func TestEnsureOptions_CreatesMissing(t *testing.T) {
	schema := tagsSchema("A", "B")
	props := domain.NormalizedProperties{
		"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"A", "C"}},
	}
	rec := &patchRecorder{}

	report := EnsureOptions(context.Background(), schema, props, rec.patch)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"A", "B", "C"}, rec.calls[0])
	assert.Equal(t, []string{"C"}, report.Created["Tags"])
	assert.True(t, report.Changed())
	assert.Equal(t, []string{"A", "C"}, props["Tags"].Options)
	assert.Equal(t, []string{"A", "B", "C"}, schema.Properties["Tags"].Options)
}

func TestEnsureOptions_Idempotent(t *testing.T) {
	schema := tagsSchema("A")
	rec := &patchRecorder{}

	for i := 0; i < 2; i++ {
		props := domain.NormalizedProperties{
			"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"X", "Y"}},
		}
		EnsureOptions(context.Background(), schema, props, rec.patch)
	}

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"A", "X", "Y"}, schema.Properties["Tags"].Options)
}

func fullOptions(extra ...string) []string {
	opts := make([]string, 0, domain.MaxSelectOptions)
	opts = append(opts, extra...)
	for i := len(opts); i < domain.MaxSelectOptions; i++ {
		opts = append(opts, fmt.Sprintf("opt-%d", i))
	}
	return opts
}

func TestEnsureOptions_CapacityExhaustedRemapsToFallback(t *testing.T) {
	schema := tagsSchema(fullOptions("Other")...)
	props := domain.NormalizedProperties{
		"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"opt-5", "Brand New"}},
	}
	rec := &patchRecorder{}

	report := EnsureOptions(context.Background(), schema, props, rec.patch)

	assert.Empty(t, rec.calls)
	assert.Equal(t, []string{"opt-5", "Other"}, props["Tags"].Options)
	assert.Equal(t, []string{"Brand New"}, report.Remapped["Tags"])
}

func TestEnsureOptions_CapacityExhaustedDrops(t *testing.T) {
	schema := tagsSchema(fullOptions()...)
	props := domain.NormalizedProperties{
		"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"Brand New"}},
	}

	report := EnsureOptions(context.Background(), schema, props, (&patchRecorder{}).patch)

	_, ok := props["Tags"]
	assert.False(t, ok)
	assert.Equal(t, []string{"Brand New"}, report.Dropped["Tags"])
}

func TestEnsureOptions_PartialCapacity(t *testing.T) {
	opts := fullOptions()[:domain.MaxSelectOptions-1]
	schema := tagsSchema(opts...)
	props := domain.NormalizedProperties{
		"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"N1", "N2"}},
	}
	rec := &patchRecorder{}

	report := EnsureOptions(context.Background(), schema, props, rec.patch)

	assert.Equal(t, []string{"N1"}, report.Created["Tags"])
	assert.Equal(t, []string{"N2"}, report.Dropped["Tags"])
	assert.Equal(t, []string{"N1"}, props["Tags"].Options)
	assert.Len(t, schema.Properties["Tags"].Options, domain.MaxSelectOptions)
}

func TestEnsureOptions_PatchFailureDropsNewNames(t *testing.T) {
	schema := tagsSchema("A")
	props := domain.NormalizedProperties{
		"Kind": {Type: domain.PropertyTypeSelect, Options: []string{"Z"}},
		"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"A", "Z"}},
	}
	rec := &patchRecorder{err: errors.New("boom")}

	report := EnsureOptions(context.Background(), schema, props, rec.patch)

	assert.Len(t, report.Errors, 2)
	_, ok := props["Kind"]
	assert.False(t, ok)
	assert.Equal(t, []string{"A"}, props["Tags"].Options)
	assert.Equal(t, []string{"A"}, schema.Properties["Tags"].Options)
}

func TestLiveOptionPatcher_KeepsOptionsAddedSinceCaching(t *testing.T) {
	cached := tagsSchema("A", "B")
	props := domain.NormalizedProperties{
		"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"C"}},
	}
	reads := 0
	read := func(ctx context.Context) (*domain.SimplifiedSchema, error) {
		reads++
		return tagsSchema("A", "B", "D"), nil
	}
	rec := &patchRecorder{}

	report := EnsureOptions(context.Background(), cached, props, LiveOptionPatcher(read, rec.patch))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"A", "B", "D", "C"}, rec.calls[0])
	assert.Equal(t, []string{"C"}, report.Created["Tags"])
	assert.Equal(t, 1, reads)
}

func TestLiveOptionPatcher_ReadsOnce(t *testing.T) {
	reads := 0
	read := func(ctx context.Context) (*domain.SimplifiedSchema, error) {
		reads++
		return tagsSchema("A"), nil
	}
	rec := &patchRecorder{}
	patch := LiveOptionPatcher(read, rec.patch)

	require.NoError(t, patch(context.Background(), "Tags", domain.PropertyTypeMultiSelect, []string{"A", "B"}))
	require.NoError(t, patch(context.Background(), "Kind", domain.PropertyTypeSelect, []string{"A", "Z"}))

	assert.Equal(t, 1, reads)
	assert.Equal(t, [][]string{{"A", "B"}, {"A", "Z"}}, rec.calls)
}

func TestLiveOptionPatcher_ReadFailureSkipsPatch(t *testing.T) {
	cached := tagsSchema("A", "B")
	props := domain.NormalizedProperties{
		"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"A", "C"}},
	}
	read := func(ctx context.Context) (*domain.SimplifiedSchema, error) {
		return nil, domain.ErrNotAccessible
	}
	rec := &patchRecorder{}

	report := EnsureOptions(context.Background(), cached, props, LiveOptionPatcher(read, rec.patch))

	assert.Empty(t, rec.calls)
	assert.ErrorIs(t, report.Errors["Tags"], domain.ErrNotAccessible)
	assert.Equal(t, []string{"A"}, props["Tags"].Options)
}

func TestLiveOptionPatcher_LiveCapacity(t *testing.T) {
	full := make([]string, domain.MaxSelectOptions)
	for i := range full {
		full[i] = fmt.Sprintf("opt-%d", i)
	}
	read := func(ctx context.Context) (*domain.SimplifiedSchema, error) {
		return tagsSchema(full...), nil
	}
	rec := &patchRecorder{}

	err := LiveOptionPatcher(read, rec.patch)(context.Background(), "Tags", domain.PropertyTypeMultiSelect, []string{"new"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, rec.calls)
}

func TestMergeOptions(t *testing.T) {
	assert.Equal(t, []string{"A", "b", "C"}, MergeOptions([]string{"A", "b"}, []string{"a", "B", "C", " "}))
	assert.Empty(t, MergeOptions(nil, nil))
}
