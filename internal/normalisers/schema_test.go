package normalisers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

const rawCollectionJSON = `{
  "object": "database",
  "id": "db-1",
  "properties": {
    "Name": {"id": "title", "name": "Name", "type": "title", "title": {}},
    "Tags": {"id": "t1", "type": "multi_select", "multi_select": {"options": [
      {"id": "o1", "name": "A", "color": "red"},
      {"id": "o2", "name": "B", "color": "blue"}
    ]}},
    "Source URL": {"id": "u1", "type": "url", "url": {}},
    "Homepage": {"id": "u2", "type": "url", "url": {}},
    "Poster Image": {"id": "f1", "type": "files", "files": {}},
    "Price": {"id": "n1", "type": "number", "number": {"format": "dollar"}},
    "Score": {"id": "x1", "type": "formula", "formula": {"expression": "1"}},
    "Stage": {"id": "s1", "type": "status", "status": {"options": [{"name": "Inbox"}]}}
  }
}`

func TestSimplifySchema(t *testing.T) {
	schema, err := SimplifySchema("db-1", json.RawMessage(rawCollectionJSON))
	require.NoError(t, err)

	assert.Equal(t, "db-1", schema.CollectionID)
	assert.Equal(t, "Name", schema.TitleProperty)
	assert.Equal(t, "Source URL", schema.URLProperty)
	assert.Equal(t, []string{"A", "B"}, schema.Properties["Tags"].Options)
	assert.Equal(t, []string{"Inbox"}, schema.Properties["Stage"].Options)
	assert.Equal(t, "dollar", schema.Properties["Price"].Format)
	assert.True(t, schema.Properties["Poster Image"].ImageLike)
	assert.False(t, schema.Properties["Tags"].ImageLike)
	assert.False(t, schema.Properties["Score"].Writable)
	assert.True(t, schema.Properties["Name"].Writable)
	assert.NotEmpty(t, schema.Version)
}

func TestSimplifySchema_VersionStable(t *testing.T) {
	a, err := SimplifySchema("db-1", json.RawMessage(rawCollectionJSON))
	require.NoError(t, err)
	b, err := SimplifySchema("db-1", json.RawMessage(rawCollectionJSON))
	require.NoError(t, err)

	assert.Equal(t, a.Version, b.Version)
}

func TestSchemaVersion_IgnoresOptionOrder(t *testing.T) {
	a := map[string]*domain.SimplifiedProperty{"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"A", "B"}}}
	b := map[string]*domain.SimplifiedProperty{"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"B", "A"}}}
	c := map[string]*domain.SimplifiedProperty{"Tags": {Type: domain.PropertyTypeMultiSelect, Options: []string{"A", "C"}}}

	assert.Equal(t, SchemaVersion(a), SchemaVersion(b))
	assert.NotEqual(t, SchemaVersion(a), SchemaVersion(c))
}

func TestSimplifySchema_Invalid(t *testing.T) {
	_, err := SimplifySchema("db-1", json.RawMessage(`not json`))
	assert.Error(t, err)

	_, err = SimplifySchema("db-1", json.RawMessage(`{"id":"db-1"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexVersion_OrderIndependent(t *testing.T) {
	a := []domain.CollectionSummary{{ID: "1", Title: "x"}, {ID: "2", Title: "y"}}
	b := []domain.CollectionSummary{{ID: "2", Title: "y"}, {ID: "1", Title: "x"}}
	assert.Equal(t, IndexVersion(a), IndexVersion(b))
}
