package resource_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/pkg/resource"
)

type store struct {
	ID     string
	Name   string
	Secret string
}

func public(s store) resource.Map { return resource.Map{"id": s.ID, "name": s.Name} }

func TestCollectionHidesUnlistedFields(t *testing.T) {
	out := resource.Collection([]store{{"v-1", "Lamps", "x"}, {"v-2", "Rugs", "y"}}, public)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"v-1","name":"Lamps"},{"id":"v-2","name":"Rugs"}]`, string(raw))

	raw, err = json.Marshal(resource.Collection(nil, public))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestWithAddsKeys(t *testing.T) {
	withLink := resource.With(public, func(s store) resource.Map {
		return resource.Map{"link": "/stores/" + s.ID}
	})
	got := resource.Item(store{ID: "v-1", Name: "Lamps"}, withLink)
	assert.Equal(t, resource.Map{"id": "v-1", "name": "Lamps", "link": "/stores/v-1"}, got)
}
