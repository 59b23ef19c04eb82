package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBuiltin(t *testing.T) {
	c, err := Lookup("oryon")
	require.NoError(t, err)
	assert.Equal(t, "oryon", c.Model)
	assert.Len(t, c.Fixed, 3)
	assert.Equal(t, 3, c.GroupCount())
	require.NoError(t, c.Validate())
}

func TestLookupUnknownModel(t *testing.T) {
	_, err := Lookup("does-not-exist")
	assert.Error(t, err)
}

func TestLookupCached(t *testing.T) {
	a, err := Lookup("cortex_x4")
	require.NoError(t, err)
	b, err := Lookup("cortex_x4")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestValidateEmptyCatalog(t *testing.T) {
	assert.ErrorIs(t, Catalog{}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Catalog{Fixed: []Event{{Name: "x"}}}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Catalog{
		Fixed:  []Event{{Name: "x"}},
		Groups: [][]Event{{}},
	}.Validate(), ErrInvalid)
}

func TestEventIndexing(t *testing.T) {
	c := Catalog{
		Fixed: []Event{{Name: "cycles", Encoding: 1}},
		Groups: [][]Event{
			{{Name: "a", Encoding: 2}, {Name: "b", Encoding: 3}},
		},
	}
	assert.Equal(t, "cycles", c.Event(0, 0).Name)
	assert.Equal(t, "a", c.Event(0, 1).Name)
	assert.Equal(t, "b", c.Event(0, 2).Name)
	assert.Equal(t, Event{}, c.Event(0, 3))
	assert.Equal(t, Event{}, c.Event(1, 0))
}

func TestModels(t *testing.T) {
	models, err := Models()
	require.NoError(t, err)
	assert.Contains(t, models, "oryon")
	assert.Contains(t, models, "cortex_x4")
}
