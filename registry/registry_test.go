package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harnesslab/harness/types"
)

func TestNewRegistryHasBuiltins(t *testing.T) {
	r := NewRegistry()

	_, ok := r.lookupCaseOrderer(DeclarationOrderName)
	assert.True(t, ok, "declaration-order should be pre-registered")
	_, ok = r.lookupCollectionOrderer(ByNameOrderName)
	assert.True(t, ok, "by-name should be pre-registered")
	_, ok = r.lookupGrouping(CollectionPerClassName)
	assert.True(t, ok, "collection-per-class should be pre-registered")
	_, ok = r.lookupGrouping(CollectionPerAssemblyName)
	assert.True(t, ok, "collection-per-assembly should be pre-registered")
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.RegisterCaseOrderer("custom", func() (types.TestCaseOrderer, error) {
		return DeclarationOrderer{}, nil
	})

	factory, ok := r.lookupCaseOrderer("custom")
	require.True(t, ok)
	orderer, err := factory()
	require.NoError(t, err)
	assert.NotNil(t, orderer)

	_, ok = r.lookupCaseOrderer("missing")
	assert.False(t, ok)
}

func TestRegisterRejectsInvalidRegistration(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { r.RegisterCaseOrderer("", nil) })
	assert.Panics(t, func() { r.RegisterCollectionOrderer("name", nil) })
	assert.Panics(t, func() { r.RegisterGrouping("", nil) })
}

func TestDeclarationOrdererPreservesOrder(t *testing.T) {
	cases := []*types.TestCase{
		{ID: "c", DisplayName: "TestC"},
		{ID: "a", DisplayName: "TestA"},
		{ID: "b", DisplayName: "TestB"},
	}

	ordered := DeclarationOrderer{}.OrderTestCases(cases)

	require.Len(t, ordered, 3)
	assert.Equal(t, "c", ordered[0].ID)
	assert.Equal(t, "a", ordered[1].ID)
	assert.Equal(t, "b", ordered[2].ID)

	// The input slice must not be mutated by callers reordering the result.
	ordered[0], ordered[2] = ordered[2], ordered[0]
	assert.Equal(t, "c", cases[0].ID)
}

func TestByNameOrdererSortsByDisplayName(t *testing.T) {
	collections := []*types.TestCollection{
		{ID: uuid.New(), DisplayName: "gamma"},
		{ID: uuid.New(), DisplayName: "alpha"},
		{ID: uuid.New(), DisplayName: "beta"},
	}

	ordered := ByNameOrderer{}.OrderTestCollections(collections)

	require.Len(t, ordered, 3)
	assert.Equal(t, "alpha", ordered[0].DisplayName)
	assert.Equal(t, "beta", ordered[1].DisplayName)
	assert.Equal(t, "gamma", ordered[2].DisplayName)
	assert.Equal(t, "gamma", collections[0].DisplayName, "input must stay untouched")
}

func TestByNameOrdererIsStable(t *testing.T) {
	first := &types.TestCollection{ID: uuid.New(), DisplayName: "same"}
	second := &types.TestCollection{ID: uuid.New(), DisplayName: "same"}

	ordered := ByNameOrderer{}.OrderTestCollections([]*types.TestCollection{first, second})

	require.Len(t, ordered, 2)
	assert.Same(t, first, ordered[0])
	assert.Same(t, second, ordered[1])
}
