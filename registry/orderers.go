package registry

import (
	"sort"

	"github.com/harnesslab/harness/types"
)

// Names the built-in strategies are registered under.
const (
	DeclarationOrderName      = "declaration-order"
	ByNameOrderName           = "by-name"
	CollectionPerClassName    = "collection-per-class"
	CollectionPerAssemblyName = "collection-per-assembly"
)

// DeclarationOrderer is the default test-case orderer: stable declaration
// order, exactly as discovery produced the cases.
type DeclarationOrderer struct{}

// OrderTestCases returns a copy of cases in their original order.
func (DeclarationOrderer) OrderTestCases(cases []*types.TestCase) []*types.TestCase {
	out := make([]*types.TestCase, len(cases))
	copy(out, cases)
	return out
}

// ByNameOrderer is the default test-collection orderer: collections grouped
// by display name, ties broken by declaration order.
type ByNameOrderer struct{}

// OrderTestCollections returns a copy of collections sorted by display name.
func (ByNameOrderer) OrderTestCollections(collections []*types.TestCollection) []*types.TestCollection {
	out := make([]*types.TestCollection, len(collections))
	copy(out, collections)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

// DefaultCaseOrderer returns the built-in default test-case ordering
// strategy.
func DefaultCaseOrderer() types.TestCaseOrderer {
	return DeclarationOrderer{}
}

// DefaultCollectionOrderer returns the built-in default test-collection
// ordering strategy.
func DefaultCollectionOrderer() types.TestCollectionOrderer {
	return ByNameOrderer{}
}

// DefaultCollectionFactory returns the built-in default grouping strategy.
func DefaultCollectionFactory() types.CollectionFactory {
	return perClassFactory{}
}

type perClassFactory struct{}

func (perClassFactory) DisplayName() string { return "collection-per-class" }

type perAssemblyFactory struct{}

func (perAssemblyFactory) DisplayName() string { return "collection-per-assembly" }
