// Package registry maintains the table of pluggable ordering strategies and
// collection factories, and resolves assembly-level declarations into live
// strategy instances with safe fallback.
package registry

import (
	"sync"

	"github.com/harnesslab/harness/types"
)

// CaseOrdererFactory constructs a test-case orderer. A returned error is
// treated as a construction failure and surfaces as a diagnostic.
type CaseOrdererFactory func() (types.TestCaseOrderer, error)

// CollectionOrdererFactory constructs a test-collection orderer.
type CollectionOrdererFactory func() (types.TestCollectionOrderer, error)

// GroupingFactory constructs a collection factory for the given assembly.
type GroupingFactory func(assembly *types.TestAssembly) (types.CollectionFactory, error)

// Registry maps registered type names to strategy factories. A custom
// strategy becomes resolvable once registered under the name an assembly
// manifest declares.
type Registry struct {
	mu                 sync.RWMutex
	caseOrderers       map[string]CaseOrdererFactory
	collectionOrderers map[string]CollectionOrdererFactory
	groupings          map[string]GroupingFactory
}

// NewRegistry creates a registry pre-populated with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		caseOrderers:       make(map[string]CaseOrdererFactory),
		collectionOrderers: make(map[string]CollectionOrdererFactory),
		groupings:          make(map[string]GroupingFactory),
	}

	r.RegisterCaseOrderer(DeclarationOrderName, func() (types.TestCaseOrderer, error) {
		return DeclarationOrderer{}, nil
	})
	r.RegisterCollectionOrderer(ByNameOrderName, func() (types.TestCollectionOrderer, error) {
		return ByNameOrderer{}, nil
	})
	r.RegisterGrouping(CollectionPerClassName, func(*types.TestAssembly) (types.CollectionFactory, error) {
		return perClassFactory{}, nil
	})
	r.RegisterGrouping(CollectionPerAssemblyName, func(*types.TestAssembly) (types.CollectionFactory, error) {
		return perAssemblyFactory{}, nil
	})

	return r
}

var defaultRegistry = NewRegistry()

// Default returns the shared process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// RegisterCaseOrderer makes a test-case orderer resolvable under name.
func (r *Registry) RegisterCaseOrderer(name string, factory CaseOrdererFactory) {
	if name == "" || factory == nil {
		panic("case orderer registration requires a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caseOrderers[name] = factory
}

// RegisterCollectionOrderer makes a test-collection orderer resolvable under
// name.
func (r *Registry) RegisterCollectionOrderer(name string, factory CollectionOrdererFactory) {
	if name == "" || factory == nil {
		panic("collection orderer registration requires a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectionOrderers[name] = factory
}

// RegisterGrouping makes a collection factory resolvable under name.
func (r *Registry) RegisterGrouping(name string, factory GroupingFactory) {
	if name == "" || factory == nil {
		panic("grouping registration requires a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupings[name] = factory
}

func (r *Registry) lookupCaseOrderer(name string) (CaseOrdererFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.caseOrderers[name]
	return factory, ok
}

func (r *Registry) lookupCollectionOrderer(name string) (CollectionOrdererFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.collectionOrderers[name]
	return factory, ok
}

func (r *Registry) lookupGrouping(name string) (GroupingFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.groupings[name]
	return factory, ok
}
