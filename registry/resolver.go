package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/harnesslab/harness/types"
)

const (
	axisTestCase       = "test case"
	axisTestCollection = "test collection"
)

// Resolver applies the assembly-level resolution protocol: an explicit
// override instance wins unconditionally; otherwise a declared descriptor is
// looked up and constructed, falling back to the default with exactly one
// diagnostic on failure. Resolution never raises to the caller.
type Resolver struct {
	registry *Registry
	sink     *types.DiagnosticSink
	log      log.Logger
}

// NewResolver creates a resolver. A nil registry or sink indicates an
// integration bug and fails fast.
func NewResolver(registry *Registry, sink *types.DiagnosticSink, logger log.Logger) *Resolver {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if sink == nil {
		panic("diagnostic sink cannot be nil")
	}
	if logger == nil {
		logger = log.New()
	}
	return &Resolver{
		registry: registry,
		sink:     sink,
		log:      logger.New("component", "resolver"),
	}
}

// ResolveCaseOrderer resolves the effective test-case orderer for a run.
func (r *Resolver) ResolveCaseOrderer(override types.TestCaseOrderer, desc *types.OrdererDescriptor) types.TestCaseOrderer {
	if override != nil {
		r.log.Debug("Using explicit test case orderer override")
		return override
	}
	if desc == nil {
		return DefaultCaseOrderer()
	}

	factory, ok := r.registry.lookupCaseOrderer(desc.TypeName)
	if !ok {
		r.reportUnresolvable(axisTestCase, desc)
		return DefaultCaseOrderer()
	}

	orderer, err := constructCaseOrderer(factory)
	if err != nil {
		r.reportConstructionFailure(axisTestCase, desc, err)
		return DefaultCaseOrderer()
	}
	r.log.Debug("Resolved test case orderer", "type", desc.TypeName)
	return orderer
}

// ResolveCollectionOrderer resolves the effective test-collection orderer for
// a run.
func (r *Resolver) ResolveCollectionOrderer(override types.TestCollectionOrderer, desc *types.OrdererDescriptor) types.TestCollectionOrderer {
	if override != nil {
		r.log.Debug("Using explicit test collection orderer override")
		return override
	}
	if desc == nil {
		return DefaultCollectionOrderer()
	}

	factory, ok := r.registry.lookupCollectionOrderer(desc.TypeName)
	if !ok {
		r.reportUnresolvable(axisTestCollection, desc)
		return DefaultCollectionOrderer()
	}

	orderer, err := constructCollectionOrderer(factory)
	if err != nil {
		r.reportConstructionFailure(axisTestCollection, desc, err)
		return DefaultCollectionOrderer()
	}
	r.log.Debug("Resolved test collection orderer", "type", desc.TypeName)
	return orderer
}

// ResolveCollectionFactory resolves the declared collection factory, or the
// collection-per-class default when the name is empty or unresolvable.
// Factory resolution emits no diagnostics; callers may only be asking for the
// human-readable grouping name.
func (r *Resolver) ResolveCollectionFactory(typeName string, assembly *types.TestAssembly) types.CollectionFactory {
	if typeName == "" {
		return DefaultCollectionFactory()
	}

	grouping, ok := r.registry.lookupGrouping(typeName)
	if !ok {
		r.log.Debug("Collection factory not registered, using default", "type", typeName)
		return DefaultCollectionFactory()
	}

	factory, err := constructGrouping(grouping, assembly)
	if err != nil {
		r.log.Debug("Collection factory construction failed, using default", "type", typeName, "error", err)
		return DefaultCollectionFactory()
	}
	return factory
}

func (r *Resolver) reportUnresolvable(axis string, desc *types.OrdererDescriptor) {
	r.log.Warn("Orderer type not found", "axis", axis, "type", desc.TypeName, "assembly", desc.AssemblyName)
	r.sink.Append("Could not find type '%s' in %s for assembly-level %s orderer",
		desc.TypeName, desc.AssemblyName, axis)
}

func (r *Resolver) reportConstructionFailure(axis string, desc *types.OrdererDescriptor, err error) {
	r.log.Warn("Orderer construction failed", "axis", axis, "type", desc.TypeName, "error", err)
	r.sink.Append("Assembly-level %s orderer '%s' threw '%T' during construction: %s",
		axis, desc.TypeName, err, err.Error())
}

// The construct helpers convert a panicking factory into an ordinary
// construction error so that resolution can never raise to the caller.

func constructCaseOrderer(factory CaseOrdererFactory) (orderer types.TestCaseOrderer, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return factory()
}

func constructCollectionOrderer(factory CollectionOrdererFactory) (orderer types.TestCollectionOrderer, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return factory()
}

func constructGrouping(factory GroupingFactory, assembly *types.TestAssembly) (grouping types.CollectionFactory, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return factory(assembly)
}
