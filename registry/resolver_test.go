package registry

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harnesslab/harness/types"
)

type constructionError struct {
	reason string
}

func (e constructionError) Error() string {
	return e.reason
}

type reverseOrderer struct{}

func (reverseOrderer) OrderTestCases(cases []*types.TestCase) []*types.TestCase {
	out := make([]*types.TestCase, len(cases))
	for i, c := range cases {
		out[len(cases)-1-i] = c
	}
	return out
}

func newTestResolver(t *testing.T) (*Resolver, *types.DiagnosticSink, *Registry) {
	t.Helper()
	reg := NewRegistry()
	sink := types.NewDiagnosticSink()
	return NewResolver(reg, sink, log.NewLogger(log.DiscardHandler())), sink, reg
}

func TestNewResolverFailsFastOnNilArguments(t *testing.T) {
	sink := types.NewDiagnosticSink()
	assert.Panics(t, func() { NewResolver(nil, sink, nil) })
	assert.Panics(t, func() { NewResolver(NewRegistry(), nil, nil) })
}

func TestResolveCaseOrdererNoDescriptorUsesDefault(t *testing.T) {
	resolver, sink, _ := newTestResolver(t)

	orderer := resolver.ResolveCaseOrderer(nil, nil)

	assert.IsType(t, DeclarationOrderer{}, orderer)
	assert.Empty(t, sink.Messages())
}

func TestResolveCaseOrdererOverrideSkipsResolution(t *testing.T) {
	resolver, sink, _ := newTestResolver(t)
	override := reverseOrderer{}

	// The descriptor is unresolvable, but the override wins unconditionally
	// so no diagnostic may be emitted.
	desc := &types.OrdererDescriptor{TypeName: "UnknownType", AssemblyName: "UnknownAssembly"}
	orderer := resolver.ResolveCaseOrderer(override, desc)

	assert.Equal(t, override, orderer)
	assert.Empty(t, sink.Messages())
}

func TestResolveCaseOrdererUnknownTypeFallsBack(t *testing.T) {
	resolver, sink, _ := newTestResolver(t)
	desc := &types.OrdererDescriptor{TypeName: "UnknownType", AssemblyName: "UnknownAssembly"}

	orderer := resolver.ResolveCaseOrderer(nil, desc)

	assert.IsType(t, DeclarationOrderer{}, orderer)
	messages := sink.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t,
		"Could not find type 'UnknownType' in UnknownAssembly for assembly-level test case orderer",
		messages[0].Message)
}

func TestResolveCollectionOrdererUnknownTypeFallsBack(t *testing.T) {
	resolver, sink, _ := newTestResolver(t)
	desc := &types.OrdererDescriptor{TypeName: "UnknownType", AssemblyName: "UnknownAssembly"}

	orderer := resolver.ResolveCollectionOrderer(nil, desc)

	assert.IsType(t, ByNameOrderer{}, orderer)
	messages := sink.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t,
		"Could not find type 'UnknownType' in UnknownAssembly for assembly-level test collection orderer",
		messages[0].Message)
}

func TestResolveCaseOrdererConstructionError(t *testing.T) {
	resolver, sink, reg := newTestResolver(t)
	reg.RegisterCaseOrderer("BrokenOrderer", func() (types.TestCaseOrderer, error) {
		return nil, constructionError{reason: "attribute value out of range"}
	})
	desc := &types.OrdererDescriptor{TypeName: "BrokenOrderer", AssemblyName: "test.assembly"}

	orderer := resolver.ResolveCaseOrderer(nil, desc)

	assert.IsType(t, DeclarationOrderer{}, orderer)
	messages := sink.Messages()
	require.Len(t, messages, 1)
	expected := fmt.Sprintf(
		"Assembly-level test case orderer 'BrokenOrderer' threw '%T' during construction: attribute value out of range",
		constructionError{})
	assert.Equal(t, expected, messages[0].Message)
}

func TestResolveCollectionOrdererConstructionPanicIsCaptured(t *testing.T) {
	resolver, sink, reg := newTestResolver(t)
	reg.RegisterCollectionOrderer("PanickyOrderer", func() (types.TestCollectionOrderer, error) {
		panic("boom")
	})
	desc := &types.OrdererDescriptor{TypeName: "PanickyOrderer", AssemblyName: "test.assembly"}

	var orderer types.TestCollectionOrderer
	require.NotPanics(t, func() {
		orderer = resolver.ResolveCollectionOrderer(nil, desc)
	})

	assert.IsType(t, ByNameOrderer{}, orderer)
	messages := sink.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Message,
		"Assembly-level test collection orderer 'PanickyOrderer' threw ")
	assert.Contains(t, messages[0].Message, "panic: boom")
}

func TestResolveCaseOrdererResolvesRegisteredType(t *testing.T) {
	resolver, sink, reg := newTestResolver(t)
	reg.RegisterCaseOrderer("ReverseOrderer", func() (types.TestCaseOrderer, error) {
		return reverseOrderer{}, nil
	})
	desc := &types.OrdererDescriptor{TypeName: "ReverseOrderer", AssemblyName: "test.assembly"}

	orderer := resolver.ResolveCaseOrderer(nil, desc)

	assert.IsType(t, reverseOrderer{}, orderer)
	assert.Empty(t, sink.Messages())
}

func TestResolveCollectionFactory(t *testing.T) {
	resolver, sink, reg := newTestResolver(t)
	assembly := &types.TestAssembly{Name: "example"}

	tests := []struct {
		name         string
		typeName     string
		expectedName string
	}{
		{name: "empty name uses per-class default", typeName: "", expectedName: "collection-per-class"},
		{name: "per-assembly builtin", typeName: CollectionPerAssemblyName, expectedName: "collection-per-assembly"},
		{name: "unknown name falls back silently", typeName: "UnknownFactory", expectedName: "collection-per-class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := resolver.ResolveCollectionFactory(tt.typeName, assembly)
			assert.Equal(t, tt.expectedName, factory.DisplayName())
		})
	}

	// Factory resolution never raises diagnostics, even on failure.
	reg.RegisterGrouping("BrokenFactory", func(*types.TestAssembly) (types.CollectionFactory, error) {
		return nil, constructionError{reason: "no assembly"}
	})
	factory := resolver.ResolveCollectionFactory("BrokenFactory", assembly)
	assert.Equal(t, "collection-per-class", factory.DisplayName())
	assert.Empty(t, sink.Messages())
}

func TestResolveCollectionFactoryCustomDisplayName(t *testing.T) {
	resolver, _, reg := newTestResolver(t)
	reg.RegisterGrouping("CustomFactory", func(assembly *types.TestAssembly) (types.CollectionFactory, error) {
		return customFactory{assembly: assembly}, nil
	})

	assembly := &types.TestAssembly{Name: "example"}
	factory := resolver.ResolveCollectionFactory("CustomFactory", assembly)

	assert.Equal(t, "custom grouping for example", factory.DisplayName())
}

type customFactory struct {
	assembly *types.TestAssembly
}

func (f customFactory) DisplayName() string {
	return "custom grouping for " + f.assembly.Name
}
