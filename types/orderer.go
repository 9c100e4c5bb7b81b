package types

// OrdererDescriptor identifies a user-declared ordering strategy by its
// registered type name and the assembly that declared it. Descriptors are
// resolved lazily into live strategy instances, or discarded in favor of a
// default when resolution fails.
type OrdererDescriptor struct {
	TypeName     string `yaml:"type"`
	AssemblyName string `yaml:"assembly"`
}

// TestCaseOrderer controls the execution order of test cases within a
// collection.
type TestCaseOrderer interface {
	OrderTestCases(cases []*TestCase) []*TestCase
}

// TestCollectionOrderer controls the execution order of collections within a
// run.
type TestCollectionOrderer interface {
	OrderTestCollections(collections []*TestCollection) []*TestCollection
}

// CollectionFactory is the strategy that partitioned discovered tests into
// collections. The scheduler only consumes its display name; the partitioning
// itself happens during discovery.
type CollectionFactory interface {
	DisplayName() string
}
