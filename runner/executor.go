// Package runner contains the collection-level concurrency scheduler and the
// executors it dispatches to.
package runner

import (
	"context"

	"github.com/harnesslab/harness/types"
)

// CollectionExecutor executes a single test collection and reports its
// summary. The cases slice arrives already sorted by the resolved test-case
// orderer. Implementations must observe ctx cooperatively; the scheduler
// never force-kills in-flight work. A returned error is accounted as one
// failed test in the collection's summary and does not affect sibling
// collections.
type CollectionExecutor interface {
	ExecuteCollection(ctx context.Context, collection *types.TestCollection, cases []*types.TestCase) (types.RunSummary, error)
}

// CollectionExecutorFunc adapts a function to the CollectionExecutor
// interface.
type CollectionExecutorFunc func(ctx context.Context, collection *types.TestCollection, cases []*types.TestCase) (types.RunSummary, error)

func (f CollectionExecutorFunc) ExecuteCollection(ctx context.Context, collection *types.TestCollection, cases []*types.TestCase) (types.RunSummary, error) {
	return f(ctx, collection, cases)
}

// OrderedCollection is one unit of scheduler work: a collection plus its
// cases in resolved execution order.
type OrderedCollection struct {
	Collection *types.TestCollection
	Cases      []*types.TestCase
}
