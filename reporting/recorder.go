package reporting

import (
	"sync"
	"time"

	"github.com/harnesslab/harness/types"
)

// CollectionOutcome pairs a finished collection with its summary.
type CollectionOutcome struct {
	Collection *types.TestCollection
	Summary    types.RunSummary
}

// RunRecorder is a Reporter that records per-collection outcomes in
// completion order, for rendering a results table after the run.
type RunRecorder struct {
	mu       sync.Mutex
	outcomes []CollectionOutcome
}

// NewRunRecorder creates an empty recorder.
func NewRunRecorder() *RunRecorder {
	return &RunRecorder{}
}

func (r *RunRecorder) CollectionStarting(*types.TestCollection) {}

func (r *RunRecorder) CollectionFinished(c *types.TestCollection, summary types.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, CollectionOutcome{Collection: c, Summary: summary})
}

func (r *RunRecorder) TestStarting(*types.TestCollection, string)                      {}
func (r *RunRecorder) TestPassed(*types.TestCollection, string, time.Duration)         {}
func (r *RunRecorder) TestFailed(*types.TestCollection, string, time.Duration, string) {}
func (r *RunRecorder) TestSkipped(*types.TestCollection, string, string)               {}
func (r *RunRecorder) CleanupFailure(*types.TestCollection, string, error)             {}

// Outcomes returns a copy of the recorded outcomes.
func (r *RunRecorder) Outcomes() []CollectionOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CollectionOutcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}
