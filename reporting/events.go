// Package reporting carries structured lifecycle events from the scheduler to
// reporter sinks, and provides concrete sinks for build systems and the
// console.
package reporting

import (
	"time"

	"github.com/harnesslab/harness/types"
)

// Reporter receives structured lifecycle events during a run. Events may
// arrive from multiple workers concurrently; implementations must be safe for
// concurrent use.
type Reporter interface {
	CollectionStarting(collection *types.TestCollection)
	CollectionFinished(collection *types.TestCollection, summary types.RunSummary)
	TestStarting(collection *types.TestCollection, testName string)
	TestPassed(collection *types.TestCollection, testName string, duration time.Duration)
	TestFailed(collection *types.TestCollection, testName string, duration time.Duration, output string)
	TestSkipped(collection *types.TestCollection, testName string, reason string)
	CleanupFailure(collection *types.TestCollection, name string, err error)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) CollectionStarting(*types.TestCollection)                          {}
func (NopReporter) CollectionFinished(*types.TestCollection, types.RunSummary)        {}
func (NopReporter) TestStarting(*types.TestCollection, string)                        {}
func (NopReporter) TestPassed(*types.TestCollection, string, time.Duration)           {}
func (NopReporter) TestFailed(*types.TestCollection, string, time.Duration, string)   {}
func (NopReporter) TestSkipped(*types.TestCollection, string, string)                 {}
func (NopReporter) CleanupFailure(*types.TestCollection, string, error)               {}

// MultiReporter fans every event out to each of the given reporters, in
// order.
func MultiReporter(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

type multiReporter []Reporter

func (m multiReporter) CollectionStarting(c *types.TestCollection) {
	for _, r := range m {
		r.CollectionStarting(c)
	}
}

func (m multiReporter) CollectionFinished(c *types.TestCollection, summary types.RunSummary) {
	for _, r := range m {
		r.CollectionFinished(c, summary)
	}
}

func (m multiReporter) TestStarting(c *types.TestCollection, testName string) {
	for _, r := range m {
		r.TestStarting(c, testName)
	}
}

func (m multiReporter) TestPassed(c *types.TestCollection, testName string, duration time.Duration) {
	for _, r := range m {
		r.TestPassed(c, testName, duration)
	}
}

func (m multiReporter) TestFailed(c *types.TestCollection, testName string, duration time.Duration, output string) {
	for _, r := range m {
		r.TestFailed(c, testName, duration, output)
	}
}

func (m multiReporter) TestSkipped(c *types.TestCollection, testName string, reason string) {
	for _, r := range m {
		r.TestSkipped(c, testName, reason)
	}
}

func (m multiReporter) CleanupFailure(c *types.TestCollection, name string, err error) {
	for _, r := range m {
		r.CleanupFailure(c, name, err)
	}
}
