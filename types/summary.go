// Package types contains shared types used across the harness scheduler.
package types

import (
	"fmt"
	"time"
)

// RunStatus represents the overall outcome of a unit of execution.
type RunStatus string

const (
	RunStatusPass RunStatus = "pass"
	RunStatusFail RunStatus = "fail"
	RunStatusSkip RunStatus = "skip"
)

// RunSummary captures the aggregate outcome counters for a unit of execution:
// a single test collection, or an entire assembly run.
type RunSummary struct {
	Total   int
	Failed  int
	Skipped int
	Time    time.Duration
}

// Aggregate folds another summary into this one. Aggregation is associative
// and commutative, so workers may merge summaries in completion order rather
// than dispatch order.
func (s *RunSummary) Aggregate(other RunSummary) {
	s.Total += other.Total
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Time += other.Time
}

// Passed returns the number of tests that ran and passed.
func (s RunSummary) Passed() int {
	return s.Total - s.Failed - s.Skipped
}

// Status derives the overall status from the counters. A run with no
// executed tests counts as skipped.
func (s RunSummary) Status() RunStatus {
	if s.Failed > 0 {
		return RunStatusFail
	}
	if s.Total == s.Skipped {
		return RunStatusSkip
	}
	return RunStatusPass
}

// String returns a one-line representation of the summary.
func (s RunSummary) String() string {
	return fmt.Sprintf("Total: %d, Passed: %d, Failed: %d, Skipped: %d (%.1fs)",
		s.Total, s.Passed(), s.Failed, s.Skipped, s.Time.Seconds())
}
