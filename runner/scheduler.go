package runner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/harnesslab/harness/reporting"
	"github.com/harnesslab/harness/types"
)

// ParallelMode selects how collection-level concurrency is bounded.
type ParallelMode int

const (
	// ModeDisabled executes collections strictly one at a time, in sorted
	// order, on the dispatching goroutine. This is a stronger guarantee than
	// a cap of 1: both dispatch and completion are sequential.
	ModeDisabled ParallelMode = iota

	// ModeBounded allows at most MaxWorkers collection executions in flight.
	ModeBounded

	// ModeUnbounded starts every collection immediately.
	ModeUnbounded
)

func (m ParallelMode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeBounded:
		return "bounded"
	case ModeUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("ParallelMode(%d)", int(m))
	}
}

// Schedule is one run's effective concurrency configuration.
type Schedule struct {
	Mode       ParallelMode
	MaxWorkers int // bounded mode only
}

// ScheduleFor derives the effective schedule from the explicit options and
// the assembly attribute, applying the per-field precedence rule. An
// unconfigured thread cap defaults to the processor count.
func ScheduleFor(options *types.ExecutionOptions, cfg types.AssemblyConfig) Schedule {
	if options.EffectiveDisableParallelization(cfg) {
		return Schedule{Mode: ModeDisabled}
	}
	switch threads := options.EffectiveMaxThreads(cfg); {
	case threads == types.MaxThreadsUnlimited:
		return Schedule{Mode: ModeUnbounded}
	case threads > 0:
		return Schedule{Mode: ModeBounded, MaxWorkers: threads}
	default:
		return Schedule{Mode: ModeBounded, MaxWorkers: runtime.NumCPU()}
	}
}

// SchedulerConfig holds configuration for creating a Scheduler.
type SchedulerConfig struct {
	Executor CollectionExecutor
	Schedule Schedule
	Log      log.Logger
	Reporter reporting.Reporter // optional
}

// Scheduler dispatches an ordered sequence of collections to an executor,
// bounding how many run simultaneously, and aggregates their summaries. A
// single cancellation signal is shared by all in-flight and pending work: once
// it fires no new dispatch begins, and in-flight executors are expected to
// observe it themselves.
type Scheduler struct {
	executor CollectionExecutor
	schedule Schedule
	log      log.Logger
	reporter reporting.Reporter
	tracer   trace.Tracer
}

// NewScheduler creates a scheduler with validation. A nil executor or an
// invalid bound indicates an integration bug and fails fast.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Executor == nil {
		panic("executor cannot be nil")
	}
	if cfg.Schedule.Mode == ModeBounded && cfg.Schedule.MaxWorkers < 1 {
		panic("bounded schedule requires at least one worker")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = reporting.NopReporter{}
	}

	return &Scheduler{
		executor: cfg.Executor,
		schedule: cfg.Schedule,
		log:      cfg.Log.New("component", "scheduler"),
		reporter: cfg.Reporter,
		tracer:   otel.Tracer("collection scheduler"),
	}
}

// Run executes every collection exactly once and returns the commutative
// aggregate of their summaries. Collections not yet dispatched when ctx is
// cancelled are skipped; the partial aggregate is still returned, never an
// error.
func (s *Scheduler) Run(ctx context.Context, collections []OrderedCollection) types.RunSummary {
	if len(collections) == 0 {
		s.log.Debug("No collections to execute")
		return types.RunSummary{}
	}

	start := time.Now()
	s.log.Info("Starting collection execution",
		"collections", len(collections), "mode", s.schedule.Mode, "maxWorkers", s.schedule.MaxWorkers)

	var total types.RunSummary
	switch s.schedule.Mode {
	case ModeDisabled:
		total = s.runSequential(ctx, collections)
	case ModeUnbounded:
		total = s.runUnbounded(ctx, collections)
	default:
		total = s.runBounded(ctx, collections)
	}

	s.log.Info("Collection execution completed",
		"wallClock", time.Since(start), "status", total.Status(),
		"total", total.Total, "failed", total.Failed, "skipped", total.Skipped)
	return total
}

// runSequential preserves strict order-of-appearance execution: collection
// i+1 never starts before collection i has completed.
func (s *Scheduler) runSequential(ctx context.Context, collections []OrderedCollection) types.RunSummary {
	var total types.RunSummary
	for i, work := range collections {
		if ctx.Err() != nil {
			s.log.Debug("Cancellation observed, skipping remaining collections", "remaining", len(collections)-i)
			break
		}
		total.Aggregate(s.executeOne(ctx, work))
	}
	return total
}

func (s *Scheduler) runBounded(ctx context.Context, collections []OrderedCollection) types.RunSummary {
	// Conservative buffering keeps memory flat regardless of collection count.
	bufferSize := min(s.schedule.MaxWorkers*2, 100)
	workChan := make(chan OrderedCollection, bufferSize)
	resultChan := make(chan types.RunSummary, bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < s.schedule.MaxWorkers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, i, workChan, resultChan)
	}

	// Feed work in sorted order; stop dispatching once cancelled.
	go func() {
		defer close(workChan)
		for _, work := range collections {
			select {
			case workChan <- work:
			case <-ctx.Done():
				s.log.Debug("Context cancelled while dispatching collections")
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var total types.RunSummary
	for summary := range resultChan {
		total.Aggregate(summary)
	}
	return total
}

func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, id int, workChan <-chan OrderedCollection, resultChan chan<- types.RunSummary) {
	defer wg.Done()

	workerID := fmt.Sprintf("worker-%d", id)
	s.log.Debug("Worker starting", "workerID", workerID)
	defer s.log.Debug("Worker exiting", "workerID", workerID)

	for {
		select {
		case work, ok := <-workChan:
			if !ok {
				return
			}
			s.log.Debug("Worker executing collection", "workerID", workerID, "collection", work.Collection.DisplayName)
			summary := s.executeOne(ctx, work)
			select {
			case resultChan <- summary:
			case <-ctx.Done():
				s.log.Debug("Context cancelled while reporting result", "workerID", workerID)
				return
			}
		case <-ctx.Done():
			s.log.Debug("Worker received cancellation", "workerID", workerID)
			return
		}
	}
}

func (s *Scheduler) runUnbounded(ctx context.Context, collections []OrderedCollection) types.RunSummary {
	var (
		mu    sync.Mutex
		total types.RunSummary
		wg    sync.WaitGroup
	)

	for i, work := range collections {
		if ctx.Err() != nil {
			s.log.Debug("Cancellation observed, skipping remaining collections", "remaining", len(collections)-i)
			break
		}
		wg.Add(1)
		go func(work OrderedCollection) {
			defer wg.Done()
			summary := s.executeOne(ctx, work)
			mu.Lock()
			total.Aggregate(summary)
			mu.Unlock()
		}(work)
	}

	wg.Wait()
	return total
}

// executeOne runs a single collection through the executor, converting an
// executor error into a failed-test accounting entry.
func (s *Scheduler) executeOne(ctx context.Context, work OrderedCollection) types.RunSummary {
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("collection %s", work.Collection.DisplayName))
	defer span.End()

	s.reporter.CollectionStarting(work.Collection)

	start := time.Now()
	summary, err := s.executor.ExecuteCollection(ctx, work.Collection, work.Cases)
	if err != nil {
		s.log.Error("Collection execution failed",
			"collection", work.Collection.DisplayName, "error", err)
		summary = types.RunSummary{Total: 1, Failed: 1, Time: time.Since(start)}
	}

	s.reporter.CollectionFinished(work.Collection, summary)
	return summary
}
