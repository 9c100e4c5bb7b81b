// Package harness orchestrates the execution of a test assembly: it resolves
// the configured ordering strategies, derives the effective concurrency
// schedule, and drives the collection scheduler to completion.
package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/harnesslab/harness/metrics"
	"github.com/harnesslab/harness/registry"
	"github.com/harnesslab/harness/reporting"
	"github.com/harnesslab/harness/runner"
	"github.com/harnesslab/harness/types"
)

// Config holds the collaborators and settings for one AssemblyRunner.
type Config struct {
	Assembly *types.TestAssembly
	Options  *types.ExecutionOptions
	Executor runner.CollectionExecutor

	Registry    *registry.Registry    // defaults to the process-wide registry
	Reporter    reporting.Reporter    // optional
	Diagnostics *types.DiagnosticSink // optional
	Log         log.Logger
}

// AssemblyRunner runs one test assembly. Initialization and execution are
// split so that a host can surface the environment description and any
// configuration diagnostics before tests start.
type AssemblyRunner struct {
	config Config
	runID  string
	log    log.Logger

	initOnce sync.Once
	closed   atomic.Bool

	caseOrderer       types.TestCaseOrderer
	collectionOrderer types.TestCollectionOrderer
	grouping          types.CollectionFactory
	schedule          runner.Schedule
}

// NewAssemblyRunner creates a runner for one assembly.
func NewAssemblyRunner(cfg Config) (*AssemblyRunner, error) {
	if cfg.Assembly == nil {
		return nil, errors.New("assembly is required")
	}
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.Default()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = reporting.NopReporter{}
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = types.NewDiagnosticSink()
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	return &AssemblyRunner{
		config: cfg,
		runID:  uuid.New().String(),
		log:    cfg.Log.New("component", "assembly-runner", "assembly", cfg.Assembly.Name),
	}, nil
}

// Initialize resolves the ordering strategies and concurrency schedule from
// the assembly configuration and explicit options. It is idempotent: repeated
// calls observe the first call's outcome and emit no further diagnostics.
// Run calls it implicitly; calling it earlier lets hosts read the environment
// description before execution.
func (r *AssemblyRunner) Initialize() {
	r.initOnce.Do(func() {
		cfg := r.config.Assembly.Config
		resolver := registry.NewResolver(r.config.Registry, r.config.Diagnostics, r.config.Log)

		var overrideCase types.TestCaseOrderer
		var overrideCollection types.TestCollectionOrderer
		if r.config.Options != nil {
			overrideCase = r.config.Options.CaseOrderer
			overrideCollection = r.config.Options.CollectionOrderer
		}

		r.caseOrderer = resolver.ResolveCaseOrderer(overrideCase, cfg.CaseOrderer)
		r.collectionOrderer = resolver.ResolveCollectionOrderer(overrideCollection, cfg.CollectionOrderer)
		r.grouping = resolver.ResolveCollectionFactory(cfg.CollectionFactory, r.config.Assembly)
		r.schedule = runner.ScheduleFor(r.config.Options, cfg)

		r.log.Info("Assembly runner initialized",
			"runID", r.runID,
			"environment", r.environmentDescription(),
			"collections", len(r.config.Assembly.Collections))
	})
}

// Run executes the assembly once and returns the aggregated summary. The
// summary reflects whatever completed even when ctx is cancelled mid-run;
// cancellation is not an error.
func (r *AssemblyRunner) Run(ctx context.Context) (types.RunSummary, error) {
	if r.closed.Load() {
		return types.RunSummary{}, errors.New("assembly runner is closed")
	}
	r.Initialize()

	ordered := r.orderedWork()

	scheduler := runner.NewScheduler(runner.SchedulerConfig{
		Executor: r.config.Executor,
		Schedule: r.schedule,
		Log:      r.config.Log,
		Reporter: r.config.Reporter,
	})

	summary := scheduler.Run(ctx, ordered)

	metrics.RecordRun(r.config.Assembly.Name, r.runID, summary)
	r.log.Info("Assembly run completed", "runID", r.runID, "summary", summary.String())
	return summary, nil
}

// orderedWork applies the resolved collection orderer across collections and
// the resolved case orderer within each.
func (r *AssemblyRunner) orderedWork() []runner.OrderedCollection {
	collections := r.collectionOrderer.OrderTestCollections(r.config.Assembly.Collections)
	ordered := make([]runner.OrderedCollection, 0, len(collections))
	for _, c := range collections {
		ordered = append(ordered, runner.OrderedCollection{
			Collection: c,
			Cases:      r.caseOrderer.OrderTestCases(c.Cases),
		})
	}
	return ordered
}

// RunID returns the unique identifier of this runner's run.
func (r *AssemblyRunner) RunID() string {
	return r.runID
}

// Diagnostics returns the sink holding configuration diagnostics.
func (r *AssemblyRunner) Diagnostics() *types.DiagnosticSink {
	return r.config.Diagnostics
}

// Close releases the runner. Further Run calls fail; closing twice is safe.
func (r *AssemblyRunner) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.config.Diagnostics.Close()
	}
}

// TestFrameworkEnvironment returns the human-readable description of the
// effective execution environment, e.g.
// "[collection-per-class, parallel (4 threads)]". Initialize must run first;
// this method triggers it if needed.
func (r *AssemblyRunner) TestFrameworkEnvironment() string {
	r.Initialize()
	return r.environmentDescription()
}

func (r *AssemblyRunner) environmentDescription() string {
	return fmt.Sprintf("[%s, %s]", r.grouping.DisplayName(), parallelismDescription(r.schedule))
}

func parallelismDescription(schedule runner.Schedule) string {
	switch schedule.Mode {
	case runner.ModeDisabled:
		return "non-parallel"
	case runner.ModeUnbounded:
		return "parallel (unlimited threads)"
	default:
		return fmt.Sprintf("parallel (%d threads)", schedule.MaxWorkers)
	}
}
