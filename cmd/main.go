package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	harness "github.com/harnesslab/harness"
	"github.com/harnesslab/harness/discovery"
	"github.com/harnesslab/harness/exitcodes"
	"github.com/harnesslab/harness/flags"
	"github.com/harnesslab/harness/reporting"
	"github.com/harnesslab/harness/runner"
	"github.com/harnesslab/harness/service"
	"github.com/harnesslab/harness/types"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "harness"
	app.Usage = "Parallel test assembly runner for Go modules"
	app.Description = "harness schedules and executes Go test collections with configurable ordering and concurrency"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if harness.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if harness.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				// Unspecified errors default to a test failure exit
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	// Start CLI
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	logger, err := newLogger(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return harness.NewRuntimeError(fmt.Errorf("failed to configure logging: %w", err))
	}
	log.SetDefault(logger)

	cfg, err := harness.NewCLIConfig(ctx, logger)
	if err != nil {
		return harness.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	loader, err := discovery.NewLoader(discovery.Config{
		Log:          logger,
		ManifestPath: cfg.Manifest,
		WorkDir:      cfg.WorkDir,
	})
	if err != nil {
		return harness.NewRuntimeError(fmt.Errorf("failed to create loader: %w", err))
	}
	assembly, err := loader.Load()
	if err != nil {
		return harness.NewRuntimeError(fmt.Errorf("failed to load assembly: %w", err))
	}
	applyOrdererFlags(ctx, assembly)

	summary, err := runTests(ctx.Context, cfg, assembly)
	if err != nil {
		logger.Error("Runtime error running tests", "error", err)
		return err
	}

	if cfg.RunOnce {
		if summary.Status() == types.RunStatusFail {
			logger.Warn("Run-once test run completed with failures, returning exit code 1")
			return harness.NewTestFailureError(summary.String())
		}
		return nil
	}

	// Periodic mode: keep running at the configured interval until the
	// process is signalled.
	logger.Info("Running in continuous mode", "interval", cfg.RunInterval)
	for {
		select {
		case <-time.After(cfg.RunInterval):
			logger.Info("Running periodic tests")
			if _, err := runTests(ctx.Context, cfg, assembly); err != nil {
				logger.Error("Error running periodic tests", "error", err)
			}
		case <-ctx.Context.Done():
			logger.Info("Shutdown requested, stopping periodic test runner")
			return nil
		}
	}
}

// runTests executes one full assembly run and renders its results.
func runTests(ctx context.Context, cfg *harness.CLIConfig, assembly *types.TestAssembly) (types.RunSummary, error) {
	recorder := reporting.NewRunRecorder()
	reporters := []reporting.Reporter{recorder}
	if cfg.TeamCity {
		reporters = append(reporters, reporting.NewTeamCityReporter(os.Stdout))
	}
	reporter := reporting.MultiReporter(reporters...)

	executor, err := runner.NewGoTestExecutor(runner.GoTestConfig{
		WorkDir:  cfg.WorkDir,
		GoBinary: cfg.GoBinary,
		Log:      cfg.Log,
		Reporter: reporter,
	})
	if err != nil {
		return types.RunSummary{}, harness.NewRuntimeError(fmt.Errorf("failed to create executor: %w", err))
	}

	diagnostics := types.NewDiagnosticSink()
	diagnostics.SetCallback(func(msg types.DiagnosticMessage) {
		cfg.Log.Warn("Configuration diagnostic", "message", msg.Message)
	})

	assemblyRunner, err := harness.NewAssemblyRunner(harness.Config{
		Assembly:    assembly,
		Options:     cfg.Options,
		Executor:    executor,
		Reporter:    reporter,
		Diagnostics: diagnostics,
		Log:         cfg.Log,
	})
	if err != nil {
		return types.RunSummary{}, harness.NewRuntimeError(fmt.Errorf("failed to create assembly runner: %w", err))
	}
	defer assemblyRunner.Close()

	assemblyRunner.Initialize()
	cfg.Log.Info("Test environment", "environment", assemblyRunner.TestFrameworkEnvironment())

	summary, err := assemblyRunner.Run(ctx)
	if err != nil {
		return types.RunSummary{}, harness.NewRuntimeError(err)
	}

	harness.WriteResultsTable(os.Stdout, assembly.Name, recorder.Outcomes(), summary)
	fmt.Println(summary.String())
	return summary, nil
}

// applyOrdererFlags maps CLI-selected orderer names onto the assembly's
// declarative configuration, taking precedence over the manifest.
func applyOrdererFlags(ctx *cli.Context, assembly *types.TestAssembly) {
	if name := harness.CaseOrdererName(ctx); name != "" {
		assembly.Config.CaseOrderer = &types.OrdererDescriptor{TypeName: name, AssemblyName: assembly.Name}
	}
	if name := harness.CollectionOrdererName(ctx); name != "" {
		assembly.Config.CollectionOrderer = &types.OrdererDescriptor{TypeName: name, AssemblyName: assembly.Name}
	}
}

func newLogger(level string) (log.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stdout, lvl, true)), nil
}
