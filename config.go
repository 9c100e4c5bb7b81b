package harness

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/harnesslab/harness/flags"
	"github.com/harnesslab/harness/types"
)

// CLIConfig holds the application configuration derived from the command
// line.
type CLIConfig struct {
	Manifest    string
	WorkDir     string
	GoBinary    string
	RunInterval time.Duration // Interval between test runs
	RunOnce     bool          // Indicates if the service should exit after one test run
	Options     *types.ExecutionOptions
	TeamCity    bool // Emit TeamCity service messages
	Log         log.Logger
}

// NewCLIConfig creates a new CLIConfig from cli context
func NewCLIConfig(ctx *cli.Context, logger log.Logger) (*CLIConfig, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	manifest, err := filepath.Abs(ctx.String(flags.Manifest.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for manifest '%s': %w", ctx.String(flags.Manifest.Name), err)
	}
	workDir, err := filepath.Abs(ctx.String(flags.WorkDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for work directory '%s': %w", ctx.String(flags.WorkDir.Name), err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &CLIConfig{
		Manifest:    manifest,
		WorkDir:     workDir,
		GoBinary:    ctx.String(flags.GoBinary.Name),
		RunInterval: runInterval,
		RunOnce:     runOnce,
		Options:     optionsFromContext(ctx),
		TeamCity:    ctx.Bool(flags.TeamCity.Name),
		Log:         logger,
	}, nil
}

// optionsFromContext builds the explicit execution options. Only flags the
// user actually set become explicit; everything else stays unset so that
// assembly-level attributes keep their say.
func optionsFromContext(ctx *cli.Context) *types.ExecutionOptions {
	options := &types.ExecutionOptions{}
	if ctx.IsSet(flags.DisableParallelization.Name) {
		options.DisableParallelization = types.Ptr(ctx.Bool(flags.DisableParallelization.Name))
	}
	if ctx.IsSet(flags.MaxParallelThreads.Name) {
		options.MaxParallelThreads = types.Ptr(ctx.Int(flags.MaxParallelThreads.Name))
	}
	return options
}

// CaseOrdererName returns the CLI-selected case orderer name, if any.
func CaseOrdererName(ctx *cli.Context) string {
	return ctx.String(flags.CaseOrderer.Name)
}

// CollectionOrdererName returns the CLI-selected collection orderer name, if
// any.
func CollectionOrdererName(ctx *cli.Context) string {
	return ctx.String(flags.CollectionOrderer.Name)
}
