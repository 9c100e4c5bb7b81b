package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "HARNESS"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Manifest = &cli.StringFlag{
		Name:     "manifest",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("MANIFEST"),
		Usage:    "Path to the assembly manifest file (eg. 'assembly.yaml')",
	}
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		Value:   ".",
		EnvVars: prefixEnvVar("WORKDIR"),
		Usage:   "Working directory containing the Go module under test",
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   "go",
		EnvVars: prefixEnvVar("GO_BINARY"),
		Usage:   "Path to the Go binary to use for running tests",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVar("RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	MaxParallelThreads = &cli.IntFlag{
		Name:    "max-parallel-threads",
		Value:   0,
		EnvVars: prefixEnvVar("MAX_PARALLEL_THREADS"),
		Usage:   "Maximum collections running simultaneously. 0 uses the processor count, -1 removes the bound.",
	}
	DisableParallelization = &cli.BoolFlag{
		Name:    "disable-parallelization",
		Value:   false,
		EnvVars: prefixEnvVar("DISABLE_PARALLELIZATION"),
		Usage:   "Run collections strictly one at a time in sorted order",
	}
	CaseOrderer = &cli.StringFlag{
		Name:    "case-orderer",
		Value:   "",
		EnvVars: prefixEnvVar("CASE_ORDERER"),
		Usage:   "Registered name of the test case ordering strategy",
	}
	CollectionOrderer = &cli.StringFlag{
		Name:    "collection-orderer",
		Value:   "",
		EnvVars: prefixEnvVar("COLLECTION_ORDERER"),
		Usage:   "Registered name of the test collection ordering strategy",
	}
	TeamCity = &cli.BoolFlag{
		Name:    "teamcity",
		Value:   false,
		EnvVars: prefixEnvVar("TEAMCITY"),
		Usage:   "Emit TeamCity service messages on stdout",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "Lowest log level that will be output",
	}
)

var requiredFlags = []cli.Flag{
	Manifest,
}

var optionalFlags = []cli.Flag{
	WorkDir,
	GoBinary,
	RunInterval,
	MaxParallelThreads,
	DisableParallelization,
	CaseOrderer,
	CollectionOrderer,
	TeamCity,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
