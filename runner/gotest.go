package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/harnesslab/harness/reporting"
	"github.com/harnesslab/harness/types"
)

// Go test2json action constants for JSON test output.
// See https://cs.opensource.google/go/go/+/master:src/cmd/test2json/main.go
const (
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
)

// DefaultGoBinary is used when no Go binary path is configured.
const DefaultGoBinary = "go"

// testEvent mirrors the go test -json event stream.
type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test,omitempty"`
	Output  string  `json:"Output,omitempty"`
	Elapsed float64 `json:"Elapsed,omitempty"`
}

// GoTestExecutor runs a collection's cases through `go test -json` and folds
// the event stream into a RunSummary, emitting per-test lifecycle events to
// the reporter as results arrive.
type GoTestExecutor struct {
	workDir  string
	goBinary string
	log      log.Logger
	reporter reporting.Reporter
}

// GoTestConfig holds configuration for creating a GoTestExecutor.
type GoTestConfig struct {
	WorkDir  string
	GoBinary string
	Log      log.Logger
	Reporter reporting.Reporter // optional
}

// NewGoTestExecutor creates a new Go test executor.
func NewGoTestExecutor(cfg GoTestConfig) (*GoTestExecutor, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.GoBinary == "" {
		cfg.GoBinary = DefaultGoBinary
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Reporter == nil {
		cfg.Reporter = reporting.NopReporter{}
	}

	return &GoTestExecutor{
		workDir:  cfg.WorkDir,
		goBinary: cfg.GoBinary,
		log:      cfg.Log.New("component", "gotest-executor"),
		reporter: cfg.Reporter,
	}, nil
}

// ExecuteCollection implements CollectionExecutor. Cases are grouped by
// package and each package runs as one `go test` invocation, preserving the
// resolved case order across groups.
func (e *GoTestExecutor) ExecuteCollection(ctx context.Context, collection *types.TestCollection, cases []*types.TestCase) (types.RunSummary, error) {
	start := time.Now()

	var summary types.RunSummary
	for _, group := range groupCasesByPackage(cases) {
		groupSummary, err := e.runPackage(ctx, collection, group)
		if err != nil {
			return summary, err
		}
		summary.Aggregate(groupSummary)
	}

	summary.Time = time.Since(start)
	e.log.Debug("Collection executed",
		"collection", collection.DisplayName, "total", summary.Total,
		"failed", summary.Failed, "skipped", summary.Skipped, "duration", summary.Time)
	return summary, nil
}

// packageGroup is the set of cases of one collection that live in the same Go
// package.
type packageGroup struct {
	pkg   string
	cases []*types.TestCase
}

func groupCasesByPackage(cases []*types.TestCase) []packageGroup {
	var groups []packageGroup
	index := make(map[string]int)
	for _, c := range cases {
		i, ok := index[c.Package]
		if !ok {
			i = len(groups)
			index[c.Package] = i
			groups = append(groups, packageGroup{pkg: c.Package})
		}
		groups[i].cases = append(groups[i].cases, c)
	}
	return groups
}

func (e *GoTestExecutor) runPackage(ctx context.Context, collection *types.TestCollection, group packageGroup) (types.RunSummary, error) {
	args := buildRunArgs(group)
	e.log.Debug("Running go test", "package", group.pkg, "args", strings.Join(args, " "))

	for _, c := range group.cases {
		e.reporter.TestStarting(collection, c.GetName())
	}

	cmd := exec.CommandContext(ctx, e.goBinary, args...)
	cmd.Dir = e.workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	events, parseErr := parseTestEvents(&stdout)
	if parseErr != nil {
		return types.RunSummary{}, fmt.Errorf("parsing go test output for %s: %w", group.pkg, parseErr)
	}
	if len(events) == 0 && runErr != nil {
		// Nothing parseable usually means the package failed to build.
		return types.RunSummary{}, fmt.Errorf("go test failed for %s: %w\n%s", group.pkg, runErr, stderr.String())
	}

	summary := e.summarize(collection, events)
	return summary, nil
}

// buildRunArgs assembles the go test invocation for one package group. The
// -count=1 flag disables result caching; -run pins execution to exactly the
// collection's test functions.
func buildRunArgs(group packageGroup) []string {
	args := []string{"test", group.pkg, "-count=1", "-json"}

	var timeout time.Duration
	names := make([]string, 0, len(group.cases))
	for _, c := range group.cases {
		names = append(names, regexp.QuoteMeta(c.FuncName))
		timeout += c.Timeout
	}
	args = append(args, "-run", fmt.Sprintf("^(%s)$", strings.Join(names, "|")))
	if timeout > 0 {
		args = append(args, "-timeout", timeout.String())
	}
	return args
}

// parseTestEvents decodes a go test -json stream, skipping any non-JSON
// lines the toolchain interleaves (build output, vet diagnostics).
func parseTestEvents(r io.Reader) ([]testEvent, error) {
	var events []testEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var event testEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// summarize folds terminal events for top-level tests into a RunSummary and
// forwards each outcome to the reporter. Subtests are counted toward their
// parent, not individually.
func (e *GoTestExecutor) summarize(collection *types.TestCollection, events []testEvent) types.RunSummary {
	var summary types.RunSummary
	output := make(map[string]*strings.Builder)
	skipReason := make(map[string]string)

	for _, event := range events {
		if event.Test == "" {
			continue
		}
		name := topLevelName(event.Test)

		switch event.Action {
		case ActionOutput:
			b, ok := output[name]
			if !ok {
				b = &strings.Builder{}
				output[name] = b
			}
			b.WriteString(event.Output)
			if trimmed := strings.TrimSpace(event.Output); strings.HasPrefix(trimmed, "--- SKIP") || strings.Contains(trimmed, ".go:") {
				skipReason[name] = trimmed
			}
		case ActionPass, ActionFail, ActionSkip:
			if event.Test != name {
				continue // terminal event for a subtest
			}
			summary.Total++
			duration := time.Duration(event.Elapsed * float64(time.Second))
			switch event.Action {
			case ActionPass:
				e.reporter.TestPassed(collection, name, duration)
			case ActionFail:
				summary.Failed++
				var captured string
				if b, ok := output[name]; ok {
					captured = b.String()
				}
				e.reporter.TestFailed(collection, name, duration, captured)
			case ActionSkip:
				summary.Skipped++
				e.reporter.TestSkipped(collection, name, skipReason[name])
			}
		}
	}
	return summary
}

func topLevelName(testName string) string {
	if i := strings.IndexByte(testName, '/'); i >= 0 {
		return testName[:i]
	}
	return testName
}
