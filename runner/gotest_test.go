package runner

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harnesslab/harness/types"
)

// recordingReporter captures per-test lifecycle events for assertions.
type recordingReporter struct {
	mu      sync.Mutex
	passed  []string
	failed  map[string]string // test name to captured output
	skipped map[string]string // test name to reason
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{
		failed:  make(map[string]string),
		skipped: make(map[string]string),
	}
}

func (r *recordingReporter) CollectionStarting(*types.TestCollection)                   {}
func (r *recordingReporter) CollectionFinished(*types.TestCollection, types.RunSummary) {}
func (r *recordingReporter) TestStarting(*types.TestCollection, string)                 {}

func (r *recordingReporter) TestPassed(_ *types.TestCollection, name string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passed = append(r.passed, name)
}

func (r *recordingReporter) TestFailed(_ *types.TestCollection, name string, _ time.Duration, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[name] = output
}

func (r *recordingReporter) TestSkipped(_ *types.TestCollection, name string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[name] = reason
}

func (r *recordingReporter) CleanupFailure(*types.TestCollection, string, error) {}

func TestNewGoTestExecutorValidation(t *testing.T) {
	_, err := NewGoTestExecutor(GoTestConfig{Log: testLogger()})
	require.Error(t, err, "a work directory is required")

	e, err := NewGoTestExecutor(GoTestConfig{WorkDir: t.TempDir(), Log: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, DefaultGoBinary, e.goBinary)
}

func TestGroupCasesByPackage(t *testing.T) {
	cases := []*types.TestCase{
		{Package: "./a", FuncName: "TestOne"},
		{Package: "./b", FuncName: "TestTwo"},
		{Package: "./a", FuncName: "TestThree"},
	}

	groups := groupCasesByPackage(cases)

	require.Len(t, groups, 2)
	assert.Equal(t, "./a", groups[0].pkg, "first-seen package comes first")
	assert.Equal(t, "./b", groups[1].pkg)
	require.Len(t, groups[0].cases, 2)
	assert.Equal(t, "TestOne", groups[0].cases[0].FuncName)
	assert.Equal(t, "TestThree", groups[0].cases[1].FuncName)
}

func TestBuildRunArgs(t *testing.T) {
	group := packageGroup{
		pkg: "./acceptance",
		cases: []*types.TestCase{
			{FuncName: "TestAlpha", Timeout: 30 * time.Second},
			{FuncName: "TestBeta", Timeout: 15 * time.Second},
		},
	}

	args := buildRunArgs(group)

	assert.Equal(t, []string{
		"test", "./acceptance", "-count=1", "-json",
		"-run", "^(TestAlpha|TestBeta)$",
		"-timeout", "45s",
	}, args)
}

func TestBuildRunArgsNoTimeout(t *testing.T) {
	args := buildRunArgs(packageGroup{
		pkg:   "./a",
		cases: []*types.TestCase{{FuncName: "TestOnly"}},
	})

	assert.NotContains(t, args, "-timeout")
	assert.Contains(t, args, "^(TestOnly)$")
}

func TestParseTestEventsSkipsNonJSONLines(t *testing.T) {
	stream := strings.Join([]string{
		`go: downloading github.com/stretchr/testify v1.11.1`,
		`{"Action":"run","Package":"example.com/m","Test":"TestAlpha"}`,
		``,
		`# example.com/m [build output interleaved]`,
		`{"Action":"pass","Package":"example.com/m","Test":"TestAlpha","Elapsed":0.25}`,
		`{not valid json`,
	}, "\n")

	events, err := parseTestEvents(strings.NewReader(stream))

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionRun, events[0].Action)
	assert.Equal(t, ActionPass, events[1].Action)
	assert.Equal(t, "TestAlpha", events[1].Test)
	assert.Equal(t, 0.25, events[1].Elapsed)
}

func TestSummarizeCountsTopLevelOutcomes(t *testing.T) {
	reporter := newRecordingReporter()
	e, err := NewGoTestExecutor(GoTestConfig{WorkDir: t.TempDir(), Log: testLogger(), Reporter: reporter})
	require.NoError(t, err)

	collection := &types.TestCollection{ID: uuid.New(), DisplayName: "acceptance"}
	events := []testEvent{
		{Action: ActionRun, Test: "TestAlpha"},
		{Action: ActionPass, Test: "TestAlpha", Elapsed: 0.1},
		{Action: ActionRun, Test: "TestBeta"},
		{Action: ActionOutput, Test: "TestBeta", Output: "--- FAIL: TestBeta (0.00s)\n"},
		{Action: ActionOutput, Test: "TestBeta", Output: "    beta_test.go:12: boom\n"},
		{Action: ActionFail, Test: "TestBeta", Elapsed: 0.2},
		{Action: ActionRun, Test: "TestGamma"},
		{Action: ActionOutput, Test: "TestGamma", Output: "--- SKIP: TestGamma (0.00s)\n"},
		{Action: ActionSkip, Test: "TestGamma"},
		{Action: ActionPass, Package: "example.com/m"}, // package-level event, not a test
	}

	summary := e.summarize(collection, events)

	assert.Equal(t, types.RunSummary{Total: 3, Failed: 1, Skipped: 1}, summary)
	assert.Equal(t, []string{"TestAlpha"}, reporter.passed)
	assert.Contains(t, reporter.failed["TestBeta"], "beta_test.go:12: boom")
	assert.Contains(t, reporter.skipped["TestGamma"], "SKIP")
}

// TestSummarizeFoldsSubtestsIntoParent verifies that subtest terminal events
// do not inflate the count; only the parent's outcome is recorded.
func TestSummarizeFoldsSubtestsIntoParent(t *testing.T) {
	reporter := newRecordingReporter()
	e, err := NewGoTestExecutor(GoTestConfig{WorkDir: t.TempDir(), Log: testLogger(), Reporter: reporter})
	require.NoError(t, err)

	collection := &types.TestCollection{ID: uuid.New(), DisplayName: "acceptance"}
	events := []testEvent{
		{Action: ActionRun, Test: "TestTable"},
		{Action: ActionRun, Test: "TestTable/case_one"},
		{Action: ActionOutput, Test: "TestTable/case_one", Output: "    table_test.go:7: mismatch\n"},
		{Action: ActionFail, Test: "TestTable/case_one", Elapsed: 0.1},
		{Action: ActionRun, Test: "TestTable/case_two"},
		{Action: ActionPass, Test: "TestTable/case_two", Elapsed: 0.1},
		{Action: ActionFail, Test: "TestTable", Elapsed: 0.3},
	}

	summary := e.summarize(collection, events)

	assert.Equal(t, types.RunSummary{Total: 1, Failed: 1}, summary)
	assert.Contains(t, reporter.failed["TestTable"], "table_test.go:7: mismatch",
		"subtest output is attributed to the parent")
}
