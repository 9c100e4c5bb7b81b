package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/acarl005/stripansi"

	"github.com/harnesslab/harness/types"
)

// TeamCityReporter encodes lifecycle events as TeamCity service messages, one
// line-oriented directive per event. Collections map to test suites; the
// collection ID is used as the flowId so interleaved parallel output can be
// reassembled by the build server.
type TeamCityReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTeamCityReporter creates a reporter writing service messages to w.
func NewTeamCityReporter(w io.Writer) *TeamCityReporter {
	if w == nil {
		panic("writer cannot be nil")
	}
	return &TeamCityReporter{w: w}
}

func (r *TeamCityReporter) CollectionStarting(c *types.TestCollection) {
	r.printf("##teamcity[testSuiteStarted name='%s' flowId='%s']",
		Escape(c.DisplayName), Escape(c.ID.String()))
}

func (r *TeamCityReporter) CollectionFinished(c *types.TestCollection, _ types.RunSummary) {
	r.printf("##teamcity[testSuiteFinished name='%s' flowId='%s']",
		Escape(c.DisplayName), Escape(c.ID.String()))
}

func (r *TeamCityReporter) TestStarting(c *types.TestCollection, testName string) {
	r.printf("##teamcity[testStarted name='%s' flowId='%s']",
		Escape(testName), Escape(c.ID.String()))
}

func (r *TeamCityReporter) TestPassed(c *types.TestCollection, testName string, duration time.Duration) {
	r.printf("##teamcity[testFinished name='%s' duration='%d' flowId='%s']",
		Escape(testName), duration.Milliseconds(), Escape(c.ID.String()))
}

func (r *TeamCityReporter) TestFailed(c *types.TestCollection, testName string, duration time.Duration, output string) {
	r.printf("##teamcity[testFailed name='%s' details='%s' flowId='%s']",
		Escape(testName), Escape(stripansi.Strip(output)), Escape(c.ID.String()))
	r.printf("##teamcity[testFinished name='%s' duration='%d' flowId='%s']",
		Escape(testName), duration.Milliseconds(), Escape(c.ID.String()))
}

func (r *TeamCityReporter) TestSkipped(c *types.TestCollection, testName string, reason string) {
	r.printf("##teamcity[testIgnored name='%s' message='%s' flowId='%s']",
		Escape(testName), Escape(reason), Escape(c.ID.String()))
}

func (r *TeamCityReporter) CleanupFailure(c *types.TestCollection, name string, err error) {
	r.printf("##teamcity[message text='%s' status='ERROR' flowId='%s']",
		Escape(fmt.Sprintf("cleanup failed for %s: %v", name, err)), Escape(c.ID.String()))
}

func (r *TeamCityReporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format+"\n", args...)
}

// Escape renders a value safe for embedding in a service message attribute.
// The characters |, ', newline, carriage return, [ and ] each map to a two or
// three character escape sequence; any non-ASCII character is replaced by
// |0xHHHH with the four-digit lowercase hex of its code point.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '|':
			b.WriteString("||")
		case '\'':
			b.WriteString("|'")
		case '\n':
			b.WriteString("|n")
		case '\r':
			b.WriteString("|r")
		case '[':
			b.WriteString("|[")
		case ']':
			b.WriteString("|]")
		default:
			if r > unicode.MaxASCII {
				fmt.Fprintf(&b, "|0x%04x", r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
