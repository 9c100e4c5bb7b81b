package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/harnesslab/harness/reporting"
	"github.com/harnesslab/harness/types"
)

// WriteResultsTable renders the per-collection outcomes of one run as a
// console table. The table style follows the overall status.
func WriteResultsTable(w io.Writer, assemblyName string, outcomes []reporting.CollectionOutcome, total types.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Test Results for %s (%s)", assemblyName, formatDuration(total.Time)))

	t.AppendHeader(table.Row{
		"Collection", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Collection", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
	})

	for _, outcome := range outcomes {
		t.AppendRow(table.Row{
			outcome.Collection.DisplayName,
			formatDuration(outcome.Summary.Time),
			outcome.Summary.Total,
			outcome.Summary.Passed(),
			outcome.Summary.Failed,
			outcome.Summary.Skipped,
			getResultString(outcome.Summary.Status()),
		})
	}

	switch total.Status() {
	case types.RunStatusPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.RunStatusSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		formatDuration(total.Time),
		total.Total,
		total.Passed(),
		total.Failed,
		total.Skipped,
		getResultString(total.Status()),
	})

	t.Render()
}

// getResultString returns a colored string representing the test result
func getResultString(status types.RunStatus) string {
	switch status {
	case types.RunStatusPass:
		return "✓ pass"
	case types.RunStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
