package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harnesslab/harness/types"
)

const (
	MetricsNamespace = "harness"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of assembly runs",
	}, []string{
		"assembly",
		"run_id",
		"result",
	})

	runTestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_test_total",
		Help:      "Total number of tests executed per run",
	}, []string{
		"assembly",
		"run_id",
	})

	runTestFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_test_failed",
		Help:      "Number of failed tests per run",
	}, []string{
		"assembly",
		"run_id",
	})

	runTestSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_test_skipped",
		Help:      "Number of skipped tests per run",
	}, []string{
		"assembly",
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Cumulative test time of assembly runs",
	}, []string{
		"assembly",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordRun publishes one finished assembly run to the metrics surface.
func RecordRun(assembly string, runID string, summary types.RunSummary) {
	if Debug {
		log.Debug("metric record",
			"m", "run_results",
			"assembly", assembly,
			"run_id", runID,
			"result", summary.Status(),
			"total", summary.Total,
			"failed", summary.Failed,
			"skipped", summary.Skipped)
	}
	runResults.WithLabelValues(assembly, runID, string(summary.Status())).Set(1)
	runTestTotal.WithLabelValues(assembly, runID).Add(float64(summary.Total))
	runTestFailed.WithLabelValues(assembly, runID).Add(float64(summary.Failed))
	runTestSkipped.WithLabelValues(assembly, runID).Add(float64(summary.Skipped))
	runDuration.WithLabelValues(assembly, runID).Set(summary.Time.Seconds())
}
