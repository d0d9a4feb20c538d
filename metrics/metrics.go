package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "playwright_executor"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	// Registry holds every executor metric and is what the metrics server exposes.
	Registry = opmetrics.NewRegistry()
	factory  = promauto.With(Registry)

	errorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	runsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of test runner invocations",
	}, []string{
		"project",
		"result",
	})

	runDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of the last test runner invocation",
	}, []string{
		"project",
	})

	runExitCode = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_exit_code",
		Help:      "Exit code of the last test runner invocation",
	}, []string{
		"project",
	})

	installsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "installs_total",
		Help:      "Count of browser install steps",
	}, []string{
		"package_manager",
		"result",
	})

	installDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "install_duration_seconds",
		Help:      "Duration of the last browser install step",
	}, []string{
		"package_manager",
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

func resultLabel(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
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

// RecordRun records the outcome of one test runner invocation.
func RecordRun(project string, success bool, exitCode int, duration time.Duration) {
	result := resultLabel(success)
	if Debug {
		log.Debug("metric inc",
			"m", "runs_total",
			"project", project,
			"result", result,
			"exit_code", strconv.Itoa(exitCode))
	}
	runsTotal.WithLabelValues(project, result).Inc()
	runDuration.WithLabelValues(project).Set(duration.Seconds())
	runExitCode.WithLabelValues(project).Set(float64(exitCode))
}

// RecordInstall records the outcome of one install step.
func RecordInstall(packageManager string, err error, duration time.Duration) {
	result := resultLabel(err == nil)
	if Debug {
		log.Debug("metric inc",
			"m", "installs_total",
			"package_manager", packageManager,
			"result", result)
	}
	installsTotal.WithLabelValues(packageManager, result).Inc()
	installDuration.WithLabelValues(packageManager).Set(duration.Seconds())
	if err != nil {
		RecordErrorDetails("install", err)
	}
}
