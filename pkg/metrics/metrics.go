package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "evidence_custody"

	jobStatusLabel         = "status"
	dispatchPathLabel      = "path"
	verificationMatchLabel = "result"
	stageLabel             = "stage"
)

var (
	jobsTerminalTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_terminal_total",
		Help:      "Number of jobs that reached a terminal state, by status.",
	}, []string{jobStatusLabel})

	dispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Number of job dispatches, by execution path (queue or fallback).",
	}, []string{dispatchPathLabel})

	stageFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_failures_total",
		Help:      "Number of pipeline stage failures, by stage.",
	}, []string{stageLabel})

	verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "integrity_verifications_total",
		Help:      "Number of integrity verifications, by match result.",
	}, []string{verificationMatchLabel})
)

func init() {
	prometheus.MustRegister(
		jobsTerminalTotal,
		dispatchTotal,
		stageFailuresTotal,
		verificationsTotal,
	)
}

func IncJobTerminal(status string) {
	jobsTerminalTotal.WithLabelValues(status).Inc()
}

func IncDispatch(path string) {
	dispatchTotal.WithLabelValues(path).Inc()
}

func IncStageFailure(stage string) {
	stageFailuresTotal.WithLabelValues(stage).Inc()
}

func IncVerification(matches bool) {
	result := "match"
	if !matches {
		result = "mismatch"
	}
	verificationsTotal.WithLabelValues(result).Inc()
}
