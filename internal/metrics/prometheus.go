package metrics

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all linkctl metrics.
type Registry struct {
	gatherer prometheus.Gatherer

	// External command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Attribute mutation metrics
	MutationsTotal       *prometheus.CounterVec
	VerificationFailures *prometheus.CounterVec

	// Manager backend metrics
	ManagementTotal *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
// It registers against the default Prometheus registry.
func Get() *Registry {
	once.Do(func() {
		registry = NewRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
	return registry
}

// NewRegistry creates a registry bound to reg. Tests pass a fresh
// prometheus.NewRegistry() for both arguments.
func NewRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Registry {
	factory := promauto.With(reg)
	r := &Registry{gatherer: gatherer}

	r.CommandsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_commands_total",
		Help: "External commands executed, by program and result",
	}, []string{"program", "result"})

	r.CommandDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkctl_command_duration_seconds",
		Help:    "Wall time of external commands",
		Buckets: prometheus.DefBuckets,
	}, []string{"program"})

	r.MutationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_mutations_total",
		Help: "Interface attribute mutations, by attribute and result",
	}, []string{"attribute", "result"})

	r.VerificationFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_verification_failures_total",
		Help: "Mutations whose read-back did not show the requested change",
	}, []string{"attribute"})

	r.ManagementTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "linkctl_management_changes_total",
		Help: "Manager backend include/exclude calls, by action and result",
	}, []string{"action", "result"})

	return r
}

// ObserveCommand records one external command.
func (r *Registry) ObserveCommand(program string, took time.Duration, err error) {
	program = filepath.Base(program)
	r.CommandsTotal.WithLabelValues(program, resultString(err)).Inc()
	r.CommandDuration.WithLabelValues(program).Observe(took.Seconds())
}

// RecordMutation records the outcome of a verified attribute change.
// verifyFailed marks outcomes where the command ran but the read-back disagreed.
func (r *Registry) RecordMutation(attribute string, err error, verifyFailed bool) {
	r.MutationsTotal.WithLabelValues(attribute, resultString(err)).Inc()
	if verifyFailed {
		r.VerificationFailures.WithLabelValues(attribute).Inc()
	}
}

// RecordManagement records a manager backend call.
func (r *Registry) RecordManagement(action string, err error) {
	r.ManagementTotal.WithLabelValues(action, resultString(err)).Inc()
}

// WriteTextfile dumps the registry in node_exporter textfile-collector format.
func (r *Registry) WriteTextfile(path string) error {
	if r.gatherer == nil {
		return errors.New("metrics registry has no gatherer")
	}
	return prometheus.WriteToTextfile(path, r.gatherer)
}

func resultString(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
