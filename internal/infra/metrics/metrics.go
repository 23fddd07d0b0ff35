package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ScansRun          prometheus.Counter
	ScansSkipped      prometheus.Counter
	ScansFailed       prometheus.Counter
	ScanDuration      prometheus.Histogram
	NotificationsSent *prometheus.CounterVec
	NotificationsFail *prometheus.CounterVec
	ParseErrors       prometheus.Counter
	Commands          *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScansRun: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_scans_total",
			Help: "Total number of completed birthday scan passes",
		}),
		ScansSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_scans_skipped_total",
			Help: "Scan ticks skipped because today was already scanned",
		}),
		ScansFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_scans_failed_total",
			Help: "Scan passes aborted because the record store was unavailable",
		}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "birthday_scan_duration_seconds",
			Help:    "Duration of birthday scan passes",
			Buckets: prometheus.DefBuckets,
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "birthday_notifications_sent_total",
			Help: "Birthday notifications delivered",
		}, []string{"kind"}),
		NotificationsFail: f.NewCounterVec(prometheus.CounterOpts{
			Name: "birthday_notifications_failed_total",
			Help: "Birthday notifications that failed or timed out",
		}, []string{"kind"}),
		ParseErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_record_parse_errors_total",
			Help: "Stored records skipped during a scan because their date could not be parsed",
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "birthday_commands_total",
			Help: "Dispatched user commands by action and outcome",
		}, []string{"action", "outcome"}),
	}
}

func (m *Metrics) ScanSkipped() {
	m.ScansSkipped.Inc()
}

func (m *Metrics) ScanFailed() {
	m.ScansFailed.Inc()
}

func (m *Metrics) ScanCompleted(d time.Duration) {
	m.ScansRun.Inc()
	m.ScanDuration.Observe(d.Seconds())
}

func (m *Metrics) ParseError() {
	m.ParseErrors.Inc()
}

func (m *Metrics) NotificationSent(isTest bool) {
	m.NotificationsSent.WithLabelValues(kind(isTest)).Inc()
}

func (m *Metrics) NotificationFailed(isTest bool) {
	m.NotificationsFail.WithLabelValues(kind(isTest)).Inc()
}

func (m *Metrics) CommandHandled(action, outcome string) {
	m.Commands.WithLabelValues(action, outcome).Inc()
}

func kind(isTest bool) string {
	if isTest {
		return "test"
	}
	return "scheduled"
}
