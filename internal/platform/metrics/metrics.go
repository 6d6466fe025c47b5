package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the panel service.
type Metrics struct {
	ListFetches         *prometheus.CounterVec
	ListRetries         prometheus.Counter
	Mutations           *prometheus.CounterVec
	NotificationsShown  *prometheus.CounterVec
	NotificationsActive prometheus.Gauge
	RecordStoreLatency  prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics against reg. Tests pass a private registry so
// suites do not collide on the default one.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ListFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patientpanel_list_fetches_total",
			Help: "Total patient list fetches against the record store, by outcome",
		}, []string{"outcome"}),
		ListRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "patientpanel_list_retries_total",
			Help: "Total automatic retries of failed patient list fetches",
		}),
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patientpanel_mutations_total",
			Help: "Total create/update mutations, by operation and outcome",
		}, []string{"operation", "outcome"}),
		NotificationsShown: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patientpanel_notifications_shown_total",
			Help: "Total notifications shown to the user, by kind",
		}, []string{"kind"}),
		NotificationsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "patientpanel_notifications_active",
			Help: "Current number of notifications in the active set",
		}),
		RecordStoreLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "patientpanel_record_store_latency_seconds",
			Help:    "Latency of record store round trips",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveListFetch(outcome string) {
	m.ListFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementListRetries() {
	m.ListRetries.Inc()
}

func (m *Metrics) ObserveMutation(operation, outcome string) {
	m.Mutations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveNotification(kind string) {
	m.NotificationsShown.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetActiveNotifications(count int) {
	m.NotificationsActive.Set(float64(count))
}

func (m *Metrics) ObserveRecordStoreLatency(d time.Duration) {
	m.RecordStoreLatency.Observe(d.Seconds())
}
