package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signals       *prometheus.CounterVec
	results       *prometheus.CounterVec
	gameStatus    *prometheus.CounterVec
	connection    *prometheus.GaugeVec
	notifications *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	armed         prometheus.Gauge
}

var connectionStates = []string{"disconnected", "connecting", "connected", "error"}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spinsignal_signals_total",
				Help: "Total number of raised signals",
			},
			[]string{"pattern"},
		),
		results: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spinsignal_results_total",
				Help: "Bet transitions by result and gale level",
			},
			[]string{"result", "gale"},
		),
		gameStatus: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spinsignal_round_status_total",
				Help: "Processed round status transitions",
			},
			[]string{"status"},
		),
		connection: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spinsignal_feed_connection",
				Help: "Current feed connection state (1 for the active state)",
			},
			[]string{"state"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spinsignal_notifications_total",
				Help: "Notifications sent by kind and result",
			},
			[]string{"kind", "result"},
		),
		dropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spinsignal_bus_dropped_total",
				Help: "Events dropped because a subscriber buffer was full",
			},
			[]string{"subscriber"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spinsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spinsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		armed: f.NewGauge(prometheus.GaugeOpts{
			Name: "spinsignal_bet_armed",
			Help: "1 while a bet is open",
		}),
	}
}

// RecordSignal counts a signal raised by pattern.
func (r *Recorder) RecordSignal(patternID string) {
	r.signals.WithLabelValues(patternID).Inc()
}

// RecordResult counts a win, gale or loss at a gale level.
func (r *Recorder) RecordResult(result string, galeLevel int) {
	r.results.WithLabelValues(result, strconv.Itoa(galeLevel)).Inc()
}

func (r *Recorder) RecordGameStatus(status string) {
	r.gameStatus.WithLabelValues(status).Inc()
}

// RecordConnection marks status as the only active connection state.
func (r *Recorder) RecordConnection(status string) {
	for _, s := range connectionStates {
		v := 0.0
		if s == status {
			v = 1
		}
		r.connection.WithLabelValues(s).Set(v)
	}
}

func (r *Recorder) RecordNotification(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.notifications.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) RecordDropped(subscriber string) {
	r.dropped.WithLabelValues(subscriber).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) SetArmed(armed bool) {
	if armed {
		r.armed.Set(1)
		return
	}
	r.armed.Set(0)
}
