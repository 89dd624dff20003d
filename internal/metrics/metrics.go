// Package metrics exposes relay counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Relay holds the relay metrics. A nil *Relay is valid and records nothing.
type Relay struct {
	// Кадры и пакеты
	Frames           *prometheus.CounterVec
	PacketsForwarded *prometheus.CounterVec
	PacketsDropped   *prometheus.CounterVec
	UnknownTypes     *prometheus.CounterVec
	CipherErrors     *prometheus.CounterVec
	Injected         *prometheus.CounterVec

	// Сессии
	Sessions        *prometheus.CounterVec
	Phase           prometheus.Gauge
	SessionDuration prometheus.Histogram
	Notifications   *prometheus.CounterVec
}

// New creates the relay metrics and registers them with reg.
func New(reg prometheus.Registerer) *Relay {
	m := &Relay{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_frames_total",
			Help: "Physical frames read, by direction",
		}, []string{"direction"}),

		PacketsForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_packets_forwarded_total",
			Help: "Logical packets forwarded, by direction",
		}, []string{"direction"}),

		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_packets_dropped_total",
			Help: "Logical packets vetoed by an observer or the relay, by direction",
		}, []string{"direction"}),

		UnknownTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_unknown_types_total",
			Help: "Messages whose remainder was forwarded opaque, by direction",
		}, []string{"direction"}),

		CipherErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_cipher_errors_total",
			Help: "Frames forwarded verbatim because they failed to decrypt, by direction",
		}, []string{"direction"}),

		Injected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_injected_total",
			Help: "Messages injected through the relay API, by direction",
		}, []string{"direction"}),

		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_sessions_total",
			Help: "Finished sessions, by outcome",
		}, []string{"outcome"}),

		Phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tibiarelay_phase",
			Help: "Current relay phase (numeric)",
		}),

		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tibiarelay_session_duration_seconds",
			Help:    "Duration of relay sessions",
			Buckets: []float64{1, 10, 60, 300, 900, 3600, 4 * 3600},
		}),

		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tibiarelay_notifications_total",
			Help: "Session notifications, by kind",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.Frames,
		m.PacketsForwarded,
		m.PacketsDropped,
		m.UnknownTypes,
		m.CipherErrors,
		m.Injected,
		m.Sessions,
		m.Phase,
		m.SessionDuration,
		m.Notifications,
	)
	return m
}

// RecordFrame записывает прочитанный кадр
func (m *Relay) RecordFrame(dir string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(dir).Inc()
}

// RecordPacket записывает решение по логическому пакету
func (m *Relay) RecordPacket(dir string, forwarded bool) {
	if m == nil {
		return
	}
	if forwarded {
		m.PacketsForwarded.WithLabelValues(dir).Inc()
		return
	}
	m.PacketsDropped.WithLabelValues(dir).Inc()
}

func (m *Relay) RecordUnknown(dir string) {
	if m == nil {
		return
	}
	m.UnknownTypes.WithLabelValues(dir).Inc()
}

func (m *Relay) RecordCipherError(dir string) {
	if m == nil {
		return
	}
	m.CipherErrors.WithLabelValues(dir).Inc()
}

func (m *Relay) RecordInjected(dir string) {
	if m == nil {
		return
	}
	m.Injected.WithLabelValues(dir).Inc()
}

// RecordSession записывает завершённую сессию
func (m *Relay) RecordSession(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(outcome).Inc()
	m.SessionDuration.Observe(seconds)
}

func (m *Relay) SetPhase(p int) {
	if m == nil {
		return
	}
	m.Phase.Set(float64(p))
}

func (m *Relay) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind).Inc()
}
