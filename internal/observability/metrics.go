package observability

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	framesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "session",
			Name:      "frames_received_total",
			Help:      "Relay frames received from mobile peers.",
		},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "session",
			Name:      "frames_dropped_total",
			Help:      "Relay frames dropped without a response.",
		},
		[]string{"reason"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "session",
			Name:      "frames_sent_total",
			Help:      "Frames sent to mobile peers by opcode.",
		},
		[]string{"opcode"},
	)
	pairings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "pairing",
			Name:      "outcomes_total",
			Help:      "Pairing offers by outcome.",
		},
		[]string{"outcome"},
	)
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "localapi",
			Name:      "requests_total",
			Help:      "Local API requests proxied for mobile peers.",
		},
		[]string{"method", "status"},
	)
	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "localapi",
			Name:      "events_dropped_total",
			Help:      "Local API events dropped because a session subscription was full.",
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "conduit",
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently open.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesReceived, framesDropped, framesSent, pairings, requests, eventsDropped, activeSessions)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordFrameReceived() {
	RegisterMetrics()
	framesReceived.Inc()
}

func RecordFrameDropped(reason string) {
	RegisterMetrics()
	framesDropped.WithLabelValues(reason).Inc()
}

func RecordFrameSent(opcode string) {
	RegisterMetrics()
	framesSent.WithLabelValues(opcode).Inc()
}

func RecordPairing(outcome string) {
	RegisterMetrics()
	pairings.WithLabelValues(outcome).Inc()
}

// RecordRequest counts a proxied request; status 0 means the call failed before a response.
func RecordRequest(method string, status int) {
	RegisterMetrics()
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requests.WithLabelValues(method, label).Inc()
}

func RecordEventDropped() {
	RegisterMetrics()
	eventsDropped.Inc()
}

func SessionOpened() {
	RegisterMetrics()
	activeSessions.Inc()
}

func SessionClosed() {
	RegisterMetrics()
	activeSessions.Dec()
}
