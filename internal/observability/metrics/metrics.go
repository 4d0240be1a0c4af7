package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics exposes counters and histograms for the message pipeline.
// Every method is safe on a nil receiver.
type ChatMetrics struct {
	inboundTotal     *prometheus.CounterVec
	outboundTotal    *prometheus.CounterVec
	generatorLatency *prometheus.HistogramVec
	wizardSteps      *prometheus.CounterVec
	webhookLatency   *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoclinic",
			Subsystem: "chat",
			Name:      "inbound_total",
			Help:      "Inbound messages by channel and the route that handled them",
		}, []string{"channel", "route"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoclinic",
			Subsystem: "chat",
			Name:      "outbound_total",
			Help:      "Replies handed to a channel",
		}, []string{"channel", "status"}),
		generatorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autoclinic",
			Subsystem: "generator",
			Name:      "latency_seconds",
			Help:      "Latency of text generator calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"backend", "outcome"}),
		wizardSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoclinic",
			Subsystem: "reservation",
			Name:      "wizard_steps_total",
			Help:      "Reservation wizard messages by step and outcome",
		}, []string{"step", "outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autoclinic",
			Subsystem: "chat",
			Name:      "webhook_latency_seconds",
			Help:      "Latency from webhook receipt to reply",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.generatorLatency, m.wizardSteps, m.webhookLatency)
	return m
}

func (m *ChatMetrics) ObserveInbound(channel, route string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(channel, route).Inc()
}

func (m *ChatMetrics) ObserveOutbound(channel, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(channel, status).Inc()
}

// ObserveGenerator records one generator call.
func (m *ChatMetrics) ObserveGenerator(backend, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generatorLatency.WithLabelValues(backend, outcome).Observe(elapsed.Seconds())
}

// ObserveWizardStep records one wizard message.
func (m *ChatMetrics) ObserveWizardStep(step, outcome string) {
	if m == nil {
		return
	}
	m.wizardSteps.WithLabelValues(step, outcome).Inc()
}

func (m *ChatMetrics) ObserveWebhookLatency(channel string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(channel).Observe(elapsed.Seconds())
}
