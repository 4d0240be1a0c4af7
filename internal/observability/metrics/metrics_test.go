package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveInbound("twilio", "wizard")
	m.ObserveInbound("twilio", "wizard")
	m.ObserveOutbound("nats", "sent")
	m.ObserveGenerator("ollama", "ok", 1200*time.Millisecond)
	m.ObserveWizardStep("size_select", "invalid")
	m.ObserveWebhookLatency("twilio", 300*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				values[mf.GetName()] += float64(h.GetSampleCount())
			}
		}
	}
	if got := values["autoclinic_chat_inbound_total"]; got != 2 {
		t.Fatalf("expected 2 inbound, got %v", got)
	}
	if got := values["autoclinic_reservation_wizard_steps_total"]; got != 1 {
		t.Fatalf("expected 1 wizard step, got %v", got)
	}
	if got := values["autoclinic_generator_latency_seconds"]; got != 1 {
		t.Fatalf("expected 1 generator sample, got %v", got)
	}
}

func TestChatMetricsDefaultRegistry(t *testing.T) {
	m := NewChatMetrics(nil)
	m.ObserveOutbound("twilio", "sent")
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveInbound("twilio", "menu")
	m.ObserveOutbound("twilio", "sent")
	m.ObserveGenerator("gemini", "error", time.Second)
	m.ObserveWizardStep("date_select", "advanced")
	m.ObserveWebhookLatency("twilio", time.Second)
}
