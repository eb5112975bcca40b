package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters for the conversation engine.
type EngineMetrics struct {
	rulesTotal *prometheus.CounterVec
	llmTotal   *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		rulesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanchonete",
			Subsystem: "engine",
			Name:      "rules_total",
			Help:      "Messages handled, by rule that produced the reply",
		}, []string{"rule"}),
		llmTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanchonete",
			Subsystem: "engine",
			Name:      "llm_calls_total",
			Help:      "Language model delegations, by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.rulesTotal, m.llmTotal)
	return m
}

// ObserveRule records which engine rule produced a reply.
func (m *EngineMetrics) ObserveRule(rule string) {
	if m == nil {
		return
	}
	m.rulesTotal.WithLabelValues(rule).Inc()
}

// ObserveLLM records a language model call outcome ("ok" or "error").
func (m *EngineMetrics) ObserveLLM(status string) {
	if m == nil {
		return
	}
	m.llmTotal.WithLabelValues(status).Inc()
}

// WebhookMetrics exposes counters/histograms for the messaging boundary.
type WebhookMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanchonete",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhooks",
		}, []string{"outcome"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanchonete",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lanchonete",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.webhookLatency)
	return m
}

// ObserveInbound records one inbound webhook by outcome
// (processed, ignored, rejected).
func (m *WebhookMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

// ObserveOutbound records one outbound send attempt result.
func (m *WebhookMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

// ObserveWebhookLatency records processing time for an inbound webhook.
func (m *WebhookMetrics) ObserveWebhookLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(outcome).Observe(seconds)
}
