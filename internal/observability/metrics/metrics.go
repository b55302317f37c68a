package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "luxuryleads"

// LLMLatencyMetricName is the fully qualified completion latency histogram.
const LLMLatencyMetricName = namespace + "_conversation_llm_latency_seconds"

// ChatMetrics exposes counters/histograms for the chat and lead pipeline.
type ChatMetrics struct {
	turnsTotal     *prometheus.CounterVec
	leadsTotal     *prometheus.CounterVec
	summariesTotal *prometheus.CounterVec
	notifyTotal    *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	llmTokens      *prometheus.CounterVec
}

// NewChatMetrics registers the chat metrics on reg, or the default registerer when nil.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Chat turns by outcome",
		}, []string{"status"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "leads_total",
			Help:      "Leads created by qualification trigger",
		}, []string{"trigger"}),
		summariesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "summaries_total",
			Help:      "Lead summaries by outcome",
		}, []string{"status"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "results_total",
			Help:      "Owner notifications by result",
		}, []string{"result"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
		}, []string{"model", "status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "llm_tokens_total",
			Help:      "Tokens used by the LLM",
		}, []string{"model", "type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.leadsTotal, m.summariesTotal, m.notifyTotal, m.llmLatency, m.llmTokens)
	return m
}

func (m *ChatMetrics) ObserveTurn(status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveLead(trigger string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(trigger).Inc()
}

func (m *ChatMetrics) ObserveSummary(status string) {
	if m == nil {
		return
	}
	m.summariesTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.notifyTotal.WithLabelValues(result).Inc()
}

// ObserveCompletion records latency and, on success, token usage.
func (m *ChatMetrics) ObserveCompletion(model, status string, seconds float64, promptTokens, completionTokens int32) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(model, status).Observe(seconds)
	if promptTokens > 0 {
		m.llmTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}
