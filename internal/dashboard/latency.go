package dashboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/observability/metrics"
)

// LLMLatencySnapshot summarizes successful completion latency.
type LLMLatencySnapshot struct {
	Total   int64              `json:"total"`
	P90Ms   float64            `json:"p90_ms"`
	P95Ms   float64            `json:"p95_ms"`
	Buckets []LLMLatencyBucket `json:"buckets"`
}

type LLMLatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// snapshotLLMLatency merges the latency histogram across models, keeping
// only status="ok" series.
func snapshotLLMLatency(gatherer prometheus.Gatherer) LLMLatencySnapshot {
	mfs, err := gatherer.Gather()
	if err != nil {
		return LLMLatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf.GetName() == metrics.LLMLatencyMetricName {
			family = mf
			break
		}
	}
	if family == nil {
		return LLMLatencySnapshot{}
	}

	cumulative := map[float64]uint64{}
	var samples uint64
	for _, m := range family.GetMetric() {
		if !hasLabel(m, "status", "ok") || m.GetHistogram() == nil {
			continue
		}
		h := m.GetHistogram()
		samples += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			if math.IsInf(b.GetUpperBound(), 1) {
				continue
			}
			cumulative[b.GetUpperBound()] += b.GetCumulativeCount()
		}
		// client_golang omits the +Inf bucket; the sample count stands in for it
		cumulative[math.Inf(1)] += h.GetSampleCount()
	}
	if samples == 0 {
		return LLMLatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulative))
	for upper := range cumulative {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LLMLatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFinite float64
	for _, upper := range uppers {
		cum := cumulative[upper]
		count := int64(cum - min(prev, cum))
		prev = cum
		if math.IsInf(upper, 1) {
			if count > 0 {
				buckets = append(buckets, LLMLatencyBucket{
					LeSeconds: lastFinite,
					Label:     ">" + formatSeconds(lastFinite),
					Count:     count,
				})
			}
			continue
		}
		lastFinite = upper
		buckets = append(buckets, LLMLatencyBucket{LeSeconds: upper, Count: count})
	}

	return LLMLatencySnapshot{
		Total:   int64(samples),
		P90Ms:   histogramQuantile(0.90, samples, uppers, cumulative) * 1000,
		P95Ms:   histogramQuantile(0.95, samples, uppers, cumulative) * 1000,
		Buckets: buckets,
	}
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

// histogramQuantile interpolates linearly inside the bucket holding the
// target rank, like PromQL's histogram_quantile.
func histogramQuantile(q float64, total uint64, uppers []float64, cumulative map[float64]uint64) float64 {
	if total == 0 || q <= 0 || len(uppers) == 0 {
		return 0
	}
	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulative[upper])
		if cum < target {
			prevUpper, prevCum = upper, cum
			continue
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		inBucket := cum - prevCum
		if inBucket <= 0 {
			return upper
		}
		fraction := math.Min(math.Max((target-prevCum)/inBucket, 0), 1)
		return prevUpper + fraction*(upper-prevUpper)
	}
	return prevUpper
}

func formatSeconds(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 1:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 10:
		return fmt.Sprintf("%.1fs", seconds)
	default:
		return fmt.Sprintf("%.0fs", seconds)
	}
}
