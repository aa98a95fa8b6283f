package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	opCountDesc = prometheus.NewDesc(
		"watson_operation_total",
		"Number of completed operations.",
		[]string{"op"}, nil,
	)
	opSecondsDesc = prometheus.NewDesc(
		"watson_operation_seconds_total",
		"Total time spent in operations.",
		[]string{"op"}, nil,
	)
	tokensDesc = prometheus.NewDesc(
		"watson_llm_tokens_total",
		"LLM tokens consumed.",
		[]string{"op", "direction"}, nil,
	)
	eventsDesc = prometheus.NewDesc(
		"watson_events_total",
		"Counted bot events.",
		[]string{"event"}, nil,
	)
	uptimeDesc = prometheus.NewDesc(
		"watson_uptime_seconds",
		"Seconds since the collector was created.",
		nil, nil,
	)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- opCountDesc
	ch <- opSecondsDesc
	ch <- tokensDesc
	ch <- eventsDesc
	ch <- uptimeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for op, m := range c.ops {
		ch <- prometheus.MustNewConstMetric(opCountDesc, prometheus.CounterValue, float64(m.Count), op)
		ch <- prometheus.MustNewConstMetric(opSecondsDesc, prometheus.CounterValue, m.TotalTime.Seconds(), op)
		if m.TotalInputTokens > 0 || m.TotalOutputTokens > 0 {
			ch <- prometheus.MustNewConstMetric(tokensDesc, prometheus.CounterValue, float64(m.TotalInputTokens), op, "input")
			ch <- prometheus.MustNewConstMetric(tokensDesc, prometheus.CounterValue, float64(m.TotalOutputTokens), op, "output")
		}
	}
	for name, n := range c.events {
		ch <- prometheus.MustNewConstMetric(eventsDesc, prometheus.CounterValue, float64(n), name)
	}
	ch <- prometheus.MustNewConstMetric(uptimeDesc, prometheus.GaugeValue, timeSince(c.startTime))
}

// NewRegistry returns a registry exposing the collector plus Go runtime metrics.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}
