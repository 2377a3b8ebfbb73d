package metric

import "github.com/prometheus/client_golang/prometheus"

// ParkedCollector reports the number of persistent connections parked
// between uses. The count is read at scrape time.
type ParkedCollector struct {
	count func() int
	desc  *prometheus.Desc
}

// NewParkedCollector creates a collector reading the parked count from fn.
func NewParkedCollector(fn func() int) *ParkedCollector {
	return &ParkedCollector{
		count: fn,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "persistent", "parked_connections"),
			"Persistent connections parked for reuse",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *ParkedCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *ParkedCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.count()))
}
