package metric

import "github.com/prometheus/client_golang/prometheus"

// Keyspace reports the number of stored keys.
type Keyspace interface {
	Len() int
}

// KeyspaceCollector reports the keyspace size at scrape time.
type KeyspaceCollector struct {
	source Keyspace
	desc   *prometheus.Desc
}

// NewKeyspaceCollector creates a collector reading from source.
func NewKeyspaceCollector(source Keyspace) *KeyspaceCollector {
	return &KeyspaceCollector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Number of stored keys, including expired keys not yet evicted.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.source.Len()))
}
