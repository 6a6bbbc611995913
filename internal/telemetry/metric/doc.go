// Package metric provides Prometheus metrics for respkv.
//
//   - prometheus.go: the Registry of connection and command metrics
//   - collector.go: a collector that reports the keyspace size on scrape
//
// Every Registry method is safe on a nil receiver, so components can be built
// without metrics in tests.
package metric
