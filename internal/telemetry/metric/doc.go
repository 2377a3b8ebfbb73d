// Package metric provides Prometheus metrics for the Redis client.
//
//   - prometheus.go: registry, client metrics and the HTTP handler
//   - collector.go: collector for parked persistent connections
//
// Every Registry method is safe on a nil receiver so instrumented code can
// run without metrics.
package metric
