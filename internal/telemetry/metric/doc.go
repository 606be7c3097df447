// Package metric provides Prometheus metrics for x2conn.
//
//   - prometheus.go: session registry and the /metrics HTTP handler
//   - collector.go: scrape-time collector for live session state
//
// Metrics are exposed by the keepalive command at /metrics.
package metric
