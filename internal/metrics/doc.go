// Package metrics exposes Prometheus counters and histograms for
// storage operations, labeled by provider and operation.
//
// The collector uses its own registry so a test binary can create many
// collectors without duplicate registration panics. When enabled, an
// HTTP server serves the registry on /metrics plus a trivial /health
// endpoint.
package metrics
