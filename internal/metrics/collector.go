package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/storageprobe/storageprobe/pkg/errors"
)

// Config controls the collector and its optional HTTP endpoint.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// Collector records storage operation outcomes into a private
// Prometheus registry.
type Collector struct {
	mu       sync.Mutex
	config   *Config
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationSize     *prometheus.HistogramVec
	errorCounter      *prometheus.CounterVec

	server *http.Server
}

// NewCollector builds a collector. A nil config yields an enabled
// collector on port 8080.
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = &Config{
			Enabled:   true,
			Port:      8080,
			Path:      "/metrics",
			Namespace: "storageprobe",
		}
	}
	if config.Path == "" {
		config.Path = "/metrics"
	}
	if config.Namespace == "" {
		config.Namespace = "storageprobe"
	}

	c := &Collector{config: config}
	if !config.Enabled {
		return c, nil
	}

	c.registry = prometheus.NewRegistry()

	c.operationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "operations_total",
		Help:      "Total storage operations by provider, operation, and status",
	}, []string{"provider", "operation", "status"})

	c.operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "operation_duration_seconds",
		Help:      "Storage operation latency",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"provider", "operation"})

	c.operationSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "operation_bytes",
		Help:      "Bytes moved per storage operation",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 12),
	}, []string{"provider", "operation"})

	c.errorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "errors_total",
		Help:      "Storage operation errors by category",
	}, []string{"provider", "operation", "category"})

	for _, m := range []prometheus.Collector{
		c.operationCounter, c.operationDuration, c.operationSize, c.errorCounter,
	} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return c, nil
}

// Start serves the metrics endpoint until Stop or context cancellation.
func (c *Collector) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(c.config.Path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	c.mu.Lock()
	c.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", c.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	server := c.server
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Stop shuts down the metrics endpoint if it is running.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	server := c.server
	c.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// RecordOperation records one operation outcome. Size is ignored when
// not positive so metadata operations don't skew the byte histogram.
func (c *Collector) RecordOperation(provider, operation string, duration time.Duration, size int64, err error) {
	if !c.config.Enabled {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		c.errorCounter.WithLabelValues(provider, operation, categoryOf(err)).Inc()
	}
	c.operationCounter.WithLabelValues(provider, operation, status).Inc()
	c.operationDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	if size > 0 {
		c.operationSize.WithLabelValues(provider, operation).Observe(float64(size))
	}
}

// Gather returns the current metric families, mainly for tests.
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	if c.registry == nil {
		return nil, nil
	}
	return c.registry.Gather()
}

func categoryOf(err error) string {
	switch {
	case errors.IsNotFound(err):
		return "not_found"
	case errors.IsConnection(err):
		return "connection"
	case errors.IsConfiguration(err):
		return "configuration"
	default:
		return "operation"
	}
}
