package bench

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/time/rate"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/internal/metrics"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// Sample is one measured operation. Never persisted; reports consume
// it and drop it.
type Sample struct {
	Operation     string  `json:"operation"`
	SizeBytes     int64   `json:"sizeBytes"`
	ElapsedMillis int64   `json:"elapsedMillis"`
	ThroughputBps float64 `json:"throughputBytesPerSecond"`
	Concurrency   int     `json:"concurrencyLevel"`
}

// ConcurrentResult summarizes the fan-out measurement. A partial
// failure is a valid outcome, reported through the ratio.
type ConcurrentResult struct {
	Requested     int     `json:"requested"`
	Succeeded     int     `json:"succeeded"`
	SuccessRatio  float64 `json:"successRatio"`
	ElapsedMillis int64   `json:"elapsedMillis"`
}

// Report aggregates one provider's benchmark run.
type Report struct {
	Provider   string           `json:"provider"`
	Samples    []Sample         `json:"samples"`
	Concurrent ConcurrentResult `json:"concurrent"`
}

// Runner executes the benchmark sequence against a provider.
type Runner struct {
	cfg          *config.BenchmarkConfig
	collector    *metrics.Collector
	logger       *slog.Logger
	showProgress bool
}

// NewRunner wires a benchmark runner. A nil collector disables metric
// recording; showProgress draws a terminal progress bar during the
// fan-out.
func NewRunner(cfg *config.BenchmarkConfig, collector *metrics.Collector, logger *slog.Logger, showProgress bool) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector, _ = metrics.NewCollector(&metrics.Config{Enabled: false})
	}
	return &Runner{
		cfg:          cfg,
		collector:    collector,
		logger:       logger.With("component", "bench-runner"),
		showProgress: showProgress,
	}
}

// Run executes timed upload, timed download, the large-object round
// trip, and the concurrent fan-out, in that order.
func (r *Runner) Run(ctx context.Context, p types.Provider) (*Report, error) {
	report := &Report{Provider: p.Name()}

	tempDir, err := os.MkdirTemp("", "storageprobe-bench-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	up, down, err := r.timedRoundTrip(ctx, p, r.cfg.ObjectSize, "upload", "download", tempDir)
	if err != nil {
		return nil, err
	}
	report.Samples = append(report.Samples, up, down)

	upLarge, downLarge, err := r.timedRoundTrip(ctx, p, r.cfg.LargeObjectSize, "upload-large", "download-large", tempDir)
	if err != nil {
		return nil, err
	}
	report.Samples = append(report.Samples, upLarge, downLarge)

	concurrent, err := r.concurrentUploads(ctx, p)
	if err != nil {
		return nil, err
	}
	report.Concurrent = concurrent

	return report, nil
}

// timedRoundTrip uploads then downloads one payload, bracketing each
// operation with wall-clock timestamps. The object is deleted before
// returning regardless of outcome.
func (r *Runner) timedRoundTrip(ctx context.Context, p types.Provider, size int64, upOp, downOp, tempDir string) (Sample, Sample, error) {
	key := fmt.Sprintf("%s%s-%d", r.cfg.KeyPrefix, upOp, time.Now().UnixNano())
	payload := makePayload(size)
	defer r.cleanupKey(ctx, p, key)

	start := time.Now()
	_, err := p.Upload(ctx, key, types.BytesSource(payload), nil)
	upElapsed := time.Since(start)
	r.collector.RecordOperation(p.Name(), upOp, upElapsed, size, err)
	if err != nil {
		return Sample{}, Sample{}, err
	}
	upSample := newSample(upOp, size, upElapsed, 1)

	dest := filepath.Join(tempDir, key+".down")
	start = time.Now()
	_, err = p.Download(ctx, key, dest)
	downElapsed := time.Since(start)
	r.collector.RecordOperation(p.Name(), downOp, downElapsed, size, err)
	if err != nil {
		return Sample{}, Sample{}, err
	}
	downSample := newSample(downOp, size, downElapsed, 1)

	r.logger.Debug("round trip measured",
		"operation", upOp, "size", size,
		"upload_ms", upSample.ElapsedMillis, "download_ms", downSample.ElapsedMillis)
	return upSample, downSample, nil
}

// concurrentUploads fans out one upload per worker and reports the
// success ratio over wall-clock time. Worker errors reduce the ratio
// instead of failing the measurement.
func (r *Runner) concurrentUploads(ctx context.Context, p types.Provider) (ConcurrentResult, error) {
	n := r.cfg.Concurrency
	payload := makePayload(r.cfg.ObjectSize)
	prefix := fmt.Sprintf("%sconcurrent-%d", r.cfg.KeyPrefix, time.Now().UnixNano())

	var limiter *rate.Limiter
	if r.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.RateLimit), r.cfg.RateLimit)
	}

	var bar *pb.ProgressBar
	if r.showProgress {
		bar = pb.StartNew(n)
	}

	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s/%d", prefix, i)
	}
	defer func() {
		for _, key := range keys {
			r.cleanupKey(ctx, p, key)
		}
	}()

	var wg sync.WaitGroup
	var succeeded atomic.Int64

	start := time.Now()
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			opStart := time.Now()
			_, err := p.Upload(ctx, key, types.BytesSource(payload), nil)
			r.collector.RecordOperation(p.Name(), "concurrent-upload", time.Since(opStart), r.cfg.ObjectSize, err)
			if err != nil {
				r.logger.Debug("concurrent upload failed", "key", key, "error", err)
				return
			}
			succeeded.Add(1)
			if bar != nil {
				bar.Increment()
			}
		}(key)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if bar != nil {
		bar.Finish()
	}

	return ConcurrentResult{
		Requested:     n,
		Succeeded:     int(succeeded.Load()),
		SuccessRatio:  float64(succeeded.Load()) / float64(n),
		ElapsedMillis: elapsed.Milliseconds(),
	}, nil
}

// cleanupKey deletes a benchmark object, swallowing the error. Only
// cleanup errors are swallowed; measurement errors always propagate.
func (r *Runner) cleanupKey(ctx context.Context, p types.Provider, key string) {
	if err := p.Delete(ctx, key); err != nil {
		r.logger.Debug("benchmark cleanup failed", "key", key, "error", err)
	}
}

func newSample(operation string, size int64, elapsed time.Duration, concurrency int) Sample {
	millis := elapsed.Milliseconds()
	if millis <= 0 {
		millis = 1
	}
	return Sample{
		Operation:     operation,
		SizeBytes:     size,
		ElapsedMillis: millis,
		ThroughputBps: float64(size) / float64(millis) * 1000,
		Concurrency:   concurrency,
	}
}

func makePayload(size int64) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	return payload
}
