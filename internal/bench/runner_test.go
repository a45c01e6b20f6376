package bench

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/internal/provider/local"
	"github.com/storageprobe/storageprobe/pkg/types"
)

func newLocalProvider(t *testing.T) types.Provider {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	p, err := local.New("bench-local", t.TempDir(), logger)
	require.NoError(t, err)
	require.NoError(t, p.Initialize(context.Background()))
	return p
}

func benchConfig() *config.BenchmarkConfig {
	return &config.BenchmarkConfig{
		ObjectSize:      8 * 1024,
		LargeObjectSize: 128 * 1024,
		Concurrency:     4,
		KeyPrefix:       "bench-",
	}
}

func TestRun(t *testing.T) {
	p := newLocalProvider(t)
	r := NewRunner(benchConfig(), nil, nil, false)

	report, err := r.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "bench-local", report.Provider)
	require.Len(t, report.Samples, 4)

	ops := make([]string, 0, 4)
	for _, s := range report.Samples {
		ops = append(ops, s.Operation)
		assert.Positive(t, s.ThroughputBps, "operation %s", s.Operation)
		assert.Positive(t, s.ElapsedMillis, "operation %s", s.Operation)
	}
	assert.Equal(t, []string{"upload", "download", "upload-large", "download-large"}, ops)

	assert.Equal(t, 4, report.Concurrent.Requested)
	assert.Equal(t, 4, report.Concurrent.Succeeded)
	assert.Equal(t, 1.0, report.Concurrent.SuccessRatio)
}

func TestRun_CleansUpObjects(t *testing.T) {
	p := newLocalProvider(t)
	r := NewRunner(benchConfig(), nil, nil, false)

	_, err := r.Run(context.Background(), p)
	require.NoError(t, err)

	page, err := p.List(context.Background(), &types.ListOptions{Prefix: "bench-"})
	require.NoError(t, err)
	assert.Empty(t, page.Objects, "benchmark objects must not accumulate")
}

func TestRun_RateLimited(t *testing.T) {
	cfg := benchConfig()
	cfg.RateLimit = 100
	p := newLocalProvider(t)
	r := NewRunner(cfg, nil, nil, false)

	report, err := r.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Concurrent.SuccessRatio)
}

func TestNewSample(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		elapsed time.Duration
		want    float64
	}{
		{"one second", 1000, time.Second, 1000},
		{"half second", 5000, 500 * time.Millisecond, 10000},
		{"sub-millisecond clamps", 100, 10 * time.Microsecond, 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSample("upload", tt.size, tt.elapsed, 1)
			assert.Equal(t, tt.want, s.ThroughputBps)
			assert.Positive(t, s.ElapsedMillis)
		})
	}
}
