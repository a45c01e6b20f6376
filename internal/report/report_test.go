package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/storageprobe/storageprobe/internal/bench"
	"github.com/storageprobe/storageprobe/internal/suite"
	"github.com/storageprobe/storageprobe/pkg/types"
)

func init() {
	color.NoColor = true
}

func TestSuiteResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true)

	r.SuiteResults([]suite.Result{
		{
			Provider: "local", Suite: "conformance", Overall: suite.StatusPassed,
			PassRate: 1.0, ElapsedMillis: 42,
			Tests: []suite.TestOutcome{
				{Name: "upload", Status: suite.StatusPassed, ElapsedMillis: 5},
			},
		},
		{
			Provider: "s3-dev", Suite: "conformance", Overall: suite.StatusError,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "passed")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "upload")
}

func TestBenchReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	r.BenchReport(&bench.Report{
		Provider: "local",
		Samples: []bench.Sample{
			{Operation: "upload", SizeBytes: 1024 * 1024, ElapsedMillis: 100, ThroughputBps: 10 * 1024 * 1024},
		},
		Concurrent: bench.ConcurrentResult{Requested: 10, Succeeded: 9, SuccessRatio: 0.9, ElapsedMillis: 250},
	})

	out := buf.String()
	assert.Contains(t, out, "upload")
	assert.Contains(t, out, "1.0MiB")
	assert.Contains(t, out, "9/10 (90%)")
}

func TestHealthStatuses(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	r.HealthStatuses([]types.HealthStatus{
		{Provider: "local", Status: types.StateHealthy, Response: 3 * time.Millisecond},
		{Provider: "s3-dev", Status: types.StateUnhealthy, Message: "connection refused"},
	})

	out := buf.String()
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "connection refused")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512B"},
		{2048, "2.0KiB"},
		{32 * 1024 * 1024, "32.0MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
