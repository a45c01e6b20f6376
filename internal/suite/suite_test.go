package suite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/internal/provider/local"
	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

func testConfig() *config.Configuration {
	cfg := config.NewDefault()
	cfg.Benchmark.ObjectSize = 4 * 1024
	cfg.Benchmark.LargeObjectSize = 256 * 1024
	cfg.Benchmark.Concurrency = 4
	cfg.Benchmark.KeyPrefix = "probe-"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func localFactory(t *testing.T) ProviderFactory {
	t.Helper()
	return func(ctx context.Context, name string) (types.Provider, error) {
		p, err := local.New(name, t.TempDir(), quietLogger())
		if err != nil {
			return nil, err
		}
		if err := p.Initialize(ctx); err != nil {
			return nil, err
		}
		return p, nil
	}
}

func TestRun_ConformanceAgainstLocal(t *testing.T) {
	r := NewRunner(testConfig(), localFactory(t), nil, quietLogger())

	results, err := r.Run(context.Background(), "conformance", []string{"workspace"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, StatusPassed, res.Overall, "outcomes: %+v", res.Tests)
	assert.Equal(t, 1.0, res.PassRate)
	assert.Len(t, res.Tests, 7)
	for _, tc := range res.Tests {
		assert.Equal(t, StatusPassed, tc.Status, "test %s: %s", tc.Name, tc.Error)
	}
}

func TestRun_PerformanceAgainstLocal(t *testing.T) {
	r := NewRunner(testConfig(), localFactory(t), nil, quietLogger())

	results, err := r.Run(context.Background(), "performance", []string{"workspace"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, StatusPassed, res.Overall, "outcomes: %+v", res.Tests)

	var sawRatio bool
	for _, tc := range res.Tests {
		if tc.Name == "concurrent-upload" {
			sawRatio = true
			assert.Equal(t, 1.0, tc.Metrics["success_ratio"])
		}
	}
	assert.True(t, sawRatio)
}

func TestRun_SecurityAgainstLocal(t *testing.T) {
	r := NewRunner(testConfig(), localFactory(t), nil, quietLogger())

	results, err := r.Run(context.Background(), "security", []string{"workspace"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusPassed, results[0].Overall, "outcomes: %+v", results[0].Tests)
}

func TestRun_UnknownSuite(t *testing.T) {
	r := NewRunner(testConfig(), localFactory(t), nil, quietLogger())

	_, err := r.Run(context.Background(), "chaos", []string{"workspace"})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestRun_InitializeFailureIsError(t *testing.T) {
	factory := func(ctx context.Context, name string) (types.Provider, error) {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "endpoint unreachable")
	}
	r := NewRunner(testConfig(), factory, nil, quietLogger())

	results, err := r.Run(context.Background(), "conformance", []string{"down"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Overall)
	assert.Empty(t, results[0].Tests)
}

func TestRun_OneProviderFailureDoesNotAbortOthers(t *testing.T) {
	good := localFactory(t)
	factory := func(ctx context.Context, name string) (types.Provider, error) {
		if name == "down" {
			return nil, errors.New(errors.ErrCodeConnectionFailed, "endpoint unreachable")
		}
		return good(ctx, name)
	}
	r := NewRunner(testConfig(), factory, nil, quietLogger())

	results, err := r.Run(context.Background(), "conformance", []string{"down", "workspace"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, StatusError, results[0].Overall)
	assert.Equal(t, StatusPassed, results[1].Overall)
}

func TestRun_StepFailureIsIsolated(t *testing.T) {
	factory := func(ctx context.Context, name string) (types.Provider, error) {
		p := newFakeProvider(name)
		p.failOn["download"] = errors.New(errors.ErrCodeOperationFailed, "simulated read failure")
		return p, nil
	}
	r := NewRunner(testConfig(), factory, nil, quietLogger())

	results, err := r.Run(context.Background(), "conformance", []string{"flaky"})
	require.NoError(t, err)
	res := results[0]

	assert.Equal(t, StatusFailed, res.Overall)
	require.Len(t, res.Tests, 7, "a failing test must not stop the suite")

	byName := map[string]TestOutcome{}
	for _, tc := range res.Tests {
		byName[tc.Name] = tc
	}
	assert.Equal(t, StatusFailed, byName["download"].Status)
	assert.Contains(t, byName["download"].Error, "simulated read failure")
	assert.Equal(t, StatusPassed, byName["metadata"].Status)
	assert.Equal(t, StatusPassed, byName["delete"].Status)
}

func TestRun_PanicIsIsolated(t *testing.T) {
	factory := func(ctx context.Context, name string) (types.Provider, error) {
		p := newFakeProvider(name)
		p.panicOn = "list"
		return p, nil
	}
	r := NewRunner(testConfig(), factory, nil, quietLogger())

	results, err := r.Run(context.Background(), "conformance", []string{"panicky"})
	require.NoError(t, err)
	res := results[0]

	byName := map[string]TestOutcome{}
	for _, tc := range res.Tests {
		byName[tc.Name] = tc
	}
	assert.Equal(t, StatusFailed, byName["list"].Status)
	assert.Contains(t, byName["list"].Error, "panic")
	assert.Equal(t, StatusPassed, byName["delete"].Status)
}

func TestRun_PreconditionFailure(t *testing.T) {
	factory := func(ctx context.Context, name string) (types.Provider, error) {
		p := newFakeProvider(name)
		p.failOn["upload"] = errors.New(errors.ErrCodeOperationFailed, "write rejected")
		return p, nil
	}
	r := NewRunner(testConfig(), factory, nil, quietLogger())

	results, err := r.Run(context.Background(), "conformance", []string{"readonly"})
	require.NoError(t, err)

	byName := map[string]TestOutcome{}
	for _, tc := range results[0].Tests {
		byName[tc.Name] = tc
	}
	assert.Equal(t, StatusFailed, byName["upload"].Status)
	assert.Equal(t, StatusFailed, byName["download"].Status)
	assert.Contains(t, byName["download"].Error, "precondition failed")
}

func TestThroughput(t *testing.T) {
	tests := []struct {
		bytes, millis int64
		want          float64
	}{
		{1000, 1000, 1000},
		{5000, 500, 10000},
		{100, 0, 100000}, // clamps to 1ms
	}
	for _, tt := range tests {
		if got := throughput(tt.bytes, tt.millis); got != tt.want {
			t.Errorf("throughput(%d, %d) = %f, want %f", tt.bytes, tt.millis, got, tt.want)
		}
	}
}

// fakeProvider is an in-memory contract implementation with injectable
// failures and panics, keyed by operation name.
type fakeProvider struct {
	name    string
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
	failOn  map[string]error
	panicOn string
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{
		name:    name,
		objects: make(map[string][]byte),
		meta:    make(map[string]map[string]string),
		failOn:  make(map[string]error),
	}
}

func (f *fakeProvider) trip(op string) error {
	if f.panicOn == op {
		panic("injected panic in " + op)
	}
	return f.failOn[op]
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Initialize(ctx context.Context) error { return f.trip("initialize") }

func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) Upload(ctx context.Context, key string, src types.Source, opts *types.UploadOptions) (*types.UploadResult, error) {
	if err := f.trip("upload"); err != nil {
		return nil, err
	}
	reader, size, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	data := make([]byte, size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	if opts != nil {
		f.meta[key] = opts.Metadata
	}
	return &types.UploadResult{Key: key, ETag: fmt.Sprintf("etag-%d", len(data)), Size: size}, nil
}

func (f *fakeProvider) Download(ctx context.Context, key, destPath string) (*types.DownloadResult, error) {
	if err := f.trip("download"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	data, ok := f.objects[key]
	f.mu.Unlock()
	if !ok {
		return nil, errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", key)
	}
	if err := os.WriteFile(destPath, data, 0600); err != nil {
		return nil, err
	}
	return &types.DownloadResult{Key: key, DestinationPath: destPath, Size: int64(len(data))}, nil
}

func (f *fakeProvider) GetMetadata(ctx context.Context, key string) (*types.ObjectMetadata, error) {
	if err := f.trip("metadata"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", key)
	}
	return &types.ObjectMetadata{
		Key: key, Size: int64(len(data)), ETag: fmt.Sprintf("etag-%d", len(data)),
		LastModified: time.Now(), Metadata: f.meta[key],
	}, nil
}

func (f *fakeProvider) List(ctx context.Context, opts *types.ListOptions) (*types.ListPage, error) {
	if err := f.trip("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &types.ListPage{}
	for key, data := range f.objects {
		if opts == nil || strings.HasPrefix(key, opts.Prefix) {
			page.Objects = append(page.Objects, types.ObjectMetadata{Key: key, Size: int64(len(data))})
		}
	}
	return page, nil
}

func (f *fakeProvider) Delete(ctx context.Context, key string) error {
	if err := f.trip("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	delete(f.meta, key)
	return nil
}

func (f *fakeProvider) Exists(ctx context.Context, key string) (bool, error) {
	if err := f.trip("exists"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeProvider) SignedURL(ctx context.Context, key string, opts *types.SignedURLOptions) (*types.SignedURL, error) {
	if err := f.trip("signed-url"); err != nil {
		return nil, err
	}
	return &types.SignedURL{URL: "fake://" + key, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeProvider) Copy(ctx context.Context, sourceKey, destKey string) (*types.CopyResult, error) {
	if err := f.trip("copy"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[sourceKey]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", sourceKey)
	}
	f.objects[destKey] = data
	return &types.CopyResult{SourceKey: sourceKey, DestinationKey: destKey}, nil
}

var _ types.Provider = (*fakeProvider)(nil)
