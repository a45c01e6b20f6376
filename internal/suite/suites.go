package suite

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

const conformancePayload = "Hello, Object Storage!"

// newKey returns a unique object key under the configured prefix.
func (r *Runner) newKey(kind string) string {
	return fmt.Sprintf("%s%s-%d", r.cfg.Benchmark.KeyPrefix, kind, time.Now().UnixNano())
}

// makePayload builds a deterministic payload of the given size.
func makePayload(size int64) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	return payload
}

func (r *Runner) conformanceSteps() []step {
	return []step{
		{name: "upload", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			key := r.newKey("conformance")
			payload := []byte(conformancePayload)

			res, err := p.Upload(ctx, key, types.BytesSource(payload), nil)
			if err != nil {
				return nil, err
			}
			if res.Size != int64(len(payload)) {
				return nil, fmt.Errorf("upload reported size %d, want %d", res.Size, len(payload))
			}

			st.uploadedKey = key
			st.payload = payload
			st.cleanupKeys = append(st.cleanupKeys, key)
			return map[string]float64{"size_bytes": float64(res.Size)}, nil
		}},
		{name: "download", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			if err := requireUploaded(st); err != nil {
				return nil, err
			}

			dest := filepath.Join(st.tempDir, "conformance-download.bin")
			res, err := p.Download(ctx, st.uploadedKey, dest)
			if err != nil {
				return nil, err
			}

			got, err := os.ReadFile(dest)
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(got, st.payload) {
				return nil, fmt.Errorf("downloaded bytes differ from uploaded payload")
			}
			return map[string]float64{"size_bytes": float64(res.Size)}, nil
		}},
		{name: "metadata", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			if err := requireUploaded(st); err != nil {
				return nil, err
			}

			meta, err := p.GetMetadata(ctx, st.uploadedKey)
			if err != nil {
				return nil, err
			}
			if meta.Size != int64(len(st.payload)) {
				return nil, fmt.Errorf("metadata size %d, want %d", meta.Size, len(st.payload))
			}
			if meta.ETag == "" {
				return nil, fmt.Errorf("metadata etag is empty")
			}
			return nil, nil
		}},
		{name: "exists", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			if err := requireUploaded(st); err != nil {
				return nil, err
			}

			ok, err := p.Exists(ctx, st.uploadedKey)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("uploaded object reported as absent")
			}

			ok, err = p.Exists(ctx, st.uploadedKey+"-never-created")
			if err != nil {
				return nil, fmt.Errorf("exists errored on absent key: %w", err)
			}
			if ok {
				return nil, fmt.Errorf("absent key reported as present")
			}
			return nil, nil
		}},
		{name: "list", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			if err := requireUploaded(st); err != nil {
				return nil, err
			}

			page, err := p.List(ctx, &types.ListOptions{Prefix: st.uploadedKey})
			if err != nil {
				return nil, err
			}
			for _, obj := range page.Objects {
				if obj.Key == st.uploadedKey {
					return map[string]float64{"listed": float64(len(page.Objects))}, nil
				}
			}
			return nil, fmt.Errorf("uploaded key absent from listing of %d objects", len(page.Objects))
		}},
		{name: "copy", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			if err := requireUploaded(st); err != nil {
				return nil, err
			}

			destKey := st.uploadedKey + "-copy"
			if _, err := p.Copy(ctx, st.uploadedKey, destKey); err != nil {
				return nil, err
			}
			st.cleanupKeys = append(st.cleanupKeys, destKey)

			ok, err := p.Exists(ctx, destKey)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("copy destination does not exist")
			}
			return nil, nil
		}},
		{name: "delete", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			if err := requireUploaded(st); err != nil {
				return nil, err
			}

			if err := p.Delete(ctx, st.uploadedKey); err != nil {
				return nil, err
			}
			ok, err := p.Exists(ctx, st.uploadedKey)
			if err != nil {
				return nil, err
			}
			if ok {
				return nil, fmt.Errorf("object still present after delete")
			}
			// Second delete of the same key must succeed.
			if err := p.Delete(ctx, st.uploadedKey); err != nil {
				return nil, fmt.Errorf("repeated delete errored: %w", err)
			}
			return nil, nil
		}},
	}
}

func (r *Runner) performanceSteps() []step {
	return []step{
		{name: "timed-upload", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			key := r.newKey("perf")
			payload := makePayload(r.cfg.Benchmark.ObjectSize)

			start := time.Now()
			res, err := p.Upload(ctx, key, types.BytesSource(payload), nil)
			elapsed := time.Since(start)
			if err != nil {
				return nil, err
			}

			st.uploadedKey = key
			st.payload = payload
			st.cleanupKeys = append(st.cleanupKeys, key)
			return map[string]float64{
				"elapsed_ms":     float64(elapsed.Milliseconds()),
				"throughput_bps": throughput(res.Size, elapsed.Milliseconds()),
			}, nil
		}},
		{name: "timed-download", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			if err := requireUploaded(st); err != nil {
				return nil, err
			}

			dest := filepath.Join(st.tempDir, "perf-download.bin")
			start := time.Now()
			res, err := p.Download(ctx, st.uploadedKey, dest)
			elapsed := time.Since(start)
			if err != nil {
				return nil, err
			}

			return map[string]float64{
				"elapsed_ms":     float64(elapsed.Milliseconds()),
				"throughput_bps": throughput(res.Size, elapsed.Milliseconds()),
			}, nil
		}},
		{name: "concurrent-upload", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			n := r.cfg.Benchmark.Concurrency
			payload := makePayload(r.cfg.Benchmark.ObjectSize)
			prefix := r.newKey("concurrent")

			var succeeded atomic.Int64
			start := time.Now()
			var g errgroup.Group
			for i := 0; i < n; i++ {
				key := fmt.Sprintf("%s/%d", prefix, i)
				st.cleanupKeys = append(st.cleanupKeys, key)
				g.Go(func() error {
					if _, err := p.Upload(ctx, key, types.BytesSource(payload), nil); err == nil {
						succeeded.Add(1)
					}
					return nil
				})
			}
			g.Wait()
			elapsed := time.Since(start)

			ratio := float64(succeeded.Load()) / float64(n)
			if succeeded.Load() == 0 {
				return nil, fmt.Errorf("all %d concurrent uploads failed", n)
			}
			return map[string]float64{
				"concurrency":   float64(n),
				"success_ratio": ratio,
				"elapsed_ms":    float64(elapsed.Milliseconds()),
			}, nil
		}},
		{name: "large-object", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			key := r.newKey("large")
			payload := makePayload(r.cfg.Benchmark.LargeObjectSize)
			want := sha256.Sum256(payload)

			start := time.Now()
			if _, err := p.Upload(ctx, key, types.BytesSource(payload), nil); err != nil {
				return nil, err
			}
			st.cleanupKeys = append(st.cleanupKeys, key)

			dest := filepath.Join(st.tempDir, "large-download.bin")
			if _, err := p.Download(ctx, key, dest); err != nil {
				return nil, err
			}
			elapsed := time.Since(start)

			got, err := os.ReadFile(dest)
			if err != nil {
				return nil, err
			}
			gotSum := sha256.Sum256(got)
			if hex.EncodeToString(gotSum[:]) != hex.EncodeToString(want[:]) {
				return nil, fmt.Errorf("large object corrupted in transit")
			}
			return map[string]float64{
				"size_bytes": float64(len(payload)),
				"elapsed_ms": float64(elapsed.Milliseconds()),
			}, nil
		}},
	}
}

func (r *Runner) securitySteps() []step {
	return []step{
		{name: "signed-url", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			key := r.newKey("signed")
			if _, err := p.Upload(ctx, key, types.BytesSource([]byte(conformancePayload)), nil); err != nil {
				return nil, err
			}
			st.cleanupKeys = append(st.cleanupKeys, key)

			signed, err := p.SignedURL(ctx, key, &types.SignedURLOptions{Method: "GET", Expires: 15 * time.Minute})
			if err != nil {
				return nil, err
			}
			if signed.URL == "" {
				return nil, fmt.Errorf("signed URL is empty")
			}
			if !signed.ExpiresAt.After(time.Now()) {
				return nil, fmt.Errorf("signed URL already expired at %s", signed.ExpiresAt)
			}
			return nil, nil
		}},
		{name: "absent-key-access", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			key := r.newKey("absent")

			if _, err := p.GetMetadata(ctx, key); !errors.IsNotFound(err) {
				return nil, fmt.Errorf("metadata of absent key: want not-found, got %v", err)
			}
			dest := filepath.Join(st.tempDir, "absent.bin")
			if _, err := p.Download(ctx, key, dest); !errors.IsNotFound(err) {
				return nil, fmt.Errorf("download of absent key: want not-found, got %v", err)
			}
			return nil, nil
		}},
		{name: "metadata-integrity", fn: func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error) {
			key := r.newKey("meta")
			userMeta := map[string]string{"user-id": "12345"}

			if _, err := p.Upload(ctx, key, types.BytesSource([]byte(conformancePayload)), &types.UploadOptions{Metadata: userMeta}); err != nil {
				return nil, err
			}
			st.cleanupKeys = append(st.cleanupKeys, key)

			meta, err := p.GetMetadata(ctx, key)
			if err != nil {
				return nil, err
			}
			if meta.Metadata["user-id"] != "12345" {
				return nil, fmt.Errorf("user metadata lost: got %v", meta.Metadata)
			}
			return nil, nil
		}},
	}
}

// throughput converts a byte count and elapsed milliseconds to bytes
// per second, clamping sub-millisecond measurements.
func throughput(sizeBytes, elapsedMillis int64) float64 {
	if elapsedMillis <= 0 {
		elapsedMillis = 1
	}
	return float64(sizeBytes) / float64(elapsedMillis) * 1000
}
