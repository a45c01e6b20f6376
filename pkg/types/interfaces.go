package types

import (
	"context"
	"time"
)

// Provider is the operation set every storage backend must expose. All
// methods may block on network or disk I/O and honor context cancellation
// to the extent the underlying SDK does.
//
// Mutating operations (Upload, Delete, Copy) are externally visible
// immediately upon successful return.
type Provider interface {
	// Name returns the configured provider name.
	Name() string

	// Initialize establishes connectivity and verifies the target
	// bucket/container exists and is reachable. It never leaves the
	// provider partially initialized.
	Initialize(ctx context.Context) error

	// Upload stores src under key, overwriting any existing object.
	// There is no optimistic-concurrency check.
	Upload(ctx context.Context, key string, src Source, opts *UploadOptions) (*UploadResult, error)

	// Download writes the object at key to destPath, creating missing
	// parent directories. A partial write fails, it never silently
	// truncates.
	Download(ctx context.Context, key, destPath string) (*DownloadResult, error)

	// GetMetadata returns the object's metadata without its content.
	GetMetadata(ctx context.Context, key string) (*ObjectMetadata, error)

	// List returns one page of objects matching opts. A nil opts lists
	// everything from the beginning.
	List(ctx context.Context, opts *ListOptions) (*ListPage, error)

	// Delete removes the object at key. Deleting an absent key is a
	// no-op success on every backend.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present. Absence is not an error.
	Exists(ctx context.Context, key string) (bool, error)

	// SignedURL issues a time-boxed URL granting access to key without
	// credentials.
	SignedURL(ctx context.Context, key string, opts *SignedURLOptions) (*SignedURL, error)

	// Copy duplicates sourceKey under destKey within the same namespace.
	Copy(ctx context.Context, sourceKey, destKey string) (*CopyResult, error)

	// Close releases any resources held by the provider.
	Close() error
}

// CheckHealth is a synthetic liveness probe built purely from contract
// primitives: a bounded List call, reported as healthy or unhealthy with
// the causing error. It needs no backend-specific code.
func CheckHealth(ctx context.Context, p Provider) HealthStatus {
	start := time.Now()
	status := HealthStatus{
		Provider:  p.Name(),
		Status:    StateHealthy,
		CheckedAt: start,
	}

	if _, err := p.List(ctx, &ListOptions{Limit: 1}); err != nil {
		status.Status = StateUnhealthy
		status.Message = err.Error()
	}

	status.Response = time.Since(start)
	return status
}
