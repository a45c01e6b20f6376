package types

import (
	"strings"
	"time"
)

// DefaultSignedURLExpiry is the expiry applied when SignedURLOptions does not
// set one.
const DefaultSignedURLExpiry = time.Hour

// ObjectMetadata describes a stored object at the contract level.
type ObjectMetadata struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	LastModified time.Time         `json:"last_modified"`
	ETag         string            `json:"etag"`
	ContentType  string            `json:"content_type"`
	Metadata     map[string]string `json:"metadata"`
}

// UploadOptions carries optional parameters for Upload.
type UploadOptions struct {
	// ContentType overrides content-type inference from the key.
	ContentType string `json:"content_type,omitempty"`
	// Metadata is user metadata stored verbatim alongside the object.
	Metadata map[string]string `json:"metadata,omitempty"`
	// Encryption names a backend-specific server-side encryption mode.
	Encryption string `json:"encryption,omitempty"`
}

// UploadResult reports a completed upload.
type UploadResult struct {
	Key           string `json:"key"`
	Location      string `json:"location"`
	ETag          string `json:"etag"`
	Size          int64  `json:"size"`
	ElapsedMillis int64  `json:"elapsed_millis"`
}

// DownloadResult reports a completed download.
type DownloadResult struct {
	Key             string          `json:"key"`
	DestinationPath string          `json:"destination_path"`
	Size            int64           `json:"size"`
	ElapsedMillis   int64           `json:"elapsed_millis"`
	Metadata        *ObjectMetadata `json:"metadata,omitempty"`
}

// CopyResult reports a completed server-side copy.
type CopyResult struct {
	SourceKey      string `json:"source_key"`
	DestinationKey string `json:"destination_key"`
	ETag           string `json:"etag"`
}

// ListOptions configures a List call. Limit caps the page size, not the
// total matching set; ContinuationToken resumes a previous page.
type ListOptions struct {
	Prefix            string `json:"prefix,omitempty"`
	Limit             int    `json:"limit,omitempty"`
	ContinuationToken string `json:"continuation_token,omitempty"`
}

// ListPage is one page of a listing.
type ListPage struct {
	Objects           []ObjectMetadata `json:"objects"`
	IsTruncated       bool             `json:"is_truncated"`
	ContinuationToken string           `json:"continuation_token,omitempty"`
}

// SignedURLOptions configures SignedURL issuance.
type SignedURLOptions struct {
	// Method is the HTTP method the URL grants, GET by default.
	Method string `json:"method,omitempty"`
	// Expires bounds the URL lifetime; DefaultSignedURLExpiry when zero.
	Expires time.Duration `json:"expires,omitempty"`
}

// SignedURL is a time-boxed, credential-free URL for one object.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthState is the outcome of a liveness probe.
type HealthState string

const (
	StateHealthy   HealthState = "healthy"
	StateUnhealthy HealthState = "unhealthy"
)

// HealthStatus reports the result of CheckHealth.
type HealthStatus struct {
	Provider  string        `json:"provider"`
	Status    HealthState   `json:"status"`
	Message   string        `json:"message,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	Response  time.Duration `json:"response_time"`
}

// Healthy reports whether the probe succeeded.
func (h HealthStatus) Healthy() bool {
	return h.Status == StateHealthy
}

// DetectContentType infers a MIME type from a key's extension.
// Providers call this when UploadOptions leaves ContentType unset.
func DetectContentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".xml"):
		return "application/xml"
	case strings.HasSuffix(key, ".html"):
		return "text/html"
	case strings.HasSuffix(key, ".txt"):
		return "text/plain"
	case strings.HasSuffix(key, ".yaml"), strings.HasSuffix(key, ".yml"):
		return "application/x-yaml"
	case strings.HasSuffix(key, ".csv"):
		return "text/csv"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(key, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
