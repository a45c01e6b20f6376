// Package oci adapts OCI Object Storage to the storage contract.
//
// Signed URLs are pre-authenticated requests rather than query-string
// signatures; each SignedURL call creates a new PAR scoped to one
// object. Copy is asynchronous on the service side, so CopyResult
// carries no change token.
package oci
