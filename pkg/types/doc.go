/*
Package types defines the storage provider contract for storageprobe.

Every backend (local filesystem, S3, S3-compatible, OCI) implements the
Provider interface with identical caller-visible semantics, so the test
suites and benchmarks in internal/suite and internal/bench can be written
once against the contract and run against any configured backend.

The contract deliberately normalizes divergent backend behavior:

  - Delete of an absent key is a no-op success on every backend, even where
    the underlying SDK reports an error.
  - Exists never fails for absence, only for connectivity problems.
  - ETag is a change-detection token only; its strength varies by backend.
    The local reference provider defines it as the SHA-256 content hash,
    cloud backends return whatever opaque token their service produces.
  - List is paginated: Limit caps one page, callers loop on
    ContinuationToken until IsTruncated is false.

Backend-specific SDK types never appear in contract return values.
*/
package types
