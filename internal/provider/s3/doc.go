// Package s3 adapts Amazon S3 and S3-compatible endpoints to the
// storage contract using the AWS SDK v2.
//
// The adapter normalizes S3 semantics to the contract: DeleteObject is
// already idempotent, HeadObject 404s become NOT_FOUND errors with the
// key in the message, and ListObjectsV2 continuation tokens pass
// through unchanged. Signed URLs come from the SDK presigner.
package s3
