// Package minio adapts MinIO and other S3-compatible servers to the
// storage contract through the native MinIO client.
//
// Listing uses the client's streaming iterator; the continuation token
// is the last key of the previous page, replayed through StartAfter.
package minio
