package minio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// Provider adapts a MinIO bucket to the storage contract.
type Provider struct {
	name   string
	bucket string
	client *minio.Client
	logger *slog.Logger
}

// New builds the MinIO client. Initialize verifies the bucket exists.
func New(name string, cfg *config.ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeMissingConfig, "minio provider requires an endpoint")
	}
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeMissingConfig, "minio provider requires a bucket")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "failed to build minio client", err)
	}

	return &Provider{
		name:   name,
		bucket: cfg.Bucket,
		client: client,
		logger: logger.With("component", "minio-provider", "bucket", cfg.Bucket),
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Initialize(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectionFailed,
			"cannot reach endpoint for bucket "+p.bucket, err)
	}
	if !exists {
		return errors.Newf(errors.ErrCodeBucketNotFound, "bucket not found: %s", p.bucket)
	}
	return nil
}

func (p *Provider) Upload(ctx context.Context, key string, src types.Source, opts *types.UploadOptions) (*types.UploadResult, error) {
	start := time.Now()

	reader, size, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if opts == nil {
		opts = &types.UploadOptions{}
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = types.DetectContentType(key)
	}

	info, err := p.client.PutObject(ctx, p.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return nil, p.translateError(err, "PutObject", key)
	}

	p.logger.Debug("object uploaded", "key", key, "size", info.Size)

	return &types.UploadResult{
		Key:           key,
		Location:      fmt.Sprintf("minio://%s/%s", p.bucket, key),
		ETag:          info.ETag,
		Size:          info.Size,
		ElapsedMillis: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Provider) Download(ctx context.Context, key, destPath string) (*types.DownloadResult, error) {
	start := time.Now()

	stat, err := p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, p.translateError(err, "StatObject", key)
	}

	if err := p.client.FGetObject(ctx, p.bucket, key, destPath, minio.GetObjectOptions{}); err != nil {
		return nil, p.translateError(err, "FGetObject", key)
	}

	return &types.DownloadResult{
		Key:             key,
		DestinationPath: destPath,
		Size:            stat.Size,
		ElapsedMillis:   time.Since(start).Milliseconds(),
		Metadata:        objectMetadata(key, stat),
	}, nil
}

func (p *Provider) GetMetadata(ctx context.Context, key string) (*types.ObjectMetadata, error) {
	stat, err := p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, p.translateError(err, "StatObject", key)
	}
	return objectMetadata(key, stat), nil
}

// List drains the client's streaming iterator up to one entry past the
// limit. The continuation token is the last key returned, fed back in
// through StartAfter.
func (p *Provider) List(ctx context.Context, opts *types.ListOptions) (*types.ListPage, error) {
	if opts == nil {
		opts = &types.ListOptions{}
	}

	listOpts := minio.ListObjectsOptions{
		Prefix:     opts.Prefix,
		Recursive:  true,
		StartAfter: opts.ContinuationToken,
	}

	want := -1
	if opts.Limit > 0 {
		want = opts.Limit + 1
	}

	page := &types.ListPage{}
	for info := range p.client.ListObjects(ctx, p.bucket, listOpts) {
		if info.Err != nil {
			return nil, p.translateError(info.Err, "ListObjects", opts.Prefix)
		}
		page.Objects = append(page.Objects, types.ObjectMetadata{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
			ETag:         strings.Trim(info.ETag, `"`),
			ContentType:  info.ContentType,
		})
		if want > 0 && len(page.Objects) == want {
			break
		}
	}

	if want > 0 && len(page.Objects) == want {
		page.Objects = page.Objects[:opts.Limit]
		page.IsTruncated = true
		page.ContinuationToken = page.Objects[len(page.Objects)-1].Key
	}
	return page, nil
}

// Delete treats a missing key as success; RemoveObject on an absent
// key already returns nil.
func (p *Provider) Delete(ctx context.Context, key string) error {
	if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return p.translateError(err, "RemoveObject", key)
	}
	return nil
}

func (p *Provider) Exists(ctx context.Context, key string) (bool, error) {
	_, err := p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, p.translateError(err, "StatObject", key)
	}
	return true, nil
}

func (p *Provider) SignedURL(ctx context.Context, key string, opts *types.SignedURLOptions) (*types.SignedURL, error) {
	method := "GET"
	expires := types.DefaultSignedURLExpiry
	if opts != nil {
		if opts.Method != "" {
			method = strings.ToUpper(opts.Method)
		}
		if opts.Expires > 0 {
			expires = opts.Expires
		}
	}

	var (
		u   fmt.Stringer
		err error
	)
	switch method {
	case "GET":
		u, err = p.client.PresignedGetObject(ctx, p.bucket, key, expires, nil)
	case "PUT":
		u, err = p.client.PresignedPutObject(ctx, p.bucket, key, expires)
	default:
		return nil, errors.Newf(errors.ErrCodeOperationFailed,
			"unsupported signed URL method: %s", method)
	}
	if err != nil {
		return nil, p.translateError(err, "Presign", key)
	}

	return &types.SignedURL{
		URL:       u.String(),
		ExpiresAt: time.Now().Add(expires),
	}, nil
}

func (p *Provider) Copy(ctx context.Context, sourceKey, destKey string) (*types.CopyResult, error) {
	info, err := p.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: p.bucket, Object: destKey},
		minio.CopySrcOptions{Bucket: p.bucket, Object: sourceKey})
	if err != nil {
		return nil, p.translateError(err, "CopyObject", sourceKey)
	}

	return &types.CopyResult{
		SourceKey:      sourceKey,
		DestinationKey: destKey,
		ETag:           strings.Trim(info.ETag, `"`),
	}, nil
}

func (p *Provider) Close() error {
	return nil
}

func (p *Provider) translateError(err error, operation, key string) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", key)
	case "NoSuchBucket":
		return errors.Newf(errors.ErrCodeBucketNotFound, "bucket not found: %s", p.bucket)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errors.Wrap(errors.ErrCodeAuthenticationFailed,
			fmt.Sprintf("%s denied for %s", operation, key), err)
	default:
		return errors.Wrap(errors.ErrCodeOperationFailed,
			fmt.Sprintf("%s failed for %s", operation, key), err)
	}
}

func objectMetadata(key string, info minio.ObjectInfo) *types.ObjectMetadata {
	meta := &types.ObjectMetadata{
		Key:          key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         strings.Trim(info.ETag, `"`),
		ContentType:  info.ContentType,
	}
	if len(info.UserMetadata) > 0 {
		meta.Metadata = make(map[string]string, len(info.UserMetadata))
		for k, v := range info.UserMetadata {
			meta.Metadata[strings.ToLower(k)] = v
		}
	}
	return meta
}

var _ types.Provider = (*Provider)(nil)
