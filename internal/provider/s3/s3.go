package s3

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// Provider adapts an S3 bucket to the storage contract.
type Provider struct {
	name    string
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
	logger  *slog.Logger
}

// New builds the S3 client from the provider configuration. Credential
// resolution follows the SDK default chain unless static credentials
// are configured. No network calls happen here; Initialize verifies
// the bucket.
func New(ctx context.Context, name string, cfg *config.ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeMissingConfig, "s3 provider requires a bucket")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "failed to load AWS config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Provider{
		name:    name,
		bucket:  cfg.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
		logger:  logger.With("component", "s3-provider", "bucket", cfg.Bucket),
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// Initialize verifies the bucket is reachable with the resolved
// credentials.
func (p *Provider) Initialize(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.bucket),
	})
	if err != nil {
		if isErrorType[*s3types.NotFound](err) || isErrorType[*s3types.NoSuchBucket](err) {
			return errors.Newf(errors.ErrCodeBucketNotFound, "bucket not found: %s", p.bucket)
		}
		return errors.Wrap(errors.ErrCodeConnectionFailed,
			"cannot reach bucket "+p.bucket, err)
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

	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}
	if opts.Encryption != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryption(opts.Encryption)
	}

	out, err := p.client.PutObject(ctx, input)
	if err != nil {
		return nil, p.translateError(err, "PutObject", key)
	}

	p.logger.Debug("object uploaded", "key", key, "size", size)

	return &types.UploadResult{
		Key:           key,
		Location:      fmt.Sprintf("s3://%s/%s", p.bucket, key),
		ETag:          trimETag(out.ETag),
		Size:          size,
		ElapsedMillis: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Provider) Download(ctx context.Context, key, destPath string) (*types.DownloadResult, error) {
	start := time.Now()

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, p.translateError(err, "GetObject", key)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create destination directory", err)
	}
	dst, err := os.Create(destPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create destination file", err)
	}

	written, copyErr := io.Copy(dst, out.Body)
	if cerr := dst.Close(); copyErr == nil && cerr != nil {
		copyErr = cerr
	}
	if copyErr != nil {
		os.Remove(destPath)
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"partial download of "+key, copyErr)
	}

	return &types.DownloadResult{
		Key:             key,
		DestinationPath: destPath,
		Size:            written,
		ElapsedMillis:   time.Since(start).Milliseconds(),
		Metadata:        objectMetadata(key, out.ContentLength, out.LastModified, out.ETag, out.ContentType, out.Metadata),
	}, nil
}

func (p *Provider) GetMetadata(ctx context.Context, key string) (*types.ObjectMetadata, error) {
	out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, p.translateError(err, "HeadObject", key)
	}
	return objectMetadata(key, out.ContentLength, out.LastModified, out.ETag, out.ContentType, out.Metadata), nil
}

func (p *Provider) List(ctx context.Context, opts *types.ListOptions) (*types.ListPage, error) {
	if opts == nil {
		opts = &types.ListOptions{}
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.Limit > 0 {
		input.MaxKeys = aws.Int32(int32(opts.Limit))
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	out, err := p.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, p.translateError(err, "ListObjectsV2", opts.Prefix)
	}

	page := &types.ListPage{
		Objects:     make([]types.ObjectMetadata, 0, len(out.Contents)),
		IsTruncated: aws.ToBool(out.IsTruncated),
	}
	if out.NextContinuationToken != nil {
		page.ContinuationToken = *out.NextContinuationToken
	}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, types.ObjectMetadata{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         trimETag(obj.ETag),
		})
	}
	return page, nil
}

// Delete relies on S3's native idempotency: deleting an absent key
// already succeeds.
func (p *Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return p.translateError(err, "DeleteObject", key)
	}
	return nil
}

func (p *Provider) Exists(ctx context.Context, key string) (bool, error) {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isErrorType[*s3types.NotFound](err) || isErrorType[*s3types.NoSuchKey](err) {
			return false, nil
		}
		return false, p.translateError(err, "HeadObject", key)
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

	presignOpt := s3.WithPresignExpires(expires)

	var (
		req *v4.PresignedHTTPRequest
		err error
	)
	switch method {
	case "GET":
		req, err = p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		}, presignOpt)
	case "PUT":
		req, err = p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		}, presignOpt)
	default:
		return nil, errors.Newf(errors.ErrCodeOperationFailed,
			"unsupported signed URL method: %s", method)
	}
	if err != nil {
		return nil, p.translateError(err, "Presign", key)
	}

	return &types.SignedURL{
		URL:       req.URL,
		ExpiresAt: time.Now().Add(expires),
	}, nil
}

func (p *Provider) Copy(ctx context.Context, sourceKey, destKey string) (*types.CopyResult, error) {
	out, err := p.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(p.bucket),
		Key:        aws.String(destKey),
		CopySource: aws.String(url.PathEscape(p.bucket + "/" + sourceKey)),
	})
	if err != nil {
		return nil, p.translateError(err, "CopyObject", sourceKey)
	}

	res := &types.CopyResult{
		SourceKey:      sourceKey,
		DestinationKey: destKey,
	}
	if out.CopyObjectResult != nil {
		res.ETag = trimETag(out.CopyObjectResult.ETag)
	}
	return res, nil
}

func (p *Provider) Close() error {
	return nil
}

func (p *Provider) translateError(err error, operation, key string) error {
	switch {
	case isErrorType[*s3types.NoSuchKey](err), isErrorType[*s3types.NotFound](err):
		return errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", key)
	case isErrorType[*s3types.NoSuchBucket](err):
		return errors.Newf(errors.ErrCodeBucketNotFound, "bucket not found: %s", p.bucket)
	default:
		return errors.Wrap(errors.ErrCodeOperationFailed,
			fmt.Sprintf("%s failed for %s", operation, key), err)
	}
}

// isErrorType checks if an error is of a specific type.
func isErrorType[T error](err error) bool {
	var target T
	return stderrors.As(err, &target)
}

func trimETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}

func objectMetadata(key string, size *int64, modified *time.Time, etag, contentType *string, userMeta map[string]string) *types.ObjectMetadata {
	return &types.ObjectMetadata{
		Key:          key,
		Size:         aws.ToInt64(size),
		LastModified: aws.ToTime(modified),
		ETag:         trimETag(etag),
		ContentType:  aws.ToString(contentType),
		Metadata:     userMeta,
	}
}

var _ types.Provider = (*Provider)(nil)
