package oci

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// Provider adapts an OCI Object Storage bucket to the storage contract.
type Provider struct {
	name      string
	bucket    string
	namespace string
	region    string
	client    objectstorage.ObjectStorageClient
	logger    *slog.Logger
}

// New builds the OCI client from an OCI CLI config file, or from the
// SDK default provider when no file is configured. The namespace is
// fetched during Initialize when not set explicitly.
func New(name string, cfg *config.ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeMissingConfig, "oci provider requires a bucket")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var confProvider common.ConfigurationProvider
	if cfg.ConfigFile != "" {
		profile := cfg.Profile
		if profile == "" {
			profile = "DEFAULT"
		}
		cp, err := common.ConfigurationProviderFromFile(cfg.ConfigFile, profile)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig,
				"failed to load OCI config from "+cfg.ConfigFile, err)
		}
		confProvider = cp
	} else {
		confProvider = common.DefaultConfigProvider()
	}

	client, err := objectstorage.NewObjectStorageClientWithConfigurationProvider(confProvider)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig,
			"failed to build OCI object storage client", err)
	}
	if cfg.Endpoint != "" {
		client.Host = cfg.Endpoint
	}

	region, _ := confProvider.Region()

	return &Provider{
		name:      name,
		bucket:    cfg.Bucket,
		namespace: cfg.Namespace,
		region:    region,
		client:    client,
		logger:    logger.With("component", "oci-provider", "bucket", cfg.Bucket),
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// Initialize resolves the namespace when unset and verifies the bucket.
func (p *Provider) Initialize(ctx context.Context) error {
	if p.namespace == "" {
		resp, err := p.client.GetNamespace(ctx, objectstorage.GetNamespaceRequest{})
		if err != nil {
			return errors.Wrap(errors.ErrCodeConnectionFailed,
				"failed to resolve object storage namespace", err)
		}
		p.namespace = *resp.Value
		p.logger.Debug("resolved namespace", "namespace", p.namespace)
	}

	_, err := p.client.HeadBucket(ctx, objectstorage.HeadBucketRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
	})
	if err != nil {
		if statusOf(err) == 404 {
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

	req := objectstorage.PutObjectRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		ObjectName:    common.String(key),
		PutObjectBody: reader,
		ContentLength: common.Int64(size),
		ContentType:   common.String(contentType),
	}
	if len(opts.Metadata) > 0 {
		req.OpcMeta = opts.Metadata
	}

	resp, err := p.client.PutObject(ctx, req)
	if err != nil {
		return nil, p.translateError(err, "PutObject", key)
	}

	p.logger.Debug("object uploaded", "key", key, "size", size)

	return &types.UploadResult{
		Key:           key,
		Location:      fmt.Sprintf("oci://%s/%s/%s", p.namespace, p.bucket, key),
		ETag:          strings.Trim(stringValue(resp.ETag), `"`),
		Size:          size,
		ElapsedMillis: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Provider) Download(ctx context.Context, key, destPath string) (*types.DownloadResult, error) {
	start := time.Now()

	resp, err := p.client.GetObject(ctx, objectstorage.GetObjectRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		ObjectName:    common.String(key),
	})
	if err != nil {
		return nil, p.translateError(err, "GetObject", key)
	}
	defer resp.Content.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create destination directory", err)
	}
	dst, err := os.Create(destPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create destination file", err)
	}

	written, copyErr := io.Copy(dst, resp.Content)
	if cerr := dst.Close(); copyErr == nil && cerr != nil {
		copyErr = cerr
	}
	if copyErr != nil {
		os.Remove(destPath)
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"partial download of "+key, copyErr)
	}

	meta := &types.ObjectMetadata{
		Key:         key,
		Size:        written,
		ETag:        strings.Trim(stringValue(resp.ETag), `"`),
		ContentType: stringValue(resp.ContentType),
		Metadata:    resp.OpcMeta,
	}
	if resp.LastModified != nil {
		meta.LastModified = resp.LastModified.Time
	}

	return &types.DownloadResult{
		Key:             key,
		DestinationPath: destPath,
		Size:            written,
		ElapsedMillis:   time.Since(start).Milliseconds(),
		Metadata:        meta,
	}, nil
}

func (p *Provider) GetMetadata(ctx context.Context, key string) (*types.ObjectMetadata, error) {
	resp, err := p.client.HeadObject(ctx, objectstorage.HeadObjectRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		ObjectName:    common.String(key),
	})
	if err != nil {
		return nil, p.translateError(err, "HeadObject", key)
	}

	meta := &types.ObjectMetadata{
		Key:         key,
		ETag:        strings.Trim(stringValue(resp.ETag), `"`),
		ContentType: stringValue(resp.ContentType),
		Metadata:    resp.OpcMeta,
	}
	if resp.ContentLength != nil {
		meta.Size = *resp.ContentLength
	}
	if resp.LastModified != nil {
		meta.LastModified = resp.LastModified.Time
	}
	return meta, nil
}

func (p *Provider) List(ctx context.Context, opts *types.ListOptions) (*types.ListPage, error) {
	if opts == nil {
		opts = &types.ListOptions{}
	}

	req := objectstorage.ListObjectsRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		Fields:        common.String("name,size,etag,timeModified"),
	}
	if opts.Prefix != "" {
		req.Prefix = common.String(opts.Prefix)
	}
	if opts.Limit > 0 {
		req.Limit = common.Int(opts.Limit)
	}
	if opts.ContinuationToken != "" {
		req.Start = common.String(opts.ContinuationToken)
	}

	resp, err := p.client.ListObjects(ctx, req)
	if err != nil {
		return nil, p.translateError(err, "ListObjects", opts.Prefix)
	}

	page := &types.ListPage{
		Objects: make([]types.ObjectMetadata, 0, len(resp.Objects)),
	}
	for _, obj := range resp.Objects {
		meta := types.ObjectMetadata{
			Key:  stringValue(obj.Name),
			ETag: strings.Trim(stringValue(obj.Etag), `"`),
		}
		if obj.Size != nil {
			meta.Size = *obj.Size
		}
		if obj.TimeModified != nil {
			meta.LastModified = obj.TimeModified.Time
		}
		page.Objects = append(page.Objects, meta)
	}
	if resp.NextStartWith != nil && *resp.NextStartWith != "" {
		page.IsTruncated = true
		page.ContinuationToken = *resp.NextStartWith
	}
	return page, nil
}

// Delete normalizes the service's 404 to the contract's idempotent
// success.
func (p *Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, objectstorage.DeleteObjectRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		ObjectName:    common.String(key),
	})
	if err != nil {
		if statusOf(err) == 404 {
			return nil
		}
		return p.translateError(err, "DeleteObject", key)
	}
	return nil
}

func (p *Provider) Exists(ctx context.Context, key string) (bool, error) {
	_, err := p.client.HeadObject(ctx, objectstorage.HeadObjectRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		ObjectName:    common.String(key),
	})
	if err != nil {
		if statusOf(err) == 404 {
			return false, nil
		}
		return false, p.translateError(err, "HeadObject", key)
	}
	return true, nil
}

// SignedURL creates a pre-authenticated request scoped to the key. The
// PAR outlives this call; expired PARs are garbage on the service side
// until their TimeExpires passes.
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

	var accessType objectstorage.CreatePreauthenticatedRequestDetailsAccessTypeEnum
	switch method {
	case "GET":
		accessType = objectstorage.CreatePreauthenticatedRequestDetailsAccessTypeObjectread
	case "PUT":
		accessType = objectstorage.CreatePreauthenticatedRequestDetailsAccessTypeObjectwrite
	default:
		return nil, errors.Newf(errors.ErrCodeOperationFailed,
			"unsupported signed URL method: %s", method)
	}

	expiresAt := time.Now().Add(expires)
	resp, err := p.client.CreatePreauthenticatedRequest(ctx, objectstorage.CreatePreauthenticatedRequestRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		CreatePreauthenticatedRequestDetails: objectstorage.CreatePreauthenticatedRequestDetails{
			Name:        common.String("storageprobe-" + key),
			ObjectName:  common.String(key),
			AccessType:  accessType,
			TimeExpires: &common.SDKTime{Time: expiresAt},
		},
	})
	if err != nil {
		return nil, p.translateError(err, "CreatePreauthenticatedRequest", key)
	}

	return &types.SignedURL{
		URL:       strings.TrimSuffix(p.client.Host, "/") + stringValue(resp.AccessUri),
		ExpiresAt: expiresAt,
	}, nil
}

// Copy is asynchronous on the service side, so no destination change
// token is available when the call returns.
func (p *Provider) Copy(ctx context.Context, sourceKey, destKey string) (*types.CopyResult, error) {
	_, err := p.client.CopyObject(ctx, objectstorage.CopyObjectRequest{
		NamespaceName: common.String(p.namespace),
		BucketName:    common.String(p.bucket),
		CopyObjectDetails: objectstorage.CopyObjectDetails{
			SourceObjectName:      common.String(sourceKey),
			DestinationRegion:     common.String(p.region),
			DestinationNamespace:  common.String(p.namespace),
			DestinationBucket:     common.String(p.bucket),
			DestinationObjectName: common.String(destKey),
		},
	})
	if err != nil {
		return nil, p.translateError(err, "CopyObject", sourceKey)
	}

	return &types.CopyResult{
		SourceKey:      sourceKey,
		DestinationKey: destKey,
	}, nil
}

func (p *Provider) Close() error {
	return nil
}

func (p *Provider) translateError(err error, operation, key string) error {
	if svcErr, ok := common.IsServiceError(err); ok {
		switch svcErr.GetHTTPStatusCode() {
		case 404:
			return errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", key)
		case 401, 403:
			return errors.Wrap(errors.ErrCodeAuthenticationFailed,
				fmt.Sprintf("%s denied for %s", operation, key), err)
		}
	}
	return errors.Wrap(errors.ErrCodeOperationFailed,
		fmt.Sprintf("%s failed for %s", operation, key), err)
}

func statusOf(err error) int {
	if svcErr, ok := common.IsServiceError(err); ok {
		return svcErr.GetHTTPStatusCode()
	}
	return 0
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ types.Provider = (*Provider)(nil)
