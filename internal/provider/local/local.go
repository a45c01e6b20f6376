package local

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

const (
	objectsDirName = "objects"
	metaDirName    = "meta"

	// hashChunkSize bounds memory while hashing large objects.
	hashChunkSize = 64 * 1024
)

// unsafeKeyChars matches every character that is replaced during key
// sanitization.
var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._/-]`)

// Provider is the filesystem-backed reference implementation of the
// storage contract.
type Provider struct {
	name       string
	baseDir    string
	objectsDir string
	metaDir    string
	urlSecret  []byte
	logger     *slog.Logger
}

// New creates a local provider rooted at baseDir. The directory tree is
// created by Initialize, not here.
func New(name, baseDir string, logger *slog.Logger) (*Provider, error) {
	if baseDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "local provider requires a base directory")
	}
	if logger == nil {
		logger = slog.Default()
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed, "failed to derive signing secret", err)
	}

	return &Provider{
		name:       name,
		baseDir:    baseDir,
		objectsDir: filepath.Join(baseDir, objectsDirName),
		metaDir:    filepath.Join(baseDir, metaDirName),
		urlSecret:  secret,
		logger:     logger.With("component", "local-provider", "base_dir", baseDir),
	}, nil
}

// Name returns the configured provider name.
func (p *Provider) Name() string {
	return p.name
}

// Initialize creates the content and metadata trees and verifies the
// base directory is usable.
func (p *Provider) Initialize(ctx context.Context) error {
	for _, dir := range []string{p.objectsDir, p.metaDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.Wrap(errors.ErrCodeConnectionFailed,
				"cannot access storage directory "+dir, err)
		}
	}
	return nil
}

// sanitizeKey maps a key to a safe relative path. Lossy: distinct keys
// may collide after sanitization; the canonical key lives in the sidecar.
func sanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}

// paths resolves the content and sidecar paths for key, rejecting keys
// that would escape the base directory.
func (p *Provider) paths(key string) (contentPath, sidecarPath string, err error) {
	if key == "" {
		return "", "", errors.New(errors.ErrCodeOperationFailed, "object key must not be empty")
	}

	safe := sanitizeKey(key)
	for _, segment := range strings.Split(safe, "/") {
		if segment == ".." {
			return "", "", errors.Newf(errors.ErrCodeOperationFailed, "invalid object key: %s", key)
		}
	}

	rel := filepath.FromSlash(safe)
	return filepath.Join(p.objectsDir, rel), filepath.Join(p.metaDir, rel+metaSuffix), nil
}

// Upload writes content first and the sidecar second, hashing the bytes
// in fixed-size chunks as they stream to disk.
func (p *Provider) Upload(ctx context.Context, key string, src types.Source, opts *types.UploadOptions) (*types.UploadResult, error) {
	start := time.Now()

	contentPath, sidecarPath, err := p.paths(key)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &types.UploadOptions{}
	}

	reader, _, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if err := os.MkdirAll(filepath.Dir(contentPath), 0750); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create object directory", err)
	}

	dst, err := os.Create(contentPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create object file", err)
	}

	written, contentHash, err := copyAndHash(dst, reader)
	if cerr := dst.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		os.Remove(contentPath)
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to write object content", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		if src.IsFile() {
			contentType = types.DetectContentType(src.Path())
		} else {
			contentType = types.DetectContentType(key)
		}
	}

	rec := &sidecarRecord{
		Key:         key,
		Size:        written,
		ContentType: contentType,
		ContentHash: contentHash,
		UploadedAt:  time.Now().UTC(),
		Metadata:    opts.Metadata,
	}
	if err := writeSidecar(sidecarPath, rec); err != nil {
		return nil, err
	}

	p.logger.Debug("object stored", "key", key, "size", written, "hash", contentHash)

	return &types.UploadResult{
		Key:           key,
		Location:      contentPath,
		ETag:          contentHash,
		Size:          written,
		ElapsedMillis: time.Since(start).Milliseconds(),
	}, nil
}

// copyAndHash streams src to dst in bounded chunks, returning the byte
// count and the hex SHA-256 of everything written.
func copyAndHash(dst io.Writer, src io.Reader) (int64, string, error) {
	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	n, err := io.CopyBuffer(io.MultiWriter(dst, h), src, buf)
	if err != nil {
		return n, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// Download copies the object to destPath via a temp file and rename, so
// a partial write fails instead of surfacing a truncated file.
func (p *Provider) Download(ctx context.Context, key, destPath string) (*types.DownloadResult, error) {
	start := time.Now()

	contentPath, sidecarPath, err := p.paths(key)
	if err != nil {
		return nil, err
	}

	// Presence is decided by the sidecar, not the content file.
	rec, err := readSidecar(sidecarPath, key)
	if err != nil {
		return nil, err
	}

	src, err := os.Open(contentPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Orphaned sidecar; the pair is treated as absent.
			return nil, errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", key)
		}
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to open object content for "+key, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create destination directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".storageprobe-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create temporary download file", err)
	}
	tmpPath := tmp.Name()

	written, copyErr := io.Copy(tmp, src)
	if cerr := tmp.Close(); copyErr == nil && cerr != nil {
		copyErr = cerr
	}
	if copyErr == nil && written != rec.Size {
		copyErr = fmt.Errorf("wrote %d of %d bytes", written, rec.Size)
	}
	if copyErr != nil {
		os.Remove(tmpPath)
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"partial download of "+key, copyErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to finalize download of "+key, err)
	}

	return &types.DownloadResult{
		Key:             key,
		DestinationPath: destPath,
		Size:            written,
		ElapsedMillis:   time.Since(start).Milliseconds(),
		Metadata:        rec.toObjectMetadata(),
	}, nil
}

// GetMetadata returns the sidecar record in contract shape.
func (p *Provider) GetMetadata(ctx context.Context, key string) (*types.ObjectMetadata, error) {
	_, sidecarPath, err := p.paths(key)
	if err != nil {
		return nil, err
	}

	rec, err := readSidecar(sidecarPath, key)
	if err != nil {
		return nil, err
	}
	return rec.toObjectMetadata(), nil
}

// Exists reports presence by the sidecar's existence.
func (p *Provider) Exists(ctx context.Context, key string) (bool, error) {
	_, sidecarPath, err := p.paths(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(sidecarPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to stat metadata for "+key, err)
	}
	return true, nil
}

// Delete removes the sidecar first, then the content, so an interrupted
// delete leaves orphaned content (absent) rather than a dangling record.
// Deleting an absent key is a no-op success.
func (p *Provider) Delete(ctx context.Context, key string) error {
	contentPath, sidecarPath, err := p.paths(key)
	if err != nil {
		return err
	}

	if err := os.Remove(sidecarPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to delete metadata for "+key, err)
	}
	if err := os.Remove(contentPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to delete content for "+key, err)
	}
	return nil
}

// Copy duplicates the content bytes and clones the metadata record,
// refreshing the key and upload timestamp.
func (p *Provider) Copy(ctx context.Context, sourceKey, destKey string) (*types.CopyResult, error) {
	srcContent, srcSidecar, err := p.paths(sourceKey)
	if err != nil {
		return nil, err
	}
	dstContent, dstSidecar, err := p.paths(destKey)
	if err != nil {
		return nil, err
	}

	rec, err := readSidecar(srcSidecar, sourceKey)
	if err != nil {
		return nil, err
	}

	in, err := os.Open(srcContent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", sourceKey)
		}
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to open source content for "+sourceKey, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dstContent), 0750); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create destination directory", err)
	}
	out, err := os.Create(dstContent)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create destination content", err)
	}

	_, copyErr := io.Copy(out, in)
	if cerr := out.Close(); copyErr == nil && cerr != nil {
		copyErr = cerr
	}
	if copyErr != nil {
		os.Remove(dstContent)
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to copy content to "+destKey, copyErr)
	}

	clone := *rec
	clone.Key = destKey
	clone.UploadedAt = time.Now().UTC()
	if rec.Metadata != nil {
		clone.Metadata = make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			clone.Metadata[k] = v
		}
	}
	if err := writeSidecar(dstSidecar, &clone); err != nil {
		return nil, err
	}

	return &types.CopyResult{
		SourceKey:      sourceKey,
		DestinationKey: destKey,
		ETag:           clone.ContentHash,
	}, nil
}

// SignedURL issues a file URL carrying an expiry and an HMAC token over
// method, key, and expiry. Like cloud presigning, issuance does not
// require the object to exist.
func (p *Provider) SignedURL(ctx context.Context, key string, opts *types.SignedURLOptions) (*types.SignedURL, error) {
	contentPath, _, err := p.paths(key)
	if err != nil {
		return nil, err
	}

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

	expiresAt := time.Now().Add(expires)
	mac := hmac.New(sha256.New, p.urlSecret)
	fmt.Fprintf(mac, "%s\n%s\n%d", method, key, expiresAt.Unix())
	signature := hex.EncodeToString(mac.Sum(nil))

	u := url.URL{
		Scheme: "file",
		Path:   contentPath,
		RawQuery: url.Values{
			"method":    {method},
			"expires":   {fmt.Sprintf("%d", expiresAt.Unix())},
			"signature": {signature},
		}.Encode(),
	}

	return &types.SignedURL{
		URL:       u.String(),
		ExpiresAt: expiresAt,
	}, nil
}

// Close releases nothing; the provider holds no open handles.
func (p *Provider) Close() error {
	return nil
}

var _ types.Provider = (*Provider)(nil)
