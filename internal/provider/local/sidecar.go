package local

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// metaSuffix is the fixed suffix of every sidecar file.
const metaSuffix = ".meta.json"

// sidecarRecord is the persisted metadata for one stored object.
type sidecarRecord struct {
	Key         string            `json:"key"`
	Size        int64             `json:"size"`
	ContentType string            `json:"contentType"`
	ContentHash string            `json:"contentHash"`
	UploadedAt  time.Time         `json:"uploadTimestamp"`
	Metadata    map[string]string `json:"userMetadata,omitempty"`
}

// toObjectMetadata converts the record to its contract-level shape. For
// this provider the etag is defined to be the content hash.
func (r *sidecarRecord) toObjectMetadata() *types.ObjectMetadata {
	return &types.ObjectMetadata{
		Key:          r.Key,
		Size:         r.Size,
		LastModified: r.UploadedAt,
		ETag:         r.ContentHash,
		ContentType:  r.ContentType,
		Metadata:     r.Metadata,
	}
}

// readSidecar loads and parses the sidecar at path. Absence maps to an
// OBJECT_NOT_FOUND error identifying the key.
func readSidecar(path, key string) (*sidecarRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeObjectNotFound, "object not found: %s", key)
		}
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to read metadata for "+key, err)
	}

	var rec sidecarRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"corrupt metadata record for "+key, err)
	}
	return &rec, nil
}

// writeSidecar persists the record at path, creating parent directories.
func writeSidecar(path string, rec *sidecarRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to create metadata directory", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to encode metadata record", err)
	}

	if err := os.WriteFile(path, data, 0640); err != nil {
		return errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to write metadata record", err)
	}
	return nil
}
