package types

import (
	"bytes"
	"io"
	"os"

	"github.com/storageprobe/storageprobe/pkg/errors"
)

// Source is the content of an upload: either raw bytes held in memory or a
// path to a local file. Providers resolve the size themselves via Open.
type Source struct {
	data []byte
	path string
}

// BytesSource wraps raw bytes for upload.
func BytesSource(data []byte) Source {
	return Source{data: data}
}

// FileSource refers to a local file whose content is uploaded.
func FileSource(path string) Source {
	return Source{path: path}
}

// IsFile reports whether the source refers to a local file.
func (s Source) IsFile() bool {
	return s.path != ""
}

// Path returns the source file path, empty for byte sources.
func (s Source) Path() string {
	return s.path
}

// Open returns a reader over the source content and its size in bytes.
// The caller owns the returned reader.
func (s Source) Open() (io.ReadCloser, int64, error) {
	if s.path == "" {
		return io.NopCloser(bytes.NewReader(s.data)), int64(len(s.data)), nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.Wrap(errors.ErrCodeObjectNotFound,
				"upload source file not found: "+s.path, err)
		}
		return nil, 0, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to open upload source "+s.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to stat upload source "+s.path, err)
	}

	return f, info.Size(), nil
}

// Bytes materializes the source content in memory. Intended for small
// payloads and tests; large uploads should stream through Open.
func (s Source) Bytes() ([]byte, error) {
	if s.path == "" {
		return s.data, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to read upload source "+s.path, err)
	}
	return data, nil
}
