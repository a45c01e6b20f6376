package local

import (
	"context"
	"encoding/base64"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// List returns a page of objects ordered by sidecar path. The walk
// collects every matching sidecar before sorting, because directory
// walk order diverges from string order when a separator byte sorts
// between sibling names; the continuation token encodes the relative
// sidecar path of the last entry returned, so pages resume
// deterministically across calls.
func (p *Provider) List(ctx context.Context, opts *types.ListOptions) (*types.ListPage, error) {
	if opts == nil {
		opts = &types.ListOptions{}
	}

	var after string
	if opts.ContinuationToken != "" {
		decoded, err := base64.RawURLEncoding.DecodeString(opts.ContinuationToken)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeOperationFailed,
				"invalid continuation token", err)
		}
		after = string(decoded)
	}

	type entry struct {
		relPath string
		meta    types.ObjectMetadata
	}
	var entries []entry

	walkErr := filepath.WalkDir(p.metaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), metaSuffix) {
			return nil
		}

		rel, err := filepath.Rel(p.metaDir, path)
		if err != nil {
			return err
		}

		rec, rerr := readSidecar(path, "")
		if rerr != nil {
			// A damaged sidecar hides one object, not the listing.
			p.logger.Warn("skipping unreadable metadata record", "path", path, "error", rerr)
			return nil
		}
		if opts.Prefix != "" && !strings.HasPrefix(rec.Key, opts.Prefix) {
			return nil
		}

		entries = append(entries, entry{relPath: filepath.ToSlash(rel), meta: *rec.toObjectMetadata()})
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed,
			"failed to list objects", walkErr)
	}

	// The token filter needs string order, not walk order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].relPath < entries[j].relPath
	})
	if after != "" {
		cut := sort.Search(len(entries), func(i int) bool {
			return entries[i].relPath > after
		})
		entries = entries[cut:]
	}

	page := &types.ListPage{}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
		page.IsTruncated = true
		page.ContinuationToken = base64.RawURLEncoding.EncodeToString(
			[]byte(entries[len(entries)-1].relPath))
	}

	page.Objects = make([]types.ObjectMetadata, len(entries))
	for i, e := range entries {
		page.Objects[i] = e.meta
	}
	sort.Slice(page.Objects, func(i, j int) bool {
		return page.Objects[i].Key < page.Objects[j].Key
	})

	return page, nil
}
