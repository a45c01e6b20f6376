// Package provider resolves configured provider entries into live,
// initialized storage contract implementations.
package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/internal/provider/local"
	"github.com/storageprobe/storageprobe/internal/provider/minio"
	"github.com/storageprobe/storageprobe/internal/provider/oci"
	"github.com/storageprobe/storageprobe/internal/provider/s3"
	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// KnownTypes lists the provider types the registry can build.
var KnownTypes = []string{
	config.TypeLocal,
	config.TypeMinio,
	config.TypeOCI,
	config.TypeS3,
}

// New looks up the named provider entry, validates it, builds the
// matching implementation, and runs Initialize. Initialization errors
// pass through unchanged so callers can distinguish setup failures
// from operation failures.
func New(ctx context.Context, name string, cfg *config.Configuration, logger *slog.Logger) (types.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pc, err := cfg.Provider(name)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateProvider(name); err != nil {
		return nil, err
	}

	var p types.Provider
	switch pc.Type {
	case config.TypeLocal:
		p, err = local.New(name, pc.BaseDir, logger)
	case config.TypeS3:
		p, err = s3.New(ctx, name, &pc, logger)
	case config.TypeMinio:
		p, err = minio.New(name, &pc, logger)
	case config.TypeOCI:
		p, err = oci.New(name, &pc, logger)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfig,
			"unknown provider type %q for %s (known types: %s)",
			pc.Type, name, strings.Join(KnownTypes, ", "))
	}
	if err != nil {
		return nil, err
	}

	if err := p.Initialize(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
