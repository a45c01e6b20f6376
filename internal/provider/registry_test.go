package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

func TestNew_Local(t *testing.T) {
	cfg := &config.Configuration{
		Providers: map[string]config.ProviderConfig{
			"workspace": {Type: config.TypeLocal, BaseDir: t.TempDir()},
		},
	}

	p, err := New(context.Background(), "workspace", cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "workspace", p.Name())

	// The provider comes back initialized and usable.
	_, err = p.Upload(context.Background(), "probe", types.BytesSource([]byte("ok")), nil)
	require.NoError(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := &config.Configuration{
		Providers: map[string]config.ProviderConfig{
			"workspace": {Type: config.TypeLocal, BaseDir: t.TempDir()},
		},
	}

	_, err := New(context.Background(), "nope", cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "workspace")
}

func TestNew_InvalidEntry(t *testing.T) {
	cfg := &config.Configuration{
		Providers: map[string]config.ProviderConfig{
			"broken": {Type: config.TypeLocal}, // no base_dir
		},
	}

	_, err := New(context.Background(), "broken", cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestNew_UnknownType(t *testing.T) {
	cfg := &config.Configuration{
		Providers: map[string]config.ProviderConfig{
			"weird": {Type: "tape-robot"},
		},
	}

	_, err := New(context.Background(), "weird", cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}
