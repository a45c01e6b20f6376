package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storageprobe/storageprobe/pkg/errors"
)

func TestRecordOperation(t *testing.T) {
	c, err := NewCollector(&Config{Enabled: true})
	require.NoError(t, err)

	c.RecordOperation("local", "upload", 25*time.Millisecond, 1024, nil)
	c.RecordOperation("local", "upload", 30*time.Millisecond, 2048, nil)
	c.RecordOperation("local", "download", 10*time.Millisecond, 0,
		errors.New(errors.ErrCodeObjectNotFound, "object not found: x"))

	families, err := c.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["storageprobe_operations_total"])
	assert.True(t, names["storageprobe_operation_duration_seconds"])
	assert.True(t, names["storageprobe_operation_bytes"])
	assert.True(t, names["storageprobe_errors_total"])
}

func TestDisabledCollectorIsNoop(t *testing.T) {
	c, err := NewCollector(&Config{Enabled: false})
	require.NoError(t, err)

	// Must not panic with a nil registry.
	c.RecordOperation("local", "upload", time.Millisecond, 1, nil)

	families, err := c.Gather()
	require.NoError(t, err)
	assert.Nil(t, families)
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New(errors.ErrCodeObjectNotFound, "x"), "not_found"},
		{errors.New(errors.ErrCodeConnectionFailed, "x"), "connection"},
		{errors.New(errors.ErrCodeInvalidConfig, "x"), "configuration"},
		{errors.New(errors.ErrCodeOperationFailed, "x"), "operation"},
	}
	for _, tt := range tests {
		if got := categoryOf(tt.err); got != tt.want {
			t.Errorf("categoryOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
