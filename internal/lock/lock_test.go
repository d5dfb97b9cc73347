package lock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reclaim.lock")

	first := New(path)
	require.NoError(t, first.Acquire())
	assert.FileExists(t, path)

	second := New(path)
	err := second.Acquire()
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}

func TestReleaseWithoutAcquire(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "reclaim.lock"))
	assert.NoError(t, l.Release())
	assert.Equal(t, "reclaim.lock", filepath.Base(l.Path()))
}
