package sfs_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sfsfs/sfs"
)

// newDisk returns a freshly formatted sfs filesystem backed by a
// temp-file diskfile of the given size, and registers cleanup.
func newDisk(t *testing.T, sizeBytes int64) *sfs.FS {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "sfs-disk-*")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	require.NoError(t, sfs.PreallocateDisk(f, sizeBytes))

	fsys, err := sfs.Format(f)
	require.NoError(t, err)
	t.Cleanup(func() { fsys.Close() })

	return fsys
}

// newUnformattedDisk returns an open, appropriately sized diskfile that
// has never been formatted (all zero bytes, so its signature check fails).
func newUnformattedDisk(t *testing.T, dir string) (*os.File, error) {
	t.Helper()

	f, err := os.CreateTemp(dir, "sfs-unformatted-*")
	if err != nil {
		return nil, err
	}
	if err := sfs.PreallocateDisk(f, 64*1024); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
