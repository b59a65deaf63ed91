package sfs_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfsfs/sfs"
)

func TestCreateWriteReadRoundTrip(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	h, err := fsys.Create("/hello.txt", 0644, syscall.O_RDWR, 1000, 1000)
	require.NoError(t, err)

	payload := []byte("hello, sfs")
	n, err := fsys.Write(h, 0, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = fsys.Read(h, 0, buf)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)

	require.NoError(t, fsys.Release(h))

	st, err := fsys.Getattr("/hello.txt")
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), st.Size)
	assert.EqualValues(t, 1000, st.Uid)
}

func TestCreateExclConflict(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	h, err := fsys.Create("/a", 0644, syscall.O_CREAT|syscall.O_EXCL, 0, 0)
	require.NoError(t, err)
	require.NoError(t, fsys.Release(h))

	_, err = fsys.Create("/a", 0644, syscall.O_CREAT|syscall.O_EXCL, 0, 0)
	assert.ErrorIs(t, err, sfs.ErrExists)
}

func TestCreateWithoutExclOpensExisting(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	h1, err := fsys.Create("/a", 0644, syscall.O_CREAT, 0, 0)
	require.NoError(t, err)
	_, err = fsys.Write(h1, 0, []byte("first"))
	require.NoError(t, err)
	require.NoError(t, fsys.Release(h1))

	h2, err := fsys.Create("/a", 0644, syscall.O_CREAT, 0, 0)
	require.NoError(t, err)
	defer fsys.Release(h2)

	buf := make([]byte, 5)
	_, err = fsys.Read(h2, 0, buf)
	require.NoError(t, err)
	assert.Equal(t, "first", string(buf))
}

func TestUnlinkWhileOpenKeepsDataAccessible(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	h, err := fsys.Create("/doomed", 0644, 0, 0, 0)
	require.NoError(t, err)
	_, err = fsys.Write(h, 0, []byte("still here"))
	require.NoError(t, err)

	require.NoError(t, fsys.Unlink("/doomed"))

	_, err = fsys.Getattr("/doomed")
	assert.ErrorIs(t, err, sfs.ErrNotFound, "unlinked name must disappear from the directory immediately")

	buf := make([]byte, len("still here"))
	n, err := fsys.Read(h, 0, buf)
	require.NoError(t, err, "a handle open before unlink must keep working")
	assert.Equal(t, "still here", string(buf[:n]))

	require.NoError(t, fsys.Release(h), "releasing the last handle of an unlinked file must succeed")
}

func TestUnlinkUnknownName(t *testing.T) {
	fsys := newDisk(t, 256*1024)
	assert.ErrorIs(t, fsys.Unlink("/nope"), sfs.ErrNotFound)
}

func TestSparseWriteZeroFillsHole(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	h, err := fsys.Create("/sparse", 0644, 0, 0, 0)
	require.NoError(t, err)
	defer fsys.Release(h)

	_, err = fsys.Write(h, sfs.BlockSize, []byte("tail"))
	require.NoError(t, err)

	buf := make([]byte, sfs.BlockSize)
	_, err = fsys.Read(h, 0, buf)
	require.NoError(t, err)
	for _, b := range buf {
		assert.Zero(t, b, "hole before the first real write must read as zero")
	}

	tail := make([]byte, 4)
	_, err = fsys.Read(h, sfs.BlockSize, tail)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(tail))
}

func TestReaddirAcrossManyFiles(t *testing.T) {
	fsys := newDisk(t, 512*1024)

	const count = 10
	names := make(map[string]bool)
	for i := 0; i < count; i++ {
		name := "/file" + string(rune('a'+i))
		h, err := fsys.Create(name, 0644, 0, 0, 0)
		require.NoError(t, err)
		require.NoError(t, fsys.Release(h))
		names[name[1:]] = true
	}

	entries, err := fsys.Readdir("/")
	require.NoError(t, err)

	var seen int
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		assert.True(t, names[e.Name], "unexpected directory entry %q", e.Name)
		seen++
	}
	assert.Equal(t, count, seen)
}

func TestMkdirRmdirAreNoOps(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	require.NoError(t, fsys.Mkdir("/subdir", 0755, 0, 0))

	// Mkdir never creates a real entry: the flat namespace has no room
	// for one, so the name never shows up in the directory or in Getattr.
	_, err := fsys.Getattr("/subdir")
	assert.ErrorIs(t, err, sfs.ErrNotFound)

	entries, err := fsys.Readdir("/")
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "subdir", e.Name)
	}

	require.NoError(t, fsys.Rmdir("/subdir"))
	assert.ErrorIs(t, fsys.Rmdir("/"), sfs.ErrUnsupported)
}

func TestOpendirOnlyRoot(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	require.NoError(t, fsys.Opendir("/"))

	h, err := fsys.Create("/f", 0644, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, fsys.Release(h))

	assert.ErrorIs(t, fsys.Opendir("/f"), sfs.ErrNotFound)
}

func TestReadWriteInvalidHandle(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	_, err := fsys.Read(999, 0, make([]byte, 1))
	assert.ErrorIs(t, err, sfs.ErrInvalidHandle)

	_, err = fsys.Write(999, 0, []byte("x"))
	assert.ErrorIs(t, err, sfs.ErrInvalidHandle)

	assert.ErrorIs(t, fsys.Release(999), sfs.ErrInvalidHandle)
}

func TestNameTooLong(t *testing.T) {
	fsys := newDisk(t, 256*1024)

	long := make([]byte, 260)
	for i := range long {
		long[i] = 'x'
	}
	_, err := fsys.Create("/"+string(long), 0644, 0, 0, 0)
	assert.ErrorIs(t, err, sfs.ErrNameTooLong)
}

func TestReopenUnformattedDiskWithoutFormatFails(t *testing.T) {
	dir := t.TempDir()
	f, err := newUnformattedDisk(t, dir)
	require.NoError(t, err)
	defer f.Close()

	_, err = sfs.Open(f, false)
	assert.ErrorIs(t, err, sfs.ErrNotFormatted)
}
