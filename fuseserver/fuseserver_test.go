package fuseserver

import (
	"context"
	"os"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"

	sfscore "github.com/sfsfs/sfs"
)

func TestToErrnoMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want syscall.Errno
	}{
		{nil, fs.OK},
		{sfscore.ErrNotFound, syscall.ENOENT},
		{sfscore.ErrNameTooLong, syscall.ENAMETOOLONG},
		{sfscore.ErrExists, syscall.EEXIST},
		{sfscore.ErrOutOfInodes, syscall.EDQUOT},
		{sfscore.ErrInvalidHandle, syscall.EIO},
		{sfscore.ErrOutOfBlocks, syscall.EIO},
		{sfscore.ErrCorruptState, syscall.EIO},
		{sfscore.ErrUnsupported, syscall.EIO},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, toErrno(c.err))
	}
}

func TestFillAttrCopiesEveryField(t *testing.T) {
	st := sfscore.Stat{
		Inumber:    7,
		Mode:       sfscore.ModeReg | 0644,
		Uid:        1000,
		Gid:        1000,
		Links:      2,
		Size:       4096,
		AccessTime: 1,
		ModTime:    2,
		ChangeTime: 3,
		Blocks:     8,
	}

	var out fuse.Attr
	fillAttr(&out, st)

	assert.EqualValues(t, st.Inumber, out.Ino)
	assert.EqualValues(t, st.Size, out.Size)
	assert.EqualValues(t, st.Mode, out.Mode)
	assert.EqualValues(t, st.Links, out.Nlink)
	assert.EqualValues(t, st.Uid, out.Uid)
	assert.EqualValues(t, st.Gid, out.Gid)
	assert.EqualValues(t, st.AccessTime, out.Atime)
	assert.EqualValues(t, st.ModTime, out.Mtime)
	assert.EqualValues(t, st.ChangeTime, out.Ctime)
	assert.EqualValues(t, st.Blocks, out.Blocks)
	assert.EqualValues(t, sfscore.BlockSize, out.Blksize)
}

func TestCallerIDsFallsBackWithoutFuseContext(t *testing.T) {
	uid, gid := callerIDs(context.Background())
	assert.EqualValues(t, os.Getuid(), uid)
	assert.EqualValues(t, os.Getgid(), gid)
}
