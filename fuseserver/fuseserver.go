// Package fuseserver adapts the sfs core engine to the hanwen/go-fuse v2
// InodeEmbedder API. It is the only package that knows about kernel-level
// FUSE concepts (syscall.Errno, fuse.EntryOut, file handles); everything
// else talks to github.com/sfsfs/sfs in terms of paths and byte ranges.
package fuseserver

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	sfscore "github.com/sfsfs/sfs"
)

// attrTimeout is how long the kernel is told to trust cached attributes
// and directory entries. The backing store can change out from under a
// concurrent process only through this same mount, so a short positive
// timeout is safe and avoids a GETATTR round trip per access.
const attrTimeout = time.Second

// Root is the InodeEmbedder for the filesystem's single root directory.
// Every other entry is a direct child of Root, since the on-disk format
// has no subdirectories.
type Root struct {
	fs.Inode
	core *sfscore.FS
}

// New returns a Root ready to be passed to fs.Mount.
func New(core *sfscore.FS) *Root {
	return &Root{core: core}
}

var (
	_ fs.InodeEmbedder  = (*Root)(nil)
	_ fs.NodeLookuper   = (*Root)(nil)
	_ fs.NodeGetattrer  = (*Root)(nil)
	_ fs.NodeReaddirer  = (*Root)(nil)
	_ fs.NodeCreater    = (*Root)(nil)
	_ fs.NodeUnlinker   = (*Root)(nil)
	_ fs.NodeMkdirer    = (*Root)(nil)
	_ fs.NodeRmdirer    = (*Root)(nil)
	_ fs.NodeOpendirer  = (*Root)(nil)
)

func toErrno(err error) syscall.Errno {
	switch err {
	case nil:
		return fs.OK
	case sfscore.ErrNotFound:
		return syscall.ENOENT
	case sfscore.ErrNameTooLong:
		return syscall.ENAMETOOLONG
	case sfscore.ErrExists:
		return syscall.EEXIST
	case sfscore.ErrOutOfInodes:
		return syscall.EDQUOT
	case sfscore.ErrInvalidHandle, sfscore.ErrOutOfBlocks, sfscore.ErrCorruptState, sfscore.ErrUnsupported:
		return syscall.EIO
	default:
		return syscall.EIO
	}
}

func fillAttr(out *fuse.Attr, st sfscore.Stat) {
	out.Ino = st.Inumber
	out.Size = st.Size
	out.Mode = st.Mode
	out.Nlink = st.Links
	out.Uid = st.Uid
	out.Gid = st.Gid
	out.Atime = st.AccessTime
	out.Mtime = st.ModTime
	out.Ctime = st.ChangeTime
	out.Blocks = st.Blocks
	out.Blksize = sfscore.BlockSize
}

// Getattr serves the root directory itself (fh == nil in practice, since
// directories have no FileHandle here). Child nodes answer Getattr
// through regularFile.Getattr.
func (r *Root) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	st, err := r.core.Getattr("/")
	if err != nil {
		return toErrno(err)
	}
	fillAttr(&out.Attr, st)
	return fs.OK
}

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	st, err := r.core.Getattr("/" + name)
	if err != nil {
		return nil, toErrno(err)
	}

	child := r.NewInode(ctx, &regularFile{core: r.core, inumber: st.Inumber}, fs.StableAttr{
		Mode: st.Mode &^ 0o7777,
		Ino:  st.Inumber,
	})
	fillAttr(&out.Attr, st)
	out.SetEntryTimeout(attrTimeout)
	out.SetAttrTimeout(attrTimeout)
	return child, fs.OK
}

func (r *Root) Opendir(ctx context.Context) syscall.Errno {
	return toErrno(r.core.Opendir("/"))
}

func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := r.core.Readdir("/")
	if err != nil {
		return nil, toErrno(err)
	}

	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fuse.DirEntry{Name: e.Name, Ino: e.Inumber, Mode: e.Mode &^ 0o7777})
	}
	return fs.NewListDirStream(out), fs.OK
}

func (r *Root) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	uid, gid := callerIDs(ctx)
	handle, err := r.core.Create("/"+name, mode, flags, uid, gid)
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}

	st, err := r.core.Getattr("/" + name)
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}

	child := r.NewInode(ctx, &regularFile{core: r.core, inumber: st.Inumber}, fs.StableAttr{
		Mode: st.Mode &^ 0o7777,
		Ino:  st.Inumber,
	})
	fillAttr(&out.Attr, st)
	return child, &fileHandle{core: r.core, handle: handle}, 0, fs.OK
}

func (r *Root) Unlink(ctx context.Context, name string) syscall.Errno {
	return toErrno(r.core.Unlink("/" + name))
}

// Mkdir and Rmdir are stubs: the on-disk format has no nested
// directories, so neither persists anything. Mkdir still has to hand
// the kernel an inode to satisfy NodeMkdirer's contract; it gets an
// ephemeral one that lives only in the kernel's dentry cache and is
// never backed by an on-disk entry.
func (r *Root) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if err := r.core.Mkdir("/"+name, mode, 0, 0); err != nil {
		return nil, toErrno(err)
	}
	child := r.NewInode(ctx, &fs.Inode{}, fs.StableAttr{Mode: syscall.S_IFDIR})
	out.Attr.Mode = syscall.S_IFDIR | (mode & 0o7777)
	return child, fs.OK
}

func (r *Root) Rmdir(ctx context.Context, name string) syscall.Errno {
	return toErrno(r.core.Rmdir("/" + name))
}

// regularFile is the InodeEmbedder for every non-root entry: a flat
// file identified by its inumber.
type regularFile struct {
	fs.Inode
	core    *sfscore.FS
	inumber uint64
}

var (
	_ fs.NodeOpener    = (*regularFile)(nil)
	_ fs.NodeGetattrer = (*regularFile)(nil)
)

func (n *regularFile) path() string {
	// Recovered from the inode tree rather than cached at Lookup time,
	// so it can't go stale.
	return "/" + n.Path(nil)
}

func (n *regularFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	st, err := n.core.Getattr(n.path())
	if err != nil {
		return toErrno(err)
	}
	fillAttr(&out.Attr, st)
	return fs.OK
}

func (n *regularFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	handle, err := n.core.Open(n.path(), flags)
	if err != nil {
		return nil, 0, toErrno(err)
	}
	return &fileHandle{core: n.core, handle: handle}, 0, fs.OK
}

// fileHandle is the per-open-file state handed back to the kernel; it
// just carries the core FD-pool handle.
type fileHandle struct {
	core    *sfscore.FS
	handle  int
	closed  int32 // guards double Release via atomic CompareAndSwap
}

var (
	_ fs.FileHandle   = (*fileHandle)(nil)
	_ fs.FileReader   = (*fileHandle)(nil)
	_ fs.FileWriter   = (*fileHandle)(nil)
	_ fs.FileReleaser = (*fileHandle)(nil)
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.core.Read(h.handle, uint64(off), dest)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), fs.OK
}

func (h *fileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.core.Write(h.handle, uint64(off), data)
	if err != nil {
		return uint32(n), toErrno(err)
	}
	return uint32(n), fs.OK
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return fs.OK
	}
	return toErrno(h.core.Release(h.handle))
}

// callerIDs extracts the requesting process's uid/gid from the FUSE
// request context, falling back to the mounting process's own ids when
// the context carries none (e.g. during tests that call Create
// directly).
func callerIDs(ctx context.Context) (uid, gid uint32) {
	if caller, ok := fuse.FromContext(ctx); ok {
		return caller.Uid, caller.Gid
	}
	return uint32(os.Getuid()), uint32(os.Getgid())
}
