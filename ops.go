package sfs

// This file implements the operation vocabulary described in the
// external-interfaces section: the entry points a FUSE collaborator
// calls into. Every exported method here takes FS.mu for its entire
// body and releases it on every return path, per the single
// process-wide lock described in the concurrency model.

// Getattr resolves path (root or a single flat-root entry) and returns
// its metadata.
func (fs *FS) Getattr(path string) (Stat, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, isRoot, err := flatName(path)
	if err != nil {
		return Stat{}, err
	}

	root, err := fs.rootInode()
	if err != nil {
		return Stat{}, err
	}
	if isRoot {
		return root.Stat(), nil
	}

	target, err := fs.lookupLocked(root, name)
	if err != nil {
		return Stat{}, err
	}
	return target.Stat(), nil
}

// lookupLocked scans directory for name and returns its inode, or
// ErrNotFound. Callers must hold fs.mu.
func (fs *FS) lookupLocked(directory *Inode, name string) (*Inode, error) {
	it := fs.newDirIterator(directory)
	for {
		entry, inode, ok, err := it.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
		if entry.nameString() == name {
			return inode, nil
		}
	}
}

// Create implements create(2)-over-FUSE: if path already names a file,
// it is opened (O_EXCL makes that an error); otherwise a fresh regular
// file is allocated, linked into the root directory, and opened. The
// returned handle must eventually be passed to Release.
func (fs *FS) Create(path string, mode, flags, uid, gid uint32) (handle int, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, isRoot, err := flatName(path)
	if err != nil {
		return 0, err
	}
	if isRoot {
		return 0, ErrExists
	}

	directory, err := fs.rootInode()
	if err != nil {
		return 0, err
	}

	existing, err := fs.lookupLocked(directory, name)
	switch {
	case err == nil:
		if flags&flagExcl != 0 {
			return 0, ErrExists
		}
		return fs.openInumber(existing.Inumber, flags), nil
	case err != ErrNotFound:
		return 0, err
	}

	file, err := fs.allocateInode()
	if err != nil {
		Log.Error().Err(err).Str("path", path).Msg("create: out of inodes")
		return 0, err
	}

	now := unixNow()
	file.Mode = (mode & 0o7777) | ModeReg
	file.Uid = uid
	if directory.Mode&ModeSetgid != 0 {
		file.Gid = directory.Gid
	} else {
		file.Gid = gid
	}
	file.Links = 0
	file.AccessTime, file.ModTime, file.ChangeTime = now, now, now
	file.Size = 0
	file.BlockPointers = [totalBlockPointers]uint64{}

	if err := fs.writeInode(file); err != nil {
		return 0, err
	}
	if err := fs.dirLink(directory, name, file); err != nil {
		return 0, err
	}

	Log.Info().Str("path", path).Uint64("inumber", file.Inumber).Msg("create")
	return fs.openInumber(file.Inumber, flags), nil
}

// Open implements open(2)-over-FUSE for an existing entry.
func (fs *FS) Open(path string, flags uint32) (handle int, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, isRoot, err := flatName(path)
	if err != nil {
		return 0, err
	}
	if isRoot {
		return 0, ErrNotFound
	}

	directory, err := fs.rootInode()
	if err != nil {
		return 0, err
	}
	target, err := fs.lookupLocked(directory, name)
	if err != nil {
		return 0, err
	}

	target.AccessTime = unixNow()
	if err := fs.writeInode(target); err != nil {
		return 0, err
	}

	return fs.openInumber(target.Inumber, flags), nil
}

const flagExcl = 0x80 // matches O_EXCL on Linux; only the bit we inspect.

// openInumber registers a new open reference on inumber and returns its
// file-descriptor handle. Callers must hold fs.mu.
func (fs *FS) openInumber(inumber uint64, flags uint32) int {
	fs.openRefs[inumber]++
	return fs.fdPool.Allocate(inumber, flags)
}

// Release closes handle, dropping its open reference. If the owning
// inode has also been unlinked down to zero hard links, it is
// deallocated now.
func (fs *FS) Release(handle int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	inumber, _, ok := fs.fdPool.Get(handle)
	if !ok {
		return ErrInvalidHandle
	}
	fs.fdPool.Free(handle)

	fs.openRefs[inumber]--
	if fs.openRefs[inumber] > 0 {
		return nil
	}
	delete(fs.openRefs, inumber)

	ino, err := fs.readInode(inumber)
	if err != nil {
		return err
	}
	if ino.Links == 0 {
		return fs.deallocateInode(ino)
	}
	return nil
}

// Read reads up to len(buf) bytes from handle's file at offset.
func (fs *FS) Read(handle int, offset uint64, buf []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	inumber, _, ok := fs.fdPool.Get(handle)
	if !ok {
		return 0, ErrInvalidHandle
	}
	ino, err := fs.readInode(inumber)
	if err != nil {
		return 0, err
	}

	if offset >= ino.Size {
		return 0, nil
	}
	if offset+uint64(len(buf)) > ino.Size {
		buf = buf[:ino.Size-offset]
	}

	return fs.ReadFile(ino, offset, buf)
}

// Write writes buf to handle's file at offset, extending it as needed.
func (fs *FS) Write(handle int, offset uint64, buf []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	inumber, _, ok := fs.fdPool.Get(handle)
	if !ok {
		return 0, ErrInvalidHandle
	}
	ino, err := fs.readInode(inumber)
	if err != nil {
		return 0, err
	}

	if offset/BlockSize >= DirectBlocks {
		return 0, ErrUnsupported
	}

	return fs.WriteFile(ino, offset, buf)
}

// Unlink removes path's directory entry, deallocating the target inode
// once both its hard-link and open-reference counts reach zero.
func (fs *FS) Unlink(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, isRoot, err := flatName(path)
	if err != nil {
		return err
	}
	if isRoot {
		return ErrUnsupported
	}

	directory, err := fs.rootInode()
	if err != nil {
		return err
	}

	it := fs.newDirIterator(directory)
	for {
		entry, _, ok, err := it.next()
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if entry.nameString() == name {
			return it.unlink(entry)
		}
	}
}

// DirEntry is one entry yielded by Readdir.
type DirEntry struct {
	Name    string
	Inumber uint64
	Mode    uint32
}

// Readdir lists path's entries. Only the root directory can be listed;
// it always yields synthetic "." and ".." entries first.
func (fs *FS) Readdir(path string) ([]DirEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, isRoot, err := flatName(path)
	if err != nil {
		return nil, err
	}
	if !isRoot {
		return nil, ErrNotFound
	}

	root, err := fs.rootInode()
	if err != nil {
		return nil, err
	}

	out := []DirEntry{
		{Name: ".", Inumber: root.Inumber, Mode: root.Mode},
		{Name: "..", Inumber: root.Inumber, Mode: root.Mode},
	}

	it := fs.newDirIterator(root)
	for {
		entry, inode, ok, err := it.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, DirEntry{Name: entry.nameString(), Inumber: inode.Inumber, Mode: inode.Mode})
	}

	return out, nil
}

// Opendir validates that path names a directory that can be opened.
// Only the root directory is supported in this flat filesystem.
func (fs *FS) Opendir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, isRoot, err := flatName(path)
	if err != nil {
		return err
	}
	if !isRoot {
		return ErrNotFound
	}
	return nil
}

// Mkdir and Rmdir are present as no-ops: the on-disk format has no
// mechanism to represent nested directories (see Non-goals). They
// succeed trivially, without ever creating or removing inodes, so that
// tools probing for directory support don't hard-fail. Rmdir still
// rejects removal of the root.
func (fs *FS) Mkdir(path string, mode, uid, gid uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return nil
}

func (fs *FS) Rmdir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, isRoot, err := flatName(path)
	if err != nil {
		return err
	}
	if isRoot {
		return ErrUnsupported
	}
	return nil
}
