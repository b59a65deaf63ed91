package sfs

// inodeCache is the single-entry write-back cache for inode-table blocks
// described in §4.3: one dirty flag, the number of the cached block, and
// its raw payload. There is deliberately no replacement policy beyond
// "evict on miss" — the inode table is read and written one record at a
// time, and callers that touch many inodes in a loop benefit from staying
// on the same block across consecutive calls.
type inodeCache struct {
	dirty       bool
	blockNumber uint64
	data        [BlockSize]byte
}

// ensureBlock makes sure the cache holds block. If the cache currently
// holds a different, dirty block, that block is flushed first. Block 0
// is the superblock and is never a valid inode-table block, so using it
// as the initial sentinel value is safe: the first real call always
// misses.
func (fs *FS) ensureBlock(block uint64) error {
	if fs.cache.blockNumber == block && block != 0 {
		return nil
	}
	if fs.cache.dirty {
		if err := blockWrite(fs.disk, fs.cache.blockNumber, fs.cache.data[:]); err != nil {
			return err
		}
		fs.cache.dirty = false
	}
	if _, err := blockRead(fs.disk, block, fs.cache.data[:]); err != nil {
		return err
	}
	fs.cache.blockNumber = block
	return nil
}

// readInode loads the inode record for inumber through the cache.
// Callers must hold fs.mu.
func (fs *FS) readInode(inumber uint64) (*Inode, error) {
	block, slot := inodeLocation(inumber)
	if err := fs.ensureBlock(block); err != nil {
		return nil, err
	}

	off := slot * inodeRecordSize
	ino := &Inode{}
	if err := ino.UnmarshalBinary(fs.cache.data[off : off+inodeRecordSize]); err != nil {
		return nil, err
	}
	ino.Inumber = inumber
	return ino, nil
}

// writeInode stores ino's record back through the cache and marks the
// cached block dirty. Callers must hold fs.mu.
func (fs *FS) writeInode(ino *Inode) error {
	block, slot := inodeLocation(ino.Inumber)
	if err := fs.ensureBlock(block); err != nil {
		return err
	}

	enc, err := ino.MarshalBinary()
	if err != nil {
		return err
	}
	off := slot * inodeRecordSize
	copy(fs.cache.data[off:off+inodeRecordSize], enc)
	fs.cache.dirty = true
	return nil
}

// flushInodeCache writes the cached block back to disk if dirty, without
// changing which block is cached. Callers must hold fs.mu.
func (fs *FS) flushInodeCache() error {
	if !fs.cache.dirty {
		return nil
	}
	if err := blockWrite(fs.disk, fs.cache.blockNumber, fs.cache.data[:]); err != nil {
		return err
	}
	fs.cache.dirty = false
	return nil
}
