package sfs

// Free inodes form a singly linked list threaded through the unused
// (while free) Size field of each inode record: Superblock.FreeInodeHead
// names the first free inumber, and each free inode's Size names the
// next one, 0 terminating the chain. Allocation and deallocation are
// O(1): pop or push the head, no scan required.

// allocateInode pops the head of the free-inode list, returning it ready
// to be populated by the caller. BlockPointers are zero (from formatting
// or a prior deallocateInode); Mode, Uid, Gid and the timestamps may still
// hold a previous owner's values, since deallocateInode leaves them as
// they were. Callers must hold fs.mu.
func (fs *FS) allocateInode() (*Inode, error) {
	inumber := fs.sb.FreeInodeHead
	if inumber == 0 {
		return nil, ErrOutOfInodes
	}

	ino, err := fs.readInode(inumber)
	if err != nil {
		return nil, err
	}

	fs.sb.FreeInodeHead = ino.Size
	if err := fs.writeSuperblock(); err != nil {
		return nil, err
	}

	return ino, nil
}

// deallocateInode returns ino's inumber to the free-inode list and frees
// every direct block it still points to. Callers must hold fs.mu; ino
// must not be referenced again afterward.
func (fs *FS) deallocateInode(ino *Inode) error {
	for _, block := range ino.BlockPointers[:DirectBlocks] {
		if block == 0 {
			continue
		}
		if err := fs.freeBlock(block); err != nil {
			return err
		}
	}
	ino.BlockPointers = [totalBlockPointers]uint64{}

	ino.Size = fs.sb.FreeInodeHead
	if err := fs.writeInode(ino); err != nil {
		return err
	}

	fs.sb.FreeInodeHead = ino.Inumber
	return fs.writeSuperblock()
}
