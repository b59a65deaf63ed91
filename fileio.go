package sfs

// blockRange computes the inclusive logical-block span [firstBlock,
// lastBlock] touched by a byte range [offset, offset+size), along with
// the byte offsets within the first and one-past-last byte within the
// last block, per §4.9's formula. end block-aligned is a special case:
// the span ends one block earlier, with a full 512-byte tail slice.
func blockRange(offset, size uint64) (firstBlock, lastBlock, firstOffset, lastLen uint64) {
	firstBlock = offset / BlockSize
	firstOffset = offset % BlockSize

	end := offset + size
	if end%BlockSize == 0 {
		lastLen = BlockSize
		lastBlock = end/BlockSize - 1
	} else {
		lastLen = end % BlockSize
		lastBlock = end / BlockSize
	}
	return
}

// ReadFile reads up to len(buf) bytes from ino starting at offset,
// zero-filling any sparse holes. It returns the number of bytes copied
// into buf, which is always len(buf) on success (short reads are not
// modeled; callers clamp size against inode.Size beforehand). Access
// time is bumped and the inode persisted before any data transfer.
func (fs *FS) ReadFile(ino *Inode, offset uint64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	ino.AccessTime = unixNow()
	if err := fs.writeInode(ino); err != nil {
		return 0, err
	}

	firstBlock, lastBlock, firstOffset, lastLen := blockRange(offset, uint64(len(buf)))

	scratch := make([]byte, BlockSize)
	written := 0
	for iblock := firstBlock; iblock <= lastBlock; iblock++ {
		a := uint64(0)
		if iblock == firstBlock {
			a = firstOffset
		}
		b := uint64(BlockSize)
		if iblock == lastBlock {
			b = lastLen
		}

		if a == 0 && b == BlockSize {
			if err := fs.readInodeBlock(ino, iblock, buf[written:written+BlockSize]); err != nil {
				return written, err
			}
			written += BlockSize
			continue
		}

		if err := fs.readInodeBlock(ino, iblock, scratch); err != nil {
			return written, err
		}
		n := copy(buf[written:], scratch[a:b])
		written += n
	}

	return written, nil
}

// WriteFile writes buf to ino starting at offset, extending inode.Size
// and allocating blocks lazily as needed. It returns len(buf) on
// success.
func (fs *FS) WriteFile(ino *Inode, offset uint64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	newSize := offset + uint64(len(buf))
	if newSize > ino.Size {
		ino.Size = newSize
		ino.ChangeTime = unixNow()
	}
	if err := fs.writeInode(ino); err != nil {
		return 0, err
	}

	firstBlock, lastBlock, firstOffset, lastLen := blockRange(offset, uint64(len(buf)))

	scratch := make([]byte, BlockSize)
	read := 0
	for iblock := firstBlock; iblock <= lastBlock; iblock++ {
		a := uint64(0)
		if iblock == firstBlock {
			a = firstOffset
		}
		b := uint64(BlockSize)
		if iblock == lastBlock {
			b = lastLen
		}

		if a == 0 && b == BlockSize {
			if err := fs.writeInodeBlock(ino, iblock, buf[read:read+BlockSize]); err != nil {
				return read, err
			}
			read += BlockSize
			continue
		}

		if err := fs.readInodeBlock(ino, iblock, scratch); err != nil {
			return read, err
		}
		n := copy(scratch[a:b], buf[read:])
		if err := fs.writeInodeBlock(ino, iblock, scratch); err != nil {
			return read, err
		}
		read += n
	}

	return read, nil
}
