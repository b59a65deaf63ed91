package sfs

// The inode block map resolves a file's logical block index (iblock) to
// a physical disk block via the inode's direct BlockPointers. Only
// direct blocks are supported: iblock must be < DirectBlocks.

// blockNumberFor returns the physical block number for ino's iblock'th
// logical block, or 0 if that logical block has never been written (a
// sparse hole). Callers must hold fs.mu.
func (fs *FS) blockNumberFor(ino *Inode, iblock uint64) (uint64, error) {
	if iblock >= DirectBlocks {
		return 0, ErrUnsupported
	}
	return ino.BlockPointers[iblock], nil
}

// readInodeBlock fills buf (which must be BlockSize bytes) with the
// contents of ino's iblock'th logical block, zero-filling on sparse
// holes. Callers must hold fs.mu.
func (fs *FS) readInodeBlock(ino *Inode, iblock uint64, buf []byte) error {
	if iblock >= DirectBlocks {
		return ErrUnsupported
	}

	blockNum := ino.BlockPointers[iblock]
	if blockNum == 0 {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}

	if err := fs.checkDataBlockRange(iblock, blockNum); err != nil {
		return err
	}

	_, err := blockRead(fs.disk, blockNum, buf)
	return err
}

// writeInodeBlock writes buf (BlockSize bytes) to ino's iblock'th logical
// block, lazily allocating a physical block and persisting the updated
// inode if this is the first write to that logical block. Callers must
// hold fs.mu.
func (fs *FS) writeInodeBlock(ino *Inode, iblock uint64, buf []byte) error {
	if iblock >= DirectBlocks {
		return ErrUnsupported
	}

	blockNum := ino.BlockPointers[iblock]
	if blockNum == 0 {
		allocated, err := fs.allocateBlock()
		if err != nil {
			return err
		}
		blockNum = allocated
		ino.BlockPointers[iblock] = blockNum
		if err := fs.writeInode(ino); err != nil {
			return err
		}
	}

	if err := fs.checkDataBlockRange(iblock, blockNum); err != nil {
		return err
	}

	return blockWrite(fs.disk, blockNum, buf)
}

// checkDataBlockRange guards against a corrupt block pointer sending I/O
// outside the data region (past the inode table, short of the disk end).
func (fs *FS) checkDataBlockRange(iblock, blockNum uint64) error {
	if blockNum < fs.sb.InodeTableBlocks+1 || blockNum >= fs.sb.Blocks {
		Log.Error().
			Uint64("iblock", iblock).
			Uint64("block", blockNum).
			Msg("inode block pointer outside data region")
		return ErrCorruptState
	}
	return nil
}
