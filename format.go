package sfs

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// minDiskBlocks is the smallest disk (in blocks) that can hold a
// superblock, at least one inode-table block, and at least one data
// block.
const minDiskBlocks = 3

// Format lays a fresh sfs filesystem onto disk, discarding anything
// already there, and returns an FS open on it. disk's current size
// determines the block count; callers that want a specific size should
// preallocateDisk first.
func Format(disk *os.File) (*FS, error) {
	fs := &FS{disk: disk, fdPool: NewFDPool(), openRefs: make(map[uint64]int)}
	if err := fs.formatLocked(); err != nil {
		return nil, err
	}
	return fs, nil
}

// formatLocked performs the actual format. It does not take fs.mu: it is
// called either from Format (before fs is shared with anyone) or from
// Open (before fs has left the constructor).
func (fs *FS) formatLocked() error {
	st, err := fs.disk.Stat()
	if err != nil {
		return fmt.Errorf("sfs: stat disk: %w", err)
	}
	blocks := uint64(st.Size()) / BlockSize
	if blocks < minDiskBlocks {
		return ErrTooSmall
	}

	Log.Info().Uint64("blocks", blocks).Msg("format: partitioning disk")

	sb := Superblock{
		CreateTime: unixNow(),
		BlockSize:  BlockSize,
		Blocks:     blocks,
	}
	sb.InodeTableBlocks = (blocks - 1) / 16
	if sb.InodeTableBlocks == 0 {
		sb.InodeTableBlocks = 1
	}
	sb.Inodes = sb.InodeTableBlocks * inodesPerBlock
	sb.FreeBlocksHead = 1 + sb.InodeTableBlocks
	sb.FreeInodeHead = 2

	if err := fs.formatInodeTable(&sb); err != nil {
		return err
	}
	if err := fs.formatFreeBlockIndex(&sb); err != nil {
		return err
	}

	fs.sb = sb
	fs.cache.blockNumber = 0
	fs.cache.dirty = false

	if err := fs.writeSuperblock(); err != nil {
		return fmt.Errorf("sfs: writing superblock: %w", err)
	}

	Log.Info().
		Uint64("inodes", sb.Inodes).
		Uint64("inode_table_blocks", sb.InodeTableBlocks).
		Msg("format: complete")

	return nil
}

// formatInodeTable zeroes every inode-table block, threads inumbers
// 2..N through the free-inode list via the overloaded Size field, and
// populates inumber 1 as the root directory.
func (fs *FS) formatInodeTable(sb *Superblock) error {
	uid, gid := uint32(unix.Getuid()), uint32(unix.Getgid())
	now := unixNow()

	nextFree := uint64(3)
	for block := uint64(1); block < sb.InodeTableBlocks+1; block++ {
		buf := make([]byte, BlockSize)
		for slot := 0; slot < inodesPerBlock; slot++ {
			var ino Inode
			if block == 1 && slot == 0 {
				ino = Inode{
					Inumber:    RootInumber,
					Mode:       rootDirMode,
					Uid:        uid,
					Gid:        gid,
					Links:      1,
					AccessTime: now,
					ModTime:    now,
					ChangeTime: now,
				}
			} else {
				inumber := nextFree - 1
				nextFree++
				ino = Inode{Inumber: inumber}
				if inumber < sb.Inodes {
					ino.Size = inumber + 1
				}
			}

			enc, err := ino.MarshalBinary()
			if err != nil {
				return err
			}
			copy(buf[slot*inodeRecordSize:], enc)
		}

		if err := blockWrite(fs.disk, block, buf); err != nil {
			return fmt.Errorf("sfs: initializing inode block %d: %w", block, err)
		}
	}

	return nil
}

// formatFreeBlockIndex lays out the initial free-block chain covering
// every block from FreeBlocksHead to Blocks-1: the chain's own index
// nodes are carved out of the front of that range, following the original
// layout so the blocks that describe the free list are themselves part
// of it.
func (fs *FS) formatFreeBlockIndex(sb *Superblock) error {
	freeBlocks := sb.Blocks - sb.FreeBlocksHead
	slotsPerBlock := uint64(BlockSize/8 - 1)
	firstFreeBlock := sb.FreeBlocksHead + freeBlocks - (freeBlocks * slotsPerBlock / (slotsPerBlock + 1))

	curIndexBlock := sb.FreeBlocksHead
	curPos := 0
	buf := make([]byte, BlockSize)

	for i := firstFreeBlock; i < sb.Blocks; i++ {
		if curPos == indexSlotsPerBlock {
			curIndexBlock++
			curPos = 0
			buf = make([]byte, BlockSize)
		}

		if curPos == 0 {
			var next uint64
			if curIndexBlock < firstFreeBlock-1 {
				next = curIndexBlock + 1
			}
			binary.LittleEndian.PutUint64(buf[0:8], next)
			curPos++
		}
		binary.LittleEndian.PutUint64(buf[curPos*8:curPos*8+8], i)
		curPos++

		if curPos == indexSlotsPerBlock {
			if err := blockWrite(fs.disk, curIndexBlock, buf); err != nil {
				return fmt.Errorf("sfs: initializing free block index %d: %w", curIndexBlock, err)
			}
		}
	}

	if curPos > 0 && curPos < indexSlotsPerBlock {
		if err := blockWrite(fs.disk, curIndexBlock, buf); err != nil {
			return fmt.Errorf("sfs: initializing free block index %d: %w", curIndexBlock, err)
		}
	}

	return nil
}
