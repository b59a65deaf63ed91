package sfs

import "fmt"

// FsckReport summarizes a consistency walk over an open filesystem: the
// counts §8's invariants are phrased in terms of, plus any problems
// found while walking them.
type FsckReport struct {
	Inodes           uint64
	FreeInodes       uint64
	LiveInodes       uint64
	Blocks           uint64
	FreeBlocks       uint64
	ReferencedBlocks uint64
	ReservedBlocks   uint64

	Problems []string
}

// Clean reports whether the walk found no inconsistencies.
func (r *FsckReport) Clean() bool {
	return len(r.Problems) == 0
}

// Fsck walks the free-inode list, the free-block chain, and every live
// inode's block pointers, cross-checking the counting invariants from
// §8: free + live + unreachable-free inodes sum to the inode count, and
// free + referenced + reserved blocks sum to the block count, with no
// block claimed twice.
func (fs *FS) Fsck() (*FsckReport, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	report := &FsckReport{
		Inodes:         fs.sb.Inodes,
		Blocks:         fs.sb.Blocks,
		ReservedBlocks: 1 + fs.sb.InodeTableBlocks,
	}

	seenFreeInodes := make(map[uint64]bool)
	for n := fs.sb.FreeInodeHead; n != 0; {
		if seenFreeInodes[n] {
			report.Problems = append(report.Problems, fmt.Sprintf("free-inode list cycles at inumber %d", n))
			break
		}
		seenFreeInodes[n] = true
		report.FreeInodes++

		ino, err := fs.readInode(n)
		if err != nil {
			return nil, err
		}
		n = ino.Size
	}

	seenBlocks := make(map[uint64]string)
	for n := fs.sb.FreeBlocksHead; n != 0; {
		if owner, ok := seenBlocks[n]; ok {
			report.Problems = append(report.Problems, fmt.Sprintf("block %d already claimed by %s", n, owner))
			break
		}
		seenBlocks[n] = "free list"
		report.FreeBlocks++

		index := make([]byte, BlockSize)
		if _, err := blockRead(fs.disk, n, index); err != nil {
			return nil, err
		}
		slots := decodeIndexSlots(index)
		for i := 1; i < indexSlotsPerBlock; i++ {
			if slots[i] != 0 {
				report.FreeBlocks++
				if owner, ok := seenBlocks[slots[i]]; ok {
					report.Problems = append(report.Problems, fmt.Sprintf("block %d already claimed by %s", slots[i], owner))
				}
				seenBlocks[slots[i]] = "free list"
			}
		}
		n = slots[0]
	}

	for inumber := uint64(1); inumber <= fs.sb.Inodes; inumber++ {
		if seenFreeInodes[inumber] {
			continue
		}
		ino, err := fs.readInode(inumber)
		if err != nil {
			return nil, err
		}
		if ino.Links == 0 && inumber != RootInumber {
			continue // unreachable and not free: orphaned, but not this walk's concern
		}
		report.LiveInodes++

		for _, block := range ino.BlockPointers[:DirectBlocks] {
			if block == 0 {
				continue
			}
			report.ReferencedBlocks++
			if owner, ok := seenBlocks[block]; ok {
				report.Problems = append(report.Problems, fmt.Sprintf("block %d referenced by inode %d but already claimed by %s", block, inumber, owner))
			}
			seenBlocks[block] = fmt.Sprintf("inode %d", inumber)
		}
	}

	if report.FreeInodes+report.LiveInodes > report.Inodes {
		report.Problems = append(report.Problems, "free+live inode count exceeds total inodes")
	}
	if report.FreeBlocks+report.ReferencedBlocks+report.ReservedBlocks != report.Blocks {
		report.Problems = append(report.Problems, fmt.Sprintf(
			"block accounting mismatch: free(%d)+referenced(%d)+reserved(%d) != total(%d)",
			report.FreeBlocks, report.ReferencedBlocks, report.ReservedBlocks, report.Blocks))
	}

	return report, nil
}
