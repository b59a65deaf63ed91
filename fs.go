// Package sfs implements the core storage engine of a single-diskfile,
// FUSE-served filesystem: the superblock, inode table with its write-back
// cache, free-inode and free-block allocators, the inode block map,
// directory entry management, the file-descriptor pool, and byte-range
// file I/O. FUSE dispatch itself lives in the fuseserver package; sfs only
// implements the operation vocabulary that collaborator calls into.
package sfs

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// FS is an open sfs filesystem. All exported methods acquire FS's single
// process-wide lock on entry and release it before every return path, per
// §5's concurrency model: the FUSE layer is expected to run single-
// threaded/evented, and this lock is defensive insurance against that
// assumption ever being violated. ReadFile and WriteFile are the
// exceptions: they take no lock, and Read and Write call them with it
// already held.
type FS struct {
	mu sync.Mutex

	disk *os.File
	sb   Superblock

	cache  inodeCache
	fdPool *FDPool

	// openRefs counts live open handles per inumber, independent of
	// on-disk hard-link count. Splitting these apart is the §9 REDESIGN
	// FLAG fix: the original conflates "directory hard link" with "open
	// reference" by bumping links on open and dropping it on release,
	// which double-counts a file that is both open and hard-linked
	// more than once. Here Links is the true hard-link count and an
	// inode is only deallocated once both it and openRefs reach zero.
	openRefs map[uint64]int

	// sessionID tags this open's log lines so repeated mounts in the same
	// sfs.log can be told apart.
	sessionID uuid.UUID
}

// Open opens disk as an sfs filesystem. If the signature does not match
// and format is true, the disk is formatted first (see Format). If the
// signature does not match and format is false, Open fails with
// ErrNotFormatted — the REDESIGN FLAG in spec §9 rejects the original's
// "format anyway" fallback.
func Open(disk *os.File, format bool) (*FS, error) {
	fs := &FS{
		disk:      disk,
		fdPool:    NewFDPool(),
		openRefs:  make(map[uint64]int),
		sessionID: uuid.New(),
	}
	fs.cache.blockNumber = 0 // sentinel: misses on first use, as block 0 is the superblock

	head := make([]byte, BlockSize)
	if _, err := blockRead(disk, 0, head); err != nil {
		return nil, fmt.Errorf("sfs: reading superblock: %w", err)
	}

	if !hasValidSignature(head) {
		if !format {
			Log.Error().Msg("open: disk is unformatted and format=false")
			return nil, ErrNotFormatted
		}
		if err := fs.formatLocked(); err != nil {
			return nil, err
		}
		return fs, nil
	}

	if err := fs.sb.UnmarshalBinary(head); err != nil {
		return nil, fmt.Errorf("sfs: decoding superblock: %w", err)
	}
	if err := fs.sb.Validate(); err != nil {
		return nil, err
	}

	Log.Info().
		Str("session", fs.sessionID.String()).
		Uint64("inodes", fs.sb.Inodes).
		Uint64("blocks", fs.sb.Blocks).
		Msg("open: mounted existing sfs filesystem")

	return fs, nil
}

// Close flushes the inode cache and persists the superblock. The backing
// disk file is left open; the caller closes it.
func (fs *FS) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.cache.dirty {
		if err := blockWrite(fs.disk, fs.cache.blockNumber, fs.cache.data[:]); err != nil {
			Log.Error().Err(err).Msg("close: inode cache write-back failed")
			return fmt.Errorf("sfs: flushing inode cache: %w", err)
		}
		fs.cache.dirty = false
	}

	if err := fs.writeSuperblock(); err != nil {
		Log.Error().Err(err).Msg("close: writing superblock failed")
		return err
	}

	return nil
}

// writeSuperblock persists the in-memory superblock to block 0. Callers
// must hold fs.mu.
func (fs *FS) writeSuperblock() error {
	data, err := fs.sb.MarshalBinary()
	if err != nil {
		return err
	}
	return blockWrite(fs.disk, 0, data)
}

// Superblock returns a copy of the filesystem's current superblock, for
// diagnostics (cmd/sfsd fsck) and tests.
func (fs *FS) Superblock() Superblock {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.sb
}
