package sfs

import (
	"os"

	"golang.org/x/sys/unix"
)

// BlockSize is the fixed size, in bytes, of every block on an sfs disk,
// including the superblock and every inode and data block.
const BlockSize = 512

// blockRead reads block number blockNum from disk into buf, which must be
// exactly BlockSize bytes. It returns BlockSize on a full read, 0 if the
// block has never been touched (a short read past the end of a sparse
// diskfile), or a negative value paired with a non-nil error. In the 0 and
// error cases buf is zeroed, matching the "never touched" vs "error" vs
// "success" contract of the original block_read().
func blockRead(disk *os.File, blockNum uint64, buf []byte) (int, error) {
	if len(buf) != BlockSize {
		panic("sfs: blockRead buffer must be exactly BlockSize")
	}

	n, err := unix.Pread(int(disk.Fd()), buf, int64(blockNum)*BlockSize)
	if n <= 0 {
		for i := range buf {
			buf[i] = 0
		}
		if err != nil {
			return -1, err
		}
		return 0, nil
	}
	if n != BlockSize {
		// partial read: treat the remainder as zero, consistent with a
		// diskfile whose tail block was never fully written.
		for i := n; i < BlockSize; i++ {
			buf[i] = 0
		}
	}
	return n, nil
}

// blockWrite writes buf, which must be exactly BlockSize bytes, to block
// number blockNum. It returns an error unless the full block was written.
func blockWrite(disk *os.File, blockNum uint64, buf []byte) error {
	if len(buf) != BlockSize {
		panic("sfs: blockWrite buffer must be exactly BlockSize")
	}

	n, err := unix.Pwrite(int(disk.Fd()), buf, int64(blockNum)*BlockSize)
	if err != nil {
		return err
	}
	if n != BlockSize {
		return ErrIOShortWrite
	}
	return nil
}

// ErrIOShortWrite is returned when a block write does not cover the full
// block, which the underlying positional write contract never permits.
var ErrIOShortWrite = &ioError{"short write"}

type ioError struct{ msg string }

func (e *ioError) Error() string { return "sfs: " + e.msg }

// preallocateDisk grows and reserves disk space for a diskfile of the given
// number of blocks, using fallocate(2) when available so the backing file
// is genuinely preallocated rather than sparse, per the "preallocated
// backing file" requirement of the on-disk format.
func preallocateDisk(disk *os.File, blocks uint64) error {
	return PreallocateDisk(disk, int64(blocks)*BlockSize)
}

// PreallocateDisk reserves sizeBytes of space in disk via fallocate(2),
// falling back to a plain truncate on filesystems that don't support it
// (e.g. some tmpfs configurations). Exported for cmd/sfsd's format
// command, which sizes a fresh diskfile before calling Format.
func PreallocateDisk(disk *os.File, sizeBytes int64) error {
	if err := unix.Fallocate(int(disk.Fd()), 0, 0, sizeBytes); err != nil {
		return disk.Truncate(sizeBytes)
	}
	return nil
}
