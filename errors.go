package sfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrNotFound is returned when a path component does not exist.
	ErrNotFound = errors.New("sfs: no such file or directory")

	// ErrNameTooLong is returned when a path component exceeds 255 bytes.
	ErrNameTooLong = errors.New("sfs: name too long")

	// ErrExists is returned on an O_EXCL create conflict.
	ErrExists = errors.New("sfs: file already exists")

	// ErrOutOfInodes is returned when the free-inode list is exhausted.
	ErrOutOfInodes = errors.New("sfs: out of inodes")

	// ErrOutOfBlocks is returned when the free-block list is exhausted.
	ErrOutOfBlocks = errors.New("sfs: out of blocks")

	// ErrInvalidHandle is returned for an unknown file-descriptor handle.
	ErrInvalidHandle = errors.New("sfs: invalid file handle")

	// ErrCorruptState is returned when a block pointer falls outside the valid range.
	ErrCorruptState = errors.New("sfs: corrupt filesystem state")

	// ErrUnsupported is returned for indirect-block access or directory
	// traversal beyond the root, neither of which this implementation does.
	ErrUnsupported = errors.New("sfs: operation not supported")

	// ErrNotFormatted is returned by Open when the disk signature does not
	// match and the caller did not ask for an implicit format.
	ErrNotFormatted = errors.New("sfs: disk is not an sfs filesystem")

	// ErrTooSmall is returned by Format when the disk is smaller than the
	// minimum of 3 blocks.
	ErrTooSmall = errors.New("sfs: disk too small to hold a filesystem")

	// ErrInvalidSuperblock is returned when the superblock fails sanity checks.
	ErrInvalidSuperblock = errors.New("sfs: invalid superblock")

	// ErrNotDirectory is returned when a directory operation targets a regular file.
	ErrNotDirectory = errors.New("sfs: not a directory")
)
